package services

import "math"

const (
	HighRatingThreshold      = 4.0
	ExcellentRatingThreshold = 4.5
)

// RewardRules define point values (tunable via env).
type RewardRules struct {
	HighRatingBonus      int64 // rating >= 4
	ExcellentRatingBonus int64 // rating >= 4.5, on top of HighRatingBonus
	PublicationPoints    int64
}

var DefaultRewardRules = RewardRules{
	HighRatingBonus:      5,
	ExcellentRatingBonus: 5,
	PublicationPoints:    20,
}

// RatingBonus is the extra award for a high rating.
func (r RewardRules) RatingBonus(rating float64) int64 {
	var bonus int64
	if rating >= HighRatingThreshold {
		bonus += r.HighRatingBonus
	}
	if rating >= ExcellentRatingThreshold {
		bonus += r.ExcellentRatingBonus
	}
	return bonus
}

// ProjectPoints = round(rating*2) + rating bonus.
func (r RewardRules) ProjectPoints(rating float64) int64 {
	return int64(math.Round(rating*2)) + r.RatingBonus(rating)
}

// ChallengePoints = the challenge reward + rating bonus.
func (r RewardRules) ChallengePoints(reward int64, rating float64) int64 {
	return reward + r.RatingBonus(rating)
}
