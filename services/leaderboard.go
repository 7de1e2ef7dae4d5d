package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutor-marketplace/events"
	"tutor-marketplace/models"
	"tutor-marketplace/utils"
)

const (
	leaderboardKey  = "leaderboard:top"
	leaderboardSize = 100
)

type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Points int64  `json:"points"`
}

// LeaderboardService ranks students by points. The top list is cached and dropped
// whenever points are awarded.
type LeaderboardService struct {
	DB    *gorm.DB
	Cache utils.Cache
	TTL   time.Duration
	Log   *zap.Logger
}

func NewLeaderboardService(db *gorm.DB, cache utils.Cache, ttl time.Duration, logger *zap.Logger) *LeaderboardService {
	if cache == nil {
		cache = utils.NopCache{}
	}
	return &LeaderboardService{DB: db, Cache: cache, TTL: ttl, Log: logger}
}

func (s *LeaderboardService) Register(d *events.Dispatcher) {
	d.Subscribe(events.NamePointsAwarded, func(ctx context.Context, _ events.Event) error {
		s.Cache.Delete(ctx, leaderboardKey)
		return nil
	})
}

// Top returns up to limit entries, highest points first; ties go to the older account.
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit < 1 || limit > leaderboardSize {
		limit = 10
	}

	var entries []LeaderboardEntry
	if !s.Cache.GetJSON(ctx, leaderboardKey, &entries) {
		var users []models.User
		if err := s.DB.WithContext(ctx).
			Select("id", "name", "points").
			Where("role = ? AND points > 0", models.RoleStudent).
			Order("points DESC").Order("id ASC").
			Limit(leaderboardSize).
			Find(&users).Error; err != nil {
			return nil, err
		}
		entries = make([]LeaderboardEntry, 0, len(users))
		for i, u := range users {
			entries = append(entries, LeaderboardEntry{Rank: i + 1, UserID: u.ID, Name: u.Name, Points: u.Points})
		}
		s.Cache.SetJSON(ctx, leaderboardKey, entries, s.TTL)
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
