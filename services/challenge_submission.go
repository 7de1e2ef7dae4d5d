package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutor-marketplace/events"
	"tutor-marketplace/models"
	"tutor-marketplace/utils"
)

type ChallengeSubmissionService struct {
	DB     *gorm.DB
	Points *PointsService
	Badges *BadgeService
	Events *events.Dispatcher
	Rules  RewardRules
	Log    *zap.Logger
	now    func() time.Time
}

func NewChallengeSubmissionService(db *gorm.DB, points *PointsService, badges *BadgeService, dispatcher *events.Dispatcher, rules RewardRules, logger *zap.Logger) *ChallengeSubmissionService {
	return &ChallengeSubmissionService{
		DB:     db,
		Points: points,
		Badges: badges,
		Events: dispatcher,
		Rules:  rules,
		Log:    logger,
		now:    time.Now,
	}
}

// Submit enters a student into an open challenge.
func (s *ChallengeSubmissionService) Submit(ctx context.Context, challengeID, studentID uint, content string) (*models.ChallengeSubmission, error) {
	var sub models.ChallengeSubmission
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var challenge models.Challenge
		if err := tx.First(&challenge, challengeID).Error; err != nil {
			return notFound(err, "challenge", challengeID)
		}
		if !challenge.OpenAt(s.now()) {
			return ErrChallengeClosed
		}

		var open int64
		if err := tx.Model(&models.ChallengeSubmission{}).
			Where("challenge_id = ? AND student_id = ? AND status IN ?", challengeID, studentID,
				[]string{models.SubmissionSubmitted, models.SubmissionApproved}).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return ErrDuplicate
		}

		sub = models.ChallengeSubmission{
			ChallengeID: challengeID,
			StudentID:   studentID,
			Content:     utils.SanitizeHTML(content),
			Review:      models.Review{Status: models.SubmissionSubmitted},
		}
		return tx.Create(&sub).Error
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("[SUBMISSION] challenge entry received",
		zap.Uint("submission_id", sub.ID), zap.Uint("challenge_id", challengeID), zap.Uint("student_id", studentID))
	return &sub, nil
}

// EvaluateSubmission closes a submitted challenge entry. Approved entries earn the
// challenge reward plus the rating bonuses when a rating is given.
func (s *ChallengeSubmissionService) EvaluateSubmission(ctx context.Context, submissionID uint, in EvaluationInput, reviewerID uint, schoolID, teacherID *uint, byAdmin bool) (*models.ChallengeSubmission, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	reviewer := Reviewer{ID: reviewerID, SchoolID: schoolID, TeacherID: teacherID, ByAdmin: byAdmin}

	var sub models.ChallengeSubmission
	var pending []events.Event
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadReviewer(tx, reviewerID); err != nil {
			return err
		}
		if err := tx.Preload("Challenge").First(&sub, submissionID).Error; err != nil {
			return notFound(err, "challenge submission", submissionID)
		}
		if sub.Status != models.SubmissionSubmitted {
			return ErrAlreadyReviewed
		}

		var points int64
		if in.Status == models.SubmissionApproved {
			points = s.Rules.ChallengePoints(sub.Challenge.PointsReward, in.rating())
		}
		if err := closeReview(tx, &models.ChallengeSubmission{}, sub.ID, in, points, reviewer, s.now()); err != nil {
			return err
		}

		if points > 0 {
			ref := sub.ID
			_, evts, err := s.Points.AwardPointsTx(tx, Award{
				UserID:        sub.StudentID,
				Amount:        points,
				Source:        models.SourceChallenge,
				ReferenceID:   &ref,
				DescriptionEn: fmt.Sprintf("Challenge entry approved: %s", sub.Challenge.Title),
				DescriptionAr: fmt.Sprintf("تم قبول المشاركة في التحدي: %s", sub.Challenge.Title),
			})
			if err != nil {
				return err
			}
			pending = append(pending, evts...)
		}

		if in.Status == models.SubmissionApproved {
			granted, err := s.Badges.GrantBadges(tx, sub.StudentID, in.Badges, &reviewerID, "challenge: "+sub.Challenge.Title)
			if err != nil {
				return err
			}
			pending = append(pending, badgeEvents(sub.StudentID, granted, &reviewerID)...)
		}

		challenge := sub.Challenge
		if err := tx.First(&sub, sub.ID).Error; err != nil {
			return err
		}
		sub.Challenge = challenge
		return nil
	})
	if err != nil {
		return nil, err
	}

	pending = append(pending, events.ChallengeSubmissionReviewed{
		SubmissionID:   sub.ID,
		ChallengeID:    sub.ChallengeID,
		ChallengeTitle: sub.Challenge.Title,
		StudentID:      sub.StudentID,
		ReviewerID:     reviewerID,
		Status:         sub.Status,
		Rating:         in.rating(),
		Points:         sub.PointsEarned,
	})
	s.Events.Dispatch(ctx, pending...)

	s.Log.Info("[REVIEW] challenge submission evaluated",
		zap.Uint("submission_id", sub.ID),
		zap.String("status", sub.Status),
		zap.Int64("points", sub.PointsEarned),
		zap.String("reviewer_type", reviewer.kind()))
	return &sub, nil
}
