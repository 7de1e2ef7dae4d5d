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

// SubmissionService handles project submissions and their evaluation.
type SubmissionService struct {
	DB     *gorm.DB
	Points *PointsService
	Badges *BadgeService
	Events *events.Dispatcher
	Rules  RewardRules
	Log    *zap.Logger
	now    func() time.Time
}

func NewSubmissionService(db *gorm.DB, points *PointsService, badges *BadgeService, dispatcher *events.Dispatcher, rules RewardRules, logger *zap.Logger) *SubmissionService {
	return &SubmissionService{
		DB:     db,
		Points: points,
		Badges: badges,
		Events: dispatcher,
		Rules:  rules,
		Log:    logger,
		now:    time.Now,
	}
}

// Submit records a student's entry for a project. A student keeps at most one open or
// approved entry per project.
func (s *SubmissionService) Submit(ctx context.Context, projectID, studentID uint, content string) (*models.ProjectSubmission, error) {
	var sub models.ProjectSubmission
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, projectID).Error; err != nil {
			return notFound(err, "project", projectID)
		}

		var open int64
		if err := tx.Model(&models.ProjectSubmission{}).
			Where("project_id = ? AND student_id = ? AND status IN ?", projectID, studentID,
				[]string{models.SubmissionSubmitted, models.SubmissionApproved}).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return ErrDuplicate
		}

		sub = models.ProjectSubmission{
			ProjectID: projectID,
			StudentID: studentID,
			Content:   utils.SanitizeHTML(content),
			Review:    models.Review{Status: models.SubmissionSubmitted},
		}
		return tx.Create(&sub).Error
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("[SUBMISSION] project entry received",
		zap.Uint("submission_id", sub.ID), zap.Uint("project_id", projectID), zap.Uint("student_id", studentID))
	return &sub, nil
}

// EvaluateSubmission closes a submitted project entry. Approved entries earn
// round(rating*2) plus the rating bonuses and any listed achievement badges.
func (s *SubmissionService) EvaluateSubmission(ctx context.Context, submissionID uint, in EvaluationInput, reviewerID uint, schoolID, teacherID *uint, byAdmin bool) (*models.ProjectSubmission, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	reviewer := Reviewer{ID: reviewerID, SchoolID: schoolID, TeacherID: teacherID, ByAdmin: byAdmin}

	var sub models.ProjectSubmission
	var pending []events.Event
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadReviewer(tx, reviewerID); err != nil {
			return err
		}
		if err := tx.Preload("Project").First(&sub, submissionID).Error; err != nil {
			return notFound(err, "project submission", submissionID)
		}
		if sub.Status != models.SubmissionSubmitted {
			return ErrAlreadyReviewed
		}

		var points int64
		if in.Status == models.SubmissionApproved {
			points = s.Rules.ProjectPoints(in.rating())
		}
		if err := closeReview(tx, &models.ProjectSubmission{}, sub.ID, in, points, reviewer, s.now()); err != nil {
			return err
		}

		if points > 0 {
			ref := sub.ID
			_, evts, err := s.Points.AwardPointsTx(tx, Award{
				UserID:        sub.StudentID,
				Amount:        points,
				Source:        models.SourceProjectSubmission,
				ReferenceID:   &ref,
				DescriptionEn: fmt.Sprintf("Project evaluated: %s", sub.Project.Title),
				DescriptionAr: fmt.Sprintf("تم تقييم المشروع: %s", sub.Project.Title),
			})
			if err != nil {
				return err
			}
			pending = append(pending, evts...)
		}

		if in.Status == models.SubmissionApproved {
			granted, err := s.Badges.GrantBadges(tx, sub.StudentID, in.Badges, &reviewerID, "project: "+sub.Project.Title)
			if err != nil {
				return err
			}
			pending = append(pending, badgeEvents(sub.StudentID, granted, &reviewerID)...)
		}

		// reload the row written by closeReview, keeping the preloaded project
		project := sub.Project
		if err := tx.First(&sub, sub.ID).Error; err != nil {
			return err
		}
		sub.Project = project
		return nil
	})
	if err != nil {
		return nil, err
	}

	pending = append(pending, events.ProjectEvaluated{
		SubmissionID: sub.ID,
		ProjectID:    sub.ProjectID,
		ProjectTitle: sub.Project.Title,
		StudentID:    sub.StudentID,
		ReviewerID:   reviewerID,
		Status:       sub.Status,
		Rating:       in.rating(),
		Points:       sub.PointsEarned,
	})
	s.Events.Dispatch(ctx, pending...)

	s.Log.Info("[REVIEW] project submission evaluated",
		zap.Uint("submission_id", sub.ID),
		zap.String("status", sub.Status),
		zap.Float64("rating", in.rating()),
		zap.Int64("points", sub.PointsEarned),
		zap.String("reviewer_type", reviewer.kind()))
	return &sub, nil
}
