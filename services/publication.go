package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutor-marketplace/events"
	"tutor-marketplace/models"
	"tutor-marketplace/utils"
)

type PublicationService struct {
	DB     *gorm.DB
	Points *PointsService
	Events *events.Dispatcher
	Rules  RewardRules
	Log    *zap.Logger
	now    func() time.Time
}

func NewPublicationService(db *gorm.DB, points *PointsService, dispatcher *events.Dispatcher, rules RewardRules, logger *zap.Logger) *PublicationService {
	return &PublicationService{DB: db, Points: points, Events: dispatcher, Rules: rules, Log: logger, now: time.Now}
}

type PublicationInput struct {
	Title string `json:"title" validate:"required,max=255"`
	Body  string `json:"body" validate:"required"`
}

// CreatePublication stores a pending article with a sanitized body and a unique slug.
func (s *PublicationService) CreatePublication(ctx context.Context, authorID uint, in PublicationInput) (*models.Publication, error) {
	pub := models.Publication{
		AuthorID: authorID,
		Title:    strings.TrimSpace(utils.StripHTML(in.Title)),
		Body:     utils.SanitizeHTML(in.Body),
		Status:   models.PublicationPending,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var author models.User
		if err := tx.Select("id").First(&author, authorID).Error; err != nil {
			return notFound(err, "author", authorID)
		}
		slug, err := utils.UniqueSlug(tx, &models.Publication{}, pub.Title)
		if err != nil {
			return err
		}
		pub.Slug = slug
		return tx.Create(&pub).Error
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("[PUBLICATION] created", zap.Uint("publication_id", pub.ID), zap.String("slug", pub.Slug))
	return &pub, nil
}

// ApprovePublication publishes a pending article and awards the author PublicationPoints.
func (s *PublicationService) ApprovePublication(ctx context.Context, publicationID, adminID uint) (*models.Publication, error) {
	var pub models.Publication
	var pending []events.Event
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&pub, publicationID).Error; err != nil {
			return notFound(err, "publication", publicationID)
		}
		if pub.Status != models.PublicationPending {
			return ErrInvalidTransition
		}

		now := s.now()
		res := tx.Model(&models.Publication{}).
			Where("id = ? AND status = ?", pub.ID, models.PublicationPending).
			Updates(map[string]interface{}{
				"status":      models.PublicationApproved,
				"approved_by": adminID,
				"approved_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		pub.Status = models.PublicationApproved
		pub.ApprovedBy = &adminID
		pub.ApprovedAt = &now

		ref := pub.ID
		_, evts, err := s.Points.AwardPointsTx(tx, Award{
			UserID:        pub.AuthorID,
			Amount:        s.Rules.PublicationPoints,
			Source:        models.SourcePublicationApproval,
			ReferenceID:   &ref,
			DescriptionEn: "Article approved: " + pub.Title,
			DescriptionAr: "تمت الموافقة على المقال: " + pub.Title,
		})
		if err != nil {
			return err
		}
		pending = evts
		return nil
	})
	if err != nil {
		return nil, err
	}

	pending = append(pending, events.ArticleApproved{
		PublicationID: pub.ID,
		Title:         pub.Title,
		AuthorID:      pub.AuthorID,
		AdminID:       adminID,
		Points:        s.Rules.PublicationPoints,
	})
	s.Events.Dispatch(ctx, pending...)
	s.Log.Info("[PUBLICATION] approved", zap.Uint("publication_id", pub.ID), zap.Uint("admin_id", adminID))
	return &pub, nil
}

// RejectPublication closes a pending article without points.
func (s *PublicationService) RejectPublication(ctx context.Context, publicationID, adminID uint, reason string) (*models.Publication, error) {
	var pub models.Publication
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&pub, publicationID).Error; err != nil {
			return notFound(err, "publication", publicationID)
		}
		res := tx.Model(&models.Publication{}).
			Where("id = ? AND status = ?", pub.ID, models.PublicationPending).
			Updates(map[string]interface{}{
				"status":           models.PublicationRejected,
				"approved_by":      adminID,
				"rejection_reason": utils.StripHTML(reason),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		return tx.First(&pub, pub.ID).Error
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("[PUBLICATION] rejected", zap.Uint("publication_id", pub.ID), zap.Uint("admin_id", adminID))
	return &pub, nil
}

// ListPublished returns approved articles, newest first.
func (s *PublicationService) ListPublished(ctx context.Context, limit int) ([]models.Publication, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	out := []models.Publication{}
	err := s.DB.WithContext(ctx).
		Where("status = ?", models.PublicationApproved).
		Order("approved_at DESC").Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
