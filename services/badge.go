package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutor-marketplace/models"
	"tutor-marketplace/utils"
)

type BadgeService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewBadgeService(db *gorm.DB, logger *zap.Logger) *BadgeService {
	return &BadgeService{DB: db, Log: logger}
}

func (s *BadgeService) UserHasBadge(ctx context.Context, userID, badgeID uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.UserBadge{}).
		Where("user_id = ? AND badge_id = ?", userID, badgeID).
		Count(&count).Error
	return count > 0, err
}

// CheckCommunityBadges grants every active, approved community badge whose threshold the
// user's total has reached and which the user does not hold yet. Runs inside tx.
func (s *BadgeService) CheckCommunityBadges(tx *gorm.DB, user *models.User) ([]models.Badge, error) {
	held, err := heldBadgeIDs(tx, user.ID)
	if err != nil {
		return nil, err
	}

	var eligible []models.Badge
	if err := tx.Where("category = ? AND is_active = ? AND status = ? AND points_required <= ?",
		models.BadgeCategoryCommunity, true, models.BadgeStatusApproved, user.Points).
		Order("points_required ASC").Order("id ASC").
		Find(&eligible).Error; err != nil {
		return nil, fmt.Errorf("load community badges: %w", err)
	}

	var granted []models.Badge
	for _, b := range eligible {
		if held[b.ID] {
			continue
		}
		ub := models.UserBadge{UserID: user.ID, BadgeID: b.ID, Reason: "points threshold"}
		if err := tx.Create(&ub).Error; err != nil {
			return nil, fmt.Errorf("grant badge %d: %w", b.ID, err)
		}
		held[b.ID] = true
		granted = append(granted, b)
		s.Log.Info("[BADGE] unlocked",
			zap.Uint("user_id", user.ID),
			zap.String("badge", b.Slug),
			zap.Int64("points_required", b.PointsRequired))
	}
	return granted, nil
}

// GrantBadges attaches reviewer-chosen achievement badges. Unknown, inactive, non-achievement
// and already held ids are skipped.
func (s *BadgeService) GrantBadges(tx *gorm.DB, userID uint, badgeIDs []uint, grantedBy *uint, reason string) ([]models.Badge, error) {
	if len(badgeIDs) == 0 {
		return nil, nil
	}
	held, err := heldBadgeIDs(tx, userID)
	if err != nil {
		return nil, err
	}

	var candidates []models.Badge
	if err := tx.Where("id IN ? AND category = ? AND is_active = ?",
		badgeIDs, models.BadgeCategoryAchievement, true).
		Order("id ASC").
		Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("load achievement badges: %w", err)
	}

	var granted []models.Badge
	for _, b := range candidates {
		if held[b.ID] {
			continue
		}
		ub := models.UserBadge{UserID: userID, BadgeID: b.ID, GrantedBy: grantedBy, Reason: reason}
		if err := tx.Create(&ub).Error; err != nil {
			return nil, fmt.Errorf("grant badge %d: %w", b.ID, err)
		}
		held[b.ID] = true
		granted = append(granted, b)
	}
	if skipped := len(badgeIDs) - len(granted); skipped > 0 {
		s.Log.Debug("[BADGE] skipped ids on grant", zap.Uint("user_id", userID), zap.Int("skipped", skipped))
	}
	return granted, nil
}

func (s *BadgeService) ListUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error) {
	out := []models.UserBadge{}
	err := s.DB.WithContext(ctx).Preload("Badge").
		Where("user_id = ?", userID).
		Order("created_at ASC").Order("id ASC").
		Find(&out).Error
	return out, err
}

// ListBadges returns the active, approved catalog, optionally filtered by category.
func (s *BadgeService) ListBadges(ctx context.Context, category string) ([]models.Badge, error) {
	q := s.DB.WithContext(ctx).Where("is_active = ? AND status = ?", true, models.BadgeStatusApproved)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	out := []models.Badge{}
	err := q.Order("category ASC").Order("points_required ASC").Order("id ASC").Find(&out).Error
	return out, err
}

type BadgeInput struct {
	NameEn         string `json:"name_en" validate:"required,max=255"`
	NameAr         string `json:"name_ar" validate:"max=255"`
	DescriptionEn  string `json:"description_en"`
	DescriptionAr  string `json:"description_ar"`
	IconURL        string `json:"icon_url" validate:"omitempty,url"`
	Category       string `json:"category" validate:"required,oneof=achievement community"`
	PointsRequired int64  `json:"points_required" validate:"gte=0"`
	Approved       bool   `json:"approved"`
}

// CreateBadge adds a badge to the catalog. Admin-created badges are active; they are
// approved right away when the input says so, otherwise they wait in pending.
func (s *BadgeService) CreateBadge(ctx context.Context, in BadgeInput) (*models.Badge, error) {
	badge := models.Badge{
		NameEn:         in.NameEn,
		NameAr:         in.NameAr,
		DescriptionEn:  utils.StripHTML(in.DescriptionEn),
		DescriptionAr:  utils.StripHTML(in.DescriptionAr),
		IconURL:        in.IconURL,
		Category:       models.BadgeCategory(in.Category),
		PointsRequired: in.PointsRequired,
		IsActive:       true,
		Status:         models.BadgeStatusPending,
	}
	if in.Approved {
		badge.Status = models.BadgeStatusApproved
	}
	if badge.Category == models.BadgeCategoryAchievement {
		badge.PointsRequired = 0
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := utils.UniqueSlug(tx, &models.Badge{}, in.NameEn)
		if err != nil {
			return err
		}
		badge.Slug = slug
		return tx.Create(&badge).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create badge: %w", err)
	}
	s.Log.Info("[BADGE] created", zap.String("slug", badge.Slug), zap.String("category", in.Category))
	return &badge, nil
}

func heldBadgeIDs(tx *gorm.DB, userID uint) (map[uint]bool, error) {
	var ids []uint
	if err := tx.Model(&models.UserBadge{}).Where("user_id = ?", userID).Pluck("badge_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load held badges: %w", err)
	}
	held := make(map[uint]bool, len(ids))
	for _, id := range ids {
		held[id] = true
	}
	return held, nil
}
