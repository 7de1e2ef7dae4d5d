package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutor-marketplace/events"
	"tutor-marketplace/models"
)

// Award describes one ledger entry to append.
type Award struct {
	UserID        uint
	Amount        int64
	Source        string
	ReferenceID   *uint
	DescriptionEn string
	DescriptionAr string
}

type PointsService struct {
	DB     *gorm.DB
	Badges *BadgeService
	Events *events.Dispatcher
	Log    *zap.Logger
}

func NewPointsService(db *gorm.DB, badges *BadgeService, dispatcher *events.Dispatcher, logger *zap.Logger) *PointsService {
	return &PointsService{DB: db, Badges: badges, Events: dispatcher, Log: logger}
}

// AwardPoints appends a ledger row, adds amount to the user's total, unlocks community
// badges and, once committed, dispatches PointsAwarded and BadgeGranted.
func (s *PointsService) AwardPoints(ctx context.Context, userID uint, amount int64, source string, referenceID *uint, descriptionEn, descriptionAr string) (*models.User, error) {
	var user *models.User
	var pending []events.Event
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, pending, err = s.AwardPointsTx(tx, Award{
			UserID:        userID,
			Amount:        amount,
			Source:        source,
			ReferenceID:   referenceID,
			DescriptionEn: descriptionEn,
			DescriptionAr: descriptionAr,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Events.Dispatch(ctx, pending...)
	return user, nil
}

// AwardPointsTx does the work of AwardPoints inside the caller's transaction and returns
// the events to dispatch after commit.
func (s *PointsService) AwardPointsTx(tx *gorm.DB, a Award) (*models.User, []events.Event, error) {
	if a.Amount <= 0 {
		return nil, nil, ErrInvalidAmount
	}

	// Single UPDATE so concurrent awards never lose an increment.
	res := tx.Model(&models.User{}).
		Where("id = ?", a.UserID).
		UpdateColumn("points", gorm.Expr("points + ?", a.Amount))
	if res.Error != nil {
		return nil, nil, fmt.Errorf("increment points: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil, fmt.Errorf("user %d: %w", a.UserID, ErrNotFound)
	}

	entry := models.Point{
		UserID:        a.UserID,
		Points:        a.Amount,
		Source:        a.Source,
		ReferenceID:   a.ReferenceID,
		DescriptionEn: a.DescriptionEn,
		DescriptionAr: a.DescriptionAr,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, nil, fmt.Errorf("append ledger: %w", err)
	}

	var user models.User
	if err := tx.First(&user, a.UserID).Error; err != nil {
		return nil, nil, notFound(err, "user", a.UserID)
	}

	granted, err := s.Badges.CheckCommunityBadges(tx, &user)
	if err != nil {
		return nil, nil, err
	}

	pending := []events.Event{events.PointsAwarded{
		UserID:      user.ID,
		PointID:     entry.ID,
		Amount:      a.Amount,
		Total:       user.Points,
		Source:      a.Source,
		ReferenceID: a.ReferenceID,
	}}
	pending = append(pending, badgeEvents(user.ID, granted, nil)...)

	s.Log.Info("[POINTS] awarded",
		zap.Uint("user_id", user.ID),
		zap.Int64("amount", a.Amount),
		zap.Int64("total", user.Points),
		zap.String("source", a.Source),
		zap.Int("badges_unlocked", len(granted)),
	)
	return &user, pending, nil
}

// Balance returns the user's current total.
func (s *PointsService) Balance(ctx context.Context, userID uint) (int64, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Select("id", "points").First(&user, userID).Error; err != nil {
		return 0, notFound(err, "user", userID)
	}
	return user.Points, nil
}

// PointHistory is one page of a user's ledger.
type PointHistory struct {
	Items      []models.Point `json:"items"`
	Page       int            `json:"page"`
	Size       int            `json:"size"`
	TotalItems int64          `json:"total_items"`
	TotalPages int            `json:"total_pages"`
}

// History returns the ledger newest first.
func (s *PointsService) History(ctx context.Context, userID uint, page, size int) (*PointHistory, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	db := s.DB.WithContext(ctx)
	var total int64
	if err := db.Model(&models.Point{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, err
	}

	items := []models.Point{}
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&items).Error; err != nil {
		return nil, err
	}

	return &PointHistory{
		Items:      items,
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

func badgeEvents(userID uint, badges []models.Badge, grantedBy *uint) []events.Event {
	out := make([]events.Event, 0, len(badges))
	for _, b := range badges {
		out = append(out, events.BadgeGranted{
			UserID:    userID,
			BadgeID:   b.ID,
			BadgeName: b.NameEn,
			Category:  string(b.Category),
			GrantedBy: grantedBy,
		})
	}
	return out
}
