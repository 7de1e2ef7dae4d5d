package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"tutor-marketplace/models"
)

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// Profile is a user with the counts shown on the dashboard.
type Profile struct {
	models.User
	BadgeCount       int64 `json:"badge_count"`
	CertificateCount int64 `json:"certificate_count"`
}

func (s *UserService) Profile(ctx context.Context, userID uint) (*Profile, error) {
	db := s.DB.WithContext(ctx)
	var p Profile
	if err := db.First(&p.User, userID).Error; err != nil {
		return nil, notFound(err, "user", userID)
	}
	if err := db.Model(&models.UserBadge{}).Where("user_id = ?", userID).Count(&p.BadgeCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Certificate{}).Where("user_id = ?", userID).Count(&p.CertificateCount).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Search matches name or email, case-insensitively.
func (s *UserService) Search(ctx context.Context, query, role string, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	db := s.DB.WithContext(ctx).Model(&models.User{}).Limit(limit)
	if query != "" {
		term := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", term, term)
	}
	if role != "" {
		db = db.Where("role = ?", role)
	}
	out := []models.User{}
	err := db.Order("id ASC").Find(&out).Error
	return out, err
}
