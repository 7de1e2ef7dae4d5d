package models

import (
	"time"
)

type BadgeCategory string

const (
	// BadgeCategoryAchievement badges are granted by a reviewer.
	BadgeCategoryAchievement BadgeCategory = "achievement"
	// BadgeCategoryCommunity badges unlock automatically at PointsRequired.
	BadgeCategoryCommunity BadgeCategory = "community"
)

const (
	BadgeStatusPending  = "pending"
	BadgeStatusApproved = "approved"
	BadgeStatusRejected = "rejected"
)

type Badge struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	Slug           string        `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	NameEn         string        `gorm:"size:255;not null" json:"name_en"`
	NameAr         string        `gorm:"size:255" json:"name_ar"`
	DescriptionEn  string        `gorm:"type:text" json:"description_en"`
	DescriptionAr  string        `gorm:"type:text" json:"description_ar"`
	IconURL        string        `gorm:"type:text" json:"icon_url"`
	Category       BadgeCategory `gorm:"type:varchar(16);not null;index" json:"category"`
	PointsRequired int64         `gorm:"not null;default:0" json:"points_required"`
	IsActive       bool          `gorm:"not null" json:"is_active"`
	Status         string        `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`

	Timestamps
}

// UserBadge marks a badge as granted to a user. One row per (user, badge).
type UserBadge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_badge;not null" json:"user_id"`
	BadgeID   uint      `gorm:"uniqueIndex:idx_user_badge;not null" json:"badge_id"`
	GrantedBy *uint     `json:"granted_by,omitempty"` // nil = threshold unlock
	Reason    string    `gorm:"size:255" json:"reason"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"awarded_at"`

	Badge Badge `gorm:"foreignKey:BadgeID" json:"badge"`
}
