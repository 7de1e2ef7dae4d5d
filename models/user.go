package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleSchool  Role = "school"
	RoleAdmin   Role = "admin"
)

// User is a marketplace account. Points is the running total of the points ledger
// and only ever grows.
type User struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	Name       string  `gorm:"size:255;not null" json:"name"`
	Email      string  `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role       Role    `gorm:"type:varchar(16);not null;index" json:"role"`
	Points     int64   `gorm:"not null;default:0" json:"points"`
	SchoolID   *uint   `gorm:"index" json:"school_id,omitempty"`
	Locale     string  `gorm:"type:varchar(8);not null;default:'en'" json:"locale"`
	HourlyRate float64 `gorm:"not null;default:0" json:"hourly_rate"` // teachers only

	Timestamps
}

// CanReview reports whether the user may evaluate submissions.
func (u *User) CanReview() bool {
	return u.Role == RoleTeacher || u.Role == RoleSchool || u.Role == RoleAdmin
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
