package models

import "time"

// Package is a bundle of tutoring sessions sold to students.
type Package struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	Name          string  `gorm:"size:255;not null" json:"name"`
	Slug          string  `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	Description   string  `gorm:"type:text" json:"description"`
	Price         float64 `gorm:"not null;default:0" json:"price"`
	SessionsCount int     `gorm:"not null;default:0" json:"sessions_count"`
	DurationDays  int     `gorm:"not null;default:30" json:"duration_days"`
	PointsBonus   int64   `gorm:"not null;default:0" json:"points_bonus"`
	IsActive      bool    `gorm:"not null" json:"is_active"`

	Timestamps
}

const (
	UserPackagePending   = "pending"
	UserPackageActive    = "active"
	UserPackageExpired   = "expired"
	UserPackageCancelled = "cancelled"
)

type UserPackage struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"index;not null" json:"user_id"`
	PackageID         uint       `gorm:"index;not null" json:"package_id"`
	PaymentID         *uint      `gorm:"index" json:"payment_id,omitempty"`
	Status            string     `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	SessionsRemaining int        `gorm:"not null;default:0" json:"sessions_remaining"`
	StartsAt          *time.Time `json:"starts_at,omitempty"`
	ExpiresAt         *time.Time `gorm:"index" json:"expires_at,omitempty"`
	BonusAwarded      bool       `gorm:"not null" json:"bonus_awarded"`

	Package Package `gorm:"foreignKey:PackageID" json:"package,omitempty"`

	Timestamps
}

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

const (
	PayablePackage = "package"
	PayableBooking = "booking"
)

type Payment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"index;not null" json:"user_id"`
	Amount      float64    `gorm:"not null" json:"amount"`
	Currency    string     `gorm:"type:varchar(8);not null;default:'USD'" json:"currency"`
	Status      string     `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	ProviderRef string     `gorm:"size:64;uniqueIndex;not null" json:"provider_ref"`
	PayableType string     `gorm:"type:varchar(16);not null" json:"payable_type"`
	PayableID   uint       `gorm:"not null" json:"payable_id"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`

	Timestamps
}

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

// Booking is a tutoring session between a student and a teacher.
type Booking struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	StudentID       uint      `gorm:"index;not null" json:"student_id"`
	TeacherID       uint      `gorm:"index;not null" json:"teacher_id"`
	SubjectID       *uint     `gorm:"index" json:"subject_id,omitempty"`
	UserPackageID   *uint     `gorm:"index" json:"user_package_id,omitempty"`
	ScheduledAt     time.Time `gorm:"not null;index" json:"scheduled_at"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	Price           float64   `gorm:"not null;default:0" json:"price"`
	Status          string    `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`

	Timestamps
}
