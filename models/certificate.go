package models

import "time"

type Certificate struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Serial      string    `gorm:"size:64;uniqueIndex;not null" json:"serial"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	ChallengeID *uint     `gorm:"index" json:"challenge_id,omitempty"`
	ProjectID   *uint     `gorm:"index" json:"project_id,omitempty"`
	TitleEn     string    `gorm:"size:255;not null" json:"title_en"`
	TitleAr     string    `gorm:"size:255" json:"title_ar"`
	FileURL     string    `gorm:"type:text" json:"file_url"`
	IssuedAt    time.Time `gorm:"not null" json:"issued_at"`
}
