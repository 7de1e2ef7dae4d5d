package models

import "time"

// Notification is an in-app message written by the event listeners.
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Type      string     `gorm:"type:varchar(48);not null" json:"type"`
	TitleEn   string     `gorm:"size:255" json:"title_en"`
	TitleAr   string     `gorm:"size:255" json:"title_ar"`
	BodyEn    string     `gorm:"type:text" json:"body_en"`
	BodyAr    string     `gorm:"type:text" json:"body_ar"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}
