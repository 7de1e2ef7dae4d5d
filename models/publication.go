package models

import "time"

const (
	PublicationPending  = "pending"
	PublicationApproved = "approved"
	PublicationRejected = "rejected"
)

// Publication is a student article moderated by an admin before it goes public.
type Publication struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	AuthorID        uint       `gorm:"index;not null" json:"author_id"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Slug            string     `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	Body            string     `gorm:"type:text" json:"body"`
	Status          string     `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	ApprovedBy      *uint      `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`

	Timestamps
}
