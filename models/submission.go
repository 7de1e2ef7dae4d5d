package models

import "time"

// Review status shared by submissions. submitted -> approved | rejected, both terminal.
const (
	SubmissionSubmitted = "submitted"
	SubmissionApproved  = "approved"
	SubmissionRejected  = "rejected"
)

const (
	ReviewerTeacher = "teacher"
	ReviewerAdmin   = "admin"
)

type Project struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Slug        string `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	SubjectID   *uint  `gorm:"index" json:"subject_id,omitempty"`
	TeacherID   *uint  `gorm:"index" json:"teacher_id,omitempty"`

	Timestamps
}

// Review holds the evaluation outcome shared by project and challenge submissions.
type Review struct {
	Status       string     `gorm:"type:varchar(16);not null;default:'submitted';index" json:"status"`
	Rating       *float64   `json:"rating,omitempty"`
	Feedback     string     `gorm:"type:text" json:"feedback,omitempty"`
	PointsEarned int64      `gorm:"not null;default:0" json:"points_earned"`
	ReviewedBy   *uint      `json:"reviewed_by,omitempty"`
	ReviewerType string     `gorm:"type:varchar(16)" json:"reviewer_type,omitempty"`
	SchoolID     *uint      `gorm:"index" json:"school_id,omitempty"`
	TeacherID    *uint      `gorm:"index" json:"teacher_id,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
}

type ProjectSubmission struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProjectID uint   `gorm:"index;not null" json:"project_id"`
	StudentID uint   `gorm:"index;not null" json:"student_id"`
	Content   string `gorm:"type:text" json:"content"`
	Review    `gorm:"embedded"`

	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`

	Timestamps
}

type Challenge struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Slug         string     `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	Description  string     `gorm:"type:text" json:"description"`
	PointsReward int64      `gorm:"not null;default:0" json:"points_reward"`
	StartsAt     *time.Time `json:"starts_at,omitempty"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	IsActive     bool       `gorm:"not null" json:"is_active"`

	Timestamps
}

// OpenAt reports whether entries are accepted at t.
func (c *Challenge) OpenAt(t time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.StartsAt != nil && t.Before(*c.StartsAt) {
		return false
	}
	if c.EndsAt != nil && t.After(*c.EndsAt) {
		return false
	}
	return true
}

type ChallengeSubmission struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ChallengeID uint   `gorm:"index;not null" json:"challenge_id"`
	StudentID   uint   `gorm:"index;not null" json:"student_id"`
	Content     string `gorm:"type:text" json:"content"`
	Review      `gorm:"embedded"`

	Challenge Challenge `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`

	Timestamps
}
