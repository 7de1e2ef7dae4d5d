package models

import "time"

// Point sources recorded on the ledger.
const (
	SourceProjectSubmission   = "project_submission"
	SourceChallenge           = "challenge"
	SourcePublicationApproval = "publication_approval"
	SourcePackageBonus        = "package_bonus"
	SourceAdminGrant          = "admin_grant"
)

// Point is one immutable row of the points ledger. Rows are never updated or deleted.
type Point struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"index:idx_points_user_created,priority:1;not null" json:"user_id"`
	Points        int64     `gorm:"not null" json:"points"`
	Source        string    `gorm:"type:varchar(32);index;not null" json:"source"`
	ReferenceID   *uint     `gorm:"index" json:"reference_id,omitempty"`
	DescriptionEn string    `gorm:"type:text" json:"description_en"`
	DescriptionAr string    `gorm:"type:text" json:"description_ar"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index:idx_points_user_created,priority:2" json:"created_at"`
}
