package services

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"tutor-marketplace/models"
	"tutor-marketplace/utils"
)

// EvaluationInput is a reviewer's verdict on a project or challenge submission.
type EvaluationInput struct {
	Rating   *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Feedback string   `json:"feedback" validate:"max=5000"`
	Status   string   `json:"status" validate:"omitempty,oneof=approved rejected"`
	Badges   []uint   `json:"badges"`
}

// Reviewer identifies who evaluates and on behalf of which school/teacher.
type Reviewer struct {
	ID        uint
	SchoolID  *uint
	TeacherID *uint
	ByAdmin   bool
}

func (r Reviewer) kind() string {
	if r.ByAdmin {
		return models.ReviewerAdmin
	}
	return models.ReviewerTeacher
}

// normalize applies the default status and checks ranges.
func (in *EvaluationInput) normalize() error {
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if in.Status == "" {
		in.Status = models.SubmissionApproved
	}
	if in.Status != models.SubmissionApproved && in.Status != models.SubmissionRejected {
		return ErrInvalidStatus
	}
	if in.Rating != nil && (*in.Rating < 0 || *in.Rating > 5) {
		return ErrInvalidRating
	}
	in.Feedback = utils.StripHTML(in.Feedback)
	return nil
}

func (in EvaluationInput) rating() float64 {
	if in.Rating == nil {
		return 0
	}
	return *in.Rating
}

func loadReviewer(tx *gorm.DB, id uint) (*models.User, error) {
	var u models.User
	if err := tx.First(&u, id).Error; err != nil {
		return nil, notFound(err, "reviewer", id)
	}
	if !u.CanReview() {
		return nil, ErrForbidden
	}
	return &u, nil
}

// closeReview moves a submitted row of model to its final status. A row that is no longer
// submitted yields ErrAlreadyReviewed, so two concurrent reviews cannot both award.
func closeReview(tx *gorm.DB, model interface{}, id uint, in EvaluationInput, points int64, r Reviewer, now time.Time) error {
	res := tx.Model(model).
		Where("id = ? AND status = ?", id, models.SubmissionSubmitted).
		Updates(map[string]interface{}{
			"status":        in.Status,
			"rating":        in.Rating,
			"feedback":      in.Feedback,
			"points_earned": points,
			"reviewed_by":   r.ID,
			"reviewer_type": r.kind(),
			"school_id":     r.SchoolID,
			"teacher_id":    r.TeacherID,
			"reviewed_at":   now,
		})
	if res.Error != nil {
		return fmt.Errorf("close review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyReviewed
	}
	return nil
}
