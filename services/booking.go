package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutor-marketplace/models"
)

const (
	DefaultSessionMinutes = 60
	MinSessionMinutes     = 15
	MaxSessionMinutes     = 240
)

type BookingService struct {
	DB  *gorm.DB
	Log *zap.Logger
	now func() time.Time
}

func NewBookingService(db *gorm.DB, logger *zap.Logger) *BookingService {
	return &BookingService{DB: db, Log: logger, now: time.Now}
}

type BookingInput struct {
	TeacherID       uint      `json:"teacher_id" validate:"required"`
	SubjectID       *uint     `json:"subject_id"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"omitempty,min=15,max=240"`
}

// BookingResult carries the booking and, for pay-per-session bookings, its payment.
type BookingResult struct {
	Booking *models.Booking `json:"booking"`
	Payment *models.Payment `json:"payment,omitempty"`
}

// Book schedules a session. A session from an active package confirms it right away;
// otherwise the booking waits on a payment priced at the teacher's hourly rate.
func (s *BookingService) Book(ctx context.Context, studentID uint, in BookingInput) (*BookingResult, error) {
	now := s.now()
	if !in.ScheduledAt.After(now) {
		return nil, ErrInvalidSchedule
	}
	if in.DurationMinutes == 0 {
		in.DurationMinutes = DefaultSessionMinutes
	}
	if in.DurationMinutes < MinSessionMinutes || in.DurationMinutes > MaxSessionMinutes {
		return nil, ErrInvalidSchedule
	}

	out := &BookingResult{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var teacher models.User
		if err := tx.First(&teacher, in.TeacherID).Error; err != nil {
			return notFound(err, "teacher", in.TeacherID)
		}
		if teacher.Role != models.RoleTeacher {
			return ErrNotTeacher
		}

		booking := models.Booking{
			StudentID:       studentID,
			TeacherID:       teacher.ID,
			SubjectID:       in.SubjectID,
			ScheduledAt:     in.ScheduledAt,
			DurationMinutes: in.DurationMinutes,
			Status:          models.BookingPending,
		}

		up, err := s.takeSession(tx, studentID, now)
		if err != nil {
			return err
		}
		if up != nil {
			booking.UserPackageID = &up.ID
			booking.Status = models.BookingConfirmed
		} else {
			booking.Price = math.Round(teacher.HourlyRate*float64(in.DurationMinutes)/60*100) / 100
			if booking.Price == 0 {
				booking.Status = models.BookingConfirmed
			}
		}
		if err := tx.Create(&booking).Error; err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		out.Booking = &booking

		if booking.Status == models.BookingPending {
			pay := models.Payment{
				UserID:      studentID,
				Amount:      booking.Price,
				Currency:    "USD",
				Status:      models.PaymentPending,
				ProviderRef: newProviderRef(),
				PayableType: models.PayableBooking,
				PayableID:   booking.ID,
			}
			if err := tx.Create(&pay).Error; err != nil {
				return fmt.Errorf("create payment: %w", err)
			}
			out.Payment = &pay
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("[BOOKING] created",
		zap.Uint("booking_id", out.Booking.ID),
		zap.Uint("student_id", studentID),
		zap.Uint("teacher_id", in.TeacherID),
		zap.String("status", out.Booking.Status))
	return out, nil
}

// takeSession consumes one session of the user's earliest-expiring active package.
// Returns nil when the user has none left.
func (s *BookingService) takeSession(tx *gorm.DB, userID uint, now time.Time) (*models.UserPackage, error) {
	var candidates []models.UserPackage
	if err := tx.Where("user_id = ? AND status = ? AND sessions_remaining > 0 AND (expires_at IS NULL OR expires_at > ?)",
		userID, models.UserPackageActive, now).
		Order("expires_at ASC").Order("id ASC").
		Find(&candidates).Error; err != nil {
		return nil, err
	}
	for i := range candidates {
		res := tx.Model(&models.UserPackage{}).
			Where("id = ? AND sessions_remaining > 0", candidates[i].ID).
			UpdateColumn("sessions_remaining", gorm.Expr("sessions_remaining - 1"))
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			candidates[i].SessionsRemaining--
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// Complete marks a confirmed session as held. Only the booked teacher may do it.
func (s *BookingService) Complete(ctx context.Context, bookingID, teacherID uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, bookingID).Error; err != nil {
			return notFound(err, "booking", bookingID)
		}
		if booking.TeacherID != teacherID {
			return ErrForbidden
		}
		if booking.Status != models.BookingConfirmed {
			return ErrInvalidTransition
		}
		booking.Status = models.BookingCompleted
		return tx.Model(&booking).Update("status", booking.Status).Error
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("[BOOKING] completed", zap.Uint("booking_id", bookingID))
	return &booking, nil
}

// Cancel is allowed to the student or the teacher while the booking is pending or
// confirmed. A package session is given back; an open payment is failed.
func (s *BookingService) Cancel(ctx context.Context, bookingID, userID uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, bookingID).Error; err != nil {
			return notFound(err, "booking", bookingID)
		}
		if booking.StudentID != userID && booking.TeacherID != userID {
			return ErrForbidden
		}
		if booking.Status != models.BookingPending && booking.Status != models.BookingConfirmed {
			return ErrInvalidTransition
		}

		if booking.UserPackageID != nil {
			if err := tx.Model(&models.UserPackage{}).
				Where("id = ?", *booking.UserPackageID).
				UpdateColumn("sessions_remaining", gorm.Expr("sessions_remaining + 1")).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Payment{}).
			Where("payable_type = ? AND payable_id = ? AND status = ?", models.PayableBooking, booking.ID, models.PaymentPending).
			Update("status", models.PaymentFailed).Error; err != nil {
			return err
		}

		booking.Status = models.BookingCancelled
		return tx.Model(&booking).Update("status", booking.Status).Error
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("[BOOKING] cancelled", zap.Uint("booking_id", bookingID), zap.Uint("by", userID))
	return &booking, nil
}

// ListForUser returns bookings where the user is student or teacher, soonest first.
func (s *BookingService) ListForUser(ctx context.Context, userID uint) ([]models.Booking, error) {
	out := []models.Booking{}
	err := s.DB.WithContext(ctx).
		Where("student_id = ? OR teacher_id = ?", userID, userID).
		Order("scheduled_at ASC").
		Find(&out).Error
	return out, err
}
