package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutor-marketplace/events"
	"tutor-marketplace/models"
)

// PackageService sells session packages and settles their payments.
type PackageService struct {
	DB     *gorm.DB
	Points *PointsService
	Events *events.Dispatcher
	Log    *zap.Logger
	now    func() time.Time
}

func NewPackageService(db *gorm.DB, points *PointsService, dispatcher *events.Dispatcher, logger *zap.Logger) *PackageService {
	return &PackageService{DB: db, Points: points, Events: dispatcher, Log: logger, now: time.Now}
}

func (s *PackageService) ListPackages(ctx context.Context) ([]models.Package, error) {
	out := []models.Package{}
	err := s.DB.WithContext(ctx).Where("is_active = ?", true).Order("price ASC").Order("id ASC").Find(&out).Error
	return out, err
}

// Checkout is what a client needs to pay for a subscription.
type Checkout struct {
	UserPackage *models.UserPackage `json:"user_package"`
	Payment     *models.Payment     `json:"payment"`
}

// Subscribe opens a pending user package and the payment that will activate it.
func (s *PackageService) Subscribe(ctx context.Context, userID, packageID uint) (*Checkout, error) {
	var up models.UserPackage
	var pay models.Payment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, userID).Error; err != nil {
			return notFound(err, "user", userID)
		}
		var pkg models.Package
		if err := tx.First(&pkg, packageID).Error; err != nil {
			return notFound(err, "package", packageID)
		}
		if !pkg.IsActive {
			return ErrPackageInactive
		}

		up = models.UserPackage{
			UserID:    userID,
			PackageID: pkg.ID,
			Status:    models.UserPackagePending,
		}
		if err := tx.Create(&up).Error; err != nil {
			return fmt.Errorf("create user package: %w", err)
		}

		pay = models.Payment{
			UserID:      userID,
			Amount:      pkg.Price,
			Currency:    "USD",
			Status:      models.PaymentPending,
			ProviderRef: newProviderRef(),
			PayableType: models.PayablePackage,
			PayableID:   up.ID,
		}
		if err := tx.Create(&pay).Error; err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		up.PaymentID = &pay.ID
		if err := tx.Model(&up).Update("payment_id", pay.ID).Error; err != nil {
			return err
		}
		up.Package = pkg
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("[PACKAGE] subscription opened",
		zap.Uint("user_id", userID), zap.Uint("package_id", packageID), zap.String("provider_ref", pay.ProviderRef))
	return &Checkout{UserPackage: &up, Payment: &pay}, nil
}

// CompletePayment settles a payment and activates what it pays for. Completing an already
// completed payment is a no-op, so the package bonus is awarded exactly once.
func (s *PackageService) CompletePayment(ctx context.Context, providerRef string) (*models.Payment, error) {
	var pay models.Payment
	var pending []events.Event
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("provider_ref = ?", providerRef).First(&pay).Error; err != nil {
			return notFound(err, "payment", providerRef)
		}
		switch pay.Status {
		case models.PaymentCompleted:
			return nil
		case models.PaymentPending:
		default:
			return ErrInvalidTransition
		}

		now := s.now()
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", pay.ID, models.PaymentPending).
			Updates(map[string]interface{}{"status": models.PaymentCompleted, "paid_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tx.First(&pay, pay.ID).Error
		}
		pay.Status = models.PaymentCompleted
		pay.PaidAt = &now

		switch pay.PayableType {
		case models.PayablePackage:
			evts, err := s.activatePackage(tx, pay.PayableID, now)
			if err != nil {
				return err
			}
			pending = evts
		case models.PayableBooking:
			if err := tx.Model(&models.Booking{}).
				Where("id = ? AND status = ?", pay.PayableID, models.BookingPending).
				Update("status", models.BookingConfirmed).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Events.Dispatch(ctx, pending...)
	s.Log.Info("[PAYMENT] completed", zap.String("provider_ref", providerRef), zap.String("payable", pay.PayableType))
	return &pay, nil
}

func (s *PackageService) activatePackage(tx *gorm.DB, userPackageID uint, now time.Time) ([]events.Event, error) {
	var up models.UserPackage
	if err := tx.Preload("Package").First(&up, userPackageID).Error; err != nil {
		return nil, notFound(err, "user package", userPackageID)
	}

	if up.Status == models.UserPackagePending {
		expires := now.AddDate(0, 0, up.Package.DurationDays)
		if err := tx.Model(&models.UserPackage{}).Where("id = ?", up.ID).Updates(map[string]interface{}{
			"status":             models.UserPackageActive,
			"starts_at":          now,
			"expires_at":         expires,
			"sessions_remaining": up.Package.SessionsCount,
		}).Error; err != nil {
			return nil, fmt.Errorf("activate user package: %w", err)
		}
	}

	if up.BonusAwarded || up.Package.PointsBonus <= 0 {
		return nil, nil
	}
	res := tx.Model(&models.UserPackage{}).
		Where("id = ? AND bonus_awarded = ?", up.ID, false).
		Update("bonus_awarded", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	ref := up.ID
	_, evts, err := s.Points.AwardPointsTx(tx, Award{
		UserID:        up.UserID,
		Amount:        up.Package.PointsBonus,
		Source:        models.SourcePackageBonus,
		ReferenceID:   &ref,
		DescriptionEn: "Package bonus: " + up.Package.Name,
		DescriptionAr: "مكافأة الباقة: " + up.Package.Name,
	})
	return evts, err
}

// FailPayment marks a pending payment failed and releases what it was holding.
func (s *PackageService) FailPayment(ctx context.Context, providerRef string) (*models.Payment, error) {
	var pay models.Payment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("provider_ref = ?", providerRef).First(&pay).Error; err != nil {
			return notFound(err, "payment", providerRef)
		}
		if pay.Status == models.PaymentFailed {
			return nil
		}
		if pay.Status != models.PaymentPending {
			return ErrInvalidTransition
		}
		if err := tx.Model(&pay).Update("status", models.PaymentFailed).Error; err != nil {
			return err
		}

		switch pay.PayableType {
		case models.PayablePackage:
			return tx.Model(&models.UserPackage{}).
				Where("id = ? AND status = ?", pay.PayableID, models.UserPackagePending).
				Update("status", models.UserPackageCancelled).Error
		case models.PayableBooking:
			return tx.Model(&models.Booking{}).
				Where("id = ? AND status = ?", pay.PayableID, models.BookingPending).
				Update("status", models.BookingCancelled).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Log.Warn("[PAYMENT] failed", zap.String("provider_ref", providerRef))
	return &pay, nil
}

// ExpireSubscriptions closes active packages whose term has ended.
func (s *PackageService) ExpireSubscriptions(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.UserPackage{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", models.UserPackageActive, s.now()).
		Update("status", models.UserPackageExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.Log.Info("[PACKAGE] subscriptions expired", zap.Int64("count", res.RowsAffected))
	}
	return res.RowsAffected, nil
}

// UserPackages lists a user's subscriptions, newest first.
func (s *PackageService) UserPackages(ctx context.Context, userID uint) ([]models.UserPackage, error) {
	out := []models.UserPackage{}
	err := s.DB.WithContext(ctx).Preload("Package").
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&out).Error
	return out, err
}

func newProviderRef() string {
	return "pay_" + uuid.NewString()
}
