package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutor-marketplace/events"
	"tutor-marketplace/models"
)

// NotificationService turns domain events into in-app notifications.
type NotificationService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewNotificationService(db *gorm.DB, logger *zap.Logger) *NotificationService {
	return &NotificationService{DB: db, Log: logger}
}

// Register subscribes to every event.
func (s *NotificationService) Register(d *events.Dispatcher) {
	d.Subscribe("*", s.Handle)
}

// Handle writes the notification for e. Unknown events are ignored.
func (s *NotificationService) Handle(ctx context.Context, e events.Event) error {
	n, ok := notificationFor(e)
	if !ok {
		return nil
	}
	if err := s.DB.WithContext(ctx).Create(&n).Error; err != nil {
		return fmt.Errorf("write notification %s: %w", n.Type, err)
	}
	return nil
}

func notificationFor(e events.Event) (models.Notification, bool) {
	n := models.Notification{UserID: e.Recipient(), Type: e.Name()}
	switch ev := e.(type) {
	case events.PointsAwarded:
		n.TitleEn = fmt.Sprintf("You earned %d points", ev.Amount)
		n.TitleAr = fmt.Sprintf("حصلت على %d نقطة", ev.Amount)
		n.BodyEn = fmt.Sprintf("Your total is now %d points.", ev.Total)
		n.BodyAr = fmt.Sprintf("رصيدك الآن %d نقطة.", ev.Total)
	case events.BadgeGranted:
		n.TitleEn = "New badge unlocked"
		n.TitleAr = "شارة جديدة"
		n.BodyEn = fmt.Sprintf("You received the %q badge.", ev.BadgeName)
		n.BodyAr = fmt.Sprintf("حصلت على شارة \"%s\".", ev.BadgeName)
	case events.ProjectEvaluated:
		n.TitleEn = "Your project was reviewed"
		n.TitleAr = "تمت مراجعة مشروعك"
		n.BodyEn = fmt.Sprintf("%s: %s.", ev.ProjectTitle, ev.Status)
		n.BodyAr = fmt.Sprintf("%s: %s.", ev.ProjectTitle, statusAr(ev.Status))
	case events.ChallengeSubmissionReviewed:
		n.TitleEn = "Your challenge entry was reviewed"
		n.TitleAr = "تمت مراجعة مشاركتك في التحدي"
		n.BodyEn = fmt.Sprintf("%s: %s.", ev.ChallengeTitle, ev.Status)
		n.BodyAr = fmt.Sprintf("%s: %s.", ev.ChallengeTitle, statusAr(ev.Status))
	case events.ArticleApproved:
		n.TitleEn = "Your article was published"
		n.TitleAr = "تم نشر مقالك"
		n.BodyEn = ev.Title
		n.BodyAr = ev.Title
	case events.CertificateIssued:
		n.TitleEn = "Certificate issued"
		n.TitleAr = "تم إصدار شهادة"
		n.BodyEn = ev.TitleEn
		n.BodyAr = ev.TitleAr
	default:
		return n, false
	}
	return n, true
}

func statusAr(status string) string {
	switch status {
	case models.SubmissionApproved:
		return "مقبول"
	case models.SubmissionRejected:
		return "مرفوض"
	}
	return status
}

// List returns the newest notifications of a user.
func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	q := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	out := []models.Notification{}
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	res := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		s.DB.WithContext(ctx).Model(&models.Notification{}).Where("id = ? AND user_id = ?", notificationID, userID).Count(&count)
		if count == 0 {
			return fmt.Errorf("notification %d: %w", notificationID, ErrNotFound)
		}
	}
	return nil
}

// LatestID returns the id of the newest notification of a user, 0 when there is none.
func (s *NotificationService) LatestID(ctx context.Context, userID uint) (uint, error) {
	var latest models.Notification
	err := s.DB.WithContext(ctx).Select("id").
		Where("user_id = ?", userID).
		Order("id DESC").Limit(1).
		Find(&latest).Error
	return latest.ID, err
}

// Since returns the notifications of a user with id greater than afterID, oldest first.
func (s *NotificationService) Since(ctx context.Context, userID, afterID uint) ([]models.Notification, error) {
	out := []models.Notification{}
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND id > ?", userID, afterID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
