package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutor-marketplace/events"
	"tutor-marketplace/models"
	"tutor-marketplace/utils"
)

var certificateTemplate = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.TitleEn}}</title>
<style>
body{font-family:Georgia,serif;text-align:center;padding:60px;border:12px double #2b4c7e}
h1{font-size:40px;margin-bottom:0}
.ar{direction:rtl;font-family:Tahoma,sans-serif}
.serial{color:#777;font-size:12px;margin-top:48px}
</style>
</head>
<body>
<h1>Certificate of Achievement</h1>
<p class="ar">شهادة إنجاز</p>
<p>This certifies that</p>
<h2>{{.StudentName}}</h2>
<p>{{.TitleEn}}</p>
<p class="ar">{{.TitleAr}}</p>
<p>Issued {{.IssuedAt.Format "2 January 2006"}}</p>
<p class="serial">Serial {{.Serial}}{{if .VerifyURL}} · <a href="{{.VerifyURL}}">verify</a>{{end}}</p>
</body>
</html>
`))

type certificateView struct {
	StudentName string
	TitleEn     string
	TitleAr     string
	Serial      string
	IssuedAt    time.Time
	VerifyURL   string
}

// CertificateService issues certificates for approved challenge entries.
type CertificateService struct {
	DB        *gorm.DB
	Store     utils.ObjectStore
	Events    *events.Dispatcher
	Secret    []byte
	VerifyURL string // base URL, the token is appended
	Log       *zap.Logger
	now       func() time.Time
}

func NewCertificateService(db *gorm.DB, store utils.ObjectStore, dispatcher *events.Dispatcher, secret, verifyURL string, logger *zap.Logger) *CertificateService {
	return &CertificateService{
		DB:        db,
		Store:     store,
		Events:    dispatcher,
		Secret:    []byte(secret),
		VerifyURL: strings.TrimRight(verifyURL, "/"),
		Log:       logger,
		now:       time.Now,
	}
}

// Register subscribes the service to challenge reviews.
func (s *CertificateService) Register(d *events.Dispatcher) {
	d.Subscribe(events.NameChallengeSubmissionReviewed, func(ctx context.Context, e events.Event) error {
		reviewed, ok := e.(events.ChallengeSubmissionReviewed)
		if !ok {
			return nil
		}
		_, err := s.IssueForChallenge(ctx, reviewed)
		return err
	})
}

// IssueForChallenge issues the certificate for an approved entry. A student gets one
// certificate per challenge; nil is returned for rejected entries and repeats.
func (s *CertificateService) IssueForChallenge(ctx context.Context, e events.ChallengeSubmissionReviewed) (*models.Certificate, error) {
	if e.Status != models.SubmissionApproved {
		return nil, nil
	}
	db := s.DB.WithContext(ctx)

	var existing models.Certificate
	err := db.Where("user_id = ? AND challenge_id = ?", e.StudentID, e.ChallengeID).First(&existing).Error
	if err == nil {
		return nil, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var student models.User
	if err := db.First(&student, e.StudentID).Error; err != nil {
		return nil, notFound(err, "user", e.StudentID)
	}

	challengeID := e.ChallengeID
	cert := models.Certificate{
		Serial:      uuid.NewString(),
		UserID:      student.ID,
		ChallengeID: &challengeID,
		TitleEn:     "Completed the challenge " + e.ChallengeTitle,
		TitleAr:     "أتم التحدي " + e.ChallengeTitle,
		IssuedAt:    s.now().UTC(),
	}

	token, err := utils.SignCertificateToken(s.Secret, cert.Serial, cert.UserID)
	if err != nil {
		return nil, fmt.Errorf("sign certificate token: %w", err)
	}
	view := certificateView{
		StudentName: student.Name,
		TitleEn:     cert.TitleEn,
		TitleAr:     cert.TitleAr,
		Serial:      cert.Serial,
		IssuedAt:    cert.IssuedAt,
	}
	if s.VerifyURL != "" {
		view.VerifyURL = s.VerifyURL + "/" + token
	}

	var buf bytes.Buffer
	if err := certificateTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	url, err := s.Store.Put(ctx, "certificates/"+cert.Serial+".html", buf.Bytes(), "text/html; charset=utf-8")
	if err != nil {
		return nil, err
	}
	cert.FileURL = url

	if err := db.Create(&cert).Error; err != nil {
		return nil, fmt.Errorf("save certificate: %w", err)
	}
	s.Log.Info("[CERTIFICATE] issued",
		zap.String("serial", cert.Serial), zap.Uint("user_id", cert.UserID), zap.Uint("challenge_id", challengeID))

	s.Events.Dispatch(ctx, events.CertificateIssued{
		CertificateID: cert.ID,
		Serial:        cert.Serial,
		UserID:        cert.UserID,
		TitleEn:       cert.TitleEn,
		TitleAr:       cert.TitleAr,
		FileURL:       cert.FileURL,
	})
	return &cert, nil
}

// Token returns the verification token of a certificate.
func (s *CertificateService) Token(cert *models.Certificate) (string, error) {
	return utils.SignCertificateToken(s.Secret, cert.Serial, cert.UserID)
}

// Verify resolves a verification token to its certificate.
func (s *CertificateService) Verify(ctx context.Context, token string) (*models.Certificate, error) {
	claims, err := utils.ParseCertificateToken(s.Secret, token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	var cert models.Certificate
	if err := s.DB.WithContext(ctx).
		Where("serial = ? AND user_id = ?", claims.Serial, claims.UserID).
		First(&cert).Error; err != nil {
		return nil, notFound(err, "certificate", claims.Serial)
	}
	return &cert, nil
}

func (s *CertificateService) ListForUser(ctx context.Context, userID uint) ([]models.Certificate, error) {
	out := []models.Certificate{}
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("issued_at DESC").Find(&out).Error
	return out, err
}
