package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutor-marketplace/models"
	"tutor-marketplace/utils"
)

type SubjectService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewSubjectService(db *gorm.DB, logger *zap.Logger) *SubjectService {
	return &SubjectService{DB: db, Log: logger}
}

type SubjectInput struct {
	NameEn string `json:"name_en" validate:"required,max=255"`
	NameAr string `json:"name_ar" validate:"max=255"`
}

// List returns active subjects. query matches either name, Arabic names also in
// transliterated form.
func (s *SubjectService) List(ctx context.Context, query string) ([]models.Subject, error) {
	q := s.DB.WithContext(ctx).Where("is_active = ?", true)
	if key := utils.SearchKey(query); key != "" {
		q = q.Where("search_key LIKE ? OR name_ar LIKE ?", "%"+key+"%", "%"+strings.TrimSpace(query)+"%")
	}
	out := []models.Subject{}
	err := q.Order("name_en ASC").Find(&out).Error
	return out, err
}

func (s *SubjectService) Create(ctx context.Context, in SubjectInput) (*models.Subject, error) {
	subject := models.Subject{
		NameEn:    strings.TrimSpace(in.NameEn),
		NameAr:    strings.TrimSpace(in.NameAr),
		SearchKey: utils.SearchKey(in.NameEn, in.NameAr),
		IsActive:  true,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := utils.UniqueSlug(tx, &models.Subject{}, subject.NameEn)
		if err != nil {
			return err
		}
		subject.Slug = slug
		return tx.Create(&subject).Error
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("[SUBJECT] created", zap.String("slug", subject.Slug))
	return &subject, nil
}
