package utils

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/gosimple/unidecode"
	"gorm.io/gorm"
)

// Slugify turns a (possibly Arabic) title into an ASCII slug.
func Slugify(s string) string {
	out := slug.Make(s)
	if out == "" {
		return "item"
	}
	return out
}

// UniqueSlug returns Slugify(title), suffixed with -2, -3... until no row of model uses it.
func UniqueSlug(tx *gorm.DB, model interface{}, title string) (string, error) {
	base := Slugify(title)
	candidate := base
	for i := 2; ; i++ {
		var count int64
		if err := tx.Unscoped().Model(model).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// SearchKey normalizes text for catalog search: transliterated to ASCII and lower-cased.
func SearchKey(parts ...string) string {
	return strings.ToLower(strings.TrimSpace(unidecode.Unidecode(strings.Join(parts, " "))))
}
