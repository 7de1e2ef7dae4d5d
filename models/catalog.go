package models

// Subject is an entry of the subject catalog. SearchKey holds a transliterated,
// lower-cased copy of both names so Arabic subjects are searchable in Latin script.
type Subject struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Slug      string `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	NameEn    string `gorm:"size:255;not null" json:"name_en"`
	NameAr    string `gorm:"size:255" json:"name_ar"`
	SearchKey string `gorm:"type:text;index" json:"-"`
	IsActive  bool   `gorm:"not null" json:"is_active"`

	Timestamps
}
