package models

import "time"

// PaymentMirror is the payment provider's latest view of a payment, keyed by ProviderRef.
// Table name: payment_mirror
type PaymentMirror struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	ProviderRef string     `gorm:"size:64;not null;uniqueIndex" json:"provider_ref"`
	Status      string     `gorm:"type:varchar(16);not null;index" json:"status"`
	Amount      float64    `gorm:"not null" json:"amount"`
	Currency    string     `gorm:"type:varchar(8);not null" json:"currency"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (PaymentMirror) TableName() string { return "payment_mirror" }
