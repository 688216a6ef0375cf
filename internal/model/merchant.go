package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Merchant is a payment-accepting business account
type Merchant struct {
	ID                  uint            `json:"id" gorm:"primaryKey"`
	Name                string          `json:"name" gorm:"type:varchar;not null"`
	Description         *string         `json:"description" gorm:"type:text"`
	Email               string          `json:"email" gorm:"type:varchar;not null;uniqueIndex:index_merchants_on_email"`
	Active              *bool           `json:"active"`
	TotalTransactionSum decimal.Decimal `json:"total_transaction_sum" gorm:"type:numeric(10,2);not null;default:0"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Merchant
func (Merchant) TableName() string {
	return "merchants"
}

// NormalizeEmail returns the stored form of an email address.
func NormalizeEmail(email string) string {
	if email == "" {
		return email
	}
	return strings.ToLower(email)
}

// Normalize lowercases the email. It must run before the uniqueness check and
// before the merchant is handed to the database.
func (m *Merchant) Normalize() {
	m.Email = NormalizeEmail(m.Email)
}

// BeforeSave keeps the stored email lowercased for every gorm write path.
func (m *Merchant) BeforeSave(tx *gorm.DB) error {
	m.Normalize()
	return nil
}

// IsActive reports whether active is set and true
func (m *Merchant) IsActive() bool {
	return m.Active != nil && *m.Active
}
