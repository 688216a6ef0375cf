package testutil

import (
	"fmt"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"github.com/suteetoe/merchant-service/internal/model"
)

var merchantSeq atomic.Uint64

// MerchantOption adjusts a merchant built by BuildMerchant
type MerchantOption func(*model.Merchant)

// WithEmail sets the merchant email as given, without normalizing it
func WithEmail(email string) MerchantOption {
	return func(m *model.Merchant) { m.Email = email }
}

// WithName sets the merchant name
func WithName(name string) MerchantOption {
	return func(m *model.Merchant) { m.Name = name }
}

// Inactive marks the merchant as retired
func Inactive() MerchantOption {
	return func(m *model.Merchant) {
		active := false
		m.Active = &active
	}
}

// WithoutActive leaves the active flag null
func WithoutActive() MerchantOption {
	return func(m *model.Merchant) { m.Active = nil }
}

// BuildMerchant returns an unsaved, valid merchant with sequenced name and email
func BuildMerchant(opts ...MerchantOption) *model.Merchant {
	n := merchantSeq.Add(1)
	description := "A test merchant for processing payments"
	active := true

	m := &model.Merchant{
		Name:                fmt.Sprintf("Merchant %d", n),
		Email:               fmt.Sprintf("merchant%d@example.com", n),
		Description:         &description,
		Active:              &active,
		TotalTransactionSum: decimal.Zero,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
