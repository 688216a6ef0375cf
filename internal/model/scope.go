package model

import (
	"fmt"

	"gorm.io/gorm"
)

// Active restricts a merchant query to rows with active = true
func Active(db *gorm.DB) *gorm.DB {
	return db.Where("active = ?", true)
}

// Inactive restricts a merchant query to rows with active = false
func Inactive(db *gorm.DB) *gorm.DB {
	return db.Where("active = ?", false)
}

// Status names a merchant listing filter
type Status string

const (
	StatusAll      Status = ""
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ParseStatus accepts "", "all", "active" and "inactive"
func ParseStatus(s string) (Status, error) {
	switch s {
	case "", "all":
		return StatusAll, nil
	case string(StatusActive):
		return StatusActive, nil
	case string(StatusInactive):
		return StatusInactive, nil
	default:
		return StatusAll, fmt.Errorf("unknown merchant status %q", s)
	}
}

// Scope returns the gorm scope for s. StatusAll leaves the query untouched.
func (s Status) Scope() func(*gorm.DB) *gorm.DB {
	switch s {
	case StatusActive:
		return Active
	case StatusInactive:
		return Inactive
	default:
		return func(db *gorm.DB) *gorm.DB { return db }
	}
}

// Matches is the in-memory form of Scope. Merchants with a null active flag
// only match StatusAll.
func (s Status) Matches(m *Merchant) bool {
	switch s {
	case StatusActive:
		return m.Active != nil && *m.Active
	case StatusInactive:
		return m.Active != nil && !*m.Active
	default:
		return true
	}
}

func (s Status) String() string {
	if s == StatusAll {
		return "all"
	}
	return string(s)
}
