// Package testutil provides fixtures, an in-memory merchant store and
// PostgreSQL test database setup
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/suteetoe/merchant-service/internal/model"
	"github.com/suteetoe/merchant-service/internal/repository"
	"gorm.io/gorm"
)

var _ repository.MerchantRepository = (*MemoryMerchantRepository)(nil)

// MemoryMerchantRepository keeps merchants in a map and enforces the same
// unique index on email that the merchants table has.
type MemoryMerchantRepository struct {
	mu        sync.Mutex
	merchants map[uint]model.Merchant
	nextID    uint
	now       func() time.Time

	transactions int
}

func NewMemoryMerchantRepository() *MemoryMerchantRepository {
	return &MemoryMerchantRepository{
		merchants: make(map[uint]model.Merchant),
		nextID:    1,
		now:       time.Now,
	}
}

func (r *MemoryMerchantRepository) ByID(_ context.Context, id uint) (*model.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *MemoryMerchantRepository) EmailTaken(_ context.Context, email string, excludeID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, m := range r.merchants {
		if id != excludeID && strings.EqualFold(m.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

// indexConflict mirrors index_merchants_on_email, which compares stored bytes
func (r *MemoryMerchantRepository) indexConflict(email string, selfID uint) bool {
	for id, m := range r.merchants {
		if id != selfID && m.Email == email {
			return true
		}
	}
	return false
}

func (r *MemoryMerchantRepository) Save(_ context.Context, merchant *model.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := merchant.BeforeSave(nil); err != nil {
		return err
	}
	if r.indexConflict(merchant.Email, 0) {
		return fmt.Errorf("failed to save merchant: %w", gorm.ErrDuplicatedKey)
	}

	now := r.now()
	merchant.ID = r.nextID
	merchant.CreatedAt = now
	merchant.UpdatedAt = now
	r.nextID++

	r.merchants[merchant.ID] = *merchant
	return nil
}

func (r *MemoryMerchantRepository) Update(_ context.Context, merchant *model.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.merchants[merchant.ID]
	if !ok {
		return fmt.Errorf("failed to update merchant %d: %w", merchant.ID, repository.ErrNoRowsUpdated)
	}
	if err := merchant.BeforeSave(nil); err != nil {
		return err
	}
	if r.indexConflict(merchant.Email, merchant.ID) {
		return fmt.Errorf("failed to update merchant %d: %w", merchant.ID, gorm.ErrDuplicatedKey)
	}

	merchant.CreatedAt = existing.CreatedAt
	merchant.UpdatedAt = r.now()
	r.merchants[merchant.ID] = *merchant
	return nil
}

func (r *MemoryMerchantRepository) List(_ context.Context, status model.Status) ([]*model.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Merchant
	for _, m := range r.merchants {
		if status.Matches(&m) {
			found := m
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// WithTransaction runs fn directly; every write is already applied under the
// store's lock. Transactions counts the calls.
func (r *MemoryMerchantRepository) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	r.mu.Lock()
	r.transactions++
	r.mu.Unlock()
	return fn(ctx)
}

// Transactions returns how many units of work were started
func (r *MemoryMerchantRepository) Transactions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transactions
}

// Len returns the number of stored merchants
func (r *MemoryMerchantRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.merchants)
}
