package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/suteetoe/merchant-service/internal/model"
	"gorm.io/gorm"
)

// ErrNoRowsUpdated is returned by Update when the merchant no longer exists
var ErrNoRowsUpdated = errors.New("no rows updated")

// MerchantRepositoryImpl implements MerchantRepository on gorm
type MerchantRepositoryImpl struct {
	DB *gorm.DB
}

// NewMerchantRepository creates a new merchant repository
func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &MerchantRepositoryImpl{DB: db}
}

// getDB returns the transaction stored in ctx, or the base connection
func (r *MerchantRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.DB.WithContext(ctx)
}

// WithTransaction joins the transaction already in ctx, or opens a new one
func (r *MerchantRepositoryImpl) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return fn(ctx)
	}
	return runInTransaction(ctx, r.DB, fn)
}

// ByID returns nil without error when no merchant has the id
func (r *MerchantRepositoryImpl) ByID(ctx context.Context, id uint) (*model.Merchant, error) {
	var merchant model.Merchant
	err := r.getDB(ctx).First(&merchant, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find merchant by ID %d: %w", id, err)
	}
	return &merchant, nil
}

// EmailTaken reports whether a merchant other than excludeID uses email,
// ignoring case. excludeID 0 excludes nobody.
func (r *MerchantRepositoryImpl) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	query := r.getDB(ctx).Model(&model.Merchant{}).Where("LOWER(email) = LOWER(?)", email)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count merchants by email: %w", err)
	}
	return count > 0, nil
}

// Save inserts a new merchant. A unique violation on email surfaces as
// gorm.ErrDuplicatedKey.
func (r *MerchantRepositoryImpl) Save(ctx context.Context, merchant *model.Merchant) error {
	if err := r.getDB(ctx).Create(merchant).Error; err != nil {
		return fmt.Errorf("failed to save merchant: %w", err)
	}
	return nil
}

// Update writes every column of an existing merchant except created_at
func (r *MerchantRepositoryImpl) Update(ctx context.Context, merchant *model.Merchant) error {
	result := r.getDB(ctx).Model(merchant).Select("*").Omit("id", "created_at").Updates(merchant)
	if result.Error != nil {
		return fmt.Errorf("failed to update merchant %d: %w", merchant.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update merchant %d: %w", merchant.ID, ErrNoRowsUpdated)
	}
	return nil
}

// List returns merchants matching status ordered by id
func (r *MerchantRepositoryImpl) List(ctx context.Context, status model.Status) ([]*model.Merchant, error) {
	var merchants []*model.Merchant
	err := r.getDB(ctx).Scopes(status.Scope()).Order("id ASC").Find(&merchants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s merchants: %w", status, err)
	}
	return merchants, nil
}
