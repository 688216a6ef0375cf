// Package repository provides the merchant data access layer
package repository

import (
	"context"
	"fmt"

	"github.com/suteetoe/merchant-service/internal/model"
	"gorm.io/gorm"
)

type contextKey string

// TxContextKey holds the active transaction in a context
const TxContextKey contextKey = "tx"

// MerchantRepository defines operations for merchants
type MerchantRepository interface {
	ByID(ctx context.Context, id uint) (*model.Merchant, error)
	EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)
	Save(ctx context.Context, merchant *model.Merchant) error
	Update(ctx context.Context, merchant *model.Merchant) error
	List(ctx context.Context, status model.Status) ([]*model.Merchant, error)
	// WithTransaction runs fn so that every call made with the context it
	// receives shares one unit of work.
	WithTransaction(ctx context.Context, fn func(context.Context) error) error
}

// runInTransaction executes fn within a database transaction. Repositories
// called with the context passed to fn join that transaction.
func runInTransaction(ctx context.Context, db *gorm.DB, fn func(context.Context) error) (err error) {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", r)
		}
	}()

	ctx = context.WithValue(ctx, TxContextKey, tx)

	if err := fn(ctx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
