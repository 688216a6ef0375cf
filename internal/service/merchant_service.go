// Package service holds the merchant write and read flows
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/suteetoe/merchant-service/internal/model"
	"github.com/suteetoe/merchant-service/internal/repository"
	"github.com/suteetoe/merchant-service/internal/validation"
	"github.com/suteetoe/merchant-service/pkg/logger"
	"github.com/suteetoe/merchant-service/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrMerchantNotFound = errors.New("merchant not found")

// CreateMerchantInput carries caller-supplied attributes for a new merchant
type CreateMerchantInput struct {
	Name        string
	Description *string
	Email       string
	Active      *bool
}

// UpdateMerchantInput is a partial update; nil fields are left unchanged
type UpdateMerchantInput struct {
	Name        *string
	Description *string
	Email       *string
	Active      *bool
}

// MerchantService validates, normalizes and persists merchants
type MerchantService struct {
	repo      repository.MerchantRepository
	validator *validation.MerchantValidator
	metrics   *metrics.MerchantMetrics
}

// NewMerchantService creates the service. m may be nil.
func NewMerchantService(repo repository.MerchantRepository, m *metrics.MerchantMetrics) *MerchantService {
	return &MerchantService{
		repo:      repo,
		validator: validation.NewMerchantValidator(repo),
		metrics:   m,
	}
}

// Create builds a merchant from in and persists it when every check passes.
// Validation failures are returned as validation.Errors.
func (s *MerchantService) Create(ctx context.Context, in CreateMerchantInput) (*model.Merchant, error) {
	log := logger.FromContext(ctx)

	merchant := &model.Merchant{
		Name:                in.Name,
		Description:         in.Description,
		Email:               in.Email,
		Active:              in.Active,
		TotalTransactionSum: decimal.Zero,
	}

	if err := s.persist(ctx, merchant, s.repo.Save); err != nil {
		return nil, err
	}

	s.metrics.ObserveCreated()
	log.Info("Merchant created",
		zap.Uint("id", merchant.ID),
		zap.String("name", merchant.Name),
		zap.String("email", merchant.Email))

	return merchant, nil
}

// Update applies in to the merchant with the given id
func (s *MerchantService) Update(ctx context.Context, id uint, in UpdateMerchantInput) (*model.Merchant, error) {
	log := logger.FromContext(ctx)

	merchant, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load merchant %d: %w", id, err)
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}

	if in.Name != nil {
		merchant.Name = *in.Name
	}
	if in.Description != nil {
		merchant.Description = in.Description
	}
	if in.Email != nil {
		merchant.Email = *in.Email
	}
	if in.Active != nil {
		merchant.Active = in.Active
	}

	if err := s.persist(ctx, merchant, s.repo.Update); err != nil {
		if errors.Is(err, repository.ErrNoRowsUpdated) {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}

	s.metrics.ObserveUpdated()
	log.Info("Merchant updated", zap.Uint("id", merchant.ID), zap.String("email", merchant.Email))

	return merchant, nil
}

// persist normalizes the merchant, then validates and writes it in one
// transaction so the uniqueness lookup sees the same snapshot as the write.
// A unique violation raised by the write is reported like a failed
// uniqueness check, since two writers can both pass validation before
// either commits.
func (s *MerchantService) persist(ctx context.Context, merchant *model.Merchant, write func(context.Context, *model.Merchant) error) error {
	log := logger.FromContext(ctx)

	merchant.Normalize()

	err := s.repo.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.validator.Validate(txCtx, merchant); err != nil {
			return err
		}
		return write(txCtx, merchant)
	})
	if err == nil {
		return nil
	}

	if errs, ok := validation.AsErrors(err); ok {
		s.observeFailures(errs)
		log.Warn("Merchant validation failed", zap.Uint("id", merchant.ID), zap.Error(errs))
		return errs
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		errs := validation.Duplicate()
		s.observeFailures(errs)
		log.Warn("Merchant email rejected by unique index", zap.String("email", merchant.Email))
		return errs
	}

	log.Error("Failed to persist merchant", zap.Uint("id", merchant.ID), zap.Error(err))
	return err
}

func (s *MerchantService) observeFailures(errs validation.Errors) {
	for _, fe := range errs {
		s.metrics.ObserveValidationFailure(fe.Field, string(fe.Kind))
	}
}

// Get returns ErrMerchantNotFound when no merchant has the id
func (s *MerchantService) Get(ctx context.Context, id uint) (*model.Merchant, error) {
	merchant, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load merchant %d: %w", id, err)
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}
	s.metrics.ObserveLookup("get")
	return merchant, nil
}

// List returns merchants matching status
func (s *MerchantService) List(ctx context.Context, status model.Status) ([]*model.Merchant, error) {
	merchants, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveLookup(status.String())
	return merchants, nil
}
