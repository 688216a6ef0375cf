package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/merchant-service/internal/model"
	"github.com/suteetoe/merchant-service/internal/service"
	"github.com/suteetoe/merchant-service/internal/validation"
	"github.com/suteetoe/merchant-service/pkg/logger"
	"go.uber.org/zap"
)

// MerchantService is the subset of service.MerchantService the handlers use
type MerchantService interface {
	Create(ctx context.Context, in service.CreateMerchantInput) (*model.Merchant, error)
	Update(ctx context.Context, id uint, in service.UpdateMerchantInput) (*model.Merchant, error)
	Get(ctx context.Context, id uint) (*model.Merchant, error)
	List(ctx context.Context, status model.Status) ([]*model.Merchant, error)
}

// Attribute checks belong to the service; the request types only carry JSON.
type createMerchantRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Email       string  `json:"email"`
	Active      *bool   `json:"active"`
}

type updateMerchantRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Email       *string `json:"email"`
	Active      *bool   `json:"active"`
}

// MerchantHandler serves the /merchants routes
type MerchantHandler struct {
	service MerchantService
}

func NewMerchantHandler(svc MerchantService) *MerchantHandler {
	return &MerchantHandler{service: svc}
}

// Register mounts the merchant routes on g
func (h *MerchantHandler) Register(g *echo.Group) {
	g.POST("", h.CreateMerchant)
	g.GET("", h.ListMerchants)
	g.GET("/:id", h.GetMerchant)
	g.PATCH("/:id", h.UpdateMerchant)
}

// CreateMerchant handles merchant creation. Active defaults to true when omitted.
func (h *MerchantHandler) CreateMerchant(c echo.Context) error {
	log := logger.FromEcho(c)

	var req createMerchantRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse merchant creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Active == nil {
		active := true
		req.Active = &active
	}

	merchant, err := h.service.Create(c.Request().Context(), service.CreateMerchantInput{
		Name:        req.Name,
		Description: req.Description,
		Email:       req.Email,
		Active:      req.Active,
	})
	if err != nil {
		return h.writeError(c, err, "merchant creation failed")
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "Merchant created successfully",
		"merchant": merchant,
	})
}

// GetMerchant retrieves merchant details
func (h *MerchantHandler) GetMerchant(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid merchant ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid merchant ID"})
	}

	merchant, err := h.service.Get(c.Request().Context(), uint(id))
	if err != nil {
		return h.writeError(c, err, "failed to retrieve merchant")
	}

	return c.JSON(http.StatusOK, merchant)
}

// UpdateMerchant applies a partial update
func (h *MerchantHandler) UpdateMerchant(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid merchant ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid merchant ID"})
	}

	var req updateMerchantRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse merchant update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	merchant, err := h.service.Update(c.Request().Context(), uint(id), service.UpdateMerchantInput{
		Name:        req.Name,
		Description: req.Description,
		Email:       req.Email,
		Active:      req.Active,
	})
	if err != nil {
		return h.writeError(c, err, "merchant update failed")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Merchant updated successfully",
		"merchant": merchant,
	})
}

// ListMerchants lists merchants, optionally filtered by ?status=active|inactive
func (h *MerchantHandler) ListMerchants(c echo.Context) error {
	log := logger.FromEcho(c)

	status, err := model.ParseStatus(c.QueryParam("status"))
	if err != nil {
		log.Warn("Invalid merchant status filter", zap.String("status", c.QueryParam("status")))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	merchants, err := h.service.List(c.Request().Context(), status)
	if err != nil {
		return h.writeError(c, err, "failed to retrieve merchants")
	}
	if merchants == nil {
		merchants = []*model.Merchant{}
	}

	return c.JSON(http.StatusOK, merchants)
}

func (h *MerchantHandler) writeError(c echo.Context, err error, fallback string) error {
	if errs, ok := validation.AsErrors(err); ok {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":  "validation failed",
			"errors": errs.Messages(),
		})
	}
	if errors.Is(err, service.ErrMerchantNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "merchant not found"})
	}

	logger.FromEcho(c).Error(fallback, zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
}
