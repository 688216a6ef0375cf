package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/merchant-service/internal/model"
	"github.com/suteetoe/merchant-service/internal/service"
	"github.com/suteetoe/merchant-service/internal/testutil"
)

type merchantBody struct {
	ID                  uint    `json:"id"`
	Name                string  `json:"name"`
	Email               string  `json:"email"`
	Active              *bool   `json:"active"`
	TotalTransactionSum string  `json:"total_transaction_sum"`
	Description         *string `json:"description"`
}

type createResponse struct {
	Message  string       `json:"message"`
	Merchant merchantBody `json:"merchant"`
}

type errorResponse struct {
	Error  string              `json:"error"`
	Errors map[string][]string `json:"errors"`
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	svc := service.NewMerchantService(testutil.NewMemoryMerchantRepository(), nil)

	e := echo.New()
	NewMerchantHandler(svc).Register(e.Group("/merchants"))
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateMerchant(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/merchants", `{"name":"Acme","email":"Billing@ACME.com","description":"payments"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "billing@acme.com", resp.Merchant.Email)
	require.NotNil(t, resp.Merchant.Active)
	assert.True(t, *resp.Merchant.Active, "active defaults to true on create")
	assert.Equal(t, "0", resp.Merchant.TotalTransactionSum)
	require.NotNil(t, resp.Merchant.Description)
	assert.Equal(t, "payments", *resp.Merchant.Description)
}

func TestCreateMerchantDuplicateEmail(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/merchants", `{"name":"First","email":"user@EXAMPLE.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(e, http.MethodPost, "/merchants", `{"name":"Second","email":"USER@example.com"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"has already been taken"}, resp.Errors["email"])
}

func TestCreateMerchantValidationErrors(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/merchants", `{"name":"","email":"broken"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"can't be blank"}, resp.Errors["name"])
	assert.Equal(t, []string{"is invalid"}, resp.Errors["email"])
}

func TestCreateMerchantBadRequest(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/merchants", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/merchants", `{"name":"A","email":42}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateMerchantAcceptsLongAttributes(t *testing.T) {
	e := newTestServer(t)

	name := strings.Repeat("n", 300)
	rec := do(e, http.MethodPost, "/merchants", `{"name":"`+name+`","email":"long-name@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, name, resp.Merchant.Name)

	email := strings.Repeat("a", 250) + "@Example.com"
	require.Len(t, email, 262)
	rec = do(e, http.MethodPost, "/merchants", `{"name":"Long Email","email":"`+email+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, strings.ToLower(email), resp.Merchant.Email)

	rec = do(e, http.MethodPatch, "/merchants/1", `{"name":"`+strings.Repeat("m", 300)+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestGetAndUpdateMerchant(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/merchants", `{"name":"Acme","email":"ops@acme.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(e, http.MethodGet, "/merchants/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got merchantBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ops@acme.com", got.Email)

	rec = do(e, http.MethodPatch, "/merchants/1", `{"email":"NEW@Acme.com","active":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "new@acme.com", updated.Merchant.Email)
	assert.Equal(t, "Acme", updated.Merchant.Name)
	require.NotNil(t, updated.Merchant.Active)
	assert.False(t, *updated.Merchant.Active)

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/merchants/99", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPatch, "/merchants/99", `{"name":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/merchants/abc", "").Code)
}

func TestListMerchantsByStatus(t *testing.T) {
	e := newTestServer(t)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/merchants", `{"name":"A","email":"a@example.com","active":true}`).Code)
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/merchants", `{"name":"B","email":"b@example.com","active":false}`).Code)
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/merchants", `{"name":"C","email":"c@example.com"}`).Code)

	list := func(query string) []merchantBody {
		rec := do(e, http.MethodGet, "/merchants"+query, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var out []merchantBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return out
	}

	assert.Len(t, list(""), 3)

	active := list("?status=active")
	require.Len(t, active, 2)
	assert.Equal(t, "a@example.com", active[0].Email)
	assert.Equal(t, "c@example.com", active[1].Email)

	inactive := list("?status=inactive")
	require.Len(t, inactive, 1)
	assert.Equal(t, "b@example.com", inactive[0].Email)

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/merchants?status=archived", "").Code)
}

type failingService struct{}

func (failingService) Create(context.Context, service.CreateMerchantInput) (*model.Merchant, error) {
	return nil, errors.New("db down")
}

func (failingService) Update(context.Context, uint, service.UpdateMerchantInput) (*model.Merchant, error) {
	return nil, errors.New("db down")
}

func (failingService) Get(context.Context, uint) (*model.Merchant, error) {
	return nil, errors.New("db down")
}

func (failingService) List(context.Context, model.Status) ([]*model.Merchant, error) {
	return nil, errors.New("db down")
}

func TestInternalErrors(t *testing.T) {
	e := echo.New()
	NewMerchantHandler(failingService{}).Register(e.Group("/merchants"))

	assert.Equal(t, http.StatusInternalServerError, do(e, http.MethodPost, "/merchants", `{"name":"A","email":"a@example.com"}`).Code)
	assert.Equal(t, http.StatusInternalServerError, do(e, http.MethodGet, "/merchants/1", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(e, http.MethodGet, "/merchants", "").Code)
}

func TestHealthCheck(t *testing.T) {
	e := echo.New()
	healthy := NewHealthHandler(func(context.Context) error { return nil })
	broken := NewHealthHandler(func(context.Context) error { return errors.New("refused") })
	e.GET("/health", healthy.HealthCheck)
	e.GET("/broken", broken.HealthCheck)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/health?check=db", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/broken", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(e, http.MethodGet, "/broken?check=db", "").Code)
}
