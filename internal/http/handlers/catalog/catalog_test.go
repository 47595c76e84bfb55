package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/signal-club/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Packages(ctx context.Context) ([]models.Package, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.Package)
	return list, args.Error(1)
}

func (m *ServiceMock) PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.PaymentMethod)
	return list, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestCatalog_Packages(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("Packages", mock.Anything).Return([]models.Package{
		{ID: 1, Name: "Crypto 30d", Price: decimal.RequireFromString("150000"), DurationDays: 30, Assets: models.AssetCrypto},
	}, nil).Once()

	rec := httptest.NewRecorder()
	New(newNoopLogger(), svc).Packages(rec, httptest.NewRequest(http.MethodGet, "/packages", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Data []Package `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got.Data, 1)
	assert.Equal(t, "150000.00", got.Data[0].Price)
	assert.Equal(t, models.AssetCrypto, got.Data[0].Assets)
}

func TestCatalog_Errors(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("Packages", mock.Anything).Return(nil, errors.New("db down")).Once()
	svc.On("PaymentMethods", mock.Anything).Return(nil, errors.New("db down")).Once()
	h := New(newNoopLogger(), svc)

	rec := httptest.NewRecorder()
	h.Packages(rec, httptest.NewRequest(http.MethodGet, "/packages", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	h.PaymentMethods(rec, httptest.NewRequest(http.MethodGet, "/payment-methods", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCatalog_PaymentMethodsEmpty(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("PaymentMethods", mock.Anything).Return(nil, nil).Once()

	rec := httptest.NewRecorder()
	New(newNoopLogger(), svc).PaymentMethods(rec, httptest.NewRequest(http.MethodGet, "/payment-methods", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK","data":[]}`, rec.Body.String())
}
