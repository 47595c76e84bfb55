package submit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/signal-club/internal/models"
	"github.com/magabrotheeeer/signal-club/internal/storage/repository"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) SubmitTransaction(ctx context.Context, req models.DummyTransaction) (int64, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(int64), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSubmitHandler(t *testing.T) {
	valid := models.DummyTransaction{UserID: 100, PackageID: 2, ProofRef: "photo-1"}

	tests := []struct {
		name           string
		body           string
		setupMock      func(m *ServiceMock)
		wantStatusCode int
		wantBody       string
	}{
		{
			name: "submitted",
			body: `{"user_id":100,"package_id":2,"proof_ref":"photo-1"}`,
			setupMock: func(m *ServiceMock) {
				m.On("SubmitTransaction", mock.Anything, valid).Return(int64(9), nil).Once()
			},
			wantStatusCode: http.StatusCreated,
			wantBody:       `{"status":"OK","data":{"transaction_id":9,"status":"pending"}}`,
		},
		{
			name:           "zero package",
			body:           `{"user_id":100,"package_id":0,"proof_ref":"photo-1"}`,
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown package",
			body: `{"user_id":100,"package_id":2,"proof_ref":"photo-1"}`,
			setupMock: func(m *ServiceMock) {
				m.On("SubmitTransaction", mock.Anything, valid).Return(int64(0), repository.ErrNotFound).Once()
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "service failure",
			body: `{"user_id":100,"package_id":2,"proof_ref":"photo-1"}`,
			setupMock: func(m *ServiceMock) {
				m.On("SubmitTransaction", mock.Anything, valid).Return(int64(0), errors.New("db down")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			name:           "broken json",
			body:           `[`,
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)

			rec := httptest.NewRecorder()
			New(newNoopLogger(), svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
			svc.AssertExpectations(t)
		})
	}
}
