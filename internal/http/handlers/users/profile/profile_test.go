package profile

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/signal-club/internal/models"
	"github.com/magabrotheeeer/signal-club/internal/storage/repository"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) CurrentSubscription(ctx context.Context, userID int64) (*models.SubscriptionInfo, error) {
	args := m.Called(ctx, userID)
	sub, _ := args.Get(0).(*models.SubscriptionInfo)
	return sub, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestProfileHandler(t *testing.T) {
	end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	sub := &models.SubscriptionInfo{
		Subscription: models.Subscription{ID: 3, UserID: 100, EndDate: end, Status: models.SubscriptionActive},
		PackageName:  "VIP",
		Assets:       models.AssetAll,
	}

	tests := []struct {
		name           string
		path           string
		setupMock      func(m *ServiceMock)
		wantStatusCode int
	}{
		{
			name: "active subscription",
			path: "/users/100/subscription",
			setupMock: func(m *ServiceMock) {
				m.On("CurrentSubscription", mock.Anything, int64(100)).Return(sub, nil).Once()
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "no subscription",
			path: "/users/100/subscription",
			setupMock: func(m *ServiceMock) {
				m.On("CurrentSubscription", mock.Anything, int64(100)).Return(nil, repository.ErrNotFound).Once()
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "storage failure",
			path: "/users/100/subscription",
			setupMock: func(m *ServiceMock) {
				m.On("CurrentSubscription", mock.Anything, int64(100)).Return(nil, errors.New("db down")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			name:           "bad id",
			path:           "/users/abc/subscription",
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)
			router := chi.NewRouter()
			router.Get("/users/{id}/subscription", New(newNoopLogger(), svc).ServeHTTP)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.wantStatusCode == http.StatusOK {
				var got struct {
					Data Subscription `json:"data"`
				}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				assert.Equal(t, "VIP", got.Data.PackageName)
				assert.True(t, end.Equal(got.Data.EndDate))
			}
			svc.AssertExpectations(t)
		})
	}
}
