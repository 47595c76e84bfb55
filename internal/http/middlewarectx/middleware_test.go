package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/signal-club/internal/authz"
	"github.com/magabrotheeeer/signal-club/internal/http/middlewarectx"
	"github.com/magabrotheeeer/signal-club/internal/lib/jwt"
	"github.com/magabrotheeeer/signal-club/internal/models"
	"github.com/magabrotheeeer/signal-club/internal/storage/repository"
)

type AuthServiceMock struct{ mock.Mock }

func (m *AuthServiceMock) ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error) {
	args := m.Called(ctx, token)
	claims, _ := args.Get(0).(*jwt.CustomClaims)
	return claims, args.Error(1)
}

type CheckerMock struct{ mock.Mock }

func (m *CheckerMock) Check(ctx context.Context, userID int64, c authz.Capability) error {
	return m.Called(ctx, userID, c).Error(0)
}

type SettingsMock struct{ mock.Mock }

func (m *SettingsMock) MaintenanceEnabled(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		mockClaims     *jwt.CustomClaims
		mockErr        error
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "valid token",
			authHeader:     "Bearer validtoken",
			mockClaims:     &jwt.CustomClaims{UserID: 42, Role: "Admin"},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:           "missing header",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "wrong scheme",
			authHeader:     "Basic abc",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer badtoken",
			mockErr:        errors.New("invalid token"),
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthServiceMock)
			if tt.mockClaims != nil || tt.mockErr != nil {
				authMock.On("ValidateToken", mock.Anything, tt.authHeader[len("Bearer "):]).
					Return(tt.mockClaims, tt.mockErr).Once()
			}

			called := false
			var gotID int64
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				gotID, _ = middlewarectx.UserIDFrom(r.Context())
				assert.Equal(t, "Admin", r.Context().Value(middlewarectx.Role))
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			middlewarectx.JWTMiddleware(authMock, newNoopLogger())(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantCalled {
				assert.Equal(t, int64(42), gotID)
			}
			authMock.AssertExpectations(t)
		})
	}
}

func TestRequireCapability(t *testing.T) {
	tests := []struct {
		name           string
		userID         int64
		checkErr       error
		wantStatusCode int
		wantCalled     bool
	}{
		{name: "allowed", userID: 42, wantStatusCode: http.StatusOK, wantCalled: true},
		{name: "denied", userID: 42, checkErr: authz.ErrUnauthorized, wantStatusCode: http.StatusForbidden},
		{name: "unknown user", userID: 42, checkErr: repository.ErrNotFound, wantStatusCode: http.StatusForbidden},
		{name: "storage failure", userID: 42, checkErr: errors.New("db down"), wantStatusCode: http.StatusInternalServerError},
		{name: "no user in context", wantStatusCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := new(CheckerMock)
			if tt.userID != 0 {
				checker.On("Check", mock.Anything, tt.userID, authz.RunJobs).Return(tt.checkErr).Once()
			}

			called := false
			handler := middlewarectx.RequireCapability(checker, authz.RunJobs, newNoopLogger())(okHandler(&called))

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.userID != 0 {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, tt.userID))
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			assert.Equal(t, tt.wantCalled, called)
			checker.AssertExpectations(t)
		})
	}
}

func TestMaintenanceMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		enabled        bool
		readErr        error
		caller         string
		setupChecker   func(c *CheckerMock)
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "disabled",
			setupChecker:   func(_ *CheckerMock) {},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:    "enabled blocks regular user",
			enabled: true,
			caller:  "100",
			setupChecker: func(c *CheckerMock) {
				c.On("Check", mock.Anything, int64(100), authz.BypassMaintenance).Return(authz.ErrUnauthorized).Once()
			},
			wantStatusCode: http.StatusServiceUnavailable,
		},
		{
			name:    "enabled lets admin through",
			enabled: true,
			caller:  "42",
			setupChecker: func(c *CheckerMock) {
				c.On("Check", mock.Anything, int64(42), authz.BypassMaintenance).Return(nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:           "enabled without caller",
			enabled:        true,
			setupChecker:   func(_ *CheckerMock) {},
			wantStatusCode: http.StatusServiceUnavailable,
		},
		{
			name:           "flag read failure keeps api open",
			readErr:        errors.New("db down"),
			setupChecker:   func(_ *CheckerMock) {},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := new(SettingsMock)
			settings.On("MaintenanceEnabled", mock.Anything).Return(tt.enabled, tt.readErr).Once()
			checker := new(CheckerMock)
			tt.setupChecker(checker)

			called := false
			handler := middlewarectx.MaintenanceMiddleware(settings, checker, newNoopLogger())(okHandler(&called))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.caller != "" {
				req.Header.Set(middlewarectx.CallerHeader, tt.caller)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			assert.Equal(t, tt.wantCalled, called)
			checker.AssertExpectations(t)
		})
	}
}

type usersStub map[int64]string

func (u usersStub) GetUser(_ context.Context, id int64) (*models.User, error) {
	role, ok := u[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &models.User{ID: id, Role: role}, nil
}

func TestBotKeyMiddleware_GuardsMaintenanceBypass(t *testing.T) {
	const superAdmin = 777

	tests := []struct {
		name           string
		configuredKey  string
		botKey         string
		wantStatusCode int
		wantCalled     bool
	}{
		{name: "caller header without key", configuredKey: "secret", wantStatusCode: http.StatusUnauthorized},
		{name: "wrong key", configuredKey: "secret", botKey: "guess", wantStatusCode: http.StatusUnauthorized},
		{name: "key not configured", botKey: "", wantStatusCode: http.StatusUnauthorized},
		{name: "valid key lets admin bypass", configuredKey: "secret", botKey: "secret", wantStatusCode: http.StatusOK, wantCalled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := new(SettingsMock)
			settings.On("MaintenanceEnabled", mock.Anything).Return(true, nil).Maybe()
			checker := authz.NewChecker(usersStub{}, superAdmin)

			called := false
			log := newNoopLogger()
			handler := middlewarectx.BotKeyMiddleware(tt.configuredKey, log)(
				middlewarectx.MaintenanceMiddleware(settings, checker, log)(okHandler(&called)))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(middlewarectx.CallerHeader, "777")
			if tt.botKey != "" {
				req.Header.Set(middlewarectx.BotKeyHeader, tt.botKey)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0.0001), 2)
	called := false
	handler := middlewarectx.RateLimitMiddleware(limiter, newNoopLogger())(okHandler(&called))

	codes := make([]int, 0, 3)
	for range 3 {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
