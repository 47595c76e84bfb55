package role

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/signal-club/internal/storage/repository"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) AssignRole(ctx context.Context, userID int64, role, password string) error {
	return m.Called(ctx, userID, role, password).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRoleHandler(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		body           string
		setupMock      func(m *ServiceMock)
		wantStatusCode int
	}{
		{
			name: "member",
			path: "/users/7/role",
			body: `{"role":"Member"}`,
			setupMock: func(m *ServiceMock) {
				m.On("AssignRole", mock.Anything, int64(7), "Member", "").Return(nil).Once()
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "super admin with password",
			path: "/users/7/role",
			body: `{"role":"Super Admin","password":"pw"}`,
			setupMock: func(m *ServiceMock) {
				m.On("AssignRole", mock.Anything, int64(7), "Super Admin", "pw").Return(nil).Once()
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "role outside the list",
			path: "/users/7/role",
			body: `{"role":"Owner"}`,
			setupMock: func(m *ServiceMock) {
				m.On("AssignRole", mock.Anything, int64(7), "Owner", "").
					Return(fmt.Errorf("wrap: %w", repository.ErrUnknownRole)).Once()
			},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name: "user missing",
			path: "/users/7/role",
			body: `{"role":"Viewer"}`,
			setupMock: func(m *ServiceMock) {
				m.On("AssignRole", mock.Anything, int64(7), "Viewer", "").
					Return(fmt.Errorf("wrap: %w", repository.ErrNotFound)).Once()
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "password for viewer",
			path: "/users/7/role",
			body: `{"role":"Viewer","password":"pw"}`,
			setupMock: func(m *ServiceMock) {
				m.On("AssignRole", mock.Anything, int64(7), "Viewer", "pw").
					Return(fmt.Errorf("wrap: %w", repository.ErrUnknownRole)).Once()
			},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name: "storage failure",
			path: "/users/7/role",
			body: `{"role":"Admin"}`,
			setupMock: func(m *ServiceMock) {
				m.On("AssignRole", mock.Anything, int64(7), "Admin", "").Return(errors.New("db down")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			name:           "empty role",
			path:           "/users/7/role",
			body:           `{}`,
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "bad id",
			path:           "/users/x/role",
			body:           `{"role":"Admin"}`,
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)
			router := chi.NewRouter()
			router.Put("/users/{id}/role", New(newNoopLogger(), svc).ServeHTTP)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
