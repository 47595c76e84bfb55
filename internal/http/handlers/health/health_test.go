package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name           string
		checks         map[string]Check
		wantStatusCode int
		wantBody       string
	}{
		{
			name:           "all healthy",
			checks:         map[string]Check{"postgres": ok, "redis": ok},
			wantStatusCode: http.StatusOK,
			wantBody:       `{"status":"OK","data":{"postgres":"ok","redis":"ok"}}`,
		},
		{
			name:           "redis down",
			checks:         map[string]Check{"postgres": ok, "redis": down},
			wantStatusCode: http.StatusServiceUnavailable,
			wantBody:       `{"status":"Error","error":"unhealthy","data":{"postgres":"ok","redis":"connection refused"}}`,
		},
		{
			name:           "no checks",
			checks:         nil,
			wantStatusCode: http.StatusOK,
			wantBody:       `{"status":"OK","data":{}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			New(newNoopLogger(), tt.checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
