package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dafibh/tally/tally-backend/internal/config"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	cfg := &config.Config{CORSOrigins: []string{"http://localhost:3000"}}

	tests := []struct {
		name   string
		db     Pinger
		status int
	}{
		{"database reachable", fakePinger{}, http.StatusOK},
		{"database down", fakePinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
		{"no database", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(cfg, tt.db)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
		})
	}
}

func TestNew_SecurityHeaders(t *testing.T) {
	e := New(&config.Config{}, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
