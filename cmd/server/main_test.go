package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/quickbiz/quickbiz-api/internal/shared/infrastructure/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandler(t *testing.T) http.Handler {
	t.Helper()
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	t.Setenv("ALLOWED_ORIGINS", "https://app.quickbiz.test")
	cfg := config.Load()
	return buildHandler(cfg, time.UTC, sqlx.NewDb(sqlDB, "sqlmock"), nil, zerolog.Nop())
}

func TestBuildHandler_Health(t *testing.T) {
	h := testHandler(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestBuildHandler_CORSApplied(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.quickbiz.test")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "https://app.quickbiz.test", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestBuildHandler_OwnerRoutesRequireAuth(t *testing.T) {
	h := testHandler(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/businesses/8c0d7a9e-6b8a-4c57-9d55-2f6f1a0f3b11/analytics/dashboard", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
