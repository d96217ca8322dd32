package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/venuedesk/internal/auth"
	"github.com/venuedesk/venuedesk/internal/observability"
	"github.com/venuedesk/venuedesk/jobs"
)

func newTestRouter(t *testing.T) (http.Handler, *auth.Verifier) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	verifier, err := auth.NewVerifier("test-secret")
	require.NoError(t, err)
	router := NewRouter(RouterParams{
		Logger:     logger,
		Config:     &Config{AppEnv: "test", RateLimitPerMinute: 1000, AppRequestTimeout: time.Second},
		Verifier:   verifier,
		JobHandler: jobs.NewHandler(nil, logger),
		Metrics:    observability.NewMetrics(),
	})
	return router, verifier
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestAdminRequiresToken(t *testing.T) {
	router, verifier := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/jobs/health", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	token, err := verifier.Sign(auth.Principal{Subject: "u1", Email: "staff@venue.example", Role: "staff"}, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/admin/jobs/health", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	token, err = verifier.Sign(auth.Principal{Subject: "u2", Email: "owner@venue.example", Role: auth.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin/jobs/health", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `venuedesk_http_requests_total{code="200",route="/healthz"}`)
}

func TestRateLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(RouterParams{Logger: logger, Config: &Config{RateLimitPerMinute: 2}})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "203.0.113.9:1234"
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
