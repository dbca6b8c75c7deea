package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/middleware"
)

// SecurityMockHandler is a simple HTTP handler for testing security middleware
type SecurityMockHandler struct {
	Calls int
}

// ServeHTTP implements the http.Handler interface
func (h *SecurityMockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Calls++
	w.WriteHeader(http.StatusOK)
}

func TestRateLimit(t *testing.T) {
	next := &SecurityMockHandler{}
	handler := middleware.RateLimit(2, time.Minute)(next)

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/datasets", nil)
		req.RemoteAddr = ip + ":4711"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)

	limited := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get(constants.HeaderRetryAfter))
	assert.Contains(t, limited.Body.String(), constants.CodeTooManyRequests)

	// Other clients keep their own budget.
	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)
	assert.Equal(t, 3, next.Calls)
}

func TestRateLimit_ForwardedFor(t *testing.T) {
	next := &SecurityMockHandler{}
	handler := middleware.RateLimit(1, time.Minute)(next)

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/api/analyses", nil)
		req.RemoteAddr = "192.0.2.10:1000"
		req.Header.Set(constants.HeaderXForwardedFor, "203.0.113.7, 192.0.2.10")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, want, rr.Code, "request %d", i)
	}
}

func TestRateLimit_ExemptPaths(t *testing.T) {
	next := &SecurityMockHandler{}
	handler := middleware.RateLimit(1, time.Minute)(next)

	for _, path := range []string{constants.HealthPath, constants.HealthPath, constants.MetricsPath, constants.VersionPath} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
	assert.Equal(t, 4, next.Calls)
}

func TestSecurityHeaders(t *testing.T) {
	handler := middleware.SecurityHeaders()(&SecurityMockHandler{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, constants.ContentTypeOptionsNoSniff, rr.Header().Get(constants.HeaderXContentTypeOptions))
	assert.Equal(t, constants.FrameOptionsDeny, rr.Header().Get(constants.HeaderXFrameOptions))
	assert.Equal(t, constants.XSSProtectionModeBlock, rr.Header().Get(constants.HeaderXXSSProtection))
	assert.Equal(t, constants.ReferrerPolicyStrictOrigin, rr.Header().Get(constants.HeaderReferrerPolicy))
	assert.Equal(t, constants.CSPDefaultSrc, rr.Header().Get(constants.HeaderContentSecurityPolicy))
}

func TestNoStore(t *testing.T) {
	handler := middleware.NoStore()(&SecurityMockHandler{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/analyses/1", nil))

	assert.Equal(t, constants.CacheControlNoStore, rr.Header().Get(constants.HeaderCacheControl))
	assert.Equal(t, constants.PragmaNoCache, rr.Header().Get(constants.HeaderPragma))
	assert.Equal(t, constants.ExpiresZero, rr.Header().Get(constants.HeaderExpires))
}

func TestMaxBodySize(t *testing.T) {
	var readErr error
	handler := middleware.MaxBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/datasets/upload", strings.NewReader("short")))
	require.NoError(t, readErr)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/datasets/upload", strings.NewReader("far too long for the limit")))
	require.Error(t, readErr)
}
