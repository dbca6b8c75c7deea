package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argusia/argus/internal/auth"
	"github.com/argusia/argus/internal/config"
	"github.com/argusia/argus/internal/constants"
)

type responseEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

func TestHealthRoute(t *testing.T) {
	tests := []struct {
		name       string
		healthErr  error
		wantStatus int
		wantBody   string
	}{
		{"Healthy", nil, http.StatusOK, `"status":"healthy"`},
		{"Unhealthy", errors.New("database is down"), http.StatusServiceUnavailable, `"service_unavailable"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &MockDB{HealthCheckFunc: func(ctx context.Context) error { return tt.healthErr }}
			s := newTestServer(t, createTestConfig(), db)

			rr := serve(s, httptest.NewRequest(http.MethodGet, constants.HealthPath, nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantBody)
		})
	}
}

func TestVersionRoute(t *testing.T) {
	s := newTestServer(t, createTestConfig(), &MockDB{})

	rr := serve(s, httptest.NewRequest(http.MethodGet, constants.VersionPath, nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var data map[string]string
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &data))
	assert.Equal(t, "1.0.0-test", data["version"])
	assert.Equal(t, "testing", data["environment"])
}

func TestRoutesExist(t *testing.T) {
	s := newTestServer(t, createTestConfig(), &MockDB{})

	rr := serve(s, httptest.NewRequest(http.MethodGet, constants.APIBasePath+constants.RoutesPath, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var routes []string
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &routes))

	for _, want := range []string{
		"GET /health",
		"GET /version",
		"GET /metrics",
		"POST /api/auth/token",
		"GET /api/dashboard",
		"GET /api/datasets",
		"POST /api/datasets/generate",
		"POST /api/datasets/generate/download",
		"POST /api/datasets/upload",
		"GET /api/datasets/{id}",
		"GET /api/datasets/{id}/download",
		"POST /api/datasets/{id}/analyze",
		"GET /api/analyses",
		"GET /api/analyses/{id}",
		"GET /api/analyses/{id}/export",
		"POST /api/analyses/{id}/score",
	} {
		assert.Contains(t, routes, want)
	}
}

func TestPipelineRoutes_Open(t *testing.T) {
	s := newTestServer(t, createTestConfig(), &MockDB{})

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/api/dashboard", http.StatusOK},
		{http.MethodGet, "/api/datasets", http.StatusOK},
		{http.MethodPost, "/api/datasets/generate", http.StatusCreated},
		{http.MethodPost, "/api/datasets/generate/download", http.StatusOK},
		{http.MethodGet, "/api/datasets/ds-1", http.StatusOK},
		{http.MethodPost, "/api/datasets/ds-1/analyze", http.StatusCreated},
		{http.MethodGet, "/api/analyses", http.StatusOK},
		{http.MethodGet, "/api/analyses/an-1", http.StatusOK},
		{http.MethodGet, "/api/analyses/an-1/export", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := serve(s, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestPipelineRoutes_SetSecurityHeaders(t *testing.T) {
	s := newTestServer(t, createTestConfig(), &MockDB{})

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	assert.Equal(t, constants.FrameOptionsDeny, rr.Header().Get(constants.HeaderXFrameOptions))
	assert.Equal(t, constants.CacheControlNoStore, rr.Header().Get(constants.HeaderCacheControl))
}

func TestPipelineRoutes_RequireAuth(t *testing.T) {
	cfg := createTestConfig()
	key, hash, salt, err := auth.GenerateAPIKey(auth.ConfigFromAppConfig(cfg))
	require.NoError(t, err)
	cfg.Auth = config.AuthSettings{Enabled: true, APIKeyHash: hash, APIKeySalt: salt}
	s := newTestServer(t, cfg, &MockDB{})

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Exchange the key for a token and use it.
	rr = serve(s, httptest.NewRequest(http.MethodPost, constants.AuthTokenPath, strings.NewReader(`{"api_key":"`+key+`"}`)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var issued auth.IssuedToken
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &issued))
	require.NotEmpty(t, issued.Token)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+issued.Token)
	rr = serve(s, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	// The key itself is accepted too.
	req = httptest.NewRequest(http.MethodGet, "/api/datasets", nil)
	req.Header.Set(constants.HeaderXAPIKey, key)
	rr = serve(s, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	// Health stays open.
	rr = serve(s, httptest.NewRequest(http.MethodGet, constants.HealthPath, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestTokenRoute_WrongKey(t *testing.T) {
	cfg := createTestConfig()
	_, hash, salt, err := auth.GenerateAPIKey(auth.ConfigFromAppConfig(cfg))
	require.NoError(t, err)
	cfg.Auth = config.AuthSettings{Enabled: true, APIKeyHash: hash, APIKeySalt: salt}
	s := newTestServer(t, cfg, &MockDB{})

	rr := serve(s, httptest.NewRequest(http.MethodPost, constants.AuthTokenPath, strings.NewReader(`{"api_key":"guess"}`)))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, constants.CodeInvalidCredentials, decode(t, rr).Error.Code)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, createTestConfig(), &MockDB{})

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, constants.CodeNotFound, decode(t, rr).Error.Code)

	rr = serve(s, httptest.NewRequest(http.MethodDelete, "/api/datasets", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.False(t, decode(t, rr).Success)
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t, createTestConfig(), &MockDB{})

	serve(s, httptest.NewRequest(http.MethodGet, "/api/analyses/an-1", nil))
	rr := serve(s, httptest.NewRequest(http.MethodGet, constants.MetricsPath, nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "argus_http_requests_total")
	assert.Contains(t, body, `route="/api/analyses/{id}"`)
}

func TestCorsMiddleware(t *testing.T) {
	s := newTestServer(t, createTestConfig(), &MockDB{})

	req := httptest.NewRequest(http.MethodOptions, "/api/dashboard", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := serve(s, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), constants.HeaderXAPIKey)

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = serve(s, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginAllowed(t *testing.T) {
	assert.True(t, originAllowed([]string{"*"}, "https://any.example"))
	assert.True(t, originAllowed([]string{"https://a.example", "https://b.example"}, "https://b.example"))
	assert.False(t, originAllowed([]string{"https://a.example"}, "https://b.example"))
	assert.False(t, originAllowed(nil, "https://a.example"))
}
