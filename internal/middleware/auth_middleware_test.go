package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argusia/argus/internal/auth"
	"github.com/argusia/argus/internal/config"
	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/middleware"
)

func testJWTService() *auth.JWTService {
	return auth.NewJWTService(&config.JWTSettings{
		Secret: "middleware-test-secret",
		Expiry: time.Hour,
		Issuer: "argus-test",
	})
}

func testHashConfig() *auth.HashConfig {
	return &auth.HashConfig{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestOperatorAuth_Bearer(t *testing.T) {
	jwtService := testJWTService()
	issued, err := jwtService.GenerateToken(constants.OperatorSubject)
	require.NoError(t, err)

	next := &SecurityMockHandler{}
	handler := middleware.OperatorAuth(jwtService, nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+issued.Token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, next.Calls)
}

func TestOperatorAuth_APIKey(t *testing.T) {
	cfg := testHashConfig()
	key, hash, salt, err := auth.GenerateAPIKey(cfg)
	require.NoError(t, err)
	keys := auth.NewAPIKeyService(&config.AuthSettings{APIKeyHash: hash, APIKeySalt: salt}, cfg)

	next := &SecurityMockHandler{}
	handler := middleware.OperatorAuth(testJWTService(), keys)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set(constants.HeaderXAPIKey, key)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set(constants.HeaderXAPIKey, "not-the-key")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, 1, next.Calls)
}

func TestOperatorAuth_UnconfiguredKeyIgnored(t *testing.T) {
	keys := auth.NewAPIKeyService(&config.AuthSettings{}, testHashConfig())

	next := &SecurityMockHandler{}
	handler := middleware.OperatorAuth(testJWTService(), keys)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set(constants.HeaderXAPIKey, "anything")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Zero(t, next.Calls)
}
