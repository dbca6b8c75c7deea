package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/argusia/argus/internal/auth"
	"github.com/argusia/argus/internal/config"
	"github.com/argusia/argus/internal/constants"
)

func protectedHandler(t *testing.T, wantSubject string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, ok := auth.GetSubject(r)
		if !ok || subject != wantSubject {
			t.Errorf("Expected subject %q in context, got %q (ok=%v)", wantSubject, subject, ok)
		}
		if _, ok := auth.GetRequestID(r); !ok {
			t.Error("Expected request ID in context")
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_Bearer(t *testing.T) {
	jwtService := auth.NewJWTService(testJWTSettings())
	issued, err := jwtService.GenerateToken(constants.OperatorSubject)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	handler := auth.RequireAuth(auth.NewJWTAuthProvider(jwtService))(protectedHandler(t, constants.OperatorSubject))

	r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	r.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+issued.Token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if r.Header.Get(constants.HeaderXRequestID) == "" {
		t.Error("Expected a request ID to be assigned")
	}
}

func TestRequireAuth_APIKey(t *testing.T) {
	cfg := fastHashConfig()
	key, hash, salt, err := auth.GenerateAPIKey(cfg)
	if err != nil {
		t.Fatalf("GenerateAPIKey returned error: %v", err)
	}
	keys := auth.NewAPIKeyService(&config.AuthSettings{APIKeyHash: hash, APIKeySalt: salt}, cfg)

	handler := auth.RequireAuth(
		auth.NewJWTAuthProvider(auth.NewJWTService(testJWTSettings())),
		auth.NewAPIKeyAuthProvider(keys),
	)(protectedHandler(t, constants.OperatorSubject))

	r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	r.Header.Set(constants.HeaderXAPIKey, key)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestRequireAuth_Rejects(t *testing.T) {
	jwtService := auth.NewJWTService(testJWTSettings())
	handler := auth.RequireAuth(auth.NewJWTAuthProvider(jwtService))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler must not be called")
	}))

	testCases := []struct {
		name   string
		header string
	}{
		{"No header", ""},
		{"Not bearer", "Basic dXNlcjpwYXNz"},
		{"Bad token", constants.BearerPrefix + "garbage"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
			if tc.header != "" {
				r.Header.Set(constants.HeaderAuthorization, tc.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401, got %d", w.Code)
			}
		})
	}
}

func TestGetSubject(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if auth.IsAuthenticated(r) {
		t.Error("Expected request without subject to be unauthenticated")
	}

	r = r.WithContext(context.WithValue(r.Context(), auth.SubjectContextKey, "operator"))
	subject, ok := auth.GetSubject(r)
	if !ok || subject != "operator" {
		t.Errorf("Expected subject 'operator', got %q (ok=%v)", subject, ok)
	}
	if !auth.IsAuthenticated(r) {
		t.Error("Expected request with subject to be authenticated")
	}
}
