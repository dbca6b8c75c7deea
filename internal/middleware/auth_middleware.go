package middleware

import (
	"net/http"

	"github.com/argusia/argus/internal/auth"
)

// OperatorAuth requires a bearer token issued by jwtService or, when keys is
// configured, the operator key in the X-API-Key header.
func OperatorAuth(jwtService auth.JWTValidator, keys *auth.APIKeyService) func(http.Handler) http.Handler {
	providers := []auth.AuthProvider{auth.NewJWTAuthProvider(jwtService)}
	if keys != nil && keys.Configured() {
		providers = append(providers, auth.NewAPIKeyAuthProvider(keys))
	}
	return auth.RequireAuth(providers...)
}

// MaxBodySize limits request bodies to limit bytes. A limit <= 0 disables
// the check.
func MaxBodySize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
