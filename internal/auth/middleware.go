package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/utils"
)

// ContextKey is a custom type for context keys to prevent collisions.
type ContextKey string

// Context keys for the authenticated subject and request metadata.
const (
	// SubjectContextKey is the context key for the authenticated subject.
	SubjectContextKey ContextKey = constants.SubjectContextKey

	// RequestIDContextKey is the context key for storing the unique request ID.
	RequestIDContextKey ContextKey = constants.RequestIDContextKey
)

// AuthProvider defines methods for different authentication mechanisms.
type AuthProvider interface {
	// Authenticate checks the request and returns the authenticated subject.
	Authenticate(r *http.Request) (string, error)
}

// JWTAuthProvider implements bearer token authentication.
type JWTAuthProvider struct {
	jwtService JWTValidator
}

// NewJWTAuthProvider creates a new JWTAuthProvider with the specified JWT validator.
func NewJWTAuthProvider(jwtService JWTValidator) *JWTAuthProvider {
	return &JWTAuthProvider{jwtService: jwtService}
}

// Authenticate implements the AuthProvider interface for JWT authentication.
func (p *JWTAuthProvider) Authenticate(r *http.Request) (string, error) {
	authHeader := r.Header.Get(constants.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, constants.BearerPrefix) {
		return "", utils.ErrUnauthorized
	}

	token := strings.TrimPrefix(authHeader, constants.BearerPrefix)
	claims, err := p.jwtService.ValidateToken(token)
	if err != nil {
		return "", err
	}

	return claims.Subject, nil
}

// APIKeyAuthProvider authenticates requests carrying the operator key in the
// X-API-Key header.
type APIKeyAuthProvider struct {
	keys *APIKeyService
}

// NewAPIKeyAuthProvider creates a provider backed by keys.
func NewAPIKeyAuthProvider(keys *APIKeyService) *APIKeyAuthProvider {
	return &APIKeyAuthProvider{keys: keys}
}

// Authenticate implements the AuthProvider interface for API key authentication.
func (p *APIKeyAuthProvider) Authenticate(r *http.Request) (string, error) {
	apiKey := r.Header.Get(constants.HeaderXAPIKey)
	if apiKey == "" || !p.keys.Configured() {
		return "", utils.ErrUnauthorized
	}
	if err := p.keys.Verify(apiKey); err != nil {
		return "", err
	}
	return constants.OperatorSubject, nil
}

// AuthMiddleware wraps an HTTP handler with authentication.
// It tries each provider in order and lets the request through on the
// first success.
func AuthMiddleware(next http.Handler, providers ...AuthProvider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(constants.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
			r.Header.Set(constants.HeaderXRequestID, requestID)
		}

		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)

		lastErr := utils.ErrUnauthorized
		for _, provider := range providers {
			subject, err := provider.Authenticate(r)
			if err == nil {
				ctx = context.WithValue(ctx, SubjectContextKey, subject)

				log.Debug().
					Str("category", constants.LogCategoryAuth).
					Str("subject", subject).
					Str("request_id", requestID).
					Str("path", r.URL.Path).
					Msg("Request authenticated")

				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			lastErr = err
		}

		utils.LogAuth("authenticate", "", false, lastErr.Error())

		var appErr *utils.AppError
		if errors.As(lastErr, &appErr) {
			utils.ErrorFromAppError(w, appErr)
		} else {
			utils.Unauthorized(w, constants.MsgAuthRequired)
		}
	})
}

// RequireAuth is a middleware that requires authentication by one of providers.
func RequireAuth(providers ...AuthProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return AuthMiddleware(next, providers...)
	}
}

// GetSubject extracts the authenticated subject from the request context.
func GetSubject(r *http.Request) (string, bool) {
	subject, ok := r.Context().Value(SubjectContextKey).(string)
	return subject, ok
}

// GetRequestID extracts the request ID from the request context.
func GetRequestID(r *http.Request) (string, bool) {
	requestID, ok := r.Context().Value(RequestIDContextKey).(string)
	return requestID, ok
}

// IsAuthenticated checks if the request is authenticated.
func IsAuthenticated(r *http.Request) bool {
	_, ok := GetSubject(r)
	return ok
}
