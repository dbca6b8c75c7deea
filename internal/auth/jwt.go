package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/argusia/argus/internal/config"
	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/utils"
)

// JWT errors
var (
	ErrInvalidSigningMethod = errors.New("invalid signing method")
	ErrMissingSecret        = errors.New("jwt secret is not configured")
)

// TokenTypeAccess is the only token type the API issues.
const TokenTypeAccess = "access"

// CustomClaims represents the claims in an operator token
type CustomClaims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed token with its identifier and expiry.
type IssuedToken struct {
	Token     string    `json:"access_token"`
	TokenID   string    `json:"token_id"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// JWTService issues and validates operator bearer tokens
type JWTService struct {
	Config *config.JWTSettings
	now    func() time.Time
}

// NewJWTService creates a new JWTService instance
func NewJWTService(cfg *config.JWTSettings) *JWTService {
	return &JWTService{Config: cfg, now: time.Now}
}

// GetConfig returns the settings, or defaults when none were given.
func (s *JWTService) GetConfig() *config.JWTSettings {
	if s.Config == nil {
		return &config.JWTSettings{
			Expiry: constants.DefaultJWTExpiry,
			Issuer: constants.DefaultJWTIssuer,
		}
	}
	return s.Config
}

// GenerateToken signs a new access token for subject.
func (s *JWTService) GenerateToken(subject string) (*IssuedToken, error) {
	cfg := s.GetConfig()
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}

	now := s.now()
	expiresAt := now.Add(cfg.Expiry)
	jwtID := uuid.New().String()

	claims := CustomClaims{
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jwtID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return nil, utils.NewInternalServerError(err)
	}

	return &IssuedToken{
		Token:     signed,
		TokenID:   jwtID,
		TokenType: TokenTypeAccess,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken validates a token and returns its claims if valid
func (s *JWTService) ValidateToken(tokenString string) (*CustomClaims, error) {
	cfg := s.GetConfig()

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, utils.NewExpiredTokenError()
		}
		return nil, utils.NewInvalidTokenError()
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, utils.NewInvalidTokenError()
	}

	if claims.TokenType != TokenTypeAccess {
		return nil, utils.NewInvalidTokenError()
	}
	if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
		return nil, utils.NewInvalidTokenError()
	}

	return claims, nil
}
