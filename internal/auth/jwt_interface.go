package auth

// JWTValidator defines the interface for JWT validation
type JWTValidator interface {
	// ValidateToken validates a token and returns its claims if valid
	ValidateToken(tokenString string) (*CustomClaims, error)
}

// TokenIssuer signs tokens for an authenticated subject.
type TokenIssuer interface {
	GenerateToken(subject string) (*IssuedToken, error)
}

var (
	_ JWTValidator = (*JWTService)(nil)
	_ TokenIssuer  = (*JWTService)(nil)
)
