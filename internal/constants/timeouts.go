package constants

import "time"

// Server Timeouts
const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 5 * time.Minute
	DefaultShutdownTimeout = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
)

// Database Timeouts
const (
	DBConnectionTimeout  = 30 * time.Second
	DBQueryTimeout       = 15 * time.Second
	DBHealthCheckTimeout = 5 * time.Second
	DBConnMaxLifetime    = 1 * time.Hour
	DBConnMaxIdleTime    = 30 * time.Minute
)

// Authentication Timeouts
const (
	DefaultJWTExpiry = 1 * time.Hour
)

// Dataset Buffer
const (
	DefaultDatasetTTL      = 2 * time.Hour
	DatasetCleanupInterval = 10 * time.Minute
)

// Rate Limiting applies per client IP to the API routes.
const (
	RateLimitRequests = 120
	RateLimitWindow   = 1 * time.Minute
)
