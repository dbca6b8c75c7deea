package server

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/argusia/argus/internal/database"
)

// ServerTestInterface defines the lifecycle of the server. Tests use it to
// drive the server without a real listener.
type ServerTestInterface interface {
	// SetupRoutes configures the HTTP routes for the server
	SetupRoutes()

	// GetRouter returns the configured router for request handling
	GetRouter() chi.Router

	// Start begins listening for HTTP requests
	Start() error

	// Shutdown gracefully stops the server
	Shutdown(ctx context.Context) error

	// SetupMaintenanceTasks initializes background maintenance operations
	SetupMaintenanceTasks()
}

// ServerDBHealthChecker defines the database operations the server itself needs.
type ServerDBHealthChecker interface {
	// HealthCheck verifies the database connection is working properly
	//
	// Parameters:
	//   - ctx: Context for the health check operation
	//
	// Returns:
	//   - An error if the database is unreachable or unhealthy
	HealthCheck(ctx context.Context) error

	// Close terminates the database connection
	Close()
}

var (
	_ ServerTestInterface   = (*Server)(nil)
	_ ServerDBHealthChecker = (*database.Pool)(nil)
)
