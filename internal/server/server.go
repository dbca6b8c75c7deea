// Package server provides HTTP server implementation for the Argus application.
// It handles routing, middleware configuration, and server lifecycle management.
//
// The server package follows a structured initialization approach with dependency
// injection: database → auth providers → repositories → pipeline and services →
// handlers → routes. It handles graceful shutdown and periodic maintenance.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/argusia/argus/internal/auth"
	"github.com/argusia/argus/internal/config"
	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/database"
	"github.com/argusia/argus/internal/dataset"
	"github.com/argusia/argus/internal/detection"
	"github.com/argusia/argus/internal/handlers"
	"github.com/argusia/argus/internal/metrics"
	"github.com/argusia/argus/internal/repository"
	"github.com/argusia/argus/internal/service"
	"github.com/argusia/argus/migrations"
	"github.com/argusia/argus/scripts"
)

// Handlers contains all HTTP handlers for the application.
type Handlers struct {
	// AuthHandler exchanges the operator key for bearer tokens
	AuthHandler *handlers.AuthHandler

	// DatasetHandler manages dataset generation, upload and download
	DatasetHandler *handlers.DatasetHandler

	// AnalysisHandler manages analyses, exports and the dashboard
	AnalysisHandler *handlers.AnalysisHandler
}

// AuthProviders contains all authentication providers for the application.
type AuthProviders struct {
	// JWTService handles bearer token generation and validation
	JWTService *auth.JWTService

	// APIKeys verifies the operator API key
	APIKeys *auth.APIKeyService
}

// Server represents the API server for the Argus application.
type Server struct {
	// Config contains application configuration
	Config *config.AppConfig

	// Db provides database access
	Db ServerDBHealthChecker

	// router handles HTTP routing
	router chi.Router

	// Handlers contains all HTTP request handlers
	Handlers *Handlers

	// Metrics holds the Prometheus collectors
	Metrics *metrics.Metrics

	// authProviders contains authentication services
	authProviders *AuthProviders

	// store buffers dataset tables between intake and analysis
	store *dataset.Store

	// httpServer is the underlying HTTP server
	httpServer *http.Server

	// stopMaintenance ends the maintenance goroutine
	stopMaintenance chan struct{}
}

// NewServer creates a new server instance with all required components.
//
// Parameters:
//   - cfg: Application configuration including database, server, auth and detection settings
//
// Returns:
//   - A fully initialized Server instance ready to start
//   - An error if initialization of any component fails
func NewServer(cfg *config.AppConfig) (*Server, error) {
	s := &Server{
		Config: cfg,
	}

	catalog, err := loadCatalog(cfg.Detection.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pattern catalog: %w", err)
	}

	pool, err := s.setupDatabase(catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	m, err := metrics.New()
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}
	s.Metrics = m

	s.setupAuthProviders()
	s.setupHandlers(pool, catalog)

	s.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Server.ServerAddress(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  constants.DefaultIdleTimeout,
	}

	return s, nil
}

// loadCatalog reads the pattern catalog from path, or returns the built-in
// catalog when no path is configured.
func loadCatalog(path string) (*detection.Catalog, error) {
	if path == "" {
		return detection.DefaultCatalog(), nil
	}

	catalog, err := detection.LoadCatalog(path)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("path", path).
		Str("catalog_version", catalog.Version()).
		Msg("Pattern catalog loaded")

	return catalog, nil
}

// setupDatabase connects to the database, runs migrations and registers the
// pattern catalogs.
func (s *Server) setupDatabase(catalog *detection.Catalog) (*database.Pool, error) {
	db, err := database.Connect(s.Config)
	if err != nil {
		return nil, err
	}
	s.Db = db

	migrator := migrations.NewMigrator(db)
	if err := migrator.RunMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	seeder := scripts.NewSeeder(db, catalog)
	if err := seeder.SeedDatabase(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	return db, nil
}

// setupAuthProviders initializes the token service and the operator key check.
func (s *Server) setupAuthProviders() {
	s.authProviders = &AuthProviders{
		JWTService: auth.NewJWTService(&s.Config.JWT),
		APIKeys:    auth.NewAPIKeyService(&s.Config.Auth, auth.ConfigFromAppConfig(s.Config)),
	}

	if s.Config.Auth.Enabled && !s.authProviders.APIKeys.Configured() {
		log.Warn().Msg("Operator authentication is enabled but no API key hash is configured; only bearer tokens will be accepted")
	}
}

// setupHandlers builds repositories, the pipeline, services and handlers.
func (s *Server) setupHandlers(pool *database.Pool, catalog *detection.Catalog) {
	detectionCfg := s.Config.Detection

	s.store = dataset.NewStore(detectionCfg.DatasetTTL, constants.DatasetCleanupInterval)
	s.Metrics.Pipeline.TrackBuffer(s.store.Len)

	repos := service.Repositories{
		Datasets: repository.NewDatasetRepository(pool),
		Analyses: repository.NewAnalysisRepository(pool),
		Results:  repository.NewResultsRepository(pool),
		Models:   repository.NewModelRepository(pool),
		Catalogs: repository.NewCatalogRepository(pool),
	}

	pipeline := service.NewPipelineFromSettings(catalog, detectionCfg)

	datasetService := service.NewDatasetService(repos.Datasets, s.store, detectionCfg, s.Metrics.Pipeline)
	analysisService := service.NewAnalysisService(pool, repos, s.store, pipeline, s.Metrics.Pipeline, s.Config.App.Version)

	s.Handlers = &Handlers{
		AuthHandler:     handlers.NewAuthHandler(s.authProviders.APIKeys, s.authProviders.JWTService),
		DatasetHandler:  handlers.NewDatasetHandler(datasetService, detectionCfg.MaxUploadSize),
		AnalysisHandler: handlers.NewAnalysisHandler(analysisService),
	}
}

// Start starts the HTTP server and sets up signal handling for graceful shutdown.
// It blocks until an error occurs or a shutdown signal is received.
func (s *Server) Start() error {
	serverErrors := make(chan error, 1)

	go func() {
		log.Info().
			Str("address", s.Config.Server.ServerAddress()).
			Msg("Starting server")

		serverErrors <- s.httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	s.SetupMaintenanceTasks()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info().
			Str("signal", sig.String()).
			Msg("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.Shutdown(ctx); err != nil {
			if closeErr := s.httpServer.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight analyses
// before closing the database.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopMaintenance != nil {
		close(s.stopMaintenance)
		s.stopMaintenance = nil
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	log.Info().Msg("Server stopped gracefully")

	if s.Db != nil {
		s.Db.Close()
		log.Info().Msg("Database connection closed")
	}

	return nil
}

// SetupMaintenanceTasks starts a background task that checks the database and
// reports the dataset buffer occupancy at a fixed interval.
func (s *Server) SetupMaintenanceTasks() {
	if s.stopMaintenance != nil {
		return
	}
	s.stopMaintenance = make(chan struct{})
	stop := s.stopMaintenance

	ticker := time.NewTicker(constants.DatasetCleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.runMaintenance()
			}
		}
	}()
}

func (s *Server) runMaintenance() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DBHealthCheckTimeout)
	defer cancel()

	if s.Db != nil {
		if err := s.Db.HealthCheck(ctx); err != nil {
			log.Error().Err(err).Msg("Database health check failed")
		}
	}

	if s.store != nil {
		log.Debug().
			Str("category", constants.LogCategoryPipeline).
			Int("buffered_datasets", s.store.Len()).
			Msg("Dataset buffer status")
	}
}
