package server

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/metrics"
	"github.com/argusia/argus/internal/middleware"
	"github.com/argusia/argus/internal/utils"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Accept, Authorization, Content-Type, X-Request-ID, X-API-Key"
	corsMaxAge       = "300"
)

// SetupRoutes configures the routes for the application.
//
// The configured routes include:
// - Health check, version and metrics endpoints (unprotected)
// - Token exchange for the operator API key
// - Dataset generation, upload, download and analysis
// - Analysis detail, export, scoring and the dashboard
//
// Pipeline routes require operator authentication when auth.enabled is set.
func (s *Server) SetupRoutes() {
	r := chi.NewRouter()

	r.Use(corsMiddleware(s.Config.CORS.AllowedOrigins, s.Config.CORS.AllowCredentials))

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if s.Config.Logging.RequestLog {
		r.Use(middleware.RequestLogger(s.httpMetrics()))
	}
	r.Use(middleware.Recovery())
	r.Use(middleware.SecurityHeaders())

	r.Group(func(r chi.Router) {
		r.Get(constants.HealthPath, func(w http.ResponseWriter, r *http.Request) {
			if s.Db == nil {
				utils.Error(w, http.StatusServiceUnavailable, "service_unavailable", "Service is not healthy", nil)
				return
			}
			if err := s.Db.HealthCheck(r.Context()); err != nil {
				log.Error().Err(err).Msg("Health check failed")
				utils.Error(w, http.StatusServiceUnavailable, "service_unavailable", "Service is not healthy", nil)
				return
			}

			utils.JSON(w, http.StatusOK, map[string]string{
				"status":  "healthy",
				"version": s.Config.App.Version,
			})
		})

		r.Get(constants.VersionPath, func(w http.ResponseWriter, r *http.Request) {
			utils.JSON(w, http.StatusOK, map[string]string{
				"version":     s.Config.App.Version,
				"environment": s.Config.App.Environment,
			})
		})

		if s.Metrics != nil {
			r.Method(http.MethodGet, constants.MetricsPath, s.Metrics.Handler())
		}
	})

	r.Route(constants.APIBasePath, func(r chi.Router) {
		r.Use(middleware.RateLimit(constants.RateLimitRequests, constants.RateLimitWindow))
		r.Use(middleware.MaxBodySize(s.Config.Detection.MaxUploadSize))
		r.Use(middleware.NoStore())

		r.Get(constants.RoutesPath, s.GetAPIRoutes)
		r.Post(strings.TrimPrefix(constants.AuthTokenPath, constants.APIBasePath), s.Handlers.AuthHandler.IssueToken)

		r.Group(func(r chi.Router) {
			if s.Config.Auth.Enabled {
				r.Use(middleware.OperatorAuth(s.authProviders.JWTService, s.authProviders.APIKeys))
			}

			r.Get(constants.DashboardPath, s.Handlers.AnalysisHandler.Dashboard)

			r.Get(constants.DatasetsPath, s.Handlers.DatasetHandler.ListDatasets)
			r.Post(constants.DatasetGeneratePath, s.Handlers.DatasetHandler.GenerateDataset)
			r.Post(constants.DatasetDownloadPath, s.Handlers.DatasetHandler.GenerateAndDownload)
			r.Post(constants.DatasetUploadPath, s.Handlers.DatasetHandler.UploadDataset)
			r.Get(constants.DatasetDetailPath, s.Handlers.DatasetHandler.GetDataset)
			r.Get(constants.DatasetExportPath, s.Handlers.DatasetHandler.DownloadDataset)
			r.Post(constants.DatasetAnalyzePath, s.Handlers.AnalysisHandler.RunAnalysis)

			r.Get(constants.AnalysesPath, s.Handlers.AnalysisHandler.ListAnalyses)
			r.Get(constants.AnalysisDetailPath, s.Handlers.AnalysisHandler.GetAnalysis)
			r.Get(constants.AnalysisExportPath, s.Handlers.AnalysisHandler.ExportAnalysis)
			r.Post(constants.AnalysisScorePath, s.Handlers.AnalysisHandler.ScoreComments)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.NotFound(w, constants.MsgResourceNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.MethodNotAllowed(w)
	})

	s.router = r
}

// GetRouter returns the configured router.
func (s *Server) GetRouter() chi.Router {
	return s.router
}

func (s *Server) httpMetrics() *metrics.HTTPMetrics {
	if s.Metrics == nil {
		return nil
	}
	return s.Metrics.HTTP
}

// GetAPIRoutes lists every registered method and route pattern.
func (s *Server) GetAPIRoutes(w http.ResponseWriter, r *http.Request) {
	var routes []string
	walk := func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, method+" "+strings.Replace(route, "/*/", "/", -1))
		return nil
	}
	if err := chi.Walk(s.router, walk); err != nil {
		utils.InternalServerError(w, err)
		return
	}
	sort.Strings(routes)

	utils.List(w, routes, len(routes))
}

// corsMiddleware applies CORS headers for the configured origins and answers
// preflight requests.
func corsMiddleware(allowedOrigins []string, allowCredentials bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !originAllowed(allowedOrigins, origin) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			if allowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
			w.Header().Set("Access-Control-Max-Age", corsMaxAge)
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func originAllowed(allowedOrigins []string, origin string) bool {
	for _, allowed := range allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
