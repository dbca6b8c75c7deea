package constants

// Base Routes
const (
	APIBasePath = "/api"
	HealthPath  = "/health"
	VersionPath = "/version"
	MetricsPath = "/metrics"
)

// Authentication Routes
const (
	AuthTokenPath = "/api/auth/token"
)

// Pipeline Routes, relative to APIBasePath.
const (
	RoutesPath          = "/routes"
	DashboardPath       = "/dashboard"
	DatasetsPath        = "/datasets"
	DatasetGeneratePath = "/datasets/generate"
	DatasetDownloadPath = "/datasets/generate/download"
	DatasetUploadPath   = "/datasets/upload"
	DatasetDetailPath   = "/datasets/{id}"
	DatasetAnalyzePath  = "/datasets/{id}/analyze"
	DatasetExportPath   = "/datasets/{id}/download"
	AnalysesPath        = "/analyses"
	AnalysisDetailPath  = "/analyses/{id}"
	AnalysisExportPath  = "/analyses/{id}/export"
	AnalysisScorePath   = "/analyses/{id}/score"
)

// URL Parameters
const (
	// ParamID is the URL parameter for dataset and analysis identifiers.
	ParamID = "id"
)

// Query Parameters
const (
	QueryParamFormat = "format"
	QueryParamLimit  = "limit"
)

// Export Formats
const (
	ExportFormatCSV    = "csv"
	ExportFormatReport = "report"
	ExportFormatXLSX   = "xlsx"
)

// Upload Form Fields
const (
	FormFieldPosts       = "posts_file"
	FormFieldComments    = "comments_file"
	FormFieldName        = "name"
	FormFieldDescription = "description"
)

// Context Key Names
const (
	SubjectContextKey   = "subject"
	RequestIDContextKey = "request_id"
)
