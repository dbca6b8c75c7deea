// Package constants provides shared constant values used throughout the application.
//
// The defaults.go file defines default values and limits used throughout the application.
// These constants provide fallback configuration and the fixed parameters of the
// detection pipeline.
package constants

// Default Configuration Values define fallback settings when not specified in configuration.
const (
	// DefaultServerPort is the default HTTP server port.
	DefaultServerPort = 8080

	// DefaultDBMaxConnections is the default maximum number of database connections.
	DefaultDBMaxConnections = 20

	// DefaultDBMinConnections is the default minimum number of database connections.
	DefaultDBMinConnections = 5

	// DefaultDBDriver is the database driver used when none is configured.
	DefaultDBDriver = DriverPostgres

	// DefaultSQLitePath is the database file used by the sqlite driver.
	DefaultSQLitePath = "argus.db"

	// DefaultLogLevel is the default logging verbosity level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default logging output format.
	DefaultLogFormat = "json"
)

// Environment Types define the recognized application running environments.
const (
	// EnvDevelopment identifies a development environment with debugging features enabled.
	EnvDevelopment = "development"

	// EnvTesting identifies a testing environment for automated tests.
	EnvTesting = "testing"

	// EnvProduction identifies a production environment with optimized settings.
	EnvProduction = "production"
)

// Request Size Limits
const (
	// MaxRequestBodySize is the maximum size in bytes for JSON request bodies.
	MaxRequestBodySize = 1048576 // 1MB in bytes

	// DefaultMaxUploadSize is the maximum size in bytes of a dataset upload.
	DefaultMaxUploadSize = 32 << 20

	// MaxScoreTexts is the maximum number of texts accepted by a single scoring request.
	MaxScoreTexts = 1000
)

// Dataset Generator Defaults
const (
	DefaultGeneratedPosts    = 100
	DefaultGeneratedComments = 500
	DefaultSuspiciousRatio   = 0.10
	MaxGeneratedPosts        = 10000
	MaxGeneratedComments     = 100000

	// GeneratorMaxLikes is the upper bound (inclusive) of synthetic like counts.
	GeneratorMaxLikes = 200

	// GeneratorDateWindowDays is how far back synthetic post dates go.
	GeneratorDateWindowDays = 30

	// GeneratorMinUserID and GeneratorMaxUserID bound synthetic post author ids.
	GeneratorMinUserID = 100
	GeneratorMaxUserID = 999

	// NormalUserCount is the size of the synthetic low-risk author pool.
	NormalUserCount = 200
)

// Classifier Defaults
const (
	DefaultSeed            = 42
	DefaultTrees           = 100
	DefaultMaxDepth        = 12
	DefaultMinSamplesSplit = 2
	DefaultTestFraction    = 0.2

	// DecisionThreshold is the probability above which a comment is labeled suspicious.
	DecisionThreshold = 0.5
)

// Result Caps define how many rows of each ranking are kept or shown.
const (
	// DefaultTopN caps persisted user and post rankings.
	DefaultTopN = 100

	// DetailCommentsLimit is the number of suspicious comments in an analysis detail.
	DetailCommentsLimit = 50

	// DetailRankingLimit is the number of users and posts in an analysis detail.
	DetailRankingLimit = 20

	// DashboardRecentLimit is the number of analyses shown on the dashboard.
	DashboardRecentLimit = 5

	// ReportRankingLimit is the number of users and posts in an exported report.
	ReportRankingLimit = 50

	// DefaultListLimit is the page size of dataset and analysis lists.
	DefaultListLimit = 50

	// MaxListLimit caps the limit query parameter.
	MaxListLimit = 500
)

// Risk Levels group prediction probabilities for display and export.
const (
	RiskHigh   = "high"
	RiskMedium = "medium"
	RiskLow    = "low"

	RiskHighThreshold   = 0.8
	RiskMediumThreshold = 0.6
)

// Password Hash Settings define the Argon2id parameters for operator API keys.
const (
	DefaultPasswordHashMemory      = 64 * 1024
	DefaultPasswordHashIterations  = 3
	DefaultPasswordHashParallelism = 2
	DefaultPasswordHashSaltLength  = 16
	DefaultPasswordHashKeyLength   = 32
)

// Auth Constants
const (
	// DefaultJWTIssuer is the issuer claim value for JWT tokens.
	DefaultJWTIssuer = "argus-api"

	// OperatorSubject is the subject claim of tokens issued for the operator API key.
	OperatorSubject = "operator"

	// BearerPrefix precedes the token in the Authorization header.
	BearerPrefix = "Bearer "
)
