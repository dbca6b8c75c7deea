// Package constants provides shared constant values used throughout the application.
//
// The database_const.go file defines constants related to database structures,
// including table names and driver names. These constants keep queries and
// migrations in agreement about the schema.
package constants

// Table Names define the names of database tables used in the application.
const (
	// TableDatasets is the name of the table storing dataset metadata.
	TableDatasets = "datasets"

	// TableAnalysisSessions is the name of the table storing pipeline runs.
	TableAnalysisSessions = "analysis_sessions"

	// TableSuspiciousComments is the name of the table storing comments predicted suspicious.
	TableSuspiciousComments = "suspicious_comments"

	// TableUserBehaviors is the name of the table storing per-user rankings.
	TableUserBehaviors = "user_behaviors"

	// TablePostAnalyses is the name of the table storing per-post rankings.
	TablePostAnalyses = "post_analyses"

	// TableTrainedModels is the name of the table storing serialized classifiers.
	TableTrainedModels = "trained_models"

	// TablePatternCatalogs is the name of the table storing catalog versions used by analyses.
	TablePatternCatalogs = "pattern_catalogs"
)

// Common Column Names define frequently used database column names.
const (
	// ColumnDatasetID is the column name for dataset identifiers.
	ColumnDatasetID = "dataset_id"

	// ColumnAnalysisID is the column name for analysis session identifiers.
	ColumnAnalysisID = "analysis_id"

	// ColumnCreatedAt is the column name for creation timestamps.
	ColumnCreatedAt = "created_at"

	// ColumnVersion is the column name for catalog versions.
	ColumnVersion = "version"
)

// Database Drivers define the supported database/sql driver names.
const (
	// DriverPostgres selects github.com/lib/pq.
	DriverPostgres = "postgres"

	// DriverMySQL selects github.com/go-sql-driver/mysql.
	DriverMySQL = "mysql"

	// DriverSQLite selects modernc.org/sqlite.
	DriverSQLite = "sqlite"
)

// Database Schema Names define the names of database schemas.
const (
	// SchemaInformation is the name of the information schema.
	SchemaInformation = "information_schema"
)

// PostgreSQL connection string parameters
const (
	PostgresSSLParams  = "sslmode=verify-full connect_timeout=15"
	PostgresSSLDisable = "sslmode=disable connect_timeout=15"
)
