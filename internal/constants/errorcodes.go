// Package constants provides shared constant values used throughout the application.
//
// The errorcodes.go file defines constants related to error handling, categorization,
// and messaging. User-facing messages never carry comment text or database details.
package constants

// Error Types define the categories of errors that can occur in the application.
const (
	// ErrorNotFound indicates that a requested resource could not be found.
	ErrorNotFound = "resource not found"

	// ErrorUnauthorized indicates that authentication is required but was not provided.
	ErrorUnauthorized = "unauthorized access"

	// ErrorBadRequest indicates that the request was malformed or invalid.
	ErrorBadRequest = "invalid request"

	// ErrorInternalServer indicates an unexpected internal error.
	ErrorInternalServer = "internal server error"

	// ErrorValidation indicates that input validation failed.
	ErrorValidation = "validation error"

	// ErrorDuplicate indicates an attempt to create a resource that already exists.
	ErrorDuplicate = "duplicate resource"

	// ErrorInvalidCredentials indicates that authentication credentials are incorrect.
	ErrorInvalidCredentials = "invalid credentials"

	// ErrorExpiredToken indicates that an authentication token has expired.
	ErrorExpiredToken = "expired token"

	// ErrorInvalidToken indicates that an authentication token is malformed or invalid.
	ErrorInvalidToken = "invalid token"

	// ErrorTrainingFailure indicates that the classifier could not be trained or applied.
	ErrorTrainingFailure = "training failure"

	// ErrorPersistence indicates that pipeline results could not be stored.
	ErrorPersistence = "persistence failure"

	// ErrorConflict indicates a request that conflicts with the state of a resource.
	ErrorConflict = "conflict"

	// ErrorDatasetExpired indicates the dataset tables are no longer buffered.
	ErrorDatasetExpired = "dataset expired"
)

// User-Facing Error Messages define standardized messages that can be safely presented to users.
const (
	// MsgAuthRequired indicates that the user must authenticate to access the resource.
	MsgAuthRequired = "Authentication required"

	// MsgInvalidAPIKey indicates that the presented operator key is wrong.
	MsgInvalidAPIKey = "Invalid API key"

	// MsgInternalServerError provides a generic server error message.
	MsgInternalServerError = "An internal server error occurred"

	// MsgTokenExpired indicates that the authentication token has expired.
	MsgTokenExpired = "Authentication token has expired"

	// MsgInvalidToken indicates that the provided token is invalid.
	MsgInvalidToken = "Invalid token"

	// MsgRequestBodyTooLarge indicates that the request payload exceeds size limits.
	MsgRequestBodyTooLarge = "Request body too large"

	// MsgEmptyRequestBody indicates that a request body was expected but not provided.
	MsgEmptyRequestBody = "Request body must not be empty"

	// MsgMalformedJSON indicates that the request body contains invalid JSON.
	MsgMalformedJSON = "Request body contains malformed JSON"

	// MsgResourceNotFound indicates that the requested resource does not exist.
	MsgResourceNotFound = "The requested resource could not be found"

	// MsgResourceAlreadyExists indicates a duplicate resource conflict.
	MsgResourceAlreadyExists = "A resource with the same unique identifier already exists"

	// MsgMethodNotAllowed indicates that the HTTP method is not supported for the endpoint.
	MsgMethodNotAllowed = "This method is not allowed for this resource"

	// MsgRateLimited is returned to clients that exceeded the rate limit.
	MsgRateLimited = "Rate limit exceeded. Please try again later."

	// MsgPersistenceFailure is stored on failed sessions when results could not be saved.
	MsgPersistenceFailure = "Failed to store analysis results"

	// MsgDatasetExpired indicates the dataset was already analyzed or its tables expired.
	MsgDatasetExpired = "Dataset tables are no longer available; generate or upload it again"

	// MsgAnalysisNotCompleted indicates the analysis has no trained model to score with.
	MsgAnalysisNotCompleted = "Analysis has not completed"

	// MsgUnsupportedExportFormat indicates an unknown export format.
	MsgUnsupportedExportFormat = "Unsupported export format"
)

// Database Error Types define constants for recognizing and handling database-specific errors.
const (
	// DBErrorDuplicateKey is the PostgreSQL error message for unique constraint violations.
	DBErrorDuplicateKey = "duplicate key value violates unique constraint"

	// PGErrorDuplicateConstraint is the PostgreSQL error code for unique constraint violations.
	PGErrorDuplicateConstraint = "23505"

	// PGErrorForeignKeyConstraint is the PostgreSQL error code for foreign key violations.
	PGErrorForeignKeyConstraint = "23503"

	// PGErrorNotNullConstraint is the PostgreSQL error code for not-null constraint violations.
	PGErrorNotNullConstraint = "23502"

	// MySQLErrorDuplicateEntry is the MySQL error number for duplicate keys.
	MySQLErrorDuplicateEntry = 1062

	// MySQLErrorForeignKey is the MySQL error number for foreign key violations.
	MySQLErrorForeignKey = 1452
)

// Logger Constants define values used for structured logging.
const (
	// LogCategoryAuth is the log category for authentication-related events.
	LogCategoryAuth = "auth"

	// LogCategoryPipeline is the log category for detection pipeline events.
	LogCategoryPipeline = "pipeline"

	// LogRedactedValue is used to replace sensitive values in logs.
	LogRedactedValue = "[REDACTED]"
)
