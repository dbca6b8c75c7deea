// Package utils provides utility functions and helpers for the application.
// This file implements a standardized API response system that ensures
// consistent response formats across all API endpoints.
//
// The response system includes:
//   - A standard Response structure for all API responses
//   - Convenience functions for common response types (success, error, file download)
//   - HTTP status code helpers
//
// This ensures that all API responses follow the same format, making it easier
// for clients to parse and handle responses predictably.
package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/argusia/argus/internal/constants"
)

// Response represents a standardized API response.
// All API endpoints return responses in this format for consistency.
type Response struct {
	Success bool        `json:"success"`         // Whether the request was successful
	Data    interface{} `json:"data,omitempty"`  // The response data (omitted for error responses)
	Error   *ErrorInfo  `json:"error,omitempty"` // Error information (omitted for successful responses)
	Meta    *MetaInfo   `json:"meta,omitempty"`  // Metadata such as result counts
}

// ErrorInfo represents error information in the response.
// This provides structured error information to clients.
type ErrorInfo struct {
	Code    string            `json:"code"`              // A machine-readable error code
	Message string            `json:"message"`           // A human-readable error message
	Details map[string]string `json:"details,omitempty"` // Additional details about the error (e.g., validation errors)
}

// MetaInfo represents metadata in the response.
// List endpoints report how many items they returned.
type MetaInfo struct {
	TotalItems int `json:"total_items"` // The number of items in Data
}

// JSON sends a JSON response with the given status code and data.
// This is the primary function for sending successful responses.
//
// Parameters:
//   - w: The HTTP response writer
//   - statusCode: The HTTP status code
//   - data: The data to include in the response
//
// The function automatically sets the success flag based on the status code.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	// Create a successful response
	response := Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
	}

	SendJSON(w, statusCode, response)
}

// JsonFile sends a JSON file as a downloadable attachment.
// This is useful for exporting data that should be saved as a file.
//
// Parameters:
//   - w: The HTTP response writer
//   - data: The data to include in the file
//   - filename: The name of the file to be downloaded
//
// The function automatically adds .json extension if missing and sets appropriate
// headers for file download.
func JsonFile(w http.ResponseWriter, data interface{}, filename string) {
	// Ensure filename ends with .json
	if !strings.HasSuffix(strings.ToLower(filename), ".json") {
		filename += ".json"
	}

	// Marshal the data to JSON with pretty-printing
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON file response")
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte(`{"error":"Failed to generate file"}`)); err != nil {
			log.Error().Err(err).Msg("Failed to write error response")
		}
		return
	}

	File(w, jsonData, filename, constants.ContentTypeOctetStream)
}

// File sends raw bytes as a downloadable attachment with the given content type.
// Exports are never cached.
//
// Parameters:
//   - w: The HTTP response writer
//   - data: The file contents
//   - filename: The name of the file to be downloaded
//   - contentType: The media type of the file
func File(w http.ResponseWriter, data []byte, filename, contentType string) {
	w.Header().Set(constants.HeaderContentType, contentType)
	w.Header().Set(constants.HeaderContentLength, fmt.Sprintf("%d", len(data)))
	w.Header().Set(constants.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s",
			filename,
			url.PathEscape(filename)))

	w.Header().Set(constants.HeaderCacheControl, constants.CacheControlNoStore)
	w.Header().Set(constants.HeaderPragma, constants.PragmaNoCache)
	w.Header().Set(constants.HeaderExpires, constants.ExpiresZero)

	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(data); err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("Failed to write file response")
	}
}

// List sends a successful response whose metadata carries the item count.
func List(w http.ResponseWriter, data interface{}, count int) {
	SendJSON(w, http.StatusOK, Response{
		Success: constants.ResponseSuccess,
		Data:    data,
		Meta:    &MetaInfo{TotalItems: count},
	})
}

// Error sends an error response with the given status code and error information.
// This is the primary function for sending error responses.
//
// Parameters:
//   - w: The HTTP response writer
//   - statusCode: The HTTP status code
//   - code: A machine-readable error code
//   - message: A human-readable error message
//   - details: Additional details about the error (e.g., validation errors)
func Error(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	// Create an error response
	response := Response{
		Success: constants.ResponseFailure,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	SendJSON(w, statusCode, response)
}

// ErrorFromAppError sends an error response based on an AppError.
// This provides a convenient way to convert application errors to API responses.
//
// Parameters:
//   - w: The HTTP response writer
//   - err: The application error
//
// The function extracts the error code, message, and details from the AppError
// and sends an appropriate error response.
func ErrorFromAppError(w http.ResponseWriter, err *AppError) {
	// Extract error code from the underlying error
	errCode := constants.CodeInternalError
	switch {
	case errors.Is(err.Err, ErrNotFound):
		errCode = constants.CodeNotFound
	case errors.Is(err.Err, ErrBadRequest):
		errCode = constants.CodeBadRequest
	case errors.Is(err.Err, ErrUnauthorized):
		errCode = constants.CodeUnauthorized
	case errors.Is(err.Err, ErrValidation):
		errCode = constants.CodeValidationError
	case errors.Is(err.Err, ErrDuplicate):
		errCode = constants.CodeDuplicateResource
	case errors.Is(err.Err, ErrInvalidCredentials):
		errCode = constants.CodeInvalidCredentials
	case errors.Is(err.Err, ErrExpiredToken):
		errCode = constants.CodeTokenExpired
	case errors.Is(err.Err, ErrInvalidToken):
		errCode = constants.CodeTokenInvalid
	case errors.Is(err.Err, ErrTrainingFailure):
		errCode = constants.CodeTrainingFailure
	case errors.Is(err.Err, ErrDatasetExpired):
		errCode = constants.CodeDatasetExpired
	case errors.Is(err.Err, ErrConflict):
		errCode = constants.CodeConflict
	}

	if err.StatusCode >= http.StatusInternalServerError && err.DevInfo != "" {
		log.Error().Str("dev_info", err.DevInfo).Msg(err.Message)
	}

	// Create error details if field is present
	var details map[string]string
	if err.Field != "" || len(err.Details) > 0 {
		details = make(map[string]string, len(err.Details)+1)
		for key, value := range err.Details {
			details[key] = fmt.Sprint(value)
		}
		if err.Field != "" {
			details[err.Field] = err.Message
		}
	}

	// Send the error response
	Error(w, err.StatusCode, errCode, err.Message, details)
}

// SendJSON is a helper function to send JSON data with proper headers.
// This handles JSON marshaling and error handling for all response types.
//
// Parameters:
//   - w: The HTTP response writer
//   - statusCode: The HTTP status code
//   - data: The data to marshal to JSON and send
func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	// Set headers
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	// Marshal the data to JSON
	jsonData, err := json.Marshal(data)
	if err != nil {
		// If marshaling fails, log the error and send a simple error response
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte(`{"success":false,"error":{"code":"internal_error","message":"Failed to generate response"}}`)); err != nil {
			log.Error().Err(err).Msg("Failed to write error response")
		}
		return
	}

	// Write the JSON data to the response
	_, err = w.Write(jsonData)
	if err != nil {
		// Log write errors but don't try to recover
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// BadRequest sends a 400 Bad Request response with the given message.
// This is a convenience function for sending bad request errors.
//
// Parameters:
//   - w: The HTTP response writer
//   - message: A human-readable error message
//   - details: Additional details about the error
func BadRequest(w http.ResponseWriter, message string, details map[string]string) {
	Error(w, constants.StatusBadRequest, constants.CodeBadRequest, message, details)
}

// Unauthorized sends a 401 Unauthorized response with the given message.
// This is a convenience function for sending unauthorized errors.
//
// Parameters:
//   - w: The HTTP response writer
//   - message: A human-readable error message (falls back to a default message if empty)
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgAuthRequired
	}
	Error(w, constants.StatusUnauthorized, constants.CodeUnauthorized, message, nil)
}

// NotFound sends a 404 Not Found response with the given message.
// This is a convenience function for sending not found errors.
//
// Parameters:
//   - w: The HTTP response writer
//   - message: A human-readable error message (falls back to a default message if empty)
func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgResourceNotFound
	}
	Error(w, constants.StatusNotFound, constants.CodeNotFound, message, nil)
}

// MethodNotAllowed sends a 405 Method Not Allowed response.
// This is a convenience function for sending method not allowed errors.
//
// Parameters:
//   - w: The HTTP response writer
func MethodNotAllowed(w http.ResponseWriter) {
	Error(w, constants.StatusMethodNotAllowed, constants.CodeMethodNotAllowed, constants.MsgMethodNotAllowed, nil)
}

// InternalServerError sends a 500 Internal Server Error response.
// This is a convenience function for sending internal server errors.
//
// Parameters:
//   - w: The HTTP response writer
//   - err: The error that occurred (logged but not exposed to the client)
func InternalServerError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("Internal server error")
	Error(w, constants.StatusInternalServerError, constants.CodeInternalError, constants.MsgInternalServerError, nil)
}

// ValidationError sends a 400 Bad Request response with validation error details.
// This is a convenience function for sending validation errors.
//
// Parameters:
//   - w: The HTTP response writer
//   - errors: A map of field names to error messages
func ValidationError(w http.ResponseWriter, errors map[string]string) {
	Error(w, constants.StatusBadRequest, constants.CodeValidationError, "Validation failed", errors)
}
