// Package handlers provides HTTP request handlers for the Argus API.
package handlers

import (
	"context"
	"io"

	"github.com/argusia/argus/internal/auth"
	"github.com/argusia/argus/internal/models"
)

// DatasetServiceInterface defines methods required from the dataset service.
type DatasetServiceInterface interface {
	// GenerateDataset creates a synthetic dataset and buffers its tables.
	//
	// Parameters:
	//   - ctx: Context for the operation
	//   - req: Generator parameters; zero values fall back to defaults
	//
	// Returns:
	//   - The created dataset row
	//   - An error if the parameters are invalid or the row cannot be stored
	GenerateDataset(ctx context.Context, req *models.GenerateDatasetRequest) (*models.Dataset, error)

	// GenerateCSV creates a synthetic dataset and returns it as CSV without storing it.
	GenerateCSV(req *models.GenerateDatasetRequest) (*models.DatasetCSV, error)

	// UploadDataset parses posts and comments CSV files and buffers them.
	//
	// Parameters:
	//   - ctx: Context for the operation
	//   - name: Dataset name; empty selects the next default name
	//   - description: Free text description
	//   - postsCSV: The posts table
	//   - commentsCSV: The comments table
	//
	// Returns:
	//   - The created dataset row
	//   - A validation error when a table is malformed
	UploadDataset(ctx context.Context, name, description string, postsCSV, commentsCSV io.Reader) (*models.Dataset, error)

	// GetDataset retrieves a dataset row by id.
	GetDataset(ctx context.Context, id string) (*models.Dataset, error)

	// ListDatasets returns up to limit datasets, newest first.
	ListDatasets(ctx context.Context, limit int) ([]*models.Dataset, error)

	// DownloadDataset returns the buffered tables of a dataset as CSV.
	DownloadDataset(ctx context.Context, id string) (*models.DatasetCSV, error)
}

// AnalysisServiceInterface defines methods required from the analysis service.
type AnalysisServiceInterface interface {
	// RunAnalysis consumes the buffered tables of a dataset and runs the pipeline.
	//
	// Parameters:
	//   - ctx: Context for the operation
	//   - datasetID: The dataset to analyze
	//
	// Returns:
	//   - The finished session; on training failure the FAILED session
	//   - An error if the dataset is unknown, expired or the analysis failed
	RunAnalysis(ctx context.Context, datasetID string) (*models.AnalysisSession, error)

	// ScoreComments scores ad-hoc texts with the model of a completed analysis.
	ScoreComments(ctx context.Context, analysisID string, texts []string) ([]models.ScoredComment, error)

	// Dashboard summarizes all datasets and analyses.
	Dashboard(ctx context.Context) (*models.Dashboard, error)

	// GetAnalysisDetail returns a session with the head of its rankings.
	GetAnalysisDetail(ctx context.Context, analysisID string) (*models.AnalysisDetail, error)

	// ListAnalyses returns up to limit sessions, newest first.
	ListAnalyses(ctx context.Context, limit int) ([]*models.AnalysisSession, error)

	// ExportCSV renders the suspicious comments of an analysis as CSV.
	//
	// Returns:
	//   - The CSV document
	//   - The download file name
	//   - An error if the analysis is unknown or not completed
	ExportCSV(ctx context.Context, analysisID string) ([]byte, string, error)

	// ExportReport builds the JSON report of an analysis.
	ExportReport(ctx context.Context, analysisID string) (*models.AnalysisReport, error)

	// ExportWorkbook renders the report of an analysis as an xlsx workbook
	// and returns it with a download file name.
	ExportWorkbook(ctx context.Context, analysisID string) ([]byte, string, error)
}

// KeyVerifier checks the operator API key.
type KeyVerifier interface {
	Verify(apiKey string) error
}

var _ KeyVerifier = (*auth.APIKeyService)(nil)
