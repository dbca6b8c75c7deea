package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/argusia/argus/internal/auth"
	"github.com/argusia/argus/internal/models"
)

// MockDatasetService is a mock implementation of DatasetServiceInterface
type MockDatasetService struct {
	mock.Mock
}

func (m *MockDatasetService) GenerateDataset(ctx context.Context, req *models.GenerateDatasetRequest) (*models.Dataset, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dataset), args.Error(1)
}

func (m *MockDatasetService) GenerateCSV(req *models.GenerateDatasetRequest) (*models.DatasetCSV, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DatasetCSV), args.Error(1)
}

func (m *MockDatasetService) UploadDataset(ctx context.Context, name, description string, postsCSV, commentsCSV io.Reader) (*models.Dataset, error) {
	posts, _ := io.ReadAll(postsCSV)
	comments, _ := io.ReadAll(commentsCSV)
	args := m.Called(ctx, name, description, string(posts), string(comments))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dataset), args.Error(1)
}

func (m *MockDatasetService) GetDataset(ctx context.Context, id string) (*models.Dataset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dataset), args.Error(1)
}

func (m *MockDatasetService) ListDatasets(ctx context.Context, limit int) ([]*models.Dataset, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Dataset), args.Error(1)
}

func (m *MockDatasetService) DownloadDataset(ctx context.Context, id string) (*models.DatasetCSV, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DatasetCSV), args.Error(1)
}

// MockAnalysisService is a mock implementation of AnalysisServiceInterface
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) RunAnalysis(ctx context.Context, datasetID string) (*models.AnalysisSession, error) {
	args := m.Called(ctx, datasetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnalysisSession), args.Error(1)
}

func (m *MockAnalysisService) ScoreComments(ctx context.Context, analysisID string, texts []string) ([]models.ScoredComment, error) {
	args := m.Called(ctx, analysisID, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScoredComment), args.Error(1)
}

func (m *MockAnalysisService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dashboard), args.Error(1)
}

func (m *MockAnalysisService) GetAnalysisDetail(ctx context.Context, analysisID string) (*models.AnalysisDetail, error) {
	args := m.Called(ctx, analysisID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnalysisDetail), args.Error(1)
}

func (m *MockAnalysisService) ListAnalyses(ctx context.Context, limit int) ([]*models.AnalysisSession, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AnalysisSession), args.Error(1)
}

func (m *MockAnalysisService) ExportCSV(ctx context.Context, analysisID string) ([]byte, string, error) {
	args := m.Called(ctx, analysisID)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *MockAnalysisService) ExportReport(ctx context.Context, analysisID string) (*models.AnalysisReport, error) {
	args := m.Called(ctx, analysisID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnalysisReport), args.Error(1)
}

func (m *MockAnalysisService) ExportWorkbook(ctx context.Context, analysisID string) ([]byte, string, error) {
	args := m.Called(ctx, analysisID)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

// MockKeyVerifier is a mock implementation of KeyVerifier
type MockKeyVerifier struct {
	mock.Mock
}

func (m *MockKeyVerifier) Verify(apiKey string) error {
	return m.Called(apiKey).Error(0)
}

// MockTokenIssuer is a mock implementation of auth.TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateToken(subject string) (*auth.IssuedToken, error) {
	args := m.Called(subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.IssuedToken), args.Error(1)
}

var (
	_ DatasetServiceInterface  = (*MockDatasetService)(nil)
	_ AnalysisServiceInterface = (*MockAnalysisService)(nil)
)

// withURLParam attaches a chi route parameter to the request.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// envelope is the decoded response body.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		TotalItems int `json:"total_items"`
	} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}
