package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/argusia/argus/internal/database"
	"github.com/argusia/argus/internal/detection"
	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/utils"
)

var errStorage = errors.New("storage unavailable")

var testNow = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// MockTransactor runs transaction bodies with a nil tx. The mock repositories
// ignore the querier they are handed.
type MockTransactor struct {
	database.Querier
	transactions int
	err          error
}

func (m *MockTransactor) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	m.transactions++
	if m.err != nil {
		return m.err
	}
	return fn(nil)
}

type MockDatasetRepository struct {
	mu       sync.Mutex
	datasets map[string]*models.Dataset
	order    []string
	err      error
}

func NewMockDatasetRepository() *MockDatasetRepository {
	return &MockDatasetRepository{datasets: make(map[string]*models.Dataset)}
}

func (m *MockDatasetRepository) Create(ctx context.Context, ds *models.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if ds.ID == "" {
		ds.ID = uuid.New().String()
	}
	stored := *ds
	m.datasets[ds.ID] = &stored
	m.order = append(m.order, ds.ID)
	return nil
}

func (m *MockDatasetRepository) GetByID(ctx context.Context, id string) (*models.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.datasets[id]
	if !ok {
		return nil, utils.NewNotFoundError("Dataset", id)
	}
	out := *ds
	return &out, nil
}

func (m *MockDatasetRepository) List(ctx context.Context, limit int) ([]*models.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Dataset
	for i := len(m.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		ds := *m.datasets[m.order[i]]
		out = append(out, &ds)
	}
	return out, nil
}

func (m *MockDatasetRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.datasets)), nil
}

type MockAnalysisRepository struct {
	mu        sync.Mutex
	sessions  map[string]*models.AnalysisSession
	history   map[string][]models.AnalysisStatus
	createErr error

	// updateErr fails updates that store failStatus, or every update when
	// failStatus is empty.
	updateErr  error
	failStatus models.AnalysisStatus
}

func NewMockAnalysisRepository() *MockAnalysisRepository {
	return &MockAnalysisRepository{
		sessions: make(map[string]*models.AnalysisSession),
		history:  make(map[string][]models.AnalysisStatus),
	}
}

func (m *MockAnalysisRepository) Create(ctx context.Context, session *models.AnalysisSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	stored := *session
	m.sessions[session.ID] = &stored
	m.history[session.ID] = append(m.history[session.ID], session.Status)
	return nil
}

func (m *MockAnalysisRepository) Update(ctx context.Context, q database.Querier, session *models.AnalysisSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[session.ID]; !ok {
		return utils.NewNotFoundError("AnalysisSession", session.ID)
	}
	if m.updateErr != nil && (m.failStatus == "" || m.failStatus == session.Status) {
		return m.updateErr
	}
	stored := *session
	m.sessions[session.ID] = &stored
	m.history[session.ID] = append(m.history[session.ID], session.Status)
	return nil
}

func (m *MockAnalysisRepository) GetByID(ctx context.Context, id string) (*models.AnalysisSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, utils.NewNotFoundError("AnalysisSession", id)
	}
	out := *s
	return &out, nil
}

func (m *MockAnalysisRepository) List(ctx context.Context, limit int) ([]*models.AnalysisSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.AnalysisSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		c := *s
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockAnalysisRepository) Stats(ctx context.Context) (*models.AnalysisStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.AnalysisStats{}
	for _, s := range m.sessions {
		stats.TotalAnalyses++
		switch s.Status {
		case models.StatusCompleted:
			stats.CompletedAnalyses++
			stats.CommentsAnalyzed += int64(s.TotalComments)
			stats.SuspiciousDetected += int64(s.SuspiciousCount)
		case models.StatusFailed:
			stats.FailedAnalyses++
		}
	}
	return stats, nil
}

// Put stores a session directly, bypassing the lifecycle.
func (m *MockAnalysisRepository) Put(s *models.AnalysisSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *s
	m.sessions[s.ID] = &stored
}

type MockResultsRepository struct {
	mu      sync.Mutex
	results map[string]*models.AnalysisResults
	err     error
}

func NewMockResultsRepository() *MockResultsRepository {
	return &MockResultsRepository{results: make(map[string]*models.AnalysisResults)}
}

func (m *MockResultsRepository) SaveResults(ctx context.Context, q database.Querier, analysisID string, results *models.AnalysisResults) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.results[analysisID] = results
	return nil
}

func (m *MockResultsRepository) ListSuspiciousComments(ctx context.Context, analysisID string, limit int) ([]models.SuspiciousComment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[analysisID]
	if !ok {
		return []models.SuspiciousComment{}, nil
	}
	out := append([]models.SuspiciousComment(nil), r.Comments...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Probability > out[j].Probability })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockResultsRepository) ListUserBehaviors(ctx context.Context, analysisID string, limit int) ([]models.UserBehavior, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[analysisID]
	if !ok {
		return []models.UserBehavior{}, nil
	}
	out := append([]models.UserBehavior(nil), r.Users...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockResultsRepository) ListPostAnalyses(ctx context.Context, analysisID string, limit int) ([]models.PostAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[analysisID]
	if !ok {
		return []models.PostAnalysis{}, nil
	}
	out := append([]models.PostAnalysis(nil), r.Posts...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type MockModelRepository struct {
	mu     sync.Mutex
	models map[string]*models.TrainedModel
	err    error
}

func NewMockModelRepository() *MockModelRepository {
	return &MockModelRepository{models: make(map[string]*models.TrainedModel)}
}

func (m *MockModelRepository) Save(ctx context.Context, q database.Querier, model *models.TrainedModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.models[model.AnalysisID] = model
	return nil
}

func (m *MockModelRepository) GetByAnalysisID(ctx context.Context, analysisID string) (*models.TrainedModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	model, ok := m.models[analysisID]
	if !ok {
		return nil, utils.NewNotFoundError("TrainedModel", analysisID)
	}
	return model, nil
}

type MockCatalogRepository struct {
	records []*models.PatternCatalogRecord
}

func (m *MockCatalogRepository) GetByVersion(ctx context.Context, version string) (*models.PatternCatalogRecord, error) {
	for _, r := range m.records {
		if r.Version == version {
			return r, nil
		}
	}
	return nil, utils.NewNotFoundError("PatternCatalog", version)
}

func (m *MockCatalogRepository) List(ctx context.Context) ([]*models.PatternCatalogRecord, error) {
	return m.records, nil
}

func (m *MockCatalogRepository) Load(ctx context.Context, version string) (*detection.Catalog, error) {
	if _, err := m.GetByVersion(ctx, version); err != nil {
		return nil, err
	}
	return detection.DefaultCatalog(), nil
}
