package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/argusia/argus/internal/classifier"
	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/database"
	"github.com/argusia/argus/internal/dataset"
	"github.com/argusia/argus/internal/metrics"
	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/repository"
	"github.com/argusia/argus/internal/utils"
)

// Transactor runs queries directly or inside a transaction. *database.Pool
// implements it.
type Transactor interface {
	database.Querier
	Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Repositories groups the stores an AnalysisService reads and writes.
type Repositories struct {
	Datasets repository.DatasetRepository
	Analyses repository.AnalysisRepository
	Results  repository.ResultsRepository
	Models   repository.ModelRepository
	Catalogs repository.CatalogRepository
}

// AnalysisService runs analyses and serves their results
type AnalysisService struct {
	db       Transactor
	repos    Repositories
	store    *dataset.Store
	pipeline *Pipeline
	metrics  *metrics.PipelineMetrics
	version  string
	now      func() time.Time
}

// NewAnalysisService creates a new AnalysisService
func NewAnalysisService(
	db Transactor,
	repos Repositories,
	store *dataset.Store,
	pipeline *Pipeline,
	m *metrics.PipelineMetrics,
	version string,
) *AnalysisService {
	return &AnalysisService{
		db:       db,
		repos:    repos,
		store:    store,
		pipeline: pipeline,
		metrics:  m,
		version:  version,
		now:      time.Now,
	}
}

// RunAnalysis consumes the buffered tables of a dataset and runs the
// detection pipeline over them. The session moves PENDING → RUNNING and ends
// COMPLETED, with every result row committed in one transaction, or FAILED
// with an error message. On failure the returned session is the FAILED one.
func (s *AnalysisService) RunAnalysis(ctx context.Context, datasetID string) (*models.AnalysisSession, error) {
	if _, err := s.repos.Datasets.GetByID(ctx, datasetID); err != nil {
		return nil, err
	}

	tables, err := s.store.Take(datasetID)
	if err != nil {
		if errors.Is(err, dataset.ErrNotBuffered) {
			return nil, utils.NewDatasetExpiredError(datasetID)
		}
		return nil, err
	}

	start := s.now()
	session := models.NewAnalysisSession(uuid.New().String(), datasetID, s.pipeline.Catalog().Version(), start)
	if err := s.repos.Analyses.Create(ctx, session); err != nil {
		// Nothing ran yet, so the dataset stays analyzable.
		s.store.Put(datasetID, tables)
		return nil, utils.NewPersistenceError(err)
	}

	logger := log.With().
		Str("category", constants.LogCategoryPipeline).
		Str(constants.ColumnAnalysisID, session.ID).
		Str(constants.ColumnDatasetID, datasetID).
		Logger()

	if err := session.Transition(models.StatusRunning); err != nil {
		return nil, err
	}
	if err := s.repos.Analyses.Update(ctx, s.db, session); err != nil {
		logger.Error().Err(err).Msg("Failed to mark analysis running")
		// The pipeline never started, so the dataset stays analyzable.
		s.store.Put(datasetID, tables)
		return s.fail(ctx, session, constants.MsgPersistenceFailure, start, utils.NewPersistenceError(err))
	}

	result, err := s.pipeline.Run(tables)
	if err != nil {
		logger.Warn().Err(err).Msg("Analysis training failed")
		appErr := utils.NewTrainingFailureError(err)
		if !utils.IsTrainingFailure(err) {
			appErr = utils.NewInternalServerError(err)
		}
		return s.fail(ctx, session, appErr.Message, start, appErr)
	}

	blob, err := result.Classifier.Marshal()
	if err != nil {
		appErr := utils.NewTrainingFailureError(err)
		return s.fail(ctx, session, appErr.Message, start, appErr)
	}

	completed := *session
	if err := completed.Complete(result.TotalComments, result.SuspiciousCount, result.Accuracy, result.LabelSource, s.now()); err != nil {
		return nil, err
	}

	err = s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := s.repos.Results.SaveResults(ctx, tx, completed.ID, &result.Results); err != nil {
			return err
		}
		if err := s.repos.Models.Save(ctx, tx, &models.TrainedModel{
			AnalysisID:     completed.ID,
			CatalogVersion: completed.CatalogVersion,
			Blob:           blob,
			CreatedAt:      s.now(),
		}); err != nil {
			return err
		}
		return s.repos.Analyses.Update(ctx, tx, &completed)
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to store analysis results")
		return s.fail(ctx, session, constants.MsgPersistenceFailure, start, utils.NewPersistenceError(err))
	}

	s.metrics.RecordAnalysis(string(completed.Status), s.now().Sub(start),
		completed.TotalComments, completed.SuspiciousCount, completed.Accuracy, true)

	logger.Info().
		Int("total_comments", completed.TotalComments).
		Int("suspicious_count", completed.SuspiciousCount).
		Float64("accuracy", completed.Accuracy).
		Str("label_source", string(completed.LabelSource)).
		Dur("duration", s.now().Sub(start)).
		Msg("Analysis completed")

	return &completed, nil
}

// fail marks a RUNNING session FAILED and returns cause. Saving the FAILED
// state is best effort; cause is returned either way.
func (s *AnalysisService) fail(ctx context.Context, session *models.AnalysisSession, message string, start time.Time, cause *utils.AppError) (*models.AnalysisSession, error) {
	if session.IsTerminal() {
		return session, cause
	}
	if err := session.Fail(message, s.now()); err != nil {
		return nil, err
	}
	if err := s.repos.Analyses.Update(ctx, s.db, session); err != nil {
		log.Error().
			Err(err).
			Str(constants.ColumnAnalysisID, session.ID).
			Msg("Failed to record analysis failure")
	}

	if cause != nil {
		utils.LogError(cause, map[string]interface{}{
			"category":                 constants.LogCategoryPipeline,
			constants.ColumnAnalysisID: session.ID,
			constants.ColumnDatasetID:  session.DatasetID,
		})
	}
	s.metrics.RecordAnalysis(string(session.Status), s.now().Sub(start), 0, 0, 0, false)

	return session, cause
}

// ScoreComments scores ad-hoc comment texts with the classifier stored by a
// completed analysis.
func (s *AnalysisService) ScoreComments(ctx context.Context, analysisID string, texts []string) ([]models.ScoredComment, error) {
	if len(texts) == 0 {
		return nil, utils.NewValidationError("texts", "At least one text is required")
	}
	if len(texts) > constants.MaxScoreTexts {
		return nil, utils.NewValidationError("texts", fmt.Sprintf("At most %d texts can be scored at once", constants.MaxScoreTexts))
	}

	session, err := s.repos.Analyses.GetByID(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.StatusCompleted {
		return nil, utils.NewConflictError(constants.MsgAnalysisNotCompleted)
	}

	stored, err := s.repos.Models.GetByAnalysisID(ctx, analysisID)
	if err != nil {
		return nil, err
	}

	clf, err := classifier.Unmarshal(stored.Blob)
	if err != nil {
		return nil, fmt.Errorf("failed to restore classifier of analysis %s: %w", analysisID, err)
	}

	predictions, err := clf.PredictTexts(texts)
	if err != nil {
		return nil, utils.NewTrainingFailureError(err)
	}

	scored := make([]models.ScoredComment, len(texts))
	for i, p := range predictions {
		scored[i] = models.ScoredComment{
			Text:             texts[i],
			Label:            p.Label,
			Probability:      p.Probability,
			RiskLevel:        models.RiskLevel(p.Probability),
			DetectedPatterns: append(models.PatternList{}, p.Patterns...),
			Features:         p.Features,
		}
	}
	s.metrics.RecordScored(len(texts))

	return scored, nil
}

// Dashboard summarizes datasets, analyses and catalogs.
func (s *AnalysisService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	totalDatasets, err := s.repos.Datasets.Count(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.repos.Analyses.Stats(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.repos.Analyses.List(ctx, constants.DashboardRecentLimit)
	if err != nil {
		return nil, err
	}

	catalogs, err := s.repos.Catalogs.List(ctx)
	if err != nil {
		return nil, err
	}
	versions := make([]string, len(catalogs))
	for i, c := range catalogs {
		versions[i] = c.Version
	}

	rate := 0.0
	if stats.CommentsAnalyzed > 0 {
		rate = float64(stats.SuspiciousDetected) / float64(stats.CommentsAnalyzed) * 100
	}

	return &models.Dashboard{
		TotalDatasets:   totalDatasets,
		Stats:           stats,
		DetectionRate:   utils.Round(rate, 2),
		RecentAnalyses:  recent,
		CatalogVersions: versions,
	}, nil
}

// GetAnalysisDetail returns a session with the head of its rankings.
func (s *AnalysisService) GetAnalysisDetail(ctx context.Context, analysisID string) (*models.AnalysisDetail, error) {
	session, err := s.repos.Analyses.GetByID(ctx, analysisID)
	if err != nil {
		return nil, err
	}

	ds, err := s.repos.Datasets.GetByID(ctx, session.DatasetID)
	if err != nil {
		return nil, err
	}

	comments, err := s.repos.Results.ListSuspiciousComments(ctx, analysisID, constants.DetailCommentsLimit)
	if err != nil {
		return nil, err
	}
	users, err := s.repos.Results.ListUserBehaviors(ctx, analysisID, constants.DetailRankingLimit)
	if err != nil {
		return nil, err
	}
	posts, err := s.repos.Results.ListPostAnalyses(ctx, analysisID, constants.DetailRankingLimit)
	if err != nil {
		return nil, err
	}

	return &models.AnalysisDetail{
		Analysis:             session,
		Dataset:              ds,
		SuspiciousPercentage: utils.Round(session.SuspiciousPercentage(), 2),
		SuspiciousComments:   comments,
		UserBehaviors:        users,
		PostAnalyses:         posts,
	}, nil
}

// ListAnalyses returns sessions newest first.
func (s *AnalysisService) ListAnalyses(ctx context.Context, limit int) ([]*models.AnalysisSession, error) {
	return s.repos.Analyses.List(ctx, limit)
}
