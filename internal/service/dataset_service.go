package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/argusia/argus/internal/config"
	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/dataset"
	"github.com/argusia/argus/internal/metrics"
	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/repository"
	"github.com/argusia/argus/internal/utils"
)

// DatasetService handles dataset generation, upload and download
type DatasetService struct {
	repo     repository.DatasetRepository
	store    *dataset.Store
	defaults config.DetectionSettings
	metrics  *metrics.PipelineMetrics
	now      func() time.Time
}

// NewDatasetService creates a new DatasetService
func NewDatasetService(
	repo repository.DatasetRepository,
	store *dataset.Store,
	defaults config.DetectionSettings,
	m *metrics.PipelineMetrics,
) *DatasetService {
	return &DatasetService{
		repo:     repo,
		store:    store,
		defaults: defaults,
		metrics:  m,
		now:      time.Now,
	}
}

// generate applies defaults to req and runs the generator.
func (s *DatasetService) generate(req *models.GenerateDatasetRequest) (*dataset.Tables, *models.DatasetInfo, error) {
	posts := req.PostsCount
	if posts == 0 {
		posts = s.defaults.DefaultPosts
	}
	comments := req.CommentsCount
	if comments == 0 {
		comments = s.defaults.DefaultComments
	}
	ratio := s.defaults.DefaultRatio
	if req.SuspiciousRatio != nil {
		ratio = *req.SuspiciousRatio
	}

	if err := dataset.ValidateParams(posts, comments, ratio); err != nil {
		return nil, nil, err
	}

	seed := s.now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	tables, actual, err := dataset.NewGenerator(seed).WithClock(s.now).Generate(posts, comments, ratio)
	if err != nil {
		return nil, nil, err
	}

	return tables, &models.DatasetInfo{
		PostsCount:       posts,
		CommentsCount:    comments,
		SuspiciousRatio:  ratio,
		ActualSuspicious: actual,
	}, nil
}

// GenerateDataset creates a synthetic dataset and buffers its tables for
// analysis.
func (s *DatasetService) GenerateDataset(ctx context.Context, req *models.GenerateDatasetRequest) (*models.Dataset, error) {
	tables, info, err := s.generate(req)
	if err != nil {
		return nil, err
	}

	actual := info.ActualSuspicious
	ds := &models.Dataset{
		Name:             req.Name,
		Description:      req.Description,
		Source:           models.SourceGenerated,
		PostsCount:       info.PostsCount,
		CommentsCount:    info.CommentsCount,
		ActualSuspicious: &actual,
	}
	if err := s.create(ctx, ds, tables); err != nil {
		return nil, err
	}

	return ds, nil
}

// GenerateCSV creates a synthetic dataset and returns it as CSV without
// storing it.
func (s *DatasetService) GenerateCSV(req *models.GenerateDatasetRequest) (*models.DatasetCSV, error) {
	tables, info, err := s.generate(req)
	if err != nil {
		return nil, err
	}

	out, err := encodeTables(tables)
	if err != nil {
		return nil, err
	}
	out.Info = info

	return out, nil
}

// UploadDataset parses the posts and comments CSV files, validates the rows
// and buffers the tables for analysis.
func (s *DatasetService) UploadDataset(ctx context.Context, name, description string, postsCSV, commentsCSV io.Reader) (*models.Dataset, error) {
	posts, err := dataset.ReadPosts(postsCSV)
	if err != nil {
		return nil, err
	}
	comments, err := dataset.ReadComments(commentsCSV)
	if err != nil {
		return nil, err
	}

	tables := &dataset.Tables{Posts: posts, Comments: comments}
	if err := tables.Validate(); err != nil {
		return nil, err
	}

	ds := &models.Dataset{
		Name:          name,
		Description:   description,
		Source:        models.SourceUploaded,
		PostsCount:    len(posts),
		CommentsCount: len(comments),
	}
	if actual, ok := tables.ActualSuspicious(); ok {
		ds.ActualSuspicious = &actual
	}

	if err := s.create(ctx, ds, tables); err != nil {
		return nil, err
	}

	return ds, nil
}

// create stores the dataset row, then buffers the tables under its id.
func (s *DatasetService) create(ctx context.Context, ds *models.Dataset, tables *dataset.Tables) error {
	if ds.Name == "" {
		count, err := s.repo.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count datasets: %w", err)
		}
		ds.Name = models.DefaultDatasetName(int(count) + 1)
	}
	ds.CreatedAt = s.now()

	if err := s.repo.Create(ctx, ds); err != nil {
		return err
	}
	s.store.Put(ds.ID, tables)
	s.metrics.RecordDataset(string(ds.Source))

	log.Info().
		Str("category", constants.LogCategoryPipeline).
		Str(constants.ColumnDatasetID, ds.ID).
		Str("source", string(ds.Source)).
		Msg("Dataset buffered for analysis")

	return nil
}

// GetDataset retrieves a dataset row.
func (s *DatasetService) GetDataset(ctx context.Context, id string) (*models.Dataset, error) {
	return s.repo.GetByID(ctx, id)
}

// ListDatasets returns datasets newest first.
func (s *DatasetService) ListDatasets(ctx context.Context, limit int) ([]*models.Dataset, error) {
	return s.repo.List(ctx, limit)
}

// DownloadDataset returns the buffered tables of a dataset that has not been
// analyzed yet.
func (s *DatasetService) DownloadDataset(ctx context.Context, id string) (*models.DatasetCSV, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	tables, err := s.store.Peek(id)
	if err != nil {
		if errors.Is(err, dataset.ErrNotBuffered) {
			return nil, utils.NewDatasetExpiredError(id)
		}
		return nil, err
	}

	return encodeTables(tables)
}

func encodeTables(tables *dataset.Tables) (*models.DatasetCSV, error) {
	var posts, comments bytes.Buffer
	if err := dataset.WritePosts(&posts, tables.Posts); err != nil {
		return nil, fmt.Errorf("failed to encode posts: %w", err)
	}
	if err := dataset.WriteComments(&comments, tables.Comments); err != nil {
		return nil, fmt.Errorf("failed to encode comments: %w", err)
	}
	return &models.DatasetCSV{PostsCSV: posts.String(), CommentsCSV: comments.String()}, nil
}
