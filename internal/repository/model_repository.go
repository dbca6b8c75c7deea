package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/database"
	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/utils"
)

// ModelRepository stores the serialized classifier of an analysis.
type ModelRepository interface {
	Save(ctx context.Context, q database.Querier, model *models.TrainedModel) error
	GetByAnalysisID(ctx context.Context, analysisID string) (*models.TrainedModel, error)
}

// SQLModelRepository implements ModelRepository over database/sql.
type SQLModelRepository struct {
	db   *database.Pool
	crud *database.CRUD
}

// NewModelRepository creates a new ModelRepository.
func NewModelRepository(db *database.Pool) ModelRepository {
	return &SQLModelRepository{db: db, crud: database.NewCRUD(db)}
}

// Save inserts the model blob using q.
func (r *SQLModelRepository) Save(ctx context.Context, q database.Querier, model *models.TrainedModel) error {
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now()
	}

	if err := r.crud.Insert(ctx, q, model); err != nil {
		return fmt.Errorf("failed to save trained model: %w", err)
	}

	log.Debug().
		Str(constants.ColumnAnalysisID, model.AnalysisID).
		Int("bytes", len(model.Blob)).
		Msg("Trained model stored")

	return nil
}

// GetByAnalysisID retrieves the model of an analysis, or a NotFoundError.
func (r *SQLModelRepository) GetByAnalysisID(ctx context.Context, analysisID string) (*models.TrainedModel, error) {
	startTime := time.Now()

	query := `
		SELECT analysis_id, catalog_version, model_blob, created_at
		FROM trained_models
		WHERE analysis_id = $1
	`

	model := &models.TrainedModel{}
	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), analysisID).Scan(
		&model.AnalysisID,
		&model.CatalogVersion,
		&model.Blob,
		&model.CreatedAt,
	)

	utils.LogDBQuery(query, []interface{}{analysisID}, time.Since(startTime), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("TrainedModel", analysisID)
		}
		return nil, fmt.Errorf("failed to get trained model: %w", err)
	}

	return model, nil
}
