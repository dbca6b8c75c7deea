// Package repository provides data access interfaces and implementations for the
// Argus backend. It follows the repository pattern to abstract database operations
// and provide a clean API for data persistence.
//
// Queries are written with $N placeholders and rebound for the configured driver.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/database"
	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/utils"
)

// DatasetRepository defines methods for interacting with dataset metadata.
type DatasetRepository interface {
	// Create stores a dataset row. An empty ID is replaced by a new UUID.
	Create(ctx context.Context, dataset *models.Dataset) error

	// GetByID retrieves a dataset, or a NotFoundError.
	GetByID(ctx context.Context, id string) (*models.Dataset, error)

	// List returns datasets newest first. A limit of 0 returns all rows.
	List(ctx context.Context, limit int) ([]*models.Dataset, error)

	// Count returns the number of datasets.
	Count(ctx context.Context) (int64, error)
}

// SQLDatasetRepository implements DatasetRepository over database/sql.
type SQLDatasetRepository struct {
	db   *database.Pool
	crud *database.CRUD
}

// NewDatasetRepository creates a new DatasetRepository.
func NewDatasetRepository(db *database.Pool) DatasetRepository {
	return &SQLDatasetRepository{db: db, crud: database.NewCRUD(db)}
}

const datasetColumns = `dataset_id, name, description, source, posts_count, comments_count, actual_suspicious, created_at`

// Create stores a dataset row.
func (r *SQLDatasetRepository) Create(ctx context.Context, dataset *models.Dataset) error {
	if dataset.ID == "" {
		dataset.ID = uuid.New().String()
	}
	if dataset.CreatedAt.IsZero() {
		dataset.CreatedAt = time.Now()
	}

	if err := r.crud.Insert(ctx, r.db, dataset); err != nil {
		if appErr := utils.ParseError(err); utils.IsDuplicateError(appErr) {
			return utils.NewDuplicateError("Dataset", constants.ColumnDatasetID, dataset.ID)
		}
		return fmt.Errorf("failed to create dataset: %w", err)
	}

	log.Info().
		Str(constants.ColumnDatasetID, dataset.ID).
		Str("source", string(dataset.Source)).
		Int("posts", dataset.PostsCount).
		Int("comments", dataset.CommentsCount).
		Msg("Dataset created")

	return nil
}

// GetByID retrieves a dataset by ID.
func (r *SQLDatasetRepository) GetByID(ctx context.Context, id string) (*models.Dataset, error) {
	startTime := time.Now()

	query := `SELECT ` + datasetColumns + ` FROM datasets WHERE dataset_id = $1`

	row := r.db.QueryRowContext(ctx, r.db.Rebind(query), id)
	dataset, err := scanDataset(row)

	utils.LogDBQuery(query, []interface{}{id}, time.Since(startTime), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("Dataset", id)
		}
		return nil, fmt.Errorf("failed to get dataset by ID: %w", err)
	}

	return dataset, nil
}

// List returns datasets newest first.
func (r *SQLDatasetRepository) List(ctx context.Context, limit int) ([]*models.Dataset, error) {
	startTime := time.Now()

	query := `SELECT ` + datasetColumns + ` FROM datasets ORDER BY created_at DESC, dataset_id`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	utils.LogDBQuery(query, args, time.Since(startTime), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	datasets := make([]*models.Dataset, 0)
	for rows.Next() {
		dataset, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset row: %w", err)
		}
		datasets = append(datasets, dataset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dataset rows: %w", err)
	}

	return datasets, nil
}

// Count returns the number of datasets.
func (r *SQLDatasetRepository) Count(ctx context.Context) (int64, error) {
	return r.crud.Count(ctx, &models.Dataset{}, nil)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDataset(row rowScanner) (*models.Dataset, error) {
	d := &models.Dataset{}
	var description sql.NullString
	var actual sql.NullInt64
	var source string

	err := row.Scan(
		&d.ID,
		&d.Name,
		&description,
		&source,
		&d.PostsCount,
		&d.CommentsCount,
		&actual,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Description = description.String
	d.Source = models.DatasetSource(source)
	if actual.Valid {
		n := int(actual.Int64)
		d.ActualSuspicious = &n
	}
	return d, nil
}
