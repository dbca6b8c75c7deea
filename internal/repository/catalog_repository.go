package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/argusia/argus/internal/database"
	"github.com/argusia/argus/internal/detection"
	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/utils"
)

// CatalogRepository defines methods for reading the stored pattern catalogs.
// Catalog rows are written by the seeder.
type CatalogRepository interface {
	GetByVersion(ctx context.Context, version string) (*models.PatternCatalogRecord, error)
	List(ctx context.Context) ([]*models.PatternCatalogRecord, error)

	// Load compiles the stored definition of a version.
	Load(ctx context.Context, version string) (*detection.Catalog, error)
}

// SQLCatalogRepository implements CatalogRepository over database/sql.
type SQLCatalogRepository struct {
	db *database.Pool
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(db *database.Pool) CatalogRepository {
	return &SQLCatalogRepository{
		db: db,
	}
}

// GetByVersion retrieves a catalog by version
func (r *SQLCatalogRepository) GetByVersion(ctx context.Context, version string) (*models.PatternCatalogRecord, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		SELECT version, definition, created_at
		FROM pattern_catalogs
		WHERE version = $1
	`

	// Execute the query
	record := &models.PatternCatalogRecord{}
	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), version).Scan(
		&record.Version,
		&record.Definition,
		&record.CreatedAt,
	)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{version},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("PatternCatalog", version)
		}
		return nil, fmt.Errorf("failed to get pattern catalog by version: %w", err)
	}

	return record, nil
}

// List retrieves all catalogs, oldest first
func (r *SQLCatalogRepository) List(ctx context.Context) ([]*models.PatternCatalogRecord, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		SELECT version, definition, created_at
		FROM pattern_catalogs
		ORDER BY created_at, version
	`

	// Execute the query
	rows, err := r.db.QueryContext(ctx, query)

	// Log the query execution
	utils.LogDBQuery(
		query,
		nil,
		time.Since(startTime),
		err,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to list pattern catalogs: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	// Parse the results
	var records []*models.PatternCatalogRecord
	for rows.Next() {
		record := &models.PatternCatalogRecord{}
		if err := rows.Scan(
			&record.Version,
			&record.Definition,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pattern catalog row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pattern catalog rows: %w", err)
	}

	return records, nil
}

// Load compiles the stored definition of a catalog version
func (r *SQLCatalogRepository) Load(ctx context.Context, version string) (*detection.Catalog, error) {
	record, err := r.GetByVersion(ctx, version)
	if err != nil {
		return nil, err
	}

	catalog, err := detection.ParseCatalog([]byte(record.Definition))
	if err != nil {
		return nil, fmt.Errorf("stored pattern catalog %s is invalid: %w", version, err)
	}

	return catalog, nil
}
