// Package scripts provides utility scripts for database and system management.
//
// This package implements database seeding functionality to populate initial data
// required for the application to function properly. The seeding system works
// similarly to migrations, tracking executed seeds to ensure they only run once,
// making the process idempotent and safe to run on both new and existing databases.
package scripts

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/argusia/argus/internal/database"
	"github.com/argusia/argus/internal/detection"
)

// Seeder handles database seeding.
// It registers the pattern catalogs analyses may reference.
type Seeder struct {
	db       *database.Pool
	catalogs []*detection.Catalog
	now      func() time.Time
}

// NewSeeder creates a new seeder. The built-in catalog is always seeded;
// additional catalogs (such as one loaded from detection.catalog_path) are
// seeded after it.
//
// Parameters:
//   - db: A database connection pool to use for seeding
//   - catalogs: Extra catalogs to register
//
// Returns:
//   - *Seeder: A configured seeder
func NewSeeder(db *database.Pool, catalogs ...*detection.Catalog) *Seeder {
	all := []*detection.Catalog{detection.DefaultCatalog()}
	for _, c := range catalogs {
		if c != nil && c.Version() != detection.DefaultCatalogVersion {
			all = append(all, c)
		}
	}
	return &Seeder{
		db:       db,
		catalogs: all,
		now:      time.Now,
	}
}

// SeedDatabase seeds the database with initial data.
// It creates the seeds tracking table if it doesn't exist, then runs
// all seed functions that haven't been executed yet.
//
// Parameters:
//   - ctx: Context for database operations and cancellation
//
// Returns:
//   - error: Any error encountered during seeding, nil if successful
func (s *Seeder) SeedDatabase(ctx context.Context) error {
	log.Info().Msg("Seeding database")
	startTime := time.Now()

	// Create seeds table if it doesn't exist
	if err := s.createSeedsTable(ctx); err != nil {
		return fmt.Errorf("failed to create seeds table: %w", err)
	}

	// Get executed seeds
	executedSeeds, err := s.getExecutedSeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to get executed seeds: %w", err)
	}

	for _, catalog := range s.catalogs {
		catalog := catalog
		name := "pattern_catalog_" + catalog.Version()
		if executedSeeds[name] {
			log.Debug().Str("seed", name).Msg("Seed already executed")
			continue
		}

		log.Info().Str("seed", name).Msg("Running seed")
		err := s.runSeed(ctx, name, func(ctx context.Context, tx *sql.Tx) error {
			return s.seedCatalog(ctx, tx, catalog)
		})
		if err != nil {
			return err
		}
	}

	log.Info().
		Dur("duration", time.Since(startTime)).
		Msg("Database seeding completed")

	return nil
}

// createSeedsTable creates the seeds table if it doesn't exist.
// This table tracks which seed operations have been executed.
func (s *Seeder) createSeedsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS seeds (
			name VARCHAR(255) PRIMARY KEY,
			executed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// getExecutedSeeds returns a map of executed seeds.
// The map keys are seed names and values are always true.
func (s *Seeder) getExecutedSeeds(ctx context.Context) (map[string]bool, error) {
	query := `SELECT name FROM seeds`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	seeds := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		seeds[name] = true
	}

	return seeds, rows.Err()
}

// runSeed runs a seed function within a transaction.
// If the seed operation fails, the transaction is rolled back.
func (s *Seeder) runSeed(ctx context.Context, name string, seedFunc func(ctx context.Context, tx *sql.Tx) error) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		// Run the seed
		if err := seedFunc(ctx, tx); err != nil {
			return fmt.Errorf("seed %s failed: %w", name, err)
		}

		// Record the seed
		query := s.db.Rebind(`INSERT INTO seeds (name) VALUES ($1)`)
		_, err := tx.ExecContext(ctx, query, name)
		if err != nil {
			return fmt.Errorf("failed to record seed: %w", err)
		}

		return nil
	})
}

// seedCatalog registers a catalog version in pattern_catalogs unless it is
// already present. The definition is stored as YAML, the catalog file format.
func (s *Seeder) seedCatalog(ctx context.Context, tx *sql.Tx, catalog *detection.Catalog) error {
	var count int
	countQuery := s.db.Rebind(`SELECT COUNT(*) FROM pattern_catalogs WHERE version = $1`)
	if err := tx.QueryRowContext(ctx, countQuery, catalog.Version()).Scan(&count); err != nil {
		return fmt.Errorf("failed to count pattern catalogs: %w", err)
	}

	if count > 0 {
		log.Info().Str("version", catalog.Version()).Msg("Pattern catalog already registered")
		return nil
	}

	definition, err := yaml.Marshal(catalog.Spec())
	if err != nil {
		return fmt.Errorf("failed to encode pattern catalog: %w", err)
	}

	query := s.db.Rebind(`
		INSERT INTO pattern_catalogs (version, definition, created_at)
		VALUES ($1, $2, $3)
	`)
	if _, err := tx.ExecContext(ctx, query, catalog.Version(), string(definition), s.now()); err != nil {
		return fmt.Errorf("failed to insert pattern catalog %s: %w", catalog.Version(), err)
	}

	log.Info().
		Str("version", catalog.Version()).
		Int("patterns", len(catalog.Patterns())).
		Msg("Pattern catalog registered")

	return nil
}
