// Package migrations provides a framework for database schema management.
//
// This package implements a migration system that allows for reliable, idempotent
// database schema creation. It tracks executed migrations in a dedicated
// migrations table and ensures all required tables exist before application startup.
//
// The migration system supports:
// - Automatic creation of missing tables
// - Tracking of executed migrations
// - PostgreSQL, MySQL and SQLite column types
// - Idempotent execution of migrations (safe to run multiple times)
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/database"
)

// Migration represents a database migration.
// Each migration performs a specific schema change and is tracked
// to ensure it runs exactly once.
type Migration struct {
	// Name is a unique identifier for the migration
	Name string
	// Description is a human-readable explanation of what the migration does
	Description string
	// TableName is the table affected by this migration, used for existence checks
	TableName string
	// Statements returns the SQL of the migration for a dialect. Statements run
	// one at a time because the MySQL driver rejects multi-statement queries.
	Statements func(d Dialect) []string
}

// Dialect carries the column types that differ between drivers.
type Dialect struct {
	Driver string
}

// Blob is the column type for binary data.
func (d Dialect) Blob() string {
	switch d.Driver {
	case constants.DriverMySQL:
		return "LONGBLOB"
	case constants.DriverSQLite:
		return "BLOB"
	default:
		return "BYTEA"
	}
}

// Migrator handles database migrations.
// It provides methods to run migrations, check for existing tables,
// and ensure the database schema is up to date.
type Migrator struct {
	db      *database.Pool
	dialect Dialect
}

// NewMigrator creates a new migrator.
//
// Parameters:
//   - db: A database connection pool to use for migrations
//
// Returns:
//   - *Migrator: A configured migrator
func NewMigrator(db *database.Pool) *Migrator {
	return &Migrator{
		db:      db,
		dialect: Dialect{Driver: db.Driver},
	}
}

// RunMigrations runs all pending database migrations.
// It creates the migrations table if it doesn't exist, and runs any migration
// that hasn't been executed yet. A migration whose table already exists is
// recorded without running.
//
// Parameters:
//   - ctx: Context for database operations and cancellation
//
// Returns:
//   - error: Any error encountered during migration, nil if successful
func (m *Migrator) RunMigrations(ctx context.Context) error {
	log.Info().Str("driver", m.dialect.Driver).Msg("Running database migrations")
	startTime := time.Now()

	// Create migrations table if it doesn't exist
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get executed migrations
	executedMigrations, err := m.getExecutedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get executed migrations: %w", err)
	}

	migrations := GetMigrations()
	migrationsRun, migrationsRecorded := 0, 0

	for _, migration := range migrations {
		if executedMigrations[migration.Name] {
			continue
		}

		// Check if the table already exists before running the migration
		exists, err := m.tableExists(ctx, migration.TableName)
		if err != nil {
			return fmt.Errorf("failed to check if table %s exists: %w", migration.TableName, err)
		}

		if exists {
			log.Info().
				Str("migration", migration.Name).
				Str("table", migration.TableName).
				Msg("Table already exists, recording migration as completed")

			if err := m.recordMigration(ctx, m.db, migration.Name, migration.Description); err != nil {
				return fmt.Errorf("failed to record existing migration: %w", err)
			}
			migrationsRecorded++
			continue
		}

		log.Info().
			Str("migration", migration.Name).
			Str("table", migration.TableName).
			Msg("Running migration")

		if err := m.runMigration(ctx, migration); err != nil {
			return err
		}
		migrationsRun++
	}

	log.Info().
		Int("migrations_run", migrationsRun).
		Int("migrations_recorded", migrationsRecorded).
		Int("total_migrations", len(migrations)).
		Dur("duration", time.Since(startTime)).
		Msg("Database migrations completed")

	return nil
}

// createMigrationsTable creates the migrations table if it doesn't exist.
// This table tracks which migrations have been executed.
func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			name VARCHAR(255) PRIMARY KEY,
			description TEXT,
			executed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := m.db.ExecContext(ctx, query)
	return err
}

// getExecutedMigrations returns the names of executed migrations.
func (m *Migrator) getExecutedMigrations(ctx context.Context) (map[string]bool, error) {
	query := `SELECT name FROM migrations`
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	migrations := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		migrations[name] = true
	}

	return migrations, rows.Err()
}

// runMigration runs a migration within a transaction.
// If the migration fails, the transaction is rolled back.
func (m *Migrator) runMigration(ctx context.Context, migration Migration) error {
	return m.db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range migration.Statements(m.dialect) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %s failed: %w", migration.Name, err)
			}
		}

		return m.recordMigration(ctx, tx, migration.Name, migration.Description)
	})
}

// recordMigration records a migration as completed.
func (m *Migrator) recordMigration(ctx context.Context, q database.Querier, name, description string) error {
	query := m.db.Rebind(`INSERT INTO migrations (name, description) VALUES ($1, $2)`)
	if _, err := q.ExecContext(ctx, query, name, description); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return nil
}

// tableExists checks if a table exists in the current database.
func (m *Migrator) tableExists(ctx context.Context, tableName string) (bool, error) {
	var query string
	switch m.dialect.Driver {
	case constants.DriverSQLite:
		query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = $1`
	case constants.DriverMySQL:
		query = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = $1`
	default:
		query = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`
	}

	var count int
	err := m.db.QueryRowContext(ctx, m.db.Rebind(query), tableName).Scan(&count)
	return count > 0, err
}

// GetMigrations returns all migrations in the order they must run.
// Tables referenced by foreign keys come first.
func GetMigrations() []Migration {
	return []Migration{
		createPatternCatalogsTable(),
		createDatasetsTable(),
		createAnalysisSessionsTable(),
		createSuspiciousCommentsTable(),
		createUserBehaviorsTable(),
		createPostAnalysesTable(),
		createTrainedModelsTable(),
	}
}
