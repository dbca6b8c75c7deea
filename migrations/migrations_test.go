package migrations_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/argusia/argus/internal/database"
	"github.com/argusia/argus/migrations"
)

// createMockDB creates a mock database for testing
func createMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return db, mock, cleanup
}

// TestNewMigrator tests the NewMigrator function
func TestNewMigrator(t *testing.T) {
	db, _, cleanup := createMockDB(t)
	defer cleanup()

	pool := &database.Pool{DB: db}
	migrator := migrations.NewMigrator(pool)

	assert.NotNil(t, migrator)
}

// TestGetMigrations tests the GetMigrations function
func TestGetMigrations(t *testing.T) {
	list := migrations.GetMigrations()

	tables := make([]string, len(list))
	for i, m := range list {
		tables[i] = m.TableName
	}

	// Referenced tables come before the tables that reference them.
	assert.Equal(t, []string{
		"pattern_catalogs",
		"datasets",
		"analysis_sessions",
		"suspicious_comments",
		"user_behaviors",
		"post_analyses",
		"trained_models",
	}, tables)
}

// TestRunMigrations tests the main RunMigrations function
func TestRunMigrations(t *testing.T) {
	total := len(migrations.GetMigrations())

	tests := []struct {
		name    string
		setup   func(sqlmock.Sqlmock)
		wantErr bool
	}{
		{
			name: "Error - Create migrations table fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnError(errors.New("failed to create migrations table"))
			},
			wantErr: true,
		},
		{
			name: "Error - Get executed migrations fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnError(errors.New("failed to get executed migrations"))
			},
			wantErr: true,
		},
		{
			name: "Error - Table exists check fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnRows(sqlmock.NewRows([]string{"name"}))
				mock.ExpectQuery("SELECT COUNT.*FROM information_schema.tables").
					WillReturnError(errors.New("failed to check table existence"))
			},
			wantErr: true,
		},
		{
			name: "Success - Tables already exist",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnRows(sqlmock.NewRows([]string{"name"}))

				for i := 0; i < total; i++ {
					mock.ExpectQuery("SELECT COUNT.*FROM information_schema.tables").
						WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
					mock.ExpectExec("INSERT INTO migrations").
						WillReturnResult(sqlmock.NewResult(1, 1))
				}
			},
			wantErr: false,
		},
		{
			name: "Success - All migrations already executed",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))

				rows := sqlmock.NewRows([]string{"name"})
				for _, m := range migrations.GetMigrations() {
					rows.AddRow(m.Name)
				}
				mock.ExpectQuery("SELECT name FROM migrations").WillReturnRows(rows)
			},
			wantErr: false,
		},
		{
			name: "Success - Missing table is created",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))

				rows := sqlmock.NewRows([]string{"name"})
				for _, m := range migrations.GetMigrations()[1:] {
					rows.AddRow(m.Name)
				}
				mock.ExpectQuery("SELECT name FROM migrations").WillReturnRows(rows)

				mock.ExpectQuery("SELECT COUNT.*FROM information_schema.tables").
					WithArgs("pattern_catalogs").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectBegin()
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS pattern_catalogs").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`INSERT INTO migrations \(name, description\) VALUES \(\$1, \$2\)`).
					WithArgs("create_pattern_catalogs_table", "Creates the pattern_catalogs table").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
			wantErr: false,
		},
		{
			name: "Error - Migration statement fails and rolls back",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnRows(sqlmock.NewRows([]string{"name"}))
				mock.ExpectQuery("SELECT COUNT.*FROM information_schema.tables").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectBegin()
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS pattern_catalogs").
					WillReturnError(errors.New("syntax error"))
				mock.ExpectRollback()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := createMockDB(t)
			defer cleanup()

			tt.setup(mock)

			pool := &database.Pool{DB: db}
			migrator := migrations.NewMigrator(pool)

			err := migrator.RunMigrations(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// TestRunMigrations_SQLite tests the sqlite table check and placeholder style
func TestRunMigrations_SQLite(t *testing.T) {
	db, mock, cleanup := createMockDB(t)
	defer cleanup()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT name FROM migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	for i := 0; i < len(migrations.GetMigrations()); i++ {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sqlite_master WHERE type = 'table' AND name = \?`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectExec(`INSERT INTO migrations \(name, description\) VALUES \(\?, \?\)`).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}

	migrator := migrations.NewMigrator(&database.Pool{DB: db, Driver: "sqlite"})
	assert.NoError(t, migrator.RunMigrations(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestMigrationProperties tests that all migrations have the required properties
func TestMigrationProperties(t *testing.T) {
	for _, migration := range migrations.GetMigrations() {
		t.Run(migration.Name, func(t *testing.T) {
			assert.NotEmpty(t, migration.Name, "Migration should have a name")
			assert.NotEmpty(t, migration.Description, "Migration should have a description")
			assert.NotEmpty(t, migration.TableName, "Migration should have a table name")
			assert.NotNil(t, migration.Statements, "Migration should have statements")
		})
	}
}
