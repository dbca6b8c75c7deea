package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argusia/argus/internal/config"
	"github.com/argusia/argus/internal/constants"
)

// connectSQLite opens a file-backed sqlite pool through Connect and restores
// the global pool afterwards.
func connectSQLite(t *testing.T) *Pool {
	t.Helper()
	previous := dbPool
	t.Cleanup(func() { dbPool = previous })

	cfg := &config.AppConfig{Database: config.DatabaseSettings{
		Driver:   constants.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "argus.db"),
		MaxConns: 20,
		MinConns: 5,
	}}

	pool, err := Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestConnect_SQLite(t *testing.T) {
	pool := connectSQLite(t)

	assert.Equal(t, constants.DriverSQLite, pool.Driver)
	assert.Same(t, pool, Get())

	// Configured pool sizes do not apply to the single sqlite writer.
	assert.Equal(t, 1, pool.Stats().MaxOpenConnections)

	assert.NoError(t, pool.HealthCheck(context.Background()))
}

func TestConnect_SQLiteTransactions(t *testing.T) {
	pool := connectSQLite(t)
	ctx := context.Background()

	_, err := pool.ExecContext(ctx, "CREATE TABLE labels (id INTEGER PRIMARY KEY, name TEXT NOT NULL)")
	require.NoError(t, err)

	insert := pool.Rebind("INSERT INTO labels (id, name) VALUES ($1, $2)")
	require.Equal(t, "INSERT INTO labels (id, name) VALUES (?, ?)", insert)

	err = pool.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, insert, 1, "suspicious")
		return err
	})
	require.NoError(t, err)

	abort := errors.New("abort")
	err = pool.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insert, 2, "normal"); err != nil {
			return err
		}
		return abort
	})
	assert.ErrorIs(t, err, abort)

	var names []string
	rows, err := pool.QueryContext(ctx, pool.Rebind("SELECT name FROM labels WHERE id IN ("+Placeholders(1, 2)+") ORDER BY id"), 1, 2)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"suspicious"}, names)
}

func TestConnect_Unreachable(t *testing.T) {
	previous := dbPool
	t.Cleanup(func() { dbPool = previous })

	tests := []struct {
		driver  string
		wantErr string
	}{
		{constants.DriverPostgres, "failed to ping database"},
		{constants.DriverMySQL, "failed to create database"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			cfg := &config.AppConfig{Database: config.DatabaseSettings{
				Driver: tt.driver,
				Host:   "127.0.0.1",
				Port:   1,
				Name:   "argus",
				User:   "argus",
			}}

			pool, err := Connect(cfg)
			require.Error(t, err)
			assert.Nil(t, pool)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	(&Pool{DB: db}).Close()
	assert.NoError(t, mock.ExpectationsWereMet())

	// Neither a pool without a connection nor a nil pool panics.
	(&Pool{}).Close()
	var nilPool *Pool
	nilPool.Close()
}

func TestTransaction(t *testing.T) {
	errFn := errors.New("function error")

	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		fn      func(tx *sql.Tx) error
		wantErr string
	}{
		{
			name: "Commit",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE analyses SET status = \$1`).WithArgs("RUNNING").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			fn: func(tx *sql.Tx) error {
				_, err := tx.Exec("UPDATE analyses SET status = $1", "RUNNING")
				return err
			},
		},
		{
			name:    "Begin failure",
			setup:   func(mock sqlmock.Sqlmock) { mock.ExpectBegin().WillReturnError(errors.New("begin error")) },
			fn:      func(tx *sql.Tx) error { return nil },
			wantErr: "failed to begin transaction",
		},
		{
			name: "Rollback on error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			fn:      func(tx *sql.Tx) error { return errFn },
			wantErr: errFn.Error(),
		},
		{
			name: "Rollback failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback().WillReturnError(errors.New("rollback error"))
			},
			fn:      func(tx *sql.Tx) error { return errFn },
			wantErr: "failed to rollback transaction",
		},
		{
			name: "Commit failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit().WillReturnError(errors.New("commit error"))
			},
			fn:      func(tx *sql.Tx) error { return nil },
			wantErr: "failed to commit transaction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.setup(mock)

			err = (&Pool{DB: db}).Transaction(context.Background(), tt.fn)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTransaction_PanicRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "pipeline crashed", func() {
		_ = (&Pool{DB: db}).Transaction(context.Background(), func(tx *sql.Tx) error {
			panic("pipeline crashed")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr string
	}{
		{
			name: "Healthy",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
			},
		},
		{
			name:    "Query failure",
			setup:   func(mock sqlmock.Sqlmock) { mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("query error")) },
			wantErr: "database query test failed",
		},
		{
			name: "Unexpected result",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(2))
			},
			wantErr: "database returned unexpected result",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer db.Close()
			mock.ExpectPing()
			tt.setup(mock)

			err = (&Pool{DB: db, Driver: constants.DriverPostgres}).HealthCheck(context.Background())
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRebind(t *testing.T) {
	query := "SELECT a FROM t WHERE b = $1 AND c IN ($2, $10) AND d = '$' AND e = $x"

	tests := []struct {
		driver   string
		expected string
	}{
		{"", query},
		{constants.DriverPostgres, query},
		{constants.DriverMySQL, "SELECT a FROM t WHERE b = ? AND c IN (?, ?) AND d = '$' AND e = $x"},
		{constants.DriverSQLite, "SELECT a FROM t WHERE b = ? AND c IN (?, ?) AND d = '$' AND e = $x"},
	}

	for _, tt := range tests {
		t.Run("driver "+tt.driver, func(t *testing.T) {
			pool := &Pool{Driver: tt.driver}
			assert.Equal(t, tt.expected, pool.Rebind(query))
		})
	}

	assert.Equal(t, "VALUES (?)$", (&Pool{Driver: constants.DriverSQLite}).Rebind("VALUES ($1)$"))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1, $2, $3", Placeholders(1, 3))
	assert.Equal(t, "$4", Placeholders(4, 1))
	assert.Equal(t, "", Placeholders(1, 0))
}
