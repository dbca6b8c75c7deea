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

// AnalysisRepository defines methods for interacting with analysis sessions.
type AnalysisRepository interface {
	// Create stores a new session. An empty ID is replaced by a new UUID.
	Create(ctx context.Context, session *models.AnalysisSession) error

	// Update writes the mutable fields of a session using q, which may be
	// the pool or a transaction.
	Update(ctx context.Context, q database.Querier, session *models.AnalysisSession) error

	// GetByID retrieves a session, or a NotFoundError.
	GetByID(ctx context.Context, id string) (*models.AnalysisSession, error)

	// List returns sessions newest first. A limit of 0 returns all rows.
	List(ctx context.Context, limit int) ([]*models.AnalysisSession, error)

	// Stats aggregates all sessions for the dashboard.
	Stats(ctx context.Context) (*models.AnalysisStats, error)
}

// SQLAnalysisRepository implements AnalysisRepository over database/sql.
type SQLAnalysisRepository struct {
	db   *database.Pool
	crud *database.CRUD
}

// NewAnalysisRepository creates a new AnalysisRepository.
func NewAnalysisRepository(db *database.Pool) AnalysisRepository {
	return &SQLAnalysisRepository{db: db, crud: database.NewCRUD(db)}
}

const analysisColumns = `analysis_id, dataset_id, status, total_comments, suspicious_count, accuracy,
		label_source, catalog_version, error_message, created_at, completed_at`

// Create stores a new session.
//
// Parameters:
//   - ctx: Context for the operation
//   - session: The session to store; its ID is filled in when empty
//
// Returns:
//   - An error if the insert fails, a DuplicateError if the ID is taken
func (r *SQLAnalysisRepository) Create(ctx context.Context, session *models.AnalysisSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	if err := r.crud.Insert(ctx, r.db, session); err != nil {
		if appErr := utils.ParseError(err); utils.IsDuplicateError(appErr) {
			return utils.NewDuplicateError("AnalysisSession", constants.ColumnAnalysisID, session.ID)
		}
		return fmt.Errorf("failed to create analysis session: %w", err)
	}

	log.Info().
		Str(constants.ColumnAnalysisID, session.ID).
		Str(constants.ColumnDatasetID, session.DatasetID).
		Str("catalog_version", session.CatalogVersion).
		Msg("Analysis session created")

	return nil
}

// Update writes status, summary and completion fields of a session.
//
// Parameters:
//   - ctx: Context for the operation
//   - q: The pool or a transaction
//   - session: The session with its new state
//
// Returns:
//   - A NotFoundError if no row was updated, or the query error
func (r *SQLAnalysisRepository) Update(ctx context.Context, q database.Querier, session *models.AnalysisSession) error {
	// Start query timer
	startTime := time.Now()

	query := `
		UPDATE analysis_sessions
		SET status = $1, total_comments = $2, suspicious_count = $3, accuracy = $4,
			label_source = $5, error_message = $6, completed_at = $7
		WHERE analysis_id = $8
	`
	args := []interface{}{
		string(session.Status),
		session.TotalComments,
		session.SuspiciousCount,
		session.Accuracy,
		nullString(string(session.LabelSource)),
		nullString(session.ErrorMessage),
		session.CompletedAt,
		session.ID,
	}

	result, err := q.ExecContext(ctx, r.db.Rebind(query), args...)

	// Log the query execution
	utils.LogDBQuery(query, args, time.Since(startTime), err)

	if err != nil {
		return fmt.Errorf("failed to update analysis session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return utils.NewNotFoundError("AnalysisSession", session.ID)
	}

	log.Info().
		Str(constants.ColumnAnalysisID, session.ID).
		Str("status", string(session.Status)).
		Msg("Analysis session updated")

	return nil
}

// GetByID retrieves a session by ID.
func (r *SQLAnalysisRepository) GetByID(ctx context.Context, id string) (*models.AnalysisSession, error) {
	startTime := time.Now()

	query := `SELECT ` + analysisColumns + ` FROM analysis_sessions WHERE analysis_id = $1`

	session, err := scanAnalysis(r.db.QueryRowContext(ctx, r.db.Rebind(query), id))

	utils.LogDBQuery(query, []interface{}{id}, time.Since(startTime), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("AnalysisSession", id)
		}
		return nil, fmt.Errorf("failed to get analysis session by ID: %w", err)
	}

	return session, nil
}

// List returns sessions newest first.
func (r *SQLAnalysisRepository) List(ctx context.Context, limit int) ([]*models.AnalysisSession, error) {
	startTime := time.Now()

	query := `SELECT ` + analysisColumns + ` FROM analysis_sessions ORDER BY created_at DESC, analysis_id`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	utils.LogDBQuery(query, args, time.Since(startTime), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*models.AnalysisSession, 0)
	for rows.Next() {
		session, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis session row: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis session rows: %w", err)
	}

	return sessions, nil
}

// Stats aggregates all sessions. Comment totals only count completed runs.
func (r *SQLAnalysisRepository) Stats(ctx context.Context) (*models.AnalysisStats, error) {
	startTime := time.Now()

	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = $1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = $2 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = $3 THEN total_comments ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = $4 THEN suspicious_count ELSE 0 END), 0)
		FROM analysis_sessions
	`
	completed := string(models.StatusCompleted)
	args := []interface{}{completed, string(models.StatusFailed), completed, completed}

	stats := &models.AnalysisStats{}
	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), args...).Scan(
		&stats.TotalAnalyses,
		&stats.CompletedAnalyses,
		&stats.FailedAnalyses,
		&stats.CommentsAnalyzed,
		&stats.SuspiciousDetected,
	)

	utils.LogDBQuery(query, args, time.Since(startTime), err)

	if err != nil {
		return nil, fmt.Errorf("failed to compute analysis stats: %w", err)
	}

	return stats, nil
}

func scanAnalysis(row rowScanner) (*models.AnalysisSession, error) {
	s := &models.AnalysisSession{}
	var status string
	var labelSource, errorMessage sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.DatasetID,
		&status,
		&s.TotalComments,
		&s.SuspiciousCount,
		&s.Accuracy,
		&labelSource,
		&s.CatalogVersion,
		&errorMessage,
		&s.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Status = models.AnalysisStatus(status)
	s.LabelSource = models.LabelSource(labelSource.String)
	s.ErrorMessage = errorMessage.String
	if completedAt.Valid {
		t := completedAt.Time
		s.CompletedAt = &t
	}
	return s, nil
}

// nullString stores empty strings as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
