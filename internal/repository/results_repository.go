package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/database"
	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/utils"
)

// ResultsRepository stores and reads the ranked outputs of an analysis.
type ResultsRepository interface {
	// SaveResults inserts the suspicious comments and both rankings of an
	// analysis using q. Callers pass a transaction so the results are
	// committed together with the session summary.
	SaveResults(ctx context.Context, q database.Querier, analysisID string, results *models.AnalysisResults) error

	// ListSuspiciousComments returns comments by descending probability.
	ListSuspiciousComments(ctx context.Context, analysisID string, limit int) ([]models.SuspiciousComment, error)

	// ListUserBehaviors returns the user ranking in stored order.
	ListUserBehaviors(ctx context.Context, analysisID string, limit int) ([]models.UserBehavior, error)

	// ListPostAnalyses returns the post ranking in stored order.
	ListPostAnalyses(ctx context.Context, analysisID string, limit int) ([]models.PostAnalysis, error)
}

// SQLResultsRepository implements ResultsRepository over database/sql.
type SQLResultsRepository struct {
	db   *database.Pool
	crud *database.CRUD
}

// NewResultsRepository creates a new ResultsRepository.
func NewResultsRepository(db *database.Pool) ResultsRepository {
	return &SQLResultsRepository{db: db, crud: database.NewCRUD(db)}
}

// SaveResults inserts all result rows of an analysis.
//
// Parameters:
//   - ctx: Context for the operation
//   - q: The transaction the rows are written in
//   - analysisID: The owning analysis
//   - results: The rows to store; their AnalysisID is overwritten
//
// Returns:
//   - The first insert error
func (r *SQLResultsRepository) SaveResults(ctx context.Context, q database.Querier, analysisID string, results *models.AnalysisResults) error {
	comments := make([]database.Table, len(results.Comments))
	for i := range results.Comments {
		results.Comments[i].AnalysisID = analysisID
		comments[i] = &results.Comments[i]
	}
	users := make([]database.Table, len(results.Users))
	for i := range results.Users {
		results.Users[i].AnalysisID = analysisID
		users[i] = &results.Users[i]
	}
	posts := make([]database.Table, len(results.Posts))
	for i := range results.Posts {
		results.Posts[i].AnalysisID = analysisID
		posts[i] = &results.Posts[i]
	}

	for _, rows := range [][]database.Table{comments, users, posts} {
		if err := r.crud.InsertBatch(ctx, q, rows); err != nil {
			return err
		}
	}

	log.Info().
		Str(constants.ColumnAnalysisID, analysisID).
		Int("suspicious_comments", len(comments)).
		Int("users", len(users)).
		Int("posts", len(posts)).
		Msg("Analysis results stored")

	return nil
}

// ListSuspiciousComments returns the comments of an analysis, most probable
// first. A limit of 0 returns all rows.
func (r *SQLResultsRepository) ListSuspiciousComments(ctx context.Context, analysisID string, limit int) ([]models.SuspiciousComment, error) {
	query := `
		SELECT analysis_id, comment_id, post_id, username, comment_text, probability, detected_patterns
		FROM suspicious_comments
		WHERE analysis_id = $1
		ORDER BY probability DESC, comment_id`

	rows, err := r.query(ctx, query, analysisID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list suspicious comments: %w", err)
	}
	defer rows.Close()

	comments := make([]models.SuspiciousComment, 0)
	for rows.Next() {
		var c models.SuspiciousComment
		if err := rows.Scan(
			&c.AnalysisID,
			&c.CommentID,
			&c.PostID,
			&c.Username,
			&c.CommentText,
			&c.Probability,
			&c.DetectedPatterns,
		); err != nil {
			return nil, fmt.Errorf("failed to scan suspicious comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suspicious comment rows: %w", err)
	}

	return comments, nil
}

// ListUserBehaviors returns the user ranking of an analysis.
func (r *SQLResultsRepository) ListUserBehaviors(ctx context.Context, analysisID string, limit int) ([]models.UserBehavior, error) {
	query := `
		SELECT analysis_id, username, user_id, suspicious_count, total_count, suspicion_score, patterns, ranking
		FROM user_behaviors
		WHERE analysis_id = $1
		ORDER BY ranking`

	rows, err := r.query(ctx, query, analysisID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list user behaviors: %w", err)
	}
	defer rows.Close()

	users := make([]models.UserBehavior, 0)
	for rows.Next() {
		var u models.UserBehavior
		if err := rows.Scan(
			&u.AnalysisID,
			&u.Username,
			&u.UserID,
			&u.SuspiciousCount,
			&u.TotalCount,
			&u.SuspicionScore,
			&u.Patterns,
			&u.Rank,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user behavior row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user behavior rows: %w", err)
	}

	return users, nil
}

// ListPostAnalyses returns the post ranking of an analysis.
func (r *SQLResultsRepository) ListPostAnalyses(ctx context.Context, analysisID string, limit int) ([]models.PostAnalysis, error) {
	query := `
		SELECT analysis_id, post_id, caption, username, suspicious_count, total_count, suspicion_ratio, ranking
		FROM post_analyses
		WHERE analysis_id = $1
		ORDER BY ranking`

	rows, err := r.query(ctx, query, analysisID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list post analyses: %w", err)
	}
	defer rows.Close()

	posts := make([]models.PostAnalysis, 0)
	for rows.Next() {
		var p models.PostAnalysis
		if err := rows.Scan(
			&p.AnalysisID,
			&p.PostID,
			&p.Caption,
			&p.Username,
			&p.SuspiciousCount,
			&p.TotalCount,
			&p.SuspicionRatio,
			&p.Rank,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post analysis row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post analysis rows: %w", err)
	}

	return posts, nil
}

// query runs a per-analysis select with an optional limit and logs it.
func (r *SQLResultsRepository) query(ctx context.Context, query, analysisID string, limit int) (*sql.Rows, error) {
	args := []interface{}{analysisID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	startTime := time.Now()
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	utils.LogDBQuery(query, args, time.Since(startTime), err)
	return rows, err
}
