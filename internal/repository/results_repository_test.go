package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/repository"
)

func sampleResults() *models.AnalysisResults {
	return &models.AnalysisResults{
		Comments: []models.SuspiciousComment{
			{CommentID: 1, PostID: 10, Username: "predator_1", CommentText: "👧💕 Que fofa!", Probability: 0.93, DetectedPatterns: models.PatternList{"👧💕"}},
			{CommentID: 4, PostID: 11, Username: "danger_acc", CommentText: "que menina linda", Probability: 0.71, DetectedPatterns: models.PatternList{"menina linda"}},
		},
		Users: []models.UserBehavior{
			{Username: "predator_1", UserID: 7, SuspiciousCount: 1, TotalCount: 1, SuspicionScore: 100, Patterns: models.PatternList{"👧💕"}, Rank: 1},
		},
		Posts: []models.PostAnalysis{
			{PostID: 10, Caption: "Dia lindo!", Username: "user_100", SuspiciousCount: 1, TotalCount: 2, SuspicionRatio: 50, Rank: 1},
			{PostID: 11, Caption: "Treino", Username: "user_200", SuspiciousCount: 1, TotalCount: 4, SuspicionRatio: 25, Rank: 2},
		},
	}
}

func TestResultsRepository_SaveResults(t *testing.T) {
	pool, mock, cleanup := setupMockPool(t, "")
	defer cleanup()
	repo := repository.NewResultsRepository(pool)

	results := sampleResults()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO suspicious_comments \(analysis_id, comment_id, post_id, username, comment_text, probability, detected_patterns\) VALUES \(\$1, (.+)\), \(\$8, (.+)\)`).
		WithArgs(
			"an-1", 1, 10, "predator_1", "👧💕 Que fofa!", 0.93, `["👧💕"]`,
			"an-1", 4, 11, "danger_acc", "que menina linda", 0.71, `["menina linda"]`,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO user_behaviors \(analysis_id, username, user_id, suspicious_count, total_count, suspicion_score, patterns, ranking\)`).
		WithArgs("an-1", "predator_1", 7, 1, 1, 100.0, `["👧💕"]`, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO post_analyses \(analysis_id, post_id, caption, username, suspicious_count, total_count, suspicion_ratio, ranking\)`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := pool.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.SaveResults(context.Background(), tx, "an-1", results))
	require.NoError(t, tx.Commit())

	assert.Equal(t, "an-1", results.Posts[1].AnalysisID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultsRepository_SaveResults_EmptySections(t *testing.T) {
	pool, mock, cleanup := setupMockPool(t, "")
	defer cleanup()
	repo := repository.NewResultsRepository(pool)

	results := &models.AnalysisResults{
		Users: []models.UserBehavior{{Username: "a", TotalCount: 1, Rank: 1}},
	}

	// Only the non-empty section is written; nil patterns are stored as [].
	mock.ExpectExec("INSERT INTO user_behaviors").
		WithArgs("an-1", "a", 0, 0, 1, 0.0, "[]", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveResults(context.Background(), pool, "an-1", results)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultsRepository_SaveResults_Error(t *testing.T) {
	pool, mock, cleanup := setupMockPool(t, "")
	defer cleanup()
	repo := repository.NewResultsRepository(pool)

	mock.ExpectExec("INSERT INTO suspicious_comments").WillReturnError(errors.New("disk full"))

	err := repo.SaveResults(context.Background(), pool, "an-1", sampleResults())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "suspicious_comments")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultsRepository_ListSuspiciousComments(t *testing.T) {
	pool, mock, cleanup := setupMockPool(t, "")
	defer cleanup()
	repo := repository.NewResultsRepository(pool)

	rows := sqlmock.NewRows([]string{"analysis_id", "comment_id", "post_id", "username", "comment_text", "probability", "detected_patterns"}).
		AddRow("an-1", 1, 10, "predator_1", "👧💕 Que fofa!", 0.93, []byte(`["👧💕"]`)).
		AddRow("an-1", 4, 11, "danger_acc", "que menina linda", 0.71, `["menina linda"]`)

	mock.ExpectQuery(`FROM suspicious_comments WHERE analysis_id = \$1 ORDER BY probability DESC, comment_id LIMIT \$2`).
		WithArgs("an-1", 50).
		WillReturnRows(rows)

	comments, err := repo.ListSuspiciousComments(context.Background(), "an-1", 50)

	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, models.PatternList{"👧💕"}, comments[0].DetectedPatterns)
	assert.Equal(t, "high", comments[0].RiskLevel())
	assert.Equal(t, "medium", comments[1].RiskLevel())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultsRepository_ListSuspiciousComments_NoLimit(t *testing.T) {
	pool, mock, cleanup := setupMockPool(t, "")
	defer cleanup()
	repo := repository.NewResultsRepository(pool)

	mock.ExpectQuery(`ORDER BY probability DESC, comment_id$`).
		WithArgs("an-1").
		WillReturnRows(sqlmock.NewRows([]string{"analysis_id", "comment_id", "post_id", "username", "comment_text", "probability", "detected_patterns"}))

	comments, err := repo.ListSuspiciousComments(context.Background(), "an-1", 0)

	require.NoError(t, err)
	assert.NotNil(t, comments)
	assert.Empty(t, comments)
}

func TestResultsRepository_ListUserBehaviors(t *testing.T) {
	pool, mock, cleanup := setupMockPool(t, "mysql")
	defer cleanup()
	repo := repository.NewResultsRepository(pool)

	rows := sqlmock.NewRows([]string{"analysis_id", "username", "user_id", "suspicious_count", "total_count", "suspicion_score", "patterns", "ranking"}).
		AddRow("an-1", "predator_1", 7, 3, 3, 100.0, `["👧💕","menina linda"]`, 1).
		AddRow("an-1", "normal_user_1", 8, 0, 2, 0.0, `[]`, 2)

	mock.ExpectQuery(`FROM user_behaviors WHERE analysis_id = \? ORDER BY ranking LIMIT \?`).
		WithArgs("an-1", 20).
		WillReturnRows(rows)

	users, err := repo.ListUserBehaviors(context.Background(), "an-1", 20)

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, models.PatternList{"👧💕", "menina linda"}, users[0].Patterns)
	assert.Equal(t, 2, users[1].Rank)
	assert.Empty(t, users[1].Patterns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultsRepository_ListPostAnalyses(t *testing.T) {
	pool, mock, cleanup := setupMockPool(t, "")
	defer cleanup()
	repo := repository.NewResultsRepository(pool)

	rows := sqlmock.NewRows([]string{"analysis_id", "post_id", "caption", "username", "suspicious_count", "total_count", "suspicion_ratio", "ranking"}).
		AddRow("an-1", 10, "Dia lindo!", "user_100", 1, 2, 50.0, 1)

	mock.ExpectQuery(`FROM post_analyses WHERE analysis_id = \$1 ORDER BY ranking LIMIT \$2`).
		WithArgs("an-1", 20).
		WillReturnRows(rows)

	posts, err := repo.ListPostAnalyses(context.Background(), "an-1", 20)

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(10), posts[0].PostID)
	assert.Equal(t, 50.0, posts[0].SuspicionRatio)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultsRepository_List_Errors(t *testing.T) {
	pool, mock, cleanup := setupMockPool(t, "")
	defer cleanup()
	repo := repository.NewResultsRepository(pool)

	mock.ExpectQuery("FROM suspicious_comments").WillReturnError(errors.New("boom"))
	mock.ExpectQuery("FROM user_behaviors").WillReturnError(errors.New("boom"))
	mock.ExpectQuery("FROM post_analyses").
		WillReturnRows(sqlmock.NewRows([]string{"analysis_id"}).AddRow("an-1"))

	_, err := repo.ListSuspiciousComments(context.Background(), "an-1", 0)
	assert.Error(t, err)
	_, err = repo.ListUserBehaviors(context.Background(), "an-1", 0)
	assert.Error(t, err)

	// Column count mismatch fails the scan.
	_, err = repo.ListPostAnalyses(context.Background(), "an-1", 0)
	assert.Error(t, err)
}
