package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/utils"
)

// ExportColumns is the header of the suspicious comments CSV export.
var ExportColumns = []string{
	"comment_id", "username", "comment_text", "probability",
	"risk_level", "detected_patterns", "analysis_date",
}

const (
	exportDateLayout = "02/01/2006 15:04"
	noPatterns       = "none"
	riskLevelLegend  = "high: p > 0.8, medium: p > 0.6, low: otherwise"
)

// completedSession loads a session and requires it to be COMPLETED.
func (s *AnalysisService) completedSession(ctx context.Context, analysisID string) (*models.AnalysisSession, error) {
	session, err := s.repos.Analyses.GetByID(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.StatusCompleted {
		return nil, utils.NewConflictError(constants.MsgAnalysisNotCompleted)
	}
	return session, nil
}

// ExportCSV renders every suspicious comment of an analysis as CSV and
// returns it with a download file name.
func (s *AnalysisService) ExportCSV(ctx context.Context, analysisID string) ([]byte, string, error) {
	session, err := s.completedSession(ctx, analysisID)
	if err != nil {
		return nil, "", err
	}

	comments, err := s.repos.Results.ListSuspiciousComments(ctx, analysisID, 0)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := WriteSuspiciousCSV(&buf, comments, session.CreatedAt); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("argus_analysis_%s_suspicious_comments.csv", analysisID)
	return buf.Bytes(), filename, nil
}

// WriteSuspiciousCSV writes suspicious comments in the export layout. Every row
// carries date as its analysis date.
func WriteSuspiciousCSV(w io.Writer, comments []models.SuspiciousComment, date time.Time) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ExportColumns); err != nil {
		return err
	}

	analysisDate := date.Format(exportDateLayout)
	for _, c := range comments {
		if err := writer.Write([]string{
			strconv.FormatInt(c.CommentID, 10),
			c.Username,
			c.CommentText,
			strconv.FormatFloat(c.Probability, 'f', 4, 64),
			c.RiskLevel(),
			joinPatterns(c.DetectedPatterns),
			analysisDate,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// ExportReport builds the multi-section JSON report of an analysis.
func (s *AnalysisService) ExportReport(ctx context.Context, analysisID string) (*models.AnalysisReport, error) {
	session, err := s.completedSession(ctx, analysisID)
	if err != nil {
		return nil, err
	}

	ds, err := s.repos.Datasets.GetByID(ctx, session.DatasetID)
	if err != nil {
		return nil, err
	}

	comments, err := s.repos.Results.ListSuspiciousComments(ctx, analysisID, 0)
	if err != nil {
		return nil, err
	}
	users, err := s.repos.Results.ListUserBehaviors(ctx, analysisID, constants.ReportRankingLimit)
	if err != nil {
		return nil, err
	}
	posts, err := s.repos.Results.ListPostAnalyses(ctx, analysisID, constants.ReportRankingLimit)
	if err != nil {
		return nil, err
	}

	return &models.AnalysisReport{
		Summary: models.ReportSummary{
			TotalComments:        session.TotalComments,
			SuspiciousCount:      session.SuspiciousCount,
			SuspiciousPercentage: utils.Round(session.SuspiciousPercentage(), 2),
			Accuracy:             session.Accuracy,
			LabelSource:          session.LabelSource,
			AnalysisID:           session.ID,
			DatasetName:          ds.Name,
			DatasetPosts:         ds.PostsCount,
			DatasetComments:      ds.CommentsCount,
			AnalysisDate:         session.CreatedAt,
		},
		SuspiciousComments: comments,
		UserBehaviors:      users,
		PostAnalyses:       posts,
		Info: models.ReportInfo{
			System:         "Argus",
			Version:        s.version,
			CatalogVersion: session.CatalogVersion,
			GeneratedAt:    s.now(),
			RiskLevels:     riskLevelLegend,
		},
	}, nil
}
