package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/utils"
)

// Workbook sheet names, in the order they appear.
const (
	SheetSuspiciousComments = "Suspicious Comments"
	SheetStatistics         = "Statistics"
	SheetUsers              = "Users"
	SheetPosts              = "Posts"
	SheetInfo               = "Info"
)

var (
	statisticsColumns = []string{
		"total_comments", "suspicious_count", "suspicious_percentage", "accuracy", "label_source",
		"analysis_id", "dataset_name", "dataset_posts", "dataset_comments", "analysis_date",
	}
	userColumns = []string{
		"rank", "username", "user_id", "suspicious_count", "total_count", "suspicion_score", "patterns",
	}
	postColumns = []string{
		"rank", "post_id", "username", "caption", "suspicious_count", "total_count", "suspicion_ratio",
	}
	infoColumns = []string{"field", "value"}
)

// ExportWorkbook renders the report of an analysis as an Excel workbook with
// one sheet per report section.
func (s *AnalysisService) ExportWorkbook(ctx context.Context, analysisID string) ([]byte, string, error) {
	report, err := s.ExportReport(ctx, analysisID)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := WriteReportWorkbook(&buf, report); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("argus_analysis_%s_full_report.xlsx", analysisID)
	return buf.Bytes(), filename, nil
}

// WriteReportWorkbook writes report to w as an xlsx workbook. Every sheet
// carries its header row even when the section is empty.
func WriteReportWorkbook(w io.Writer, report *models.AnalysisReport) error {
	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName(book.GetSheetName(0), SheetSuspiciousComments); err != nil {
		return fmt.Errorf("failed to name workbook sheet: %w", err)
	}
	for _, name := range []string{SheetStatistics, SheetUsers, SheetPosts, SheetInfo} {
		if _, err := book.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add workbook sheet %q: %w", name, err)
		}
	}

	sheets := map[string][][]any{
		SheetSuspiciousComments: commentRows(report),
		SheetStatistics:         statisticsRows(report.Summary),
		SheetUsers:              userRows(report.UserBehaviors),
		SheetPosts:              postRows(report.PostAnalyses),
		SheetInfo:               infoRows(report.Info),
	}
	for name, rows := range sheets {
		if err := writeSheet(book, name, rows); err != nil {
			return err
		}
	}

	book.SetActiveSheet(0)
	if err := book.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(book *excelize.File, sheet string, rows [][]any) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := book.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write sheet %q: %w", sheet, err)
		}
	}
	return nil
}

func header(columns []string) []any {
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	return row
}

func commentRows(report *models.AnalysisReport) [][]any {
	analysisDate := report.Summary.AnalysisDate.Format(exportDateLayout)
	rows := [][]any{header(ExportColumns)}
	for _, c := range report.SuspiciousComments {
		rows = append(rows, []any{
			c.CommentID,
			c.Username,
			c.CommentText,
			utils.Round(c.Probability, 4),
			c.RiskLevel(),
			joinPatterns(c.DetectedPatterns),
			analysisDate,
		})
	}
	return rows
}

func statisticsRows(s models.ReportSummary) [][]any {
	return [][]any{
		header(statisticsColumns),
		{
			s.TotalComments, s.SuspiciousCount, s.SuspiciousPercentage, s.Accuracy, string(s.LabelSource),
			s.AnalysisID, s.DatasetName, s.DatasetPosts, s.DatasetComments, s.AnalysisDate.Format(exportDateLayout),
		},
	}
}

func userRows(users []models.UserBehavior) [][]any {
	rows := [][]any{header(userColumns)}
	for _, u := range users {
		rows = append(rows, []any{
			u.Rank, u.Username, u.UserID, u.SuspiciousCount, u.TotalCount, u.SuspicionScore, joinPatterns(u.Patterns),
		})
	}
	return rows
}

func postRows(posts []models.PostAnalysis) [][]any {
	rows := [][]any{header(postColumns)}
	for _, p := range posts {
		rows = append(rows, []any{
			p.Rank, p.PostID, p.Username, p.Caption, p.SuspiciousCount, p.TotalCount, p.SuspicionRatio,
		})
	}
	return rows
}

func infoRows(info models.ReportInfo) [][]any {
	return [][]any{
		header(infoColumns),
		{"system", info.System},
		{"version", info.Version},
		{"catalog_version", info.CatalogVersion},
		{"generated_at", info.GeneratedAt.Format(exportDateLayout)},
		{"risk_levels", info.RiskLevels},
	}
}

func joinPatterns(patterns models.PatternList) string {
	if len(patterns) == 0 {
		return noPatterns
	}
	return strings.Join(patterns, ", ")
}
