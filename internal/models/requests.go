package models

import "time"

// GenerateDatasetRequest holds the parameters of a synthetic dataset. Zero
// counts and a nil ratio fall back to the configured defaults.
type GenerateDatasetRequest struct {
	Name            string   `json:"name" validate:"omitempty,max=255"`
	Description     string   `json:"description" validate:"max=2000"`
	PostsCount      int      `json:"posts_count" validate:"gte=0"`
	CommentsCount   int      `json:"comments_count" validate:"gte=0"`
	SuspiciousRatio *float64 `json:"suspicious_ratio"`

	// Seed makes the generated tables reproducible when set.
	Seed *int64 `json:"seed,omitempty"`
}

// DatasetInfo summarizes generated tables.
type DatasetInfo struct {
	PostsCount       int     `json:"posts_count"`
	CommentsCount    int     `json:"comments_count"`
	SuspiciousRatio  float64 `json:"suspicious_ratio"`
	ActualSuspicious int     `json:"actual_suspicious"`
}

// DatasetCSV carries both tables of a dataset as CSV documents.
type DatasetCSV struct {
	PostsCSV    string       `json:"posts_csv"`
	CommentsCSV string       `json:"comments_csv"`
	Info        *DatasetInfo `json:"dataset_info,omitempty"`
}

// ScoreRequest lists comment texts to score with a stored model.
type ScoreRequest struct {
	Texts []string `json:"texts" validate:"required,min=1,max=1000"`
}

// ScoredComment is the prediction for one ad-hoc comment.
type ScoredComment struct {
	Text             string      `json:"text"`
	Label            int         `json:"label"`
	Probability      float64     `json:"probability"`
	RiskLevel        string      `json:"risk_level"`
	DetectedPatterns PatternList `json:"detected_patterns"`

	// Features is the extracted feature vector keyed by feature name.
	Features map[string]float64 `json:"features"`
}

// AnalysisDetail is a session with the head of its rankings.
type AnalysisDetail struct {
	Analysis             *AnalysisSession    `json:"analysis"`
	Dataset              *Dataset            `json:"dataset,omitempty"`
	SuspiciousPercentage float64             `json:"suspicious_percentage"`
	SuspiciousComments   []SuspiciousComment `json:"suspicious_comments"`
	UserBehaviors        []UserBehavior      `json:"user_behaviors"`
	PostAnalyses         []PostAnalysis      `json:"post_analyses"`
}

// Dashboard summarizes all datasets and analyses.
type Dashboard struct {
	TotalDatasets   int64              `json:"total_datasets"`
	Stats           *AnalysisStats     `json:"stats"`
	DetectionRate   float64            `json:"detection_rate"`
	RecentAnalyses  []*AnalysisSession `json:"recent_analyses"`
	CatalogVersions []string           `json:"catalog_versions"`
}

// AnalysisReport is the multi-section JSON export of an analysis.
type AnalysisReport struct {
	Summary            ReportSummary       `json:"summary"`
	SuspiciousComments []SuspiciousComment `json:"suspicious_comments"`
	UserBehaviors      []UserBehavior      `json:"user_behaviors"`
	PostAnalyses       []PostAnalysis      `json:"post_analyses"`
	Info               ReportInfo          `json:"info"`
}

// ReportSummary is the statistics section of a report.
type ReportSummary struct {
	TotalComments        int         `json:"total_comments"`
	SuspiciousCount      int         `json:"suspicious_count"`
	SuspiciousPercentage float64     `json:"suspicious_percentage"`
	Accuracy             float64     `json:"accuracy"`
	LabelSource          LabelSource `json:"label_source"`
	AnalysisID           string      `json:"analysis_id"`
	DatasetName          string      `json:"dataset_name"`
	DatasetPosts         int         `json:"dataset_posts"`
	DatasetComments      int         `json:"dataset_comments"`
	AnalysisDate         time.Time   `json:"analysis_date"`
}

// ReportInfo describes how the report was produced.
type ReportInfo struct {
	System         string    `json:"system"`
	Version        string    `json:"version"`
	CatalogVersion string    `json:"catalog_version"`
	GeneratedAt    time.Time `json:"generated_at"`
	RiskLevels     string    `json:"risk_levels"`
}

// TokenRequest exchanges the operator API key for a bearer token.
type TokenRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}
