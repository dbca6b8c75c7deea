package models

import (
	"fmt"
	"time"

	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/utils"
)

// AnalysisStatus is the lifecycle state of an analysis session.
type AnalysisStatus string

const (
	StatusPending   AnalysisStatus = "PENDING"
	StatusRunning   AnalysisStatus = "RUNNING"
	StatusCompleted AnalysisStatus = "COMPLETED"
	StatusFailed    AnalysisStatus = "FAILED"
)

// LabelSource records where training labels came from.
type LabelSource string

const (
	// LabelGroundTruth means every comment carried is_suspicious_actual.
	LabelGroundTruth LabelSource = "ground_truth"

	// LabelPatternRule means labels were derived from catalog matches.
	LabelPatternRule LabelSource = "pattern_rule"
)

// transitions lists the allowed status changes. Terminal states have none.
var transitions = map[AnalysisStatus][]AnalysisStatus{
	StatusPending: {StatusRunning},
	StatusRunning: {StatusCompleted, StatusFailed},
}

// AnalysisSession is one run of the detection pipeline over a dataset.
type AnalysisSession struct {
	// ID is the unique identifier for the session.
	ID string `json:"id" db:"analysis_id"`

	// DatasetID references the analyzed dataset.
	DatasetID string `json:"dataset_id" db:"dataset_id"`

	Status AnalysisStatus `json:"status" db:"status"`

	TotalComments   int `json:"total_comments" db:"total_comments"`
	SuspiciousCount int `json:"suspicious_count" db:"suspicious_count"`

	// Accuracy is measured on the held-out split.
	Accuracy float64 `json:"accuracy" db:"accuracy"`

	LabelSource    LabelSource `json:"label_source,omitempty" db:"label_source"`
	CatalogVersion string      `json:"catalog_version" db:"catalog_version"`

	// ErrorMessage is set only on FAILED sessions.
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// TableName returns the database table name for the AnalysisSession model.
func (s *AnalysisSession) TableName() string {
	return constants.TableAnalysisSessions
}

// NewAnalysisSession creates a PENDING session for a dataset.
func NewAnalysisSession(id, datasetID, catalogVersion string, now time.Time) *AnalysisSession {
	return &AnalysisSession{
		ID:             id,
		DatasetID:      datasetID,
		Status:         StatusPending,
		CatalogVersion: catalogVersion,
		CreatedAt:      now,
	}
}

// CanTransition reports whether the session may move to status to.
func (s *AnalysisSession) CanTransition(to AnalysisStatus) bool {
	for _, allowed := range transitions[s.Status] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves the session to status to, or fails if the move is not allowed.
func (s *AnalysisSession) Transition(to AnalysisStatus) error {
	if !s.CanTransition(to) {
		return fmt.Errorf("invalid analysis status transition %s -> %s", s.Status, to)
	}
	s.Status = to
	return nil
}

// Complete records the summary of a successful run and marks it COMPLETED.
func (s *AnalysisSession) Complete(total, suspicious int, accuracy float64, source LabelSource, at time.Time) error {
	if err := s.Transition(StatusCompleted); err != nil {
		return err
	}
	s.TotalComments = total
	s.SuspiciousCount = suspicious
	s.Accuracy = accuracy
	s.LabelSource = source
	s.CompletedAt = &at
	return nil
}

// Fail marks the session FAILED with a message.
func (s *AnalysisSession) Fail(message string, at time.Time) error {
	if err := s.Transition(StatusFailed); err != nil {
		return err
	}
	s.ErrorMessage = message
	s.CompletedAt = &at
	return nil
}

// IsTerminal reports whether the session has finished, successfully or not.
func (s *AnalysisSession) IsTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// SuspiciousPercentage returns the share of suspicious comments in percent.
func (s *AnalysisSession) SuspiciousPercentage() float64 {
	return utils.Percentage(s.SuspiciousCount, s.TotalComments)
}

// AnalysisStats aggregates the sessions shown on the dashboard.
type AnalysisStats struct {
	TotalAnalyses      int64 `json:"total_analyses"`
	CompletedAnalyses  int64 `json:"completed_analyses"`
	FailedAnalyses     int64 `json:"failed_analyses"`
	CommentsAnalyzed   int64 `json:"comments_analyzed"`
	SuspiciousDetected int64 `json:"suspicious_detected"`
}
