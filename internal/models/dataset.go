// Package models provides the data structures of the Argus detection backend.
// It contains the social-media records a dataset is made of, the metadata and
// lifecycle of analysis sessions, and the ranked results an analysis produces.
package models

import (
	"fmt"
	"time"

	"github.com/argusia/argus/internal/constants"
)

// DatasetSource describes how a dataset entered the system.
type DatasetSource string

const (
	// SourceGenerated marks datasets produced by the synthetic generator.
	SourceGenerated DatasetSource = "generated"

	// SourceUploaded marks datasets uploaded as CSV files.
	SourceUploaded DatasetSource = "uploaded"
)

// Dataset is the metadata row for a set of posts and comments.
// The tables themselves live in the dataset buffer until an analysis
// consumes them; only the counts are persisted.
type Dataset struct {
	// ID is the unique identifier for the dataset.
	ID string `json:"id" db:"dataset_id"`

	// Name is a human-readable label, "Dataset_N" when not supplied.
	Name string `json:"name" db:"name"`

	// Description is free text supplied at creation.
	Description string `json:"description" db:"description"`

	// Source records whether the dataset was generated or uploaded.
	Source DatasetSource `json:"source" db:"source"`

	PostsCount    int `json:"posts_count" db:"posts_count"`
	CommentsCount int `json:"comments_count" db:"comments_count"`

	// ActualSuspicious is the number of comments carrying a true
	// is_suspicious_actual flag, or nil when the dataset has no ground truth.
	ActualSuspicious *int `json:"actual_suspicious,omitempty" db:"actual_suspicious"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the database table name for the Dataset model.
func (d *Dataset) TableName() string {
	return constants.TableDatasets
}

// DefaultDatasetName returns the name given to the n-th unnamed dataset.
func DefaultDatasetName(n int) string {
	return fmt.Sprintf("Dataset_%d", n)
}
