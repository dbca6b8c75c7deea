package models

import (
	"time"

	"github.com/argusia/argus/internal/constants"
)

// TrainedModel is the serialized classifier of a completed analysis. It lets
// new comments be scored later without retraining.
type TrainedModel struct {
	AnalysisID     string    `json:"analysis_id" db:"analysis_id"`
	CatalogVersion string    `json:"catalog_version" db:"catalog_version"`
	Blob           []byte    `json:"-" db:"model_blob"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the database table name for the TrainedModel model.
func (m *TrainedModel) TableName() string {
	return constants.TableTrainedModels
}

// PatternCatalogRecord is a catalog version known to the database. Every
// analysis references the version it was run with.
type PatternCatalogRecord struct {
	Version    string    `json:"version" db:"version"`
	Definition string    `json:"definition" db:"definition"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the database table name for the PatternCatalogRecord model.
func (c *PatternCatalogRecord) TableName() string {
	return constants.TablePatternCatalogs
}
