package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argusia/argus/internal/models"
)

func TestRiskLevel(t *testing.T) {
	testCases := []struct {
		probability float64
		expected    string
	}{
		{0.95, "high"},
		{0.81, "high"},
		{0.80, "medium"},
		{0.61, "medium"},
		{0.60, "low"},
		{0.10, "low"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, models.RiskLevel(tc.probability), "probability %v", tc.probability)
	}
}

func TestPatternList_ValueAndScan(t *testing.T) {
	list := models.PatternList{"👧💕", "menina linda"}

	v, err := list.Value()
	require.NoError(t, err)

	t.Run("Scan from string", func(t *testing.T) {
		var got models.PatternList
		require.NoError(t, got.Scan(v))
		assert.Equal(t, list, got)
	})

	t.Run("Scan from bytes", func(t *testing.T) {
		var got models.PatternList
		require.NoError(t, got.Scan([]byte(v.(string))))
		assert.Equal(t, list, got)
	})

	t.Run("Scan NULL", func(t *testing.T) {
		got := models.PatternList{"x"}
		require.NoError(t, got.Scan(nil))
		assert.Nil(t, got)
	})

	t.Run("Scan wrong type", func(t *testing.T) {
		var got models.PatternList
		assert.Error(t, got.Scan(42))
	})
}

func TestPatternList_NilValue(t *testing.T) {
	var list models.PatternList
	v, err := list.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "datasets", (&models.Dataset{}).TableName())
	assert.Equal(t, "suspicious_comments", (&models.SuspiciousComment{}).TableName())
	assert.Equal(t, "user_behaviors", (&models.UserBehavior{}).TableName())
	assert.Equal(t, "post_analyses", (&models.PostAnalysis{}).TableName())
	assert.Equal(t, "trained_models", (&models.TrainedModel{}).TableName())
	assert.Equal(t, "pattern_catalogs", (&models.PatternCatalogRecord{}).TableName())
}

func TestDefaultDatasetName(t *testing.T) {
	assert.Equal(t, "Dataset_3", models.DefaultDatasetName(3))
}
