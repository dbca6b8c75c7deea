package classifier_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argusia/argus/internal/classifier"
	"github.com/argusia/argus/internal/dataset"
	"github.com/argusia/argus/internal/detection"
	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/utils"
)

func generated(t *testing.T) *dataset.Tables {
	t.Helper()
	gen := dataset.NewGenerator(42).WithClock(func() time.Time {
		return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	})
	tables, _, err := gen.Generate(100, 500, 0.10)
	require.NoError(t, err)
	return tables
}

func trained(t *testing.T) (*classifier.Classifier, *dataset.Tables) {
	t.Helper()
	tables := generated(t)
	extractor := detection.NewExtractor(detection.DefaultCatalog())
	clf := classifier.New(extractor, classifier.Config{Trees: 30, Seed: 42})

	vectors, _ := extractor.ExtractAll(tables.CommentTexts())
	_, err := clf.Train(vectors, tables.GroundTruthLabels())
	require.NoError(t, err)
	return clf, tables
}

func TestTrain_GeneratedDataset(t *testing.T) {
	tables := generated(t)
	extractor := detection.NewExtractor(detection.DefaultCatalog())
	clf := classifier.New(extractor, classifier.Config{Trees: 30, Seed: 42})

	vectors, _ := extractor.ExtractAll(tables.CommentTexts())
	accuracy, err := clf.Train(vectors, tables.GroundTruthLabels())
	require.NoError(t, err)
	assert.True(t, clf.Trained())
	assert.GreaterOrEqual(t, accuracy, 0.9)
	assert.LessOrEqual(t, accuracy, 1.0)
}

func TestPredict_ProbabilitiesAreBoundedAndNonDegenerate(t *testing.T) {
	clf, tables := trained(t)

	predictions, err := clf.PredictTexts(tables.CommentTexts())
	require.NoError(t, err)
	require.Len(t, predictions, len(tables.Comments))

	distinct := make(map[float64]bool)
	for _, pr := range predictions {
		p := pr.Probability
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		assert.Equal(t, p > 0.5, pr.Label == 1)
		assert.Len(t, pr.Features, len(clf.Extractor().Schema()))
		distinct[p] = true
	}
	assert.Greater(t, len(distinct), 2)
}

func TestPredict_HeartsEmojiIsSuspicious(t *testing.T) {
	clf, _ := trained(t)

	predictions, err := clf.PredictTexts([]string{"👧💕 Que fofa!", "Que legal! 😊"})
	require.NoError(t, err)

	assert.Equal(t, 1, predictions[0].Label)
	assert.Greater(t, predictions[0].Probability, 0.5)
	assert.Equal(t, []string{"👧💕"}, predictions[0].Patterns)
	assert.Equal(t, 1.0, predictions[0].Features["emoji_hearts_girls_present"])
	assert.Equal(t, 12.0, predictions[0].Features["text_length"])

	assert.Equal(t, 0, predictions[1].Label)
	assert.Empty(t, predictions[1].Patterns)
	assert.Equal(t, 0.0, predictions[1].Features["emoji_hearts_girls_present"])
}

func TestTrain_SingleClass(t *testing.T) {
	extractor := detection.NewExtractor(detection.DefaultCatalog())
	clf := classifier.New(extractor, classifier.Config{Trees: 10, Seed: 1})

	texts := []string{"Que legal! 😊", "Adorei! ❤️", "Top demais! 👍", "Show! 🎊", "Boa! 💪"}
	vectors, _ := extractor.ExtractAll(texts)

	accuracy, err := clf.Train(vectors, make([]int, len(texts)))
	require.NoError(t, err)
	assert.Equal(t, 1.0, accuracy)

	labels, probs, err := clf.Predict(vectors)
	require.NoError(t, err)
	for i := range labels {
		assert.Equal(t, 0, labels[i])
		assert.Less(t, probs[i], 0.5)
	}
}

func TestTrain_SingleRow(t *testing.T) {
	extractor := detection.NewExtractor(detection.DefaultCatalog())
	clf := classifier.New(extractor, classifier.Config{Trees: 3})

	vectors, _ := extractor.ExtractAll([]string{"que menina linda"})
	accuracy, err := clf.Train(vectors, []int{1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, accuracy)
}

func TestTrain_Failures(t *testing.T) {
	extractor := detection.NewExtractor(detection.DefaultCatalog())
	vectors, _ := extractor.ExtractAll([]string{"a", "b"})

	testCases := []struct {
		name    string
		vectors []detection.FeatureVector
		labels  []int
	}{
		{"Empty input", nil, nil},
		{"Length mismatch", vectors, []int{1}},
		{"Schema width mismatch", []detection.FeatureVector{{Values: []float64{1, 2}}}, []int{1}},
		{"Invalid label", vectors, []int{0, 2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clf := classifier.New(extractor, classifier.Config{Trees: 2})
			_, err := clf.Train(tc.vectors, tc.labels)
			require.Error(t, err)
			assert.True(t, utils.IsTrainingFailure(err))
			assert.False(t, clf.Trained())
		})
	}
}

func TestPredict_Untrained(t *testing.T) {
	clf := classifier.New(detection.NewExtractor(detection.DefaultCatalog()), classifier.Config{})

	_, _, err := clf.Predict(nil)
	assert.ErrorIs(t, err, classifier.ErrNotTrained)

	_, err = clf.PredictTexts([]string{"que menina linda"})
	assert.ErrorIs(t, err, classifier.ErrNotTrained)

	_, err = clf.Marshal()
	assert.ErrorIs(t, err, classifier.ErrNotTrained)
}

func TestTrain_Deterministic(t *testing.T) {
	first, tables := trained(t)
	second, _ := trained(t)

	p1, err := first.PredictTexts(tables.CommentTexts())
	require.NoError(t, err)
	p2, err := second.PredictTexts(tables.CommentTexts())
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
}

func TestMarshal_RoundTrip(t *testing.T) {
	clf, tables := trained(t)

	data, err := clf.Marshal()
	require.NoError(t, err)

	restored, err := classifier.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, clf.Extractor().Schema(), restored.Extractor().Schema())
	assert.Equal(t, "v1", restored.Extractor().Catalog().Version())

	texts := append(tables.CommentTexts(), "👧💕 Que fofa!", "")
	p1, err := clf.PredictTexts(texts)
	require.NoError(t, err)
	p2, err := restored.PredictTexts(texts)
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
}

func TestUnmarshal_Errors(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"Not JSON", "nope"},
		{"Unknown version", `{"version": 9}`},
		{"No trees", `{"version": 1, "forest": {"trees": []}}`},
		{"Bad catalog", `{"version": 1, "forest": {"trees": [{"nodes": [{"l": -1, "r": -1, "p": 0.5}]}]}, "catalog": {"version": ""}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := classifier.Unmarshal([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestDeriveLabels(t *testing.T) {
	catalog := detection.DefaultCatalog()
	yes, no := true, false

	labels, source := classifier.DeriveLabels([]models.Comment{
		{CommentText: "que menina linda", IsSuspiciousActual: &no},
		{CommentText: "Top", IsSuspiciousActual: &yes},
	}, catalog)
	assert.Equal(t, models.LabelGroundTruth, source)
	assert.Equal(t, []int{0, 1}, labels)

	labels, source = classifier.DeriveLabels([]models.Comment{
		{CommentText: "que menina linda", IsSuspiciousActual: &no},
		{CommentText: "Top"},
	}, catalog)
	assert.Equal(t, models.LabelPatternRule, source)
	assert.Equal(t, []int{1, 0}, labels)
}
