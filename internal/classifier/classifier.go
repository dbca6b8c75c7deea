// Package classifier trains and applies the random-forest model that labels
// comments as suspicious. A trained classifier serializes together with its
// feature schema and pattern catalog so it can be restored later to score new
// comments.
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/detection"
	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/utils"
)

// blobVersion is bumped when the serialized layout changes.
const blobVersion = 1

// ErrNotTrained is returned by Predict before Train or Unmarshal.
var ErrNotTrained = errors.New("classifier is not trained")

// Config holds the forest hyper-parameters.
type Config struct {
	Trees           int     `json:"trees"`
	MaxDepth        int     `json:"max_depth"`
	MinSamplesSplit int     `json:"min_samples_split"`
	TestFraction    float64 `json:"test_fraction"`
	Seed            int64   `json:"seed"`
}

// DefaultConfig returns the default hyper-parameters.
func DefaultConfig() Config {
	return Config{
		Trees:           constants.DefaultTrees,
		MaxDepth:        constants.DefaultMaxDepth,
		MinSamplesSplit: constants.DefaultMinSamplesSplit,
		TestFraction:    constants.DefaultTestFraction,
		Seed:            constants.DefaultSeed,
	}
}

// Classifier is a random forest bound to a feature extractor.
type Classifier struct {
	cfg       Config
	extractor *detection.Extractor
	forest    *forest
}

// New creates an untrained classifier. Zero config fields take defaults.
func New(extractor *detection.Extractor, cfg Config) *Classifier {
	def := DefaultConfig()
	if cfg.Trees <= 0 {
		cfg.Trees = def.Trees
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = def.MinSamplesSplit
	}
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = def.TestFraction
	}
	return &Classifier{cfg: cfg, extractor: extractor}
}

// Extractor returns the extractor the classifier was built with.
func (c *Classifier) Extractor() *detection.Extractor {
	return c.extractor
}

// Trained reports whether the classifier can predict.
func (c *Classifier) Trained() bool {
	return c.forest != nil
}

// Train fits the forest on a seeded shuffle of the data, holding out
// ceil(TestFraction × n) rows, and returns the accuracy on the held-out rows.
// With a single row there is nothing to hold out and accuracy is measured on
// the training row.
func (c *Classifier) Train(vectors []detection.FeatureVector, labels []int) (float64, error) {
	if len(vectors) == 0 {
		return 0, trainingFailure("no training data")
	}
	if len(vectors) != len(labels) {
		return 0, trainingFailure(fmt.Sprintf("%d feature vectors but %d labels", len(vectors), len(labels)))
	}
	if err := c.checkWidth(vectors); err != nil {
		return 0, err
	}
	for i, l := range labels {
		if l != 0 && l != 1 {
			return 0, trainingFailure(fmt.Sprintf("label %d at row %d is not 0 or 1", l, i))
		}
	}

	rng := rand.New(rand.NewSource(c.cfg.Seed))
	n := len(vectors)
	perm := rng.Perm(n)

	testN := int(math.Ceil(c.cfg.TestFraction * float64(n)))
	if testN >= n {
		testN = n - 1
	}
	testIdx, trainIdx := perm[:testN], perm[testN:]

	x := make([][]float64, len(trainIdx))
	y := make([]int, len(trainIdx))
	for k, i := range trainIdx {
		x[k] = vectors[i].Values
		y[k] = labels[i]
	}

	c.forest = growForest(x, y, c.cfg, rng)

	evalIdx := testIdx
	if len(evalIdx) == 0 {
		evalIdx = trainIdx
	}
	correct := 0
	for _, i := range evalIdx {
		if label(c.forest.predict(vectors[i].Values)) == labels[i] {
			correct++
		}
	}

	return float64(correct) / float64(len(evalIdx)), nil
}

// Predict returns a label and a probability for every vector.
func (c *Classifier) Predict(vectors []detection.FeatureVector) ([]int, []float64, error) {
	if !c.Trained() {
		return nil, nil, ErrNotTrained
	}
	if err := c.checkWidth(vectors); err != nil {
		return nil, nil, err
	}

	labels := make([]int, len(vectors))
	probs := make([]float64, len(vectors))
	for i, v := range vectors {
		probs[i] = c.forest.predict(v.Values)
		labels[i] = label(probs[i])
	}
	return labels, probs, nil
}

// Prediction is the outcome of scoring one text.
type Prediction struct {
	Label       int
	Probability float64
	Patterns    []string

	// Features is the feature vector of the text keyed by feature name.
	Features map[string]float64
}

// PredictTexts extracts features from texts and predicts them. The result is
// aligned with texts.
func (c *Classifier) PredictTexts(texts []string) ([]Prediction, error) {
	vectors, patterns := c.extractor.ExtractAll(texts)
	labels, probs, err := c.Predict(vectors)
	if err != nil {
		return nil, err
	}

	out := make([]Prediction, len(texts))
	for i := range texts {
		out[i] = Prediction{
			Label:       labels[i],
			Probability: probs[i],
			Patterns:    patterns[i],
			Features:    c.extractor.Map(vectors[i]),
		}
	}
	return out, nil
}

func (c *Classifier) checkWidth(vectors []detection.FeatureVector) error {
	width := len(c.extractor.Schema())
	for i, v := range vectors {
		if len(v.Values) != width {
			return trainingFailure(fmt.Sprintf("vector %d has %d features, schema has %d", i, len(v.Values), width))
		}
	}
	return nil
}

func label(p float64) int {
	if p > constants.DecisionThreshold {
		return 1
	}
	return 0
}

func trainingFailure(msg string) error {
	return fmt.Errorf("%w: %s", utils.ErrTrainingFailure, msg)
}

// DeriveLabels returns ground-truth labels when every comment carries one,
// and otherwise labels each comment by whether it matches the catalog.
func DeriveLabels(comments []models.Comment, catalog *detection.Catalog) ([]int, models.LabelSource) {
	labels := make([]int, len(comments))

	groundTruth := len(comments) > 0
	for _, cm := range comments {
		if cm.IsSuspiciousActual == nil {
			groundTruth = false
			break
		}
	}

	if groundTruth {
		for i, cm := range comments {
			if *cm.IsSuspiciousActual {
				labels[i] = 1
			}
		}
		return labels, models.LabelGroundTruth
	}

	for i, cm := range comments {
		if catalog.Matches(cm.CommentText) {
			labels[i] = 1
		}
	}
	return labels, models.LabelPatternRule
}

// blob is the serialized form of a trained classifier.
type blob struct {
	Version int                   `json:"version"`
	Config  Config                `json:"config"`
	Schema  []string              `json:"schema"`
	Catalog detection.CatalogSpec `json:"catalog"`
	Forest  *forest               `json:"forest"`
}

// Marshal serializes the trained classifier with its schema and catalog.
func (c *Classifier) Marshal() ([]byte, error) {
	if !c.Trained() {
		return nil, ErrNotTrained
	}
	return json.Marshal(blob{
		Version: blobVersion,
		Config:  c.cfg,
		Schema:  c.extractor.Schema(),
		Catalog: c.extractor.Catalog().Spec(),
		Forest:  c.forest,
	})
}

// Unmarshal restores a classifier produced by Marshal.
func Unmarshal(data []byte) (*Classifier, error) {
	var b blob
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode classifier: %w", err)
	}
	if b.Version != blobVersion {
		return nil, fmt.Errorf("unsupported classifier version %d", b.Version)
	}
	if b.Forest == nil || len(b.Forest.Trees) == 0 {
		return nil, errors.New("classifier blob has no trees")
	}

	catalog, err := detection.NewCatalog(b.Catalog)
	if err != nil {
		return nil, fmt.Errorf("restore catalog: %w", err)
	}
	extractor := detection.NewExtractor(catalog)

	schema := extractor.Schema()
	if len(schema) != len(b.Schema) {
		return nil, fmt.Errorf("schema mismatch: blob has %d features, catalog yields %d", len(b.Schema), len(schema))
	}
	for i := range schema {
		if schema[i] != b.Schema[i] {
			return nil, fmt.Errorf("schema mismatch at %d: %q != %q", i, b.Schema[i], schema[i])
		}
	}

	for ti, t := range b.Forest.Trees {
		if !t.valid(len(schema)) {
			return nil, fmt.Errorf("tree %d references an invalid node or feature", ti)
		}
	}

	return &Classifier{cfg: b.Config, extractor: extractor, forest: b.Forest}, nil
}
