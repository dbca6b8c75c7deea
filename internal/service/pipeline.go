// Package service implements the application logic of the Argus backend: the
// detection pipeline, dataset intake, analysis orchestration and the read and
// export side used by the HTTP handlers and the CLI.
package service

import (
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"github.com/argusia/argus/internal/classifier"
	"github.com/argusia/argus/internal/config"
	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/dataset"
	"github.com/argusia/argus/internal/detection"
	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/utils"
)

// Pipeline runs feature extraction, training, prediction and aggregation over
// one dataset. It has no side effects and can be shared between goroutines.
type Pipeline struct {
	catalog *detection.Catalog
	cfg     classifier.Config
	topN    int
}

// PipelineResult is everything one run produces.
type PipelineResult struct {
	Classifier      *classifier.Classifier
	Accuracy        float64
	LabelSource     models.LabelSource
	TotalComments   int
	SuspiciousCount int

	// SkippedComments counts comments that reference an unknown post.
	SkippedComments int

	Results models.AnalysisResults
}

// NewPipeline creates a pipeline. Rankings are cut to topN rows; topN <= 0
// keeps every row.
func NewPipeline(catalog *detection.Catalog, cfg classifier.Config, topN int) *Pipeline {
	return &Pipeline{catalog: catalog, cfg: cfg, topN: topN}
}

// NewPipelineFromSettings creates a pipeline with the hyper-parameters and
// ranking cap of the detection settings.
func NewPipelineFromSettings(catalog *detection.Catalog, d config.DetectionSettings) *Pipeline {
	cfg := classifier.DefaultConfig()
	if d.Trees > 0 {
		cfg.Trees = d.Trees
	}
	if d.MaxDepth > 0 {
		cfg.MaxDepth = d.MaxDepth
	}
	if d.MinSamplesSplit > 0 {
		cfg.MinSamplesSplit = d.MinSamplesSplit
	}
	if d.TestFraction > 0 {
		cfg.TestFraction = d.TestFraction
	}
	if d.Seed != 0 {
		cfg.Seed = d.Seed
	}
	return NewPipeline(catalog, cfg, d.TopN)
}

// Catalog returns the pattern catalog the pipeline extracts features with.
func (p *Pipeline) Catalog() *detection.Catalog {
	return p.catalog
}

// Run executes the pipeline. Classifier errors and panics inside the ML steps
// are reported as training failures.
func (p *Pipeline) Run(tables *dataset.Tables) (result *PipelineResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			utils.LogPanic(r, debug.Stack())
			result = nil
			err = fmt.Errorf("%w: pipeline panic: %v", utils.ErrTrainingFailure, r)
		}
	}()

	comments := tables.Comments
	extractor := detection.NewExtractor(p.catalog)

	vectors, patterns := extractor.ExtractAll(tables.CommentTexts())
	for i := range vectors {
		vectors[i].CommentID = comments[i].CommentID
	}

	labels, source := classifier.DeriveLabels(comments, p.catalog)

	clf := classifier.New(extractor, p.cfg)
	accuracy, err := clf.Train(vectors, labels)
	if err != nil {
		return nil, err
	}

	predicted, probs, err := clf.Predict(vectors)
	if err != nil {
		return nil, err
	}

	suspicious := make([]models.SuspiciousComment, 0)
	for i, c := range comments {
		if predicted[i] != 1 {
			continue
		}
		suspicious = append(suspicious, models.SuspiciousComment{
			CommentID:        c.CommentID,
			PostID:           c.PostID,
			Username:         c.Username,
			CommentText:      c.CommentText,
			Probability:      probs[i],
			DetectedPatterns: append(models.PatternList{}, patterns[i]...),
		})
	}

	users, err := detection.AggregateUsers(comments, predicted, patterns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrTrainingFailure, err)
	}
	posts, skipped, err := detection.AggregatePosts(tables.Posts, comments, predicted)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrTrainingFailure, err)
	}
	if skipped > 0 {
		log.Warn().
			Str("category", constants.LogCategoryPipeline).
			Int("skipped", skipped).
			Msg("Comments reference unknown posts")
	}

	if p.topN > 0 {
		if len(users) > p.topN {
			users = users[:p.topN]
		}
		if len(posts) > p.topN {
			posts = posts[:p.topN]
		}
	}

	return &PipelineResult{
		Classifier:      clf,
		Accuracy:        accuracy,
		LabelSource:     source,
		TotalComments:   len(comments),
		SuspiciousCount: len(suspicious),
		SkippedComments: skipped,
		Results: models.AnalysisResults{
			Comments: suspicious,
			Users:    users,
			Posts:    posts,
		},
	}, nil
}
