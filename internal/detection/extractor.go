package detection

import (
	"unicode/utf8"
)

// Scalar feature names appended after the per-category features.
const (
	FeatureTextLength    = "text_length"
	FeatureHasChildTerms = "has_child_terms"
)

// FeatureVector holds the values of one comment in schema order.
type FeatureVector struct {
	CommentID int64
	Values    []float64
}

// Extractor turns comment text into fixed-width feature vectors.
type Extractor struct {
	catalog *Catalog
	schema  []string
}

// NewExtractor creates an extractor bound to catalog.
func NewExtractor(catalog *Catalog) *Extractor {
	schema := make([]string, 0, 2*len(catalog.spec.Categories)+2)
	for _, cat := range catalog.spec.Categories {
		schema = append(schema, cat.Name+"_count", cat.Name+"_present")
	}
	schema = append(schema, FeatureTextLength, FeatureHasChildTerms)

	return &Extractor{catalog: catalog, schema: schema}
}

// Catalog returns the catalog the extractor was built from.
func (e *Extractor) Catalog() *Catalog {
	return e.catalog
}

// Schema returns the ordered feature names.
func (e *Extractor) Schema() []string {
	return append([]string(nil), e.schema...)
}

// Extract computes the feature vector for text and the literals it matched,
// in catalog order. The result only depends on text and the catalog.
func (e *Extractor) Extract(text string) (FeatureVector, []string) {
	values := make([]float64, len(e.schema))
	categories := len(e.catalog.spec.Categories)

	var matched []string
	for _, i := range e.catalog.match(text) {
		ci := e.catalog.owner[i]
		values[2*ci]++
		values[2*ci+1] = 1
		matched = append(matched, e.catalog.literals[i])
	}

	values[2*categories] = float64(utf8.RuneCountInString(text))
	if e.catalog.hasChildTerms(text) {
		values[2*categories+1] = 1
	}

	return FeatureVector{Values: values}, matched
}

// ExtractAll extracts every text in order. The returned slices are aligned
// with texts.
func (e *Extractor) ExtractAll(texts []string) ([]FeatureVector, [][]string) {
	vectors := make([]FeatureVector, len(texts))
	patterns := make([][]string, len(texts))
	for i, t := range texts {
		vectors[i], patterns[i] = e.Extract(t)
	}
	return vectors, patterns
}

// Map returns the vector keyed by feature name.
func (e *Extractor) Map(v FeatureVector) map[string]float64 {
	out := make(map[string]float64, len(e.schema))
	for i, name := range e.schema {
		if i < len(v.Values) {
			out[name] = v.Values[i]
		}
	}
	return out
}
