// Package detection implements the text side of the comment-risk pipeline:
// the versioned pattern catalog, feature extraction over comment text and the
// aggregation of per-comment predictions into user and post rankings.
package detection

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
	"gopkg.in/yaml.v3"
)

// DefaultCatalogVersion identifies the built-in pattern catalog.
const DefaultCatalogVersion = "v1"

// ErrInvalidCatalog is returned when a catalog definition cannot be used.
var ErrInvalidCatalog = errors.New("invalid pattern catalog")

// Category is a named group of literal substrings.
type Category struct {
	Name     string   `yaml:"name" json:"name"`
	Patterns []string `yaml:"patterns" json:"patterns"`
}

// CatalogSpec is the serialisable form of a Catalog. It is what gets written
// to YAML files and embedded in persisted classifiers.
type CatalogSpec struct {
	Version    string     `yaml:"version" json:"version"`
	Categories []Category `yaml:"categories" json:"categories"`
	ChildTerms []string   `yaml:"child_terms" json:"child_terms"`
}

// Catalog is an immutable, versioned set of suspicious patterns. The
// automata are built once; matching is serialized because a matcher keeps
// per-call bookkeeping in its nodes.
type Catalog struct {
	spec CatalogSpec
	mu   sync.Mutex

	// literals is the flattened pattern list in catalog order and owner
	// maps each literal to the index of its category.
	literals []string
	owner    []int

	raw       *ahocorasick.Matcher
	rawIndex  [][]int
	fold      *ahocorasick.Matcher
	foldIndex [][]int
	child     *ahocorasick.Matcher
}

// DefaultSpec returns the built-in catalog definition.
func DefaultSpec() CatalogSpec {
	return CatalogSpec{
		Version: DefaultCatalogVersion,
		Categories: []Category{
			{Name: "emoji_hearts_girls", Patterns: []string{"👧💕", "💜💜", "👧🏻💖", "💕👧", "💖💖", "❤️👧"}},
			{Name: "emoji_spiral_boys", Patterns: []string{"🌀👦", "👦🌀", "💙🌀", "🌀💙", "👦💙", "🌀💙👦"}},
			{Name: "suspicious_text_girls", Patterns: []string{"menina linda", "garotinha fofa", "linda menina", "fofa garotinha"}},
			{Name: "suspicious_text_boys", Patterns: []string{"menino bonito", "garoto lindo", "bonito menino", "lindo garoto"}},
		},
		ChildTerms: []string{"menina", "garotinha", "menino", "garoto", "criança", "girl", "boy", "child"},
	}
}

// DefaultCatalog returns the built-in catalog. It panics only if the
// built-in definition is broken.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultSpec())
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog reads a YAML catalog definition from path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading catalog file: %w", err)
	}

	return ParseCatalog(data)
}

// ParseCatalog builds a catalog from a YAML definition.
func ParseCatalog(data []byte) (*Catalog, error) {
	var spec CatalogSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("error parsing catalog definition: %w", err)
	}

	return NewCatalog(spec)
}

// NewCatalog validates spec and compiles its matchers. The spec is copied so
// later changes by the caller do not leak into the catalog.
func NewCatalog(spec CatalogSpec) (*Catalog, error) {
	spec = copySpec(spec)

	if strings.TrimSpace(spec.Version) == "" {
		return nil, fmt.Errorf("%w: version is required", ErrInvalidCatalog)
	}
	if len(spec.Categories) == 0 {
		return nil, fmt.Errorf("%w: at least one category is required", ErrInvalidCatalog)
	}

	c := &Catalog{spec: spec}
	seenNames := make(map[string]bool)
	seenLiterals := make(map[string]bool)

	for ci, cat := range spec.Categories {
		if cat.Name == "" {
			return nil, fmt.Errorf("%w: category %d has no name", ErrInvalidCatalog, ci)
		}
		if seenNames[cat.Name] {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrInvalidCatalog, cat.Name)
		}
		seenNames[cat.Name] = true
		if len(cat.Patterns) == 0 {
			return nil, fmt.Errorf("%w: category %q has no patterns", ErrInvalidCatalog, cat.Name)
		}
		for _, p := range cat.Patterns {
			if p == "" {
				return nil, fmt.Errorf("%w: empty pattern in %q", ErrInvalidCatalog, cat.Name)
			}
			if seenLiterals[p] {
				return nil, fmt.Errorf("%w: duplicate pattern %q", ErrInvalidCatalog, p)
			}
			seenLiterals[p] = true
			c.literals = append(c.literals, p)
			c.owner = append(c.owner, ci)
		}
	}

	c.raw, c.rawIndex = compile(c.literals, func(s string) string { return s })
	c.fold, c.foldIndex = compile(c.literals, strings.ToLower)

	var terms []string
	for _, t := range spec.ChildTerms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) > 0 {
		c.child = ahocorasick.NewStringMatcher(terms)
	}

	return c, nil
}

// compile builds a matcher over the transformed literals. Distinct literals
// may collapse to the same key (e.g. after case folding), so every dictionary
// entry maps back to all literal indices that produced it.
func compile(literals []string, transform func(string) string) (*ahocorasick.Matcher, [][]int) {
	var dict []string
	var index [][]int
	position := make(map[string]int)

	for i, lit := range literals {
		key := transform(lit)
		if pos, ok := position[key]; ok {
			index[pos] = append(index[pos], i)
			continue
		}
		position[key] = len(dict)
		dict = append(dict, key)
		index = append(index, []int{i})
	}

	return ahocorasick.NewStringMatcher(dict), index
}

func copySpec(spec CatalogSpec) CatalogSpec {
	out := CatalogSpec{
		Version:    spec.Version,
		ChildTerms: append([]string(nil), spec.ChildTerms...),
	}
	for _, cat := range spec.Categories {
		out.Categories = append(out.Categories, Category{
			Name:     cat.Name,
			Patterns: append([]string(nil), cat.Patterns...),
		})
	}
	return out
}

// Version returns the catalog version.
func (c *Catalog) Version() string {
	return c.spec.Version
}

// Spec returns a copy of the catalog definition.
func (c *Catalog) Spec() CatalogSpec {
	return copySpec(c.spec)
}

// Patterns returns every literal in catalog order.
func (c *Catalog) Patterns() []string {
	return append([]string(nil), c.literals...)
}

// match returns the indices of the literals found in text, in catalog order.
// A literal is found when it occurs in the raw text or its folded form occurs
// in the folded text; it is reported once either way.
func (c *Catalog) match(text string) []int {
	found := make([]bool, len(c.literals))

	c.mu.Lock()
	rawHits := c.raw.Match([]byte(text))
	foldHits := c.fold.Match([]byte(strings.ToLower(text)))
	c.mu.Unlock()

	for _, hit := range rawHits {
		for _, i := range c.rawIndex[hit] {
			found[i] = true
		}
	}
	for _, hit := range foldHits {
		for _, i := range c.foldIndex[hit] {
			found[i] = true
		}
	}

	var out []int
	for i, ok := range found {
		if ok {
			out = append(out, i)
		}
	}
	return out
}

// Matches reports whether text contains at least one catalog pattern. This is
// the pattern-rule used to label data that has no ground truth.
func (c *Catalog) Matches(text string) bool {
	return len(c.match(text)) > 0
}

// hasChildTerms reports whether the folded text mentions a child term.
func (c *Catalog) hasChildTerms(text string) bool {
	if c.child == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.child.Match([]byte(strings.ToLower(text)))) > 0
}
