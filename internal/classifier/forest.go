package classifier

import (
	"math"
	"math/rand"
	"sort"
)

const leaf = -1

// node is one decision-tree node. Leaves have Left == Right == leaf and carry
// the smoothed probability of the positive class.
type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Prob      float64 `json:"p"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

// predict walks the tree from the root for x.
func (t *tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Left == leaf {
			return n.Prob
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// valid reports whether every internal node points forward to existing
// children and splits on a feature below width.
func (t *tree) valid(width int) bool {
	if len(t.Nodes) == 0 {
		return false
	}
	for i, n := range t.Nodes {
		if n.Left == leaf && n.Right == leaf {
			continue
		}
		if n.Feature < 0 || n.Feature >= width ||
			n.Left <= i || n.Left >= len(t.Nodes) ||
			n.Right <= i || n.Right >= len(t.Nodes) {
			return false
		}
	}
	return true
}

type forest struct {
	Trees []tree `json:"trees"`
}

// predict averages the leaf probabilities of every tree.
func (f *forest) predict(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for i := range f.Trees {
		sum += f.Trees[i].predict(x)
	}
	return sum / float64(len(f.Trees))
}

// treeBuilder grows one CART tree over a bootstrap sample.
type treeBuilder struct {
	x               [][]float64
	y               []int
	maxDepth        int
	minSamplesSplit int
	maxFeatures     int
	rng             *rand.Rand
	nodes           []node
}

// growForest trains trees CART trees with bootstrap sampling and √d feature
// subsampling at every split.
func growForest(x [][]float64, y []int, cfg Config, rng *rand.Rand) *forest {
	width := len(x[0])
	maxFeatures := int(math.Sqrt(float64(width)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	f := &forest{Trees: make([]tree, cfg.Trees)}
	for t := 0; t < cfg.Trees; t++ {
		sample := make([]int, len(x))
		for i := range sample {
			sample[i] = rng.Intn(len(x))
		}

		b := &treeBuilder{
			x:               x,
			y:               y,
			maxDepth:        cfg.MaxDepth,
			minSamplesSplit: cfg.MinSamplesSplit,
			maxFeatures:     maxFeatures,
			rng:             rng,
		}
		b.build(sample, 0)
		f.Trees[t] = tree{Nodes: b.nodes}
	}
	return f
}

func (b *treeBuilder) build(idx []int, depth int) int {
	pos := 0
	for _, i := range idx {
		pos += b.y[i]
	}

	self := len(b.nodes)
	b.nodes = append(b.nodes, node{
		Left:  leaf,
		Right: leaf,
		Prob:  float64(pos+1) / float64(len(idx)+2),
	})

	if depth >= b.maxDepth || len(idx) < b.minSamplesSplit || pos == 0 || pos == len(idx) {
		return self
	}

	feature, threshold, ok := b.bestSplit(idx, pos)
	if !ok {
		return self
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)

	b.nodes[self].Feature = feature
	b.nodes[self].Threshold = threshold
	b.nodes[self].Left = l
	b.nodes[self].Right = r
	return self
}

// bestSplit looks at maxFeatures random features and keeps drawing further
// features while none of them reduces impurity.
func (b *treeBuilder) bestSplit(idx []int, pos int) (int, float64, bool) {
	parent := gini(pos, len(idx))
	order := b.rng.Perm(len(b.x[0]))

	bestFeature, bestThreshold := -1, 0.0
	bestImpurity := parent

	for k, feature := range order {
		if k >= b.maxFeatures && bestFeature >= 0 {
			break
		}
		threshold, impurity, ok := b.splitOn(idx, feature, pos)
		if ok && impurity < bestImpurity-1e-12 {
			bestFeature, bestThreshold, bestImpurity = feature, threshold, impurity
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

// splitOn finds the threshold on feature with the lowest weighted Gini
// impurity. Thresholds are midpoints between consecutive distinct values.
func (b *treeBuilder) splitOn(idx []int, feature, pos int) (float64, float64, bool) {
	sorted := append([]int(nil), idx...)
	sort.Slice(sorted, func(i, j int) bool {
		return b.x[sorted[i]][feature] < b.x[sorted[j]][feature]
	})

	n := len(sorted)
	bestThreshold, bestImpurity := 0.0, math.Inf(1)
	found := false
	leftPos := 0

	for i := 0; i < n-1; i++ {
		leftPos += b.y[sorted[i]]
		v, next := b.x[sorted[i]][feature], b.x[sorted[i+1]][feature]
		if v == next {
			continue
		}
		nl, nr := i+1, n-i-1
		impurity := (float64(nl)*gini(leftPos, nl) + float64(nr)*gini(pos-leftPos, nr)) / float64(n)
		if impurity < bestImpurity {
			bestThreshold, bestImpurity = (v+next)/2, impurity
			found = true
		}
	}

	return bestThreshold, bestImpurity, found
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}
