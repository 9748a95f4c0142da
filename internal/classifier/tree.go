package classifier

import (
	"math"
	"math/rand"
	"slices"
)

// TreeConfig bounds the growth of a single tree.
type TreeConfig struct {
	MaxDepth        int // 0 = unlimited
	MinSamplesSplit int
	MaxFeatures     int // candidate features per split; 0 = sqrt(d)
}

type node struct {
	leaf      bool
	probaUp   float64
	feature   int
	threshold float64
	left      *node
	right     *node
}

// Tree is a binary CART classifier split on Gini impurity.
type Tree struct {
	root      *node
	nFeatures int
}

type dataset struct {
	x [][]float64
	y []int
}

// growTree fits a tree on the rows of ds named by idx. rng drives feature sampling.
func growTree(ds dataset, idx []int, cfg TreeConfig, rng *rand.Rand) *Tree {
	d := len(ds.x[0])
	k := cfg.MaxFeatures
	if k <= 0 {
		k = int(math.Sqrt(float64(d)))
	}
	if k < 1 {
		k = 1
	}
	if k > d {
		k = d
	}
	minSplit := cfg.MinSamplesSplit
	if minSplit < 2 {
		minSplit = 2
	}
	g := grower{ds: ds, maxDepth: cfg.MaxDepth, minSplit: minSplit, k: k, rng: rng}
	return &Tree{root: g.grow(idx, 0), nFeatures: d}
}

type grower struct {
	ds       dataset
	maxDepth int
	minSplit int
	k        int
	rng      *rand.Rand
}

func (g *grower) grow(idx []int, depth int) *node {
	ups := 0
	for _, i := range idx {
		ups += g.ds.y[i]
	}
	n := len(idx)
	leaf := &node{leaf: true, probaUp: float64(ups) / float64(n)}
	if ups == 0 || ups == n || n < g.minSplit || (g.maxDepth > 0 && depth >= g.maxDepth) {
		return leaf
	}

	parent := gini(ups, n)
	bestScore := parent
	bestFeature := -1
	var bestThreshold float64

	candidates := g.rng.Perm(len(g.ds.x[0]))[:g.k]
	sorted := make([]int, n)
	for _, f := range candidates {
		copy(sorted, idx)
		slices.SortFunc(sorted, func(a, b int) int {
			va, vb := g.ds.x[a][f], g.ds.x[b][f]
			switch {
			case va < vb:
				return -1
			case va > vb:
				return 1
			}
			return 0
		})
		leftUps := 0
		for pos := 0; pos < n-1; pos++ {
			leftUps += g.ds.y[sorted[pos]]
			cur, next := g.ds.x[sorted[pos]][f], g.ds.x[sorted[pos+1]][f]
			if cur == next {
				continue
			}
			leftN := pos + 1
			rightN := n - leftN
			score := (float64(leftN)*gini(leftUps, leftN) + float64(rightN)*gini(ups-leftUps, rightN)) / float64(n)
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
			}
		}
	}
	if bestFeature < 0 {
		return leaf
	}

	var left, right []int
	for _, i := range idx {
		if g.ds.x[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return leaf
	}
	return &node{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      g.grow(left, depth+1),
		right:     g.grow(right, depth+1),
	}
}

// gini is the impurity of a node holding ups positives out of n.
func gini(ups, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(ups) / float64(n)
	return 1 - p*p - (1-p)*(1-p)
}

// ProbaUp returns the fraction of training rows labelled 1 in the leaf x falls into.
func (t *Tree) ProbaUp(x []float64) float64 {
	n := t.root
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.probaUp
}

// Predict returns the tree's vote for x.
func (t *Tree) Predict(x []float64) int {
	if t.ProbaUp(x) > 0.5 {
		return 1
	}
	return 0
}

// Depth is the length of the longest root-to-leaf path.
func (t *Tree) Depth() int { return depthOf(t.root) }

func depthOf(n *node) int {
	if n == nil || n.leaf {
		return 0
	}
	return 1 + max(depthOf(n.left), depthOf(n.right))
}
