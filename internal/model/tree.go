package model

import (
	"math"
	"sort"
)

// Node is one node of a regression tree. Leaves carry the prediction in
// Value; internal nodes route on Feature <= Threshold to Left, otherwise
// Right. The flat slice layout keeps the tree trivially serializable.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Leaf      bool    `json:"leaf"`
}

// Tree is a depth-limited regression tree fit to squared error.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

type treeParams struct {
	maxDepth       int
	minSamplesLeaf int
}

// fitTree fits a tree to targets over the row subset idx using greedy
// variance-reduction splits.
func fitTree(x [][]float64, targets []float64, idx []int, p treeParams) *Tree {
	t := &Tree{}
	t.grow(x, targets, idx, 0, p)
	return t
}

// grow appends the node for idx and returns its position in Nodes.
func (t *Tree) grow(x [][]float64, targets []float64, idx []int, depth int, p treeParams) int {
	pos := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Leaf: true, Value: mean(targets, idx)})

	if depth >= p.maxDepth || len(idx) < 2*p.minSamplesLeaf {
		return pos
	}

	feature, threshold, ok := bestSplit(x, targets, idx, p.minSamplesLeaf)
	if !ok {
		return pos
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	t.Nodes[pos].Leaf = false
	t.Nodes[pos].Feature = feature
	t.Nodes[pos].Threshold = threshold
	l := t.grow(x, targets, left, depth+1, p)
	r := t.grow(x, targets, right, depth+1, p)
	t.Nodes[pos].Left = l
	t.Nodes[pos].Right = r
	return pos
}

// bestSplit scans every feature for the split that most reduces the sum of
// squared errors, honoring the minimum leaf size on both sides.
func bestSplit(x [][]float64, targets []float64, idx []int, minLeaf int) (int, float64, bool) {
	n := len(idx)
	if n < 2*minLeaf {
		return 0, 0, false
	}

	var total, totalSq float64
	for _, i := range idx {
		total += targets[i]
		totalSq += targets[i] * targets[i]
	}
	parentSSE := totalSq - total*total/float64(n)

	bestGain := 1e-12
	bestFeature, bestThreshold := -1, 0.0

	order := make([]int, n)
	numFeatures := len(x[idx[0]])
	for f := 0; f < numFeatures; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		var leftSum, leftSq float64
		for pos := 0; pos < n-1; pos++ {
			i := order[pos]
			leftSum += targets[i]
			leftSq += targets[i] * targets[i]

			cur, next := x[i][f], x[order[pos+1]][f]
			if cur == next {
				continue
			}
			nl := pos + 1
			nr := n - nl
			if nl < minLeaf || nr < minLeaf {
				continue
			}

			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) +
				(rightSq - rightSum*rightSum/float64(nr))
			if gain := parentSSE - sse; gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}

	if bestFeature < 0 || math.IsNaN(bestThreshold) {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

// Predict routes one feature vector to its leaf value.
func (t *Tree) Predict(row []float64) float64 {
	pos := 0
	for {
		node := t.Nodes[pos]
		if node.Leaf {
			return node.Value
		}
		if row[node.Feature] <= node.Threshold {
			pos = node.Left
		} else {
			pos = node.Right
		}
	}
}

func mean(targets []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += targets[i]
	}
	return sum / float64(len(idx))
}
