package boost

import "sort"

// Node is one node of a regression tree. Leaves carry the Newton-step
// output value; internal nodes route on Feature <= Threshold.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Leaf      bool    `json:"leaf"`
}

// Tree is a regression tree stored as a flat node array, root at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for !t.Nodes[i].Leaf {
		if x[t.Nodes[i].Feature] <= t.Nodes[i].Threshold {
			i = t.Nodes[i].Left
		} else {
			i = t.Nodes[i].Right
		}
	}
	return t.Nodes[i].Value
}

// regularization added to hessian sums; keeps leaf values finite when a
// node's predicted probabilities saturate.
const hessEps = 1e-6

type treeBuilder struct {
	x              [][]float64
	grad, hess     []float64
	maxDepth       int
	minSamplesLeaf int
	nodes          []Node
}

func buildTree(x [][]float64, grad, hess []float64, indices []int, maxDepth, minSamplesLeaf int) Tree {
	b := &treeBuilder{x: x, grad: grad, hess: hess, maxDepth: maxDepth, minSamplesLeaf: minSamplesLeaf}
	b.grow(indices, 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(indices []int, depth int) int {
	var g, h float64
	for _, i := range indices {
		g += b.grad[i]
		h += b.hess[i]
	}

	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{})

	if depth >= b.maxDepth || len(indices) < 2*b.minSamplesLeaf {
		b.nodes[idx] = Node{Leaf: true, Value: g / (h + hessEps)}
		return idx
	}

	feature, threshold, ok := b.bestSplit(indices, g, h)
	if !ok {
		b.nodes[idx] = Node{Leaf: true, Value: g / (h + hessEps)}
		return idx
	}

	left := make([]int, 0, len(indices))
	right := make([]int, 0, len(indices))
	for _, i := range indices {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	b.nodes[idx].Feature = feature
	b.nodes[idx].Threshold = threshold
	b.nodes[idx].Left = b.grow(left, depth+1)
	b.nodes[idx].Right = b.grow(right, depth+1)
	return idx
}

// bestSplit scans every feature for the threshold maximizing the gain of a
// hessian-regularized least-squares split. Features are scanned in index
// order and ties keep the first candidate, so tree structure is
// deterministic for a given matrix.
func (b *treeBuilder) bestSplit(indices []int, gTotal, hTotal float64) (feature int, threshold float64, ok bool) {
	baseScore := gTotal * gTotal / (hTotal + hessEps)
	bestGain := 1e-10

	order := make([]int, len(indices))
	for f := 0; f < len(b.x[indices[0]]); f++ {
		copy(order, indices)
		sort.Slice(order, func(a, c int) bool { return b.x[order[a]][f] < b.x[order[c]][f] })

		var gLeft, hLeft float64
		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos]
			gLeft += b.grad[i]
			hLeft += b.hess[i]

			// No valid threshold between identical values.
			if b.x[i][f] == b.x[order[pos+1]][f] {
				continue
			}
			if pos+1 < b.minSamplesLeaf || len(order)-pos-1 < b.minSamplesLeaf {
				continue
			}

			gRight := gTotal - gLeft
			hRight := hTotal - hLeft
			gain := gLeft*gLeft/(hLeft+hessEps) + gRight*gRight/(hRight+hessEps) - baseScore
			if gain > bestGain {
				bestGain = gain
				feature = f
				threshold = (b.x[i][f] + b.x[order[pos+1]][f]) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}
