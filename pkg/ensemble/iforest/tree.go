package iforest

import (
	"github.com/pkg/errors"
)

// TreeNode is either a leaf (no children) or an internal split node owning
// both of its children. Size is the number of subsample rows that reached the node.
type TreeNode struct {
	Left         *TreeNode
	Right        *TreeNode
	Size         int
	SplitFeature string
	SplitValue   float64
}

// IsLeaf checks if the node is a leaf (no children).
func (t *TreeNode) IsLeaf() bool {
	return t.Left == nil && t.Right == nil
}

// Tree is an isolation tree grown from one subsample. It is immutable once built.
type Tree struct {
	Root        *TreeNode
	HeightLimit int
}

// BuildTree grows an isolation tree from the subsample.
func BuildTree(rnd Randomizer, subsample []*Sample, heightLimit int) (*Tree, error) {
	if len(subsample) == 0 {
		return nil, ErrEmptyTrainingSet
	}

	root, err := buildNode(rnd, subsample, 0, heightLimit)
	if err != nil {
		return nil, err
	}

	return &Tree{Root: root, HeightLimit: heightLimit}, nil
}

// buildNode recursively partitions samples to isolate outliers
func buildNode(rnd Randomizer, samples []*Sample, depth, heightLimit int) (*TreeNode, error) {
	numSamples := len(samples)
	if numSamples <= 1 || depth >= heightLimit {
		return &TreeNode{Size: numSamples}, nil
	}

	names := samples[0].Names()
	if len(names) == 0 {
		return &TreeNode{Size: numSamples}, nil
	}

	splitFeature := names[rnd.Intn(len(names))]
	column, err := Column(samples, splitFeature)
	if err != nil {
		return nil, err
	}

	minValue, maxValue := MinMax(column)
	if minValue == maxValue {
		// identical values cannot be separated
		return &TreeNode{Size: numSamples}, nil
	}

	splitValue := randomSplit(rnd, minValue, maxValue)

	leftSamples := make([]*Sample, 0, numSamples)
	rightSamples := make([]*Sample, 0, numSamples)
	for i, sample := range samples {
		if column[i] < splitValue {
			leftSamples = append(leftSamples, sample)
		} else {
			rightSamples = append(rightSamples, sample)
		}
	}

	left, err := buildNode(rnd, leftSamples, depth+1, heightLimit)
	if err != nil {
		return nil, err
	}

	right, err := buildNode(rnd, rightSamples, depth+1, heightLimit)
	if err != nil {
		return nil, err
	}

	return &TreeNode{
		Left:         left,
		Right:        right,
		Size:         numSamples,
		SplitFeature: splitFeature,
		SplitValue:   splitValue,
	}, nil
}

const maxSplitDraws = 8

// randomSplit draws a value in (min, max]. A draw landing on min would leave the
// left partition empty, so it is drawn again; max always separates the maximum rows.
// The interpolation avoids max-min, which overflows for finite values of opposite sign.
func randomSplit(rnd Randomizer, min, max float64) float64 {
	for i := 0; i < maxSplitDraws; i++ {
		r := rnd.Float64()
		v := min*(1-r) + max*r
		if min < v && v <= max {
			return v
		}
	}
	return max
}

// PathLength returns the depth at which the sample lands in a leaf, extended by
// the expected path length of the unresolved rows still held by that leaf.
func (t *Tree) PathLength(sample *Sample) (float64, error) {
	if t.Root == nil {
		return 0, ErrNotBuilt
	}

	node := t.Root
	depth := 0
	for !node.IsLeaf() {
		value, err := sample.Value(node.SplitFeature)
		if err != nil {
			return 0, errors.Wrapf(err, "unable to route sample at depth %d", depth)
		}

		if value < node.SplitValue {
			node = node.Left
		} else {
			node = node.Right
		}
		depth++
	}

	return float64(depth) + AveragePathLength(node.Size), nil
}

// Height returns the depth of the deepest leaf.
func (t *Tree) Height() int {
	height := 0
	t.Walk(func(node *TreeNode, depth int) {
		if node.IsLeaf() && depth > height {
			height = depth
		}
	})
	return height
}

// NumLeaves counts the leaves of the tree.
func (t *Tree) NumLeaves() int {
	leaves := 0
	t.Walk(func(node *TreeNode, _ int) {
		if node.IsLeaf() {
			leaves++
		}
	})
	return leaves
}

// Walk visits every node in depth-first pre-order.
func (t *Tree) Walk(fn func(node *TreeNode, depth int)) {
	if t.Root != nil {
		walk(t.Root, 0, fn)
	}
}

func walk(node *TreeNode, depth int, fn func(node *TreeNode, depth int)) {
	fn(node, depth)
	if node.IsLeaf() {
		return
	}
	walk(node.Left, depth+1, fn)
	walk(node.Right, depth+1, fn)
}
