// Package broadphase maintains a dynamic AABB tree over registered collision
// objects and answers pairwise collision and nearest-distance queries over
// it, including cross-queries against voxel occupancy trees.
package broadphase

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"

	"github.com/strideworks/collide/geometry"
	"github.com/strideworks/collide/spatial"
)

// Node is one node of the hierarchy. Leaves carry a registered object; the
// second child being nil is the leaf discriminator. Node addresses are
// stable for the node's lifetime: rebalancing relinks nodes but never
// reallocates leaves, so the manager's proxy table can hold them directly.
type Node struct {
	bv       spatial.AABB
	parent   *Node
	children [2]*Node
	data     *geometry.Object
}

// BV returns the node's bound.
func (n *Node) BV() spatial.AABB { return n.bv }

// Data returns the object at a leaf, nil for internal nodes.
func (n *Node) Data() *geometry.Object { return n.data }

// Left returns the first child.
func (n *Node) Left() *Node { return n.children[0] }

// Right returns the second child.
func (n *Node) Right() *Node { return n.children[1] }

// IsLeaf reports whether the node is a leaf.
func (n *Node) IsLeaf() bool { return n.children[1] == nil }

// NewLeafNode creates an unlinked leaf for bulk tree construction.
func NewLeafNode(bv spatial.AABB, data *geometry.Object) *Node {
	return &Node{bv: bv, data: data}
}

// Tree is a dynamic binary AABB tree. Every internal node's bound encloses
// its subtree; leaves correspond one to one with registered objects.
type Tree struct {
	root    *Node
	nLeaves int

	// TopdownLevel selects the top-down rebuild algorithm: 0 splits at
	// the median along the longest axis, 1 splits at the mean and builds
	// small partitions bottom-up.
	TopdownLevel int
	// BUThreshold is the partition size at or below which the mean-split
	// rebuild switches to bottom-up merging.
	BUThreshold int

	// opath incrementally traverses the tree across BalanceIncremental
	// calls.
	opath uint32
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{BUThreshold: 2}
}

// Root returns the tree root, nil when empty.
func (t *Tree) Root() *Node { return t.root }

// Size returns the number of leaves.
func (t *Tree) Size() int { return t.nLeaves }

// Empty reports whether the tree has no leaves.
func (t *Tree) Empty() bool { return t.nLeaves == 0 }

// Clear removes every node.
func (t *Tree) Clear() {
	t.root = nil
	t.nLeaves = 0
	t.opath = 0
}

// Insert creates a leaf with the given bound and object, links it at the
// position minimizing the enclosing-volume growth, and returns it.
func (t *Tree) Insert(bv spatial.AABB, data *geometry.Object) *Node {
	leaf := NewLeafNode(bv, data)
	t.insertLeaf(leaf)
	t.nLeaves++
	return leaf
}

// Remove unlinks the given leaf; its sibling is promoted into the parent's
// place.
func (t *Tree) Remove(leaf *Node) {
	t.removeLeaf(leaf)
	t.nLeaves--
}

// Update rebounds a leaf. If the leaf's current bound already contains the
// new one, the leaf is rebounded in place; otherwise it is relocated.
func (t *Tree) Update(leaf *Node, bv spatial.AABB) {
	if leaf.bv.Contains(bv) {
		// Shrinking in place keeps every ancestor bound valid, if no
		// longer tight; the next refit restores tightness.
		leaf.bv = bv
		return
	}
	t.removeLeaf(leaf)
	leaf.bv = bv
	t.insertLeaf(leaf)
}

// Refit recomputes every internal bound bottom-up as the union of its
// children.
func (t *Tree) Refit() {
	refitRecurse(t.root)
}

func refitRecurse(n *Node) {
	if n == nil || n.IsLeaf() {
		return
	}
	refitRecurse(n.children[0])
	refitRecurse(n.children[1])
	n.bv = n.children[0].bv.Merge(n.children[1].bv)
}

// MaxHeight returns the height of the tree, zero for a lone leaf or an empty
// tree.
func (t *Tree) MaxHeight() int {
	return maxHeight(t.root)
}

func maxHeight(n *Node) int {
	if n == nil || n.IsLeaf() {
		return 0
	}
	h := maxHeight(n.children[0])
	if r := maxHeight(n.children[1]); r > h {
		h = r
	}
	return h + 1
}

// BalanceIncremental performs a bounded number of leaf relocations, each
// removing one leaf along an incrementally varied root path and reinserting
// it at its best position.
func (t *Tree) BalanceIncremental(passes int) {
	for i := 0; i < passes; i++ {
		if t.nLeaves < 2 {
			return
		}
		node := t.root
		bit := uint32(0)
		for !node.IsLeaf() {
			node = node.children[(t.opath>>(bit%32))&1]
			bit++
		}
		t.opath++

		t.removeLeaf(node)
		t.insertLeaf(node)
	}
}

// BalanceTopdown rebuilds the whole tree by recursive splitting.
func (t *Tree) BalanceTopdown() {
	if t.nLeaves == 0 {
		return
	}
	leaves := make([]*Node, 0, t.nLeaves)
	collectLeaves(t.root, &leaves)
	for _, leaf := range leaves {
		leaf.parent = nil
	}
	t.root = t.buildTopdown(leaves, t.TopdownLevel)
}

// Init bulk-builds the tree from an unordered leaf set, replacing any
// current contents. The level knob selects the same split algorithms as
// top-down rebalancing.
func (t *Tree) Init(leaves []*Node, level int) {
	t.root = t.buildTopdown(leaves, level)
	t.nLeaves = len(leaves)
}

func collectLeaves(n *Node, out *[]*Node) {
	if n == nil {
		return
	}
	if n.IsLeaf() {
		*out = append(*out, n)
		return
	}
	collectLeaves(n.children[0], out)
	collectLeaves(n.children[1], out)
}

func (t *Tree) buildTopdown(leaves []*Node, level int) *Node {
	switch {
	case len(leaves) == 0:
		return nil
	case level == 1:
		return t.topdownMeanSplit(leaves)
	default:
		return t.topdownMedianSplit(leaves)
	}
}

// topdownMedianSplit recursively splits the leaf set at the median along the
// longest axis of the combined bound.
func (t *Tree) topdownMedianSplit(leaves []*Node) *Node {
	if len(leaves) == 1 {
		return leaves[0]
	}

	bv, axis := boundAndLongestAxis(leaves)
	sortLeavesByCenter(leaves, axis)
	mid := len(leaves) / 2

	node := &Node{bv: bv}
	linkChildren(node, t.topdownMedianSplit(leaves[:mid]), t.topdownMedianSplit(leaves[mid:]))
	return node
}

// topdownMeanSplit splits the leaf set at the mean center along the longest
// axis, switching to bottom-up merging for small partitions.
func (t *Tree) topdownMeanSplit(leaves []*Node) *Node {
	if len(leaves) == 1 {
		return leaves[0]
	}
	if len(leaves) <= t.BUThreshold {
		return buildBottomup(leaves)
	}

	bv, axis := boundAndLongestAxis(leaves)
	mean := 0.0
	for _, l := range leaves {
		mean += axisValue(l.bv.Center(), axis)
	}
	mean /= float64(len(leaves))

	mid := 0
	for i, l := range leaves {
		if axisValue(l.bv.Center(), axis) < mean {
			leaves[i], leaves[mid] = leaves[mid], leaves[i]
			mid++
		}
	}
	if mid == 0 || mid == len(leaves) {
		// degenerate distribution; fall back to the median
		sortLeavesByCenter(leaves, axis)
		mid = len(leaves) / 2
	}

	node := &Node{bv: bv}
	linkChildren(node, t.topdownMeanSplit(leaves[:mid]), t.topdownMeanSplit(leaves[mid:]))
	return node
}

// buildBottomup repeatedly merges the pair of roots whose union is smallest.
func buildBottomup(leaves []*Node) *Node {
	roots := append([]*Node{}, leaves...)
	for len(roots) > 1 {
		bestI, bestJ := 0, 1
		bestSize := math.Inf(1)
		for i := 0; i < len(roots); i++ {
			for j := i + 1; j < len(roots); j++ {
				if s := roots[i].bv.Merge(roots[j].bv).Size(); s < bestSize {
					bestSize = s
					bestI, bestJ = i, j
				}
			}
		}
		node := &Node{bv: roots[bestI].bv.Merge(roots[bestJ].bv)}
		linkChildren(node, roots[bestI], roots[bestJ])
		roots[bestI] = node
		roots[bestJ] = roots[len(roots)-1]
		roots = roots[:len(roots)-1]
	}
	return roots[0]
}

func linkChildren(parent, left, right *Node) {
	parent.children[0] = left
	parent.children[1] = right
	left.parent = parent
	right.parent = parent
}

func boundAndLongestAxis(leaves []*Node) (spatial.AABB, int) {
	bv := spatial.NewEmptyAABB()
	for _, l := range leaves {
		bv = bv.Merge(l.bv)
	}
	ext := bv.Extents()
	axis := 0
	if ext.Y > ext.X && ext.Y >= ext.Z {
		axis = 1
	} else if ext.Z > ext.X && ext.Z > ext.Y {
		axis = 2
	}
	return bv, axis
}

func axisValue(v r3.Vector, axis int) float64 {
	switch axis {
	case 1:
		return v.Y
	case 2:
		return v.Z
	default:
		return v.X
	}
}

func sortLeavesByCenter(leaves []*Node, axis int) {
	sort.Slice(leaves, func(i, j int) bool {
		return axisValue(leaves[i].bv.Center(), axis) < axisValue(leaves[j].bv.Center(), axis)
	})
}

// insertLeaf links an unlinked leaf, descending toward the child whose bound
// grows least by absorbing it.
func (t *Tree) insertLeaf(leaf *Node) {
	if t.root == nil {
		t.root = leaf
		leaf.parent = nil
		return
	}

	sibling := t.root
	for !sibling.IsLeaf() {
		growth0 := sibling.children[0].bv.Merge(leaf.bv).Size() - sibling.children[0].bv.Size()
		growth1 := sibling.children[1].bv.Merge(leaf.bv).Size() - sibling.children[1].bv.Size()
		if growth0 < growth1 {
			sibling = sibling.children[0]
		} else {
			sibling = sibling.children[1]
		}
	}

	oldParent := sibling.parent
	newParent := &Node{bv: sibling.bv.Merge(leaf.bv), parent: oldParent}
	newParent.children[0] = sibling
	newParent.children[1] = leaf
	sibling.parent = newParent
	leaf.parent = newParent

	if oldParent == nil {
		t.root = newParent
	} else if oldParent.children[0] == sibling {
		oldParent.children[0] = newParent
	} else {
		oldParent.children[1] = newParent
	}

	refitAncestors(newParent.parent)
}

// removeLeaf unlinks a leaf, promoting its sibling.
func (t *Tree) removeLeaf(leaf *Node) {
	parent := leaf.parent
	if parent == nil {
		t.root = nil
		return
	}

	var sibling *Node
	if parent.children[0] == leaf {
		sibling = parent.children[1]
	} else {
		sibling = parent.children[0]
	}

	grand := parent.parent
	sibling.parent = grand
	if grand == nil {
		t.root = sibling
	} else if grand.children[0] == parent {
		grand.children[0] = sibling
	} else {
		grand.children[1] = sibling
	}
	leaf.parent = nil

	refitAncestors(grand)
}

func refitAncestors(n *Node) {
	for n != nil {
		merged := n.children[0].bv.Merge(n.children[1].bv)
		if n.bv.Equal(merged) {
			return
		}
		n.bv = merged
		n = n.parent
	}
}
