// Package octree implements a voxel occupancy tree: space is recursively
// partitioned into octants, each carrying an occupancy probability, for
// cross-queries against the broad-phase manager.
package octree

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/strideworks/collide/geometry"
	"github.com/strideworks/collide/spatial"
)

// Default occupancy classification thresholds.
const (
	DefaultOccupiedThreshold = 0.7
	DefaultFreeThreshold     = 0.2
	defaultCellOccupancy     = 0.5
)

// Node is one octant of the tree. A node with no children is a leaf; a leaf
// that was never written carries the uncertain default occupancy.
type Node struct {
	children  [8]*Node
	occupancy float64
}

// Occupancy returns the node's occupancy probability. Internal nodes carry
// the maximum over their present children; absent (unknown) octants do not
// contribute to it.
func (n *Node) Occupancy() float64 { return n.occupancy }

// HasChildren reports whether the node is internal.
func (n *Node) HasChildren() bool {
	for _, c := range n.children {
		if c != nil {
			return true
		}
	}
	return false
}

// ChildExists reports whether octant i has been allocated.
func (n *Node) ChildExists(i int) bool { return n.children[i] != nil }

// Child returns octant i, nil if absent. Absent octants represent unknown
// space.
func (n *Node) Child(i int) *Node { return n.children[i] }

// Octree is a cube of space recursively subdivided into octants with
// per-node occupancy. It implements geometry.Geometry so that it can be
// attached to a collision object and queried against a broad-phase manager.
type Octree struct {
	logger     golog.Logger
	root       *Node
	center     r3.Vector
	sideLength float64
	resolution float64
	size       int

	occupiedThreshold float64
	freeThreshold     float64
}

// New creates an empty octree covering a cube of the given side length
// centered at center. Writes are resolved down to cells of the given
// resolution.
func New(center r3.Vector, sideLength, resolution float64, logger golog.Logger) (*Octree, error) {
	if sideLength <= 0 {
		return nil, errors.Errorf("invalid side length (%.2f) for octree", sideLength)
	}
	if resolution <= 0 || resolution > sideLength {
		return nil, errors.Errorf("invalid resolution (%.2f) for octree of side %.2f", resolution, sideLength)
	}
	return &Octree{
		logger:            logger,
		root:              &Node{occupancy: defaultCellOccupancy},
		center:            center,
		sideLength:        sideLength,
		resolution:        resolution,
		occupiedThreshold: DefaultOccupiedThreshold,
		freeThreshold:     DefaultFreeThreshold,
	}, nil
}

// Root returns the root node.
func (t *Octree) Root() *Node { return t.root }

// RootBV returns the bound of the whole tree in its local frame.
func (t *Octree) RootBV() spatial.AABB {
	half := r3.Vector{X: t.sideLength / 2, Y: t.sideLength / 2, Z: t.sideLength / 2}
	return spatial.AABB{Min: t.center.Sub(half), Max: t.center.Add(half)}
}

// Size returns the number of successful Set calls; writing the same cell
// twice counts twice.
func (t *Octree) Size() int { return t.size }

// OccupiedThreshold returns the occupancy at or above which a node counts as
// occupied.
func (t *Octree) OccupiedThreshold() float64 { return t.occupiedThreshold }

// FreeThreshold returns the occupancy at or below which a node counts as
// free.
func (t *Octree) FreeThreshold() float64 { return t.freeThreshold }

// DefaultOccupancy returns the occupancy assumed for unknown space.
func (t *Octree) DefaultOccupancy() float64 { return defaultCellOccupancy }

// IsNodeOccupied classifies a node, treating nil (unknown) as carrying the
// default occupancy, which is below the default occupied threshold.
func (t *Octree) IsNodeOccupied(n *Node) bool {
	if n == nil {
		return defaultCellOccupancy >= t.occupiedThreshold
	}
	return n.occupancy >= t.occupiedThreshold
}

// IsNodeFree classifies a node, treating nil (unknown) as not free.
func (t *Octree) IsNodeFree(n *Node) bool {
	if n == nil {
		return defaultCellOccupancy <= t.freeThreshold
	}
	return n.occupancy <= t.freeThreshold
}

// Set writes the occupancy of the cell containing the given point,
// subdividing down to the tree's resolution. Ancestor occupancies are
// recomputed as the maximum of their present children.
func (t *Octree) Set(p r3.Vector, occupancy float64) error {
	bv := t.RootBV()
	if !bv.ContainsPoint(p) {
		return errors.New("error point is outside the bounds of this octree")
	}
	if occupancy < 0 || occupancy > 1 {
		t.logger.Debugf("clamping occupancy %f to [0,1]", occupancy)
		occupancy = math.Max(0, math.Min(1, occupancy))
	}
	t.setRecursive(t.root, bv, p, occupancy)
	t.size++
	return nil
}

func (t *Octree) setRecursive(n *Node, bv spatial.AABB, p r3.Vector, occupancy float64) {
	side := bv.Extents().X
	if side/2 < t.resolution {
		n.occupancy = occupancy
		return
	}
	i := octantIndex(bv, p)
	if n.children[i] == nil {
		n.children[i] = &Node{occupancy: defaultCellOccupancy}
	}
	t.setRecursive(n.children[i], ComputeChildBV(bv, i), p, occupancy)

	n.occupancy = 0
	for _, c := range n.children {
		if c != nil && c.occupancy > n.occupancy {
			n.occupancy = c.occupancy
		}
	}
}

// octantIndex returns the octant of bv containing p, using the same bit
// layout as ComputeChildBV.
func octantIndex(bv spatial.AABB, p r3.Vector) int {
	c := bv.Center()
	i := 0
	if p.X > c.X {
		i |= 1
	}
	if p.Y > c.Y {
		i |= 2
	}
	if p.Z > c.Z {
		i |= 4
	}
	return i
}

// ComputeChildBV returns the bound of octant i of the given bound. Bit 0
// selects the upper X half, bit 1 the upper Y half, bit 2 the upper Z half.
func ComputeChildBV(bv spatial.AABB, i int) spatial.AABB {
	c := bv.Center()
	child := bv
	if i&1 != 0 {
		child.Min.X = c.X
	} else {
		child.Max.X = c.X
	}
	if i&2 != 0 {
		child.Min.Y = c.Y
	} else {
		child.Max.Y = c.Y
	}
	if i&4 != 0 {
		child.Min.Z = c.Z
	} else {
		child.Max.Z = c.Z
	}
	return child
}

// Kind implements geometry.Geometry.
func (t *Octree) Kind() geometry.Kind { return geometry.KindOctree }

// Class implements geometry.Geometry.
func (t *Octree) Class() geometry.Class { return geometry.ClassOctree }

// LocalAABB implements geometry.Geometry.
func (t *Octree) LocalAABB() spatial.AABB { return t.RootBV() }

// BoundingSphereRadius implements geometry.Geometry.
func (t *Octree) BoundingSphereRadius() float64 {
	half := t.sideLength / 2
	return t.center.Norm() + half*r3.Vector{X: 1, Y: 1, Z: 1}.Norm()
}

// IsFree implements geometry.Geometry. The tree as a whole is free only if
// its root subtree is.
func (t *Octree) IsFree() bool { return t.IsNodeFree(t.root) }

// IsOccupied implements geometry.Geometry.
func (t *Octree) IsOccupied() bool { return t.IsNodeOccupied(t.root) }
