package broadphase

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/strideworks/collide/geometry"
	"github.com/strideworks/collide/octree"
	"github.com/strideworks/collide/spatial"
)

// Octree-backed query objects are traversed cell by cell against the
// manager's tree: a dual recursion descends whichever side covers more
// space, pruning free octree subtrees, and surfaces each candidate cell to
// the callback as a transient box annotated with the cell's occupancy.
// Absent octree children are unknown space; collision queries descend into
// them so callbacks can observe clearance against the unknown.

func (m *Manager) collideOctree(obj *geometry.Object, tree2 *octree.Octree, callback CollisionCallback) {
	tf2 := obj.Transform()
	if tf2.R.IsIdentity() {
		// translation-only specialization, skipping the oriented-box
		// conversion per step
		octreeCollideTranslateRecurse(m.tree.Root(), tree2, tree2.Root(), tree2.RootBV(), tf2.T, callback)
		return
	}
	octreeCollideRecurse(m.tree.Root(), tree2, tree2.Root(), tree2.RootBV(), tf2, callback)
}

func (m *Manager) distanceOctree(obj *geometry.Object, tree2 *octree.Octree, callback DistanceCallback, minDist *float64) {
	tf2 := obj.Transform()
	if tf2.R.IsIdentity() {
		octreeDistanceTranslateRecurse(m.tree.Root(), tree2, tree2.Root(), tree2.RootBV(), tf2.T, callback, minDist)
		return
	}
	octreeDistanceRecurse(m.tree.Root(), tree2, tree2.Root(), tree2.RootBV(), tf2, callback, minDist)
}

// transientCell materializes an octree cell as a collision object.
func transientCell(bv2 spatial.AABB, tf2 spatial.Transform, costDensity, occupiedThreshold float64) *geometry.Object {
	box, boxTF := geometry.NewBoxFromAABB(bv2, tf2)
	box.CostDensity = costDensity
	box.OccupiedThreshold = occupiedThreshold
	return geometry.NewObject(box, boxTF)
}

func octreeCollideRecurse(
	root1 *Node,
	tree2 *octree.Octree, root2 *octree.Node, bv2 spatial.AABB,
	tf2 spatial.Transform,
	callback CollisionCallback,
) bool {
	if root2 == nil {
		// unknown space: let manager leaves observe it
		if root1.IsLeaf() {
			obj1 := root1.data
			if !obj1.IsFree() && obbOverlap(root1.bv, bv2, tf2) {
				obj2 := transientCell(bv2, tf2, tree2.DefaultOccupancy(), tree2.OccupiedThreshold())
				return callback(obj1, obj2)
			}
			return false
		}
		if octreeCollideRecurse(root1.children[0], tree2, nil, bv2, tf2, callback) {
			return true
		}
		return octreeCollideRecurse(root1.children[1], tree2, nil, bv2, tf2, callback)
	}

	if root1.IsLeaf() && !root2.HasChildren() {
		obj1 := root1.data
		if !tree2.IsNodeFree(root2) && !obj1.IsFree() && obbOverlap(root1.bv, bv2, tf2) {
			obj2 := transientCell(bv2, tf2, root2.Occupancy(), tree2.OccupiedThreshold())
			return callback(obj1, obj2)
		}
		return false
	}

	if tree2.IsNodeFree(root2) || !obbOverlap(root1.bv, bv2, tf2) {
		return false
	}

	if !root2.HasChildren() || (!root1.IsLeaf() && root1.bv.Size() > bv2.Size()) {
		if octreeCollideRecurse(root1.children[0], tree2, root2, bv2, tf2, callback) {
			return true
		}
		return octreeCollideRecurse(root1.children[1], tree2, root2, bv2, tf2, callback)
	}

	for i := 0; i < 8; i++ {
		childBV := octree.ComputeChildBV(bv2, i)
		if octreeCollideRecurse(root1, tree2, root2.Child(i), childBV, tf2, callback) {
			return true
		}
	}
	return false
}

func octreeCollideTranslateRecurse(
	root1 *Node,
	tree2 *octree.Octree, root2 *octree.Node, bv2 spatial.AABB,
	translation2 r3.Vector,
	callback CollisionCallback,
) bool {
	tf2 := spatial.NewTransformFromTranslation(translation2)

	if root2 == nil {
		if root1.IsLeaf() {
			obj1 := root1.data
			if !obj1.IsFree() && root1.bv.Overlaps(bv2.Translate(translation2)) {
				// on this path unknown space carries the tree's
				// occupied threshold as its density
				obj2 := transientCell(bv2, tf2, tree2.OccupiedThreshold(), tree2.OccupiedThreshold())
				return callback(obj1, obj2)
			}
			return false
		}
		if octreeCollideTranslateRecurse(root1.children[0], tree2, nil, bv2, translation2, callback) {
			return true
		}
		return octreeCollideTranslateRecurse(root1.children[1], tree2, nil, bv2, translation2, callback)
	}

	if root1.IsLeaf() && !root2.HasChildren() {
		obj1 := root1.data
		if !tree2.IsNodeFree(root2) && !obj1.IsFree() && root1.bv.Overlaps(bv2.Translate(translation2)) {
			obj2 := transientCell(bv2, tf2, root2.Occupancy(), tree2.OccupiedThreshold())
			return callback(obj1, obj2)
		}
		return false
	}

	if tree2.IsNodeFree(root2) || !root1.bv.Overlaps(bv2.Translate(translation2)) {
		return false
	}

	if !root2.HasChildren() || (!root1.IsLeaf() && root1.bv.Size() > bv2.Size()) {
		if octreeCollideTranslateRecurse(root1.children[0], tree2, root2, bv2, translation2, callback) {
			return true
		}
		return octreeCollideTranslateRecurse(root1.children[1], tree2, root2, bv2, translation2, callback)
	}

	for i := 0; i < 8; i++ {
		childBV := octree.ComputeChildBV(bv2, i)
		if octreeCollideTranslateRecurse(root1, tree2, root2.Child(i), childBV, translation2, callback) {
			return true
		}
	}
	return false
}

func octreeDistanceRecurse(
	root1 *Node,
	tree2 *octree.Octree, root2 *octree.Node, bv2 spatial.AABB,
	tf2 spatial.Transform,
	callback DistanceCallback, minDist *float64,
) bool {
	if root1.IsLeaf() && !root2.HasChildren() {
		if tree2.IsNodeOccupied(root2) {
			obj2 := transientCell(bv2, tf2, root2.Occupancy(), tree2.OccupiedThreshold())
			return callback(root1.data, obj2, minDist)
		}
		return false
	}

	if !tree2.IsNodeOccupied(root2) {
		return false
	}

	if !root2.HasChildren() || (!root1.IsLeaf() && root1.bv.Size() > bv2.Size()) {
		aabb2 := bv2.Transform(tf2)
		d0 := aabb2.Distance(root1.children[0].bv)
		d1 := aabb2.Distance(root1.children[1].bv)
		first := 0
		if d1 < d0 {
			first = 1
			d0, d1 = d1, d0
		}
		if d0 < *minDist {
			if octreeDistanceRecurse(root1.children[first], tree2, root2, bv2, tf2, callback, minDist) {
				return true
			}
		}
		if d1 < *minDist {
			if octreeDistanceRecurse(root1.children[1-first], tree2, root2, bv2, tf2, callback, minDist) {
				return true
			}
		}
		return false
	}

	for i := 0; i < 8; i++ {
		if !root2.ChildExists(i) {
			continue
		}
		childBV := octree.ComputeChildBV(bv2, i)
		if d := root1.bv.Distance(childBV.Transform(tf2)); d < *minDist {
			if octreeDistanceRecurse(root1, tree2, root2.Child(i), childBV, tf2, callback, minDist) {
				return true
			}
		}
	}
	return false
}

func octreeDistanceTranslateRecurse(
	root1 *Node,
	tree2 *octree.Octree, root2 *octree.Node, bv2 spatial.AABB,
	translation2 r3.Vector,
	callback DistanceCallback, minDist *float64,
) bool {
	if root1.IsLeaf() && !root2.HasChildren() {
		if tree2.IsNodeOccupied(root2) {
			obj2 := transientCell(bv2, spatial.NewTransformFromTranslation(translation2), root2.Occupancy(), tree2.OccupiedThreshold())
			return callback(root1.data, obj2, minDist)
		}
		return false
	}

	if !tree2.IsNodeOccupied(root2) {
		return false
	}

	if !root2.HasChildren() || (!root1.IsLeaf() && root1.bv.Size() > bv2.Size()) {
		aabb2 := bv2.Translate(translation2)
		d0 := aabb2.Distance(root1.children[0].bv)
		d1 := aabb2.Distance(root1.children[1].bv)
		first := 0
		if d1 < d0 {
			first = 1
			d0, d1 = d1, d0
		}
		if d0 < *minDist {
			if octreeDistanceTranslateRecurse(root1.children[first], tree2, root2, bv2, translation2, callback, minDist) {
				return true
			}
		}
		if d1 < *minDist {
			if octreeDistanceTranslateRecurse(root1.children[1-first], tree2, root2, bv2, translation2, callback, minDist) {
				return true
			}
		}
		return false
	}

	for i := 0; i < 8; i++ {
		if !root2.ChildExists(i) {
			continue
		}
		childBV := octree.ComputeChildBV(bv2, i)
		if d := root1.bv.Distance(childBV.Translate(translation2)); d < *minDist {
			if octreeDistanceTranslateRecurse(root1, tree2, root2.Child(i), childBV, translation2, callback, minDist) {
				return true
			}
		}
	}
	return false
}

// obbOverlap reports whether an axis-aligned box intersects a second box
// carried into world space by a rigid transform, by testing the fifteen
// separating axes of the oriented pair.
func obbOverlap(bv1, bv2 spatial.AABB, tf2 spatial.Transform) bool {
	c1 := bv1.Center()
	h1 := bv1.Extents().Mul(0.5)
	c2 := tf2.Apply(bv2.Center())
	h2 := bv2.Extents().Mul(0.5)

	axes1 := [3]r3.Vector{{X: 1}, {Y: 1}, {Z: 1}}
	axes2 := [3]r3.Vector{tf2.R.Col(0), tf2.R.Col(1), tf2.R.Col(2)}
	half1 := [3]float64{h1.X, h1.Y, h1.Z}
	half2 := [3]float64{h2.X, h2.Y, h2.Z}
	delta := c2.Sub(c1)

	separated := func(plane r3.Vector) bool {
		if plane.Norm2() < 1e-18 {
			// parallel edges; covered by the face axes
			return false
		}
		sum := math.Abs(delta.Dot(plane))
		for i := 0; i < 3; i++ {
			sum -= math.Abs(axes1[i].Mul(half1[i]).Dot(plane))
			sum -= math.Abs(axes2[i].Mul(half2[i]).Dot(plane))
		}
		return sum > 0
	}

	for i := 0; i < 3; i++ {
		if separated(axes1[i]) || separated(axes2[i]) {
			return false
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if separated(axes1[i].Cross(axes2[j])) {
				return false
			}
		}
	}
	return true
}
