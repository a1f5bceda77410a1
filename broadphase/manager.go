package broadphase

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/samber/lo"

	"github.com/strideworks/collide/geometry"
	"github.com/strideworks/collide/octree"
)

// CollisionCallback is invoked for each candidate pair found by a collision
// query. Returning true terminates the query.
type CollisionCallback func(o1, o2 *geometry.Object) bool

// DistanceCallback is invoked for each candidate pair found by a distance
// query. It may lower *minDist to tighten subsequent pruning. Returning true
// terminates the query.
type DistanceCallback func(o1, o2 *geometry.Object, minDist *float64) bool

// Manager is a dynamic AABB tree broad-phase collision manager. It owns the
// tree and a proxy table mapping each registered object to its leaf.
//
// A manager is not internally synchronized; use one per goroutine or
// serialize access externally.
type Manager struct {
	logger golog.Logger
	tree   *Tree
	table  map[*geometry.Object]*Node

	isSetup bool

	// MaxTreeNonbalancedLevel is the height excess over log2(size) below
	// which setup balances incrementally instead of rebuilding top-down.
	MaxTreeNonbalancedLevel int
	// TreeIncrementalBalancePass is the number of relocation passes per
	// incremental balance.
	TreeIncrementalBalancePass int
	// TreeInitLevel selects the bulk-build algorithm used when
	// registering into an empty manager.
	TreeInitLevel int

	// OctreeAsGeometryCollide and OctreeAsGeometryDistance control
	// whether octree-backed query objects are treated as ordinary
	// geometries or traversed cell by cell.
	OctreeAsGeometryCollide  bool
	OctreeAsGeometryDistance bool
}

// NewManager returns an empty manager with the default balance parameters.
func NewManager(logger golog.Logger) *Manager {
	return &Manager{
		logger: logger,
		tree:   NewTree(),
		table:  map[*geometry.Object]*Node{},

		MaxTreeNonbalancedLevel:    10,
		TreeIncrementalBalancePass: 10,
		TreeInitLevel:              0,

		// from experiment, this is the optimal setting
		OctreeAsGeometryCollide:  true,
		OctreeAsGeometryDistance: false,
	}
}

// Tree exposes the manager's hierarchy for inspection and for tuning the
// top-down rebuild knobs.
func (m *Manager) Tree() *Tree { return m.tree }

// Size returns the number of registered objects.
func (m *Manager) Size() int { return m.tree.Size() }

// Empty reports whether no objects are registered.
func (m *Manager) Empty() bool { return m.tree.Empty() }

// Objects returns the registered objects in no particular order.
func (m *Manager) Objects() []*geometry.Object {
	return lo.Keys(m.table)
}

// Clear removes every registered object.
func (m *Manager) Clear() {
	m.tree.Clear()
	m.table = map[*geometry.Object]*Node{}
	m.isSetup = false
}

// RegisterObject adds one object to the manager. Registering an object twice
// is ignored with a warning.
func (m *Manager) RegisterObject(obj *geometry.Object) {
	if _, ok := m.table[obj]; ok {
		m.logger.Warnf("object %p is already registered, ignoring", obj)
		return
	}
	m.table[obj] = m.tree.Insert(obj.AABB(), obj)
}

// RegisterObjects adds the given objects. Into an empty manager, the tree is
// bulk-built in one shot, which is much faster than repeated insertion.
func (m *Manager) RegisterObjects(objs []*geometry.Object) {
	if len(objs) == 0 {
		return
	}
	if m.Size() > 0 {
		for _, obj := range objs {
			m.RegisterObject(obj)
		}
		return
	}

	leaves := make([]*Node, 0, len(objs))
	for _, obj := range objs {
		if _, ok := m.table[obj]; ok {
			m.logger.Warnf("object %p is already registered, ignoring", obj)
			continue
		}
		leaf := NewLeafNode(obj.AABB(), obj)
		m.table[obj] = leaf
		leaves = append(leaves, leaf)
	}
	m.tree.Init(leaves, m.TreeInitLevel)
	m.isSetup = true
}

// UnregisterObject removes one object. Unknown objects are ignored with a
// warning.
func (m *Manager) UnregisterObject(obj *geometry.Object) {
	node, ok := m.table[obj]
	if !ok {
		m.logger.Warnf("object %p is not registered, ignoring", obj)
		return
	}
	delete(m.table, obj)
	m.tree.Remove(node)
}

// Setup balances the tree unless it is already set up. A manager is set up
// by Setup itself and by a bulk RegisterObjects into an empty manager; it
// stops being set up on Clear and on any update. Registering or unregistering
// single objects does not by itself cause another balance. Setup is
// idempotent; queries call it implicitly.
func (m *Manager) Setup() {
	if m.isSetup {
		return
	}
	num := m.tree.Size()
	if num == 0 {
		m.isSetup = true
		return
	}

	height := m.tree.MaxHeight()
	if float64(height)-math.Log2(float64(num)) < float64(m.MaxTreeNonbalancedLevel) {
		m.tree.BalanceIncremental(m.TreeIncrementalBalancePass)
	} else {
		m.tree.BalanceTopdown()
	}
	m.isSetup = true
}

// Update rereads every object's bound, refits the tree, and re-runs setup.
func (m *Manager) Update() {
	for obj, node := range m.table {
		node.bv = obj.AABB()
	}
	m.tree.Refit()
	m.isSetup = false
	m.Setup()
}

// UpdateObject rebounds a single moved object and re-runs setup.
func (m *Manager) UpdateObject(obj *geometry.Object) {
	m.updateObject(obj)
	m.Setup()
}

// UpdateObjects rebounds the given objects and re-runs setup once.
func (m *Manager) UpdateObjects(objs []*geometry.Object) {
	for _, obj := range objs {
		m.updateObject(obj)
	}
	m.Setup()
}

// updateObject silently ignores unregistered objects.
func (m *Manager) updateObject(obj *geometry.Object) {
	node, ok := m.table[obj]
	if !ok {
		return
	}
	if !node.bv.Equal(obj.AABB()) {
		m.tree.Update(node, obj.AABB())
	}
	m.isSetup = false
}

// Collide tests one object against everything in the manager, stopping early
// when the callback returns true.
func (m *Manager) Collide(obj *geometry.Object, callback CollisionCallback) {
	if m.Size() == 0 {
		return
	}
	m.Setup()

	if oct, ok := obj.Geometry().(*octree.Octree); ok && !m.OctreeAsGeometryCollide {
		m.collideOctree(obj, oct, callback)
		return
	}
	collideObjectRecurse(m.tree.Root(), obj, callback)
}

// Distance finds the nearest registered object to the given one, descending
// closer subtrees first and pruning by the best distance so far. It returns
// the final minimum distance, +Inf if no callback lowered it.
func (m *Manager) Distance(obj *geometry.Object, callback DistanceCallback) float64 {
	minDist := math.Inf(1)
	if m.Size() == 0 {
		return minDist
	}
	m.Setup()

	if oct, ok := obj.Geometry().(*octree.Octree); ok && !m.OctreeAsGeometryDistance {
		m.distanceOctree(obj, oct, callback, &minDist)
		return minDist
	}
	distanceObjectRecurse(m.tree.Root(), obj, callback, &minDist)
	return minDist
}

// SelfCollide tests every unordered pair of registered objects.
func (m *Manager) SelfCollide(callback CollisionCallback) {
	if m.Size() == 0 {
		return
	}
	m.Setup()
	selfCollideRecurse(m.tree.Root(), callback)
}

// SelfDistance finds the nearest pair of registered objects. It returns the
// final minimum distance, +Inf if no callback lowered it.
func (m *Manager) SelfDistance(callback DistanceCallback) float64 {
	minDist := math.Inf(1)
	if m.Size() == 0 {
		return minDist
	}
	m.Setup()
	selfDistanceRecurse(m.tree.Root(), callback, &minDist)
	return minDist
}

// CollideWith tests every pair across two managers.
func (m *Manager) CollideWith(other *Manager, callback CollisionCallback) {
	if m.Size() == 0 || other.Size() == 0 {
		return
	}
	m.Setup()
	other.Setup()
	collidePairRecurse(m.tree.Root(), other.tree.Root(), callback)
}

// DistanceWith finds the nearest pair across two managers. It returns the
// final minimum distance, +Inf if no callback lowered it.
func (m *Manager) DistanceWith(other *Manager, callback DistanceCallback) float64 {
	minDist := math.Inf(1)
	if m.Size() == 0 || other.Size() == 0 {
		return minDist
	}
	m.Setup()
	other.Setup()
	distancePairRecurse(m.tree.Root(), other.tree.Root(), callback, &minDist)
	return minDist
}

// collideObjectRecurse descends toward the child nearer the query first;
// on dense scenes that tends to surface a terminating hit sooner.
func collideObjectRecurse(root *Node, query *geometry.Object, callback CollisionCallback) bool {
	if !root.bv.Overlaps(query.AABB()) {
		return false
	}
	if root.IsLeaf() {
		return callback(root.data, query)
	}

	first := selectChild(query, root.children[0], root.children[1])
	if collideObjectRecurse(root.children[first], query, callback) {
		return true
	}
	return collideObjectRecurse(root.children[1-first], query, callback)
}

// selectChild returns the index of the child whose bound center is closer to
// the query's.
func selectChild(query *geometry.Object, left, right *Node) int {
	c := query.AABB().Center()
	if c.Sub(left.bv.Center()).Norm2() <= c.Sub(right.bv.Center()).Norm2() {
		return 0
	}
	return 1
}

func distanceObjectRecurse(root *Node, query *geometry.Object, callback DistanceCallback, minDist *float64) bool {
	if root.IsLeaf() {
		return callback(root.data, query, minDist)
	}

	d0 := query.AABB().Distance(root.children[0].bv)
	d1 := query.AABB().Distance(root.children[1].bv)

	first := 0
	if d1 < d0 {
		first = 1
		d0, d1 = d1, d0
	}
	if d0 < *minDist {
		if distanceObjectRecurse(root.children[first], query, callback, minDist) {
			return true
		}
	}
	if d1 < *minDist {
		if distanceObjectRecurse(root.children[1-first], query, callback, minDist) {
			return true
		}
	}
	return false
}

func selfCollideRecurse(root *Node, callback CollisionCallback) bool {
	if root.IsLeaf() {
		return false
	}
	if selfCollideRecurse(root.children[0], callback) {
		return true
	}
	if selfCollideRecurse(root.children[1], callback) {
		return true
	}
	return collidePairRecurse(root.children[0], root.children[1], callback)
}

func collidePairRecurse(root1, root2 *Node, callback CollisionCallback) bool {
	if !root1.bv.Overlaps(root2.bv) {
		return false
	}
	if root1.IsLeaf() && root2.IsLeaf() {
		return callback(root1.data, root2.data)
	}

	// Descend whichever side is not a leaf and covers more space.
	if root2.IsLeaf() || (!root1.IsLeaf() && root1.bv.Size() > root2.bv.Size()) {
		if collidePairRecurse(root1.children[0], root2, callback) {
			return true
		}
		return collidePairRecurse(root1.children[1], root2, callback)
	}
	if collidePairRecurse(root1, root2.children[0], callback) {
		return true
	}
	return collidePairRecurse(root1, root2.children[1], callback)
}

func selfDistanceRecurse(root *Node, callback DistanceCallback, minDist *float64) bool {
	if root.IsLeaf() {
		return false
	}
	if selfDistanceRecurse(root.children[0], callback, minDist) {
		return true
	}
	if selfDistanceRecurse(root.children[1], callback, minDist) {
		return true
	}
	return distancePairRecurse(root.children[0], root.children[1], callback, minDist)
}

func distancePairRecurse(root1, root2 *Node, callback DistanceCallback, minDist *float64) bool {
	if root1.IsLeaf() && root2.IsLeaf() {
		return callback(root1.data, root2.data, minDist)
	}

	if root2.IsLeaf() || (!root1.IsLeaf() && root1.bv.Size() > root2.bv.Size()) {
		d0 := root2.bv.Distance(root1.children[0].bv)
		d1 := root2.bv.Distance(root1.children[1].bv)
		first := 0
		if d1 < d0 {
			first = 1
			d0, d1 = d1, d0
		}
		if d0 < *minDist {
			if distancePairRecurse(root1.children[first], root2, callback, minDist) {
				return true
			}
		}
		if d1 < *minDist {
			if distancePairRecurse(root1.children[1-first], root2, callback, minDist) {
				return true
			}
		}
		return false
	}

	d0 := root1.bv.Distance(root2.children[0].bv)
	d1 := root1.bv.Distance(root2.children[1].bv)
	first := 0
	if d1 < d0 {
		first = 1
		d0, d1 = d1, d0
	}
	if d0 < *minDist {
		if distancePairRecurse(root1, root2.children[first], callback, minDist) {
			return true
		}
	}
	if d1 < *minDist {
		if distancePairRecurse(root1, root2.children[1-first], callback, minDist) {
			return true
		}
	}
	return false
}
