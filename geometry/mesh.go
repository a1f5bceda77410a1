package geometry

import (
	"sort"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"

	"github.com/strideworks/collide/spatial"
)

// Triangle leaves hold at most this many triangles before splitting.
const meshLeafSize = 4

type modelState string

const (
	modelStateProcessed modelState = "processed"
	modelStateUpdating  modelState = "updating"
)

// Model is a triangle mesh with a bounding-volume hierarchy over its
// triangles. The kind tag records which bounding-volume flavor the model was
// built for; internal bounds are kept as axis-aligned boxes for all flavors.
//
// A model supports an explicit update protocol for continuous collision
// checking: BeginUpdate, ReplaceVertices, EndUpdate. During the cycle the
// previous vertex set is retained, and a refit on EndUpdate produces bounds
// covering both the old and new vertex positions so that a traversal over the
// refit hierarchy is conservative for the whole motion.
type Model struct {
	kind         Kind
	vertices     []r3.Vector
	prevVertices []r3.Vector
	tris         [][3]int
	root         *ModelNode
	state        modelState

	Occupancy
}

// ModelNode is one node of a model's triangle hierarchy.
type ModelNode struct {
	bv    spatial.AABB
	left  *ModelNode
	right *ModelNode
	tris  []int
}

// BV returns the node's bound.
func (n *ModelNode) BV() spatial.AABB { return n.bv }

// Left returns the left child, nil at a leaf.
func (n *ModelNode) Left() *ModelNode { return n.left }

// Right returns the right child, nil at a leaf.
func (n *ModelNode) Right() *ModelNode { return n.right }

// IsLeaf reports whether the node holds triangles directly.
func (n *ModelNode) IsLeaf() bool { return n.left == nil }

// TriangleIndices returns the indices of the triangles held by a leaf.
func (n *ModelNode) TriangleIndices() []int { return n.tris }

// NewModel builds a mesh model of the given bounding-volume flavor from a
// vertex buffer and triangle index list.
func NewModel(kind Kind, vertices []r3.Vector, triangles [][3]int) (*Model, error) {
	if !kind.IsMesh() {
		return nil, newBadMeshKindError(kind)
	}
	var err error
	for i, tri := range triangles {
		for _, v := range tri {
			if v < 0 || v >= len(vertices) {
				err = multierr.Append(err, newMeshTopologyError(i, v))
			}
		}
	}
	if err != nil {
		return nil, err
	}
	m := &Model{
		kind:      kind,
		vertices:  append([]r3.Vector{}, vertices...),
		tris:      append([][3]int{}, triangles...),
		state:     modelStateProcessed,
		Occupancy: defaultOccupancy(),
	}
	m.rebuildBVH()
	return m, nil
}

// Kind implements Geometry.
func (m *Model) Kind() Kind { return m.kind }

// Class implements Geometry.
func (m *Model) Class() Class { return ClassBVH }

// LocalAABB implements Geometry.
func (m *Model) LocalAABB() spatial.AABB {
	if m.root == nil {
		return spatial.AABB{}
	}
	return m.root.bv
}

// BoundingSphereRadius implements Geometry.
func (m *Model) BoundingSphereRadius() float64 {
	var r float64
	for _, v := range m.vertices {
		if n := v.Norm(); n > r {
			r = n
		}
	}
	return r
}

// Support returns the farthest vertex in the given direction. For non-convex
// meshes this is the support of the convex hull.
func (m *Model) Support(dir r3.Vector) r3.Vector {
	var best r3.Vector
	bestDot := 0.0
	for i, v := range m.vertices {
		if d := v.Dot(dir); i == 0 || d > bestDot {
			best, bestDot = v, d
		}
	}
	return best
}

// Vertices returns the model's current vertex buffer. Callers must not
// mutate it; use the update protocol.
func (m *Model) Vertices() []r3.Vector { return m.vertices }

// PreviousVertices returns the vertex buffer retained by the most recent
// BeginUpdate, nil if the model was never updated or its update history has
// been cleared.
func (m *Model) PreviousVertices() []r3.Vector { return m.prevVertices }

// Triangles returns the triangle index list.
func (m *Model) Triangles() [][3]int { return m.tris }

// TriangleVertices returns the three current vertex positions of triangle i.
func (m *Model) TriangleVertices(i int) [3]r3.Vector {
	t := m.tris[i]
	return [3]r3.Vector{m.vertices[t[0]], m.vertices[t[1]], m.vertices[t[2]]}
}

// BVH returns the root of the model's triangle hierarchy.
func (m *Model) BVH() *ModelNode { return m.root }

// BeginUpdate starts an update cycle, retaining the current vertex buffer as
// the previous one.
func (m *Model) BeginUpdate() error {
	if m.state != modelStateProcessed {
		return newModelStateError("begin updating", m.state)
	}
	m.prevVertices = m.vertices
	m.state = modelStateUpdating
	return nil
}

// ReplaceVertices swaps in a new vertex buffer of the same size mid-update.
func (m *Model) ReplaceVertices(vertices []r3.Vector) error {
	if m.state != modelStateUpdating {
		return newModelStateError("replace vertices of", m.state)
	}
	if len(vertices) != len(m.prevVertices) {
		return newVertexCountMismatchError(len(vertices), len(m.prevVertices))
	}
	m.vertices = append([]r3.Vector{}, vertices...)
	return nil
}

// EndUpdate finishes an update cycle. With refit true, the hierarchy bounds
// are rebuilt to cover both the previous and current vertex positions.
func (m *Model) EndUpdate(refit bool) error {
	if m.state != modelStateUpdating {
		return newModelStateError("end updating", m.state)
	}
	m.state = modelStateProcessed
	if refit {
		m.rebuildBVH()
	}
	return nil
}

// ClearUpdateHistory drops the retained previous vertex buffer and refits
// the hierarchy tightly around the current vertices. Continuous queries use
// it to leave a model observably unchanged after a temporary sweep.
func (m *Model) ClearUpdateHistory() error {
	if m.state != modelStateProcessed {
		return newModelStateError("clear update history of", m.state)
	}
	m.prevVertices = nil
	m.rebuildBVH()
	return nil
}

// triangleBound computes the bound of triangle i over the current vertices
// and, when a previous buffer exists, the previous positions as well.
func (m *Model) triangleBound(i int) spatial.AABB {
	t := m.tris[i]
	bv := spatial.NewAABBFromPoints(m.vertices[t[0]], m.vertices[t[1]], m.vertices[t[2]])
	if m.prevVertices != nil {
		bv = bv.ExtendPoint(m.prevVertices[t[0]]).ExtendPoint(m.prevVertices[t[1]]).ExtendPoint(m.prevVertices[t[2]])
	}
	return bv
}

func (m *Model) rebuildBVH() {
	if len(m.tris) == 0 {
		m.root = nil
		return
	}
	idx := make([]int, len(m.tris))
	bounds := make([]spatial.AABB, len(m.tris))
	for i := range m.tris {
		idx[i] = i
		bounds[i] = m.triangleBound(i)
	}
	m.root = m.buildNode(idx, bounds)
}

// buildNode recursively splits triangles at the median along the longest axis
// of their combined bound.
func (m *Model) buildNode(idx []int, bounds []spatial.AABB) *ModelNode {
	bv := spatial.NewEmptyAABB()
	for _, i := range idx {
		bv = bv.Merge(bounds[i])
	}
	node := &ModelNode{bv: bv}
	if len(idx) <= meshLeafSize {
		node.tris = idx
		return node
	}

	ext := bv.Extents()
	axis := 0
	if ext.Y > ext.X && ext.Y >= ext.Z {
		axis = 1
	} else if ext.Z > ext.X && ext.Z > ext.Y {
		axis = 2
	}
	center := func(i int) float64 {
		c := bounds[i].Center()
		switch axis {
		case 1:
			return c.Y
		case 2:
			return c.Z
		default:
			return c.X
		}
	}
	sort.Slice(idx, func(a, b int) bool { return center(idx[a]) < center(idx[b]) })

	mid := len(idx) / 2
	node.left = m.buildNode(idx[:mid], bounds)
	node.right = m.buildNode(idx[mid:], bounds)
	return node
}
