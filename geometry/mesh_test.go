package geometry

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/strideworks/collide/spatial"
)

func quadModel(t *testing.T) *Model {
	t.Helper()
	verts := []r3.Vector{
		{X: 0, Y: -1, Z: -1},
		{X: 0, Y: 1, Z: -1},
		{X: 0, Y: 1, Z: 1},
		{X: 0, Y: -1, Z: 1},
	}
	m, err := NewModel(KindMeshAABB, verts, [][3]int{{0, 1, 2}, {0, 2, 3}})
	test.That(t, err, test.ShouldBeNil)
	return m
}

func TestNewModel(t *testing.T) {
	m := quadModel(t)
	test.That(t, m.Kind(), test.ShouldEqual, KindMeshAABB)
	test.That(t, m.Class(), test.ShouldEqual, ClassBVH)
	test.That(t, m.LocalAABB(), test.ShouldResemble, spatial.AABB{
		Min: r3.Vector{X: 0, Y: -1, Z: -1},
		Max: r3.Vector{X: 0, Y: 1, Z: 1},
	})

	t.Run("bad kind", func(t *testing.T) {
		_, err := NewModel(KindBox, nil, nil)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("bad topology", func(t *testing.T) {
		_, err := NewModel(KindMeshAABB, []r3.Vector{{}}, [][3]int{{0, 1, 2}})
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestModelBVHCoversTriangles(t *testing.T) {
	// a strip of triangles along x forces internal nodes
	var verts []r3.Vector
	var tris [][3]int
	for i := 0; i < 20; i++ {
		x := float64(i)
		base := len(verts)
		verts = append(verts,
			r3.Vector{X: x},
			r3.Vector{X: x + 1},
			r3.Vector{X: x, Y: 1},
		)
		tris = append(tris, [3]int{base, base + 1, base + 2})
	}
	m, err := NewModel(KindMeshOBB, verts, tris)
	test.That(t, err, test.ShouldBeNil)

	root := m.BVH()
	test.That(t, root, test.ShouldNotBeNil)
	test.That(t, root.IsLeaf(), test.ShouldBeFalse)

	var checkNode func(n *ModelNode)
	checkNode = func(n *ModelNode) {
		if n.IsLeaf() {
			for _, i := range n.TriangleIndices() {
				for _, v := range m.TriangleVertices(i) {
					test.That(t, n.BV().ContainsPoint(v), test.ShouldBeTrue)
				}
			}
			return
		}
		test.That(t, n.BV().Contains(n.Left().BV()), test.ShouldBeTrue)
		test.That(t, n.BV().Contains(n.Right().BV()), test.ShouldBeTrue)
		checkNode(n.Left())
		checkNode(n.Right())
	}
	checkNode(root)
}

func TestModelUpdateProtocol(t *testing.T) {
	m := quadModel(t)
	orig := append([]r3.Vector{}, m.Vertices()...)

	moved := make([]r3.Vector, len(orig))
	for i := range orig {
		moved[i] = orig[i].Add(r3.Vector{X: 3})
	}

	test.That(t, m.BeginUpdate(), test.ShouldBeNil)
	test.That(t, m.ReplaceVertices(moved), test.ShouldBeNil)
	test.That(t, m.EndUpdate(true), test.ShouldBeNil)

	// refit bounds cover both the previous and current positions
	test.That(t, m.PreviousVertices(), test.ShouldResemble, orig)
	test.That(t, m.LocalAABB().Min.X, test.ShouldEqual, 0)
	test.That(t, m.LocalAABB().Max.X, test.ShouldEqual, 3)

	test.That(t, m.ClearUpdateHistory(), test.ShouldBeNil)
	test.That(t, m.PreviousVertices(), test.ShouldBeNil)
	test.That(t, m.LocalAABB().Min.X, test.ShouldEqual, 3)

	t.Run("misuse errors", func(t *testing.T) {
		test.That(t, m.ReplaceVertices(orig), test.ShouldNotBeNil)
		test.That(t, m.EndUpdate(true), test.ShouldNotBeNil)
		test.That(t, m.BeginUpdate(), test.ShouldBeNil)
		test.That(t, m.BeginUpdate(), test.ShouldNotBeNil)
		test.That(t, m.ReplaceVertices([]r3.Vector{{}}), test.ShouldNotBeNil)
		test.That(t, m.EndUpdate(false), test.ShouldBeNil)
	})
}

func TestModelSupport(t *testing.T) {
	m := quadModel(t)
	sup := m.Support(r3.Vector{Y: 1, Z: 1})
	test.That(t, sup.Y, test.ShouldEqual, 1)
	test.That(t, sup.Z, test.ShouldEqual, 1)
}
