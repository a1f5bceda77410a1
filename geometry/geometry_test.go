package geometry

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/strideworks/collide/spatial"
)

func TestNewBox(t *testing.T) {
	b, err := NewBox(r3.Vector{X: 2, Y: 4, Z: 6})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Kind(), test.ShouldEqual, KindBox)
	test.That(t, b.Class(), test.ShouldEqual, ClassGeom)
	test.That(t, b.HalfSize(), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, b.LocalAABB().Min, test.ShouldResemble, r3.Vector{X: -1, Y: -2, Z: -3})
	test.That(t, b.BoundingSphereRadius(), test.ShouldAlmostEqual, math.Sqrt(1+4+9))

	_, err = NewBox(r3.Vector{X: -1, Y: 1, Z: 1})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestBoxSupport(t *testing.T) {
	b, err := NewBox(r3.Vector{X: 2, Y: 2, Z: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Support(r3.Vector{X: 1, Y: -1, Z: 0.5}), test.ShouldResemble, r3.Vector{X: 1, Y: -1, Z: 1})
	test.That(t, b.Support(r3.Vector{X: -3}), test.ShouldResemble, r3.Vector{X: -1, Y: 1, Z: 1})
}

func TestNewBoxFromAABB(t *testing.T) {
	bv := spatial.AABB{Min: r3.Vector{X: 1, Y: 1, Z: 1}, Max: r3.Vector{X: 3, Y: 2, Z: 5}}
	tf := spatial.NewTransformFromTranslation(r3.Vector{X: 10})

	box, boxTF := NewBoxFromAABB(bv, tf)
	test.That(t, box.HalfSize(), test.ShouldResemble, r3.Vector{X: 1, Y: 0.5, Z: 2})
	test.That(t, boxTF.T, test.ShouldResemble, r3.Vector{X: 12, Y: 1.5, Z: 3})
}

func TestNewSphere(t *testing.T) {
	s, err := NewSphere(2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Kind(), test.ShouldEqual, KindSphere)
	test.That(t, s.BoundingSphereRadius(), test.ShouldEqual, 2)
	test.That(t, s.LocalAABB().Max, test.ShouldResemble, r3.Vector{X: 2, Y: 2, Z: 2})

	sup := s.Support(r3.Vector{X: 3, Y: 4})
	test.That(t, sup.Norm(), test.ShouldAlmostEqual, 2)

	_, err = NewSphere(-1)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestOccupancyDefaults(t *testing.T) {
	b, err := NewBox(r3.Vector{X: 1, Y: 1, Z: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.IsOccupied(), test.ShouldBeTrue)
	test.That(t, b.IsFree(), test.ShouldBeFalse)

	b.CostDensity = 0
	test.That(t, b.IsOccupied(), test.ShouldBeFalse)
	test.That(t, b.IsFree(), test.ShouldBeTrue)
}

func TestObjectAABB(t *testing.T) {
	b, err := NewBox(r3.Vector{X: 2, Y: 2, Z: 2})
	test.That(t, err, test.ShouldBeNil)

	obj := NewObject(b, spatial.NewTransformFromTranslation(r3.Vector{X: 5}))
	test.That(t, obj.AABB().Min, test.ShouldResemble, r3.Vector{X: 4, Y: -1, Z: -1})
	test.That(t, obj.AABB().Max, test.ShouldResemble, r3.Vector{X: 6, Y: 1, Z: 1})

	obj.SetTransform(spatial.NewTransformFromTranslation(r3.Vector{Y: -5}))
	test.That(t, obj.AABB().Center(), test.ShouldResemble, r3.Vector{Y: -5})

	// rotating grows the cached bound to the enclosing axis-aligned box
	rot := spatial.NewRotationMatrixFromAxisAngle(r3.Vector{Z: 1}, math.Pi/4)
	obj.SetTransform(spatial.NewTransform(rot, r3.Vector{}))
	test.That(t, obj.AABB().Extents().X, test.ShouldAlmostEqual, 2*math.Sqrt2, 1e-9)
}
