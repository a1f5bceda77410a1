package spatial

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestAABBOverlapAndContain(t *testing.T) {
	a := AABB{Min: r3.Vector{}, Max: r3.Vector{X: 1, Y: 1, Z: 1}}
	b := AABB{Min: r3.Vector{X: 0.5, Y: 0.5, Z: 0.5}, Max: r3.Vector{X: 2, Y: 2, Z: 2}}
	c := AABB{Min: r3.Vector{X: 2, Y: 2, Z: 2}, Max: r3.Vector{X: 3, Y: 3, Z: 3}}

	test.That(t, a.Overlaps(b), test.ShouldBeTrue)
	test.That(t, b.Overlaps(a), test.ShouldBeTrue)
	test.That(t, a.Overlaps(c), test.ShouldBeFalse)
	// touching at a corner counts as overlap
	test.That(t, b.Overlaps(c), test.ShouldBeTrue)

	inner := AABB{Min: r3.Vector{X: 0.25, Y: 0.25, Z: 0.25}, Max: r3.Vector{X: 0.75, Y: 0.75, Z: 0.75}}
	test.That(t, a.Contains(inner), test.ShouldBeTrue)
	test.That(t, inner.Contains(a), test.ShouldBeFalse)
	test.That(t, a.ContainsPoint(r3.Vector{X: 0.5, Y: 0.5, Z: 0.5}), test.ShouldBeTrue)
	test.That(t, a.ContainsPoint(r3.Vector{X: 1.5, Y: 0.5, Z: 0.5}), test.ShouldBeFalse)
}

func TestAABBMerge(t *testing.T) {
	a := AABB{Min: r3.Vector{}, Max: r3.Vector{X: 1, Y: 1, Z: 1}}
	c := AABB{Min: r3.Vector{X: 2, Y: 2, Z: 2}, Max: r3.Vector{X: 3, Y: 3, Z: 3}}

	merged := a.Merge(c)
	test.That(t, merged.Contains(a), test.ShouldBeTrue)
	test.That(t, merged.Contains(c), test.ShouldBeTrue)
	test.That(t, merged.Min, test.ShouldResemble, r3.Vector{})
	test.That(t, merged.Max, test.ShouldResemble, r3.Vector{X: 3, Y: 3, Z: 3})

	empty := NewEmptyAABB()
	test.That(t, empty.Merge(a).Equal(a), test.ShouldBeTrue)
}

func TestAABBDistance(t *testing.T) {
	a := AABB{Min: r3.Vector{}, Max: r3.Vector{X: 1, Y: 1, Z: 1}}
	c := AABB{Min: r3.Vector{X: 2, Y: 2, Z: 2}, Max: r3.Vector{X: 3, Y: 3, Z: 3}}

	test.That(t, a.Distance(c), test.ShouldAlmostEqual, math.Sqrt(3))
	test.That(t, c.Distance(a), test.ShouldAlmostEqual, math.Sqrt(3))

	b := AABB{Min: r3.Vector{X: 0.5}, Max: r3.Vector{X: 2, Y: 1, Z: 1}}
	test.That(t, a.Distance(b), test.ShouldEqual, 0)

	d := AABB{Min: r3.Vector{X: 4}, Max: r3.Vector{X: 5, Y: 1, Z: 1}}
	test.That(t, a.Distance(d), test.ShouldAlmostEqual, 3)
}

func TestAABBSizeAndCenter(t *testing.T) {
	a := AABB{Min: r3.Vector{X: -1, Y: -2, Z: -3}, Max: r3.Vector{X: 1, Y: 2, Z: 3}}
	test.That(t, a.Center(), test.ShouldResemble, r3.Vector{})
	test.That(t, a.Extents(), test.ShouldResemble, r3.Vector{X: 2, Y: 4, Z: 6})
	test.That(t, a.Size(), test.ShouldAlmostEqual, 4+16+36)
}

func TestAABBTransform(t *testing.T) {
	a := AABB{Min: r3.Vector{X: -1, Y: -1, Z: -1}, Max: r3.Vector{X: 1, Y: 1, Z: 1}}

	shifted := a.Transform(NewTransformFromTranslation(r3.Vector{X: 5}))
	test.That(t, shifted.Center(), test.ShouldResemble, r3.Vector{X: 5})
	test.That(t, shifted.Extents(), test.ShouldResemble, r3.Vector{X: 2, Y: 2, Z: 2})

	// rotating a cube by 45 degrees about z grows the xy extents by sqrt(2)
	rot := NewRotationMatrixFromAxisAngle(r3.Vector{Z: 1}, math.Pi/4)
	rotated := a.Transform(NewTransform(rot, r3.Vector{}))
	test.That(t, rotated.Extents().X, test.ShouldAlmostEqual, 2*math.Sqrt2, 1e-9)
	test.That(t, rotated.Extents().Y, test.ShouldAlmostEqual, 2*math.Sqrt2, 1e-9)
	test.That(t, rotated.Extents().Z, test.ShouldAlmostEqual, 2, 1e-9)
}
