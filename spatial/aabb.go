// Package spatial provides the rigid transforms and axis-aligned bounding
// boxes underlying the collision engine.
package spatial

import (
	"math"

	"github.com/golang/geo/r3"
)

// AABB is an axis-aligned bounding box described by its two extreme corners.
type AABB struct {
	Min r3.Vector
	Max r3.Vector
}

// NewEmptyAABB returns an inverted box that acts as the identity for Merge.
func NewEmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: r3.Vector{X: inf, Y: inf, Z: inf},
		Max: r3.Vector{X: -inf, Y: -inf, Z: -inf},
	}
}

// NewAABBFromPoints returns the tightest box enclosing the given points.
func NewAABBFromPoints(pts ...r3.Vector) AABB {
	bv := NewEmptyAABB()
	for _, p := range pts {
		bv = bv.ExtendPoint(p)
	}
	return bv
}

// ExtendPoint grows the box to include the given point.
func (a AABB) ExtendPoint(p r3.Vector) AABB {
	return AABB{
		Min: r3.Vector{X: math.Min(a.Min.X, p.X), Y: math.Min(a.Min.Y, p.Y), Z: math.Min(a.Min.Z, p.Z)},
		Max: r3.Vector{X: math.Max(a.Max.X, p.X), Y: math.Max(a.Max.Y, p.Y), Z: math.Max(a.Max.Z, p.Z)},
	}
}

// Merge returns the tightest box enclosing both a and b.
func (a AABB) Merge(b AABB) AABB {
	return AABB{
		Min: r3.Vector{X: math.Min(a.Min.X, b.Min.X), Y: math.Min(a.Min.Y, b.Min.Y), Z: math.Min(a.Min.Z, b.Min.Z)},
		Max: r3.Vector{X: math.Max(a.Max.X, b.Max.X), Y: math.Max(a.Max.Y, b.Max.Y), Z: math.Max(a.Max.Z, b.Max.Z)},
	}
}

// Overlaps reports whether the two boxes share any point.
func (a AABB) Overlaps(b AABB) bool {
	if a.Min.X > b.Max.X || b.Min.X > a.Max.X {
		return false
	}
	if a.Min.Y > b.Max.Y || b.Min.Y > a.Max.Y {
		return false
	}
	if a.Min.Z > b.Max.Z || b.Min.Z > a.Max.Z {
		return false
	}
	return true
}

// Contains reports whether b lies entirely inside a.
func (a AABB) Contains(b AABB) bool {
	return a.Min.X <= b.Min.X && a.Min.Y <= b.Min.Y && a.Min.Z <= b.Min.Z &&
		a.Max.X >= b.Max.X && a.Max.Y >= b.Max.Y && a.Max.Z >= b.Max.Z
}

// ContainsPoint reports whether the point lies inside the box.
func (a AABB) ContainsPoint(p r3.Vector) bool {
	return a.Min.X <= p.X && p.X <= a.Max.X &&
		a.Min.Y <= p.Y && p.Y <= a.Max.Y &&
		a.Min.Z <= p.Z && p.Z <= a.Max.Z
}

// Equal reports exact equality of the two boxes.
func (a AABB) Equal(b AABB) bool {
	return a.Min == b.Min && a.Max == b.Max
}

// Center returns the midpoint of the box.
func (a AABB) Center() r3.Vector {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Extents returns the full side lengths of the box.
func (a AABB) Extents() r3.Vector {
	return a.Max.Sub(a.Min)
}

// Size returns the squared diagonal length, used as the relative-size measure
// when deciding which side of a dual recursion to descend.
func (a AABB) Size() float64 {
	return a.Max.Sub(a.Min).Norm2()
}

// Distance returns the Euclidean distance between the two boxes, zero if they
// overlap.
func (a AABB) Distance(b AABB) float64 {
	var gap r3.Vector
	if d := b.Min.X - a.Max.X; d > 0 {
		gap.X = d
	} else if d := a.Min.X - b.Max.X; d > 0 {
		gap.X = d
	}
	if d := b.Min.Y - a.Max.Y; d > 0 {
		gap.Y = d
	} else if d := a.Min.Y - b.Max.Y; d > 0 {
		gap.Y = d
	}
	if d := b.Min.Z - a.Max.Z; d > 0 {
		gap.Z = d
	} else if d := a.Min.Z - b.Max.Z; d > 0 {
		gap.Z = d
	}
	return gap.Norm()
}

// DistanceToPoint returns the Euclidean distance from the box to the point,
// zero if the point is inside.
func (a AABB) DistanceToPoint(p r3.Vector) float64 {
	return a.Distance(AABB{Min: p, Max: p})
}

// Translate returns the box shifted by the given offset.
func (a AABB) Translate(offset r3.Vector) AABB {
	return AABB{Min: a.Min.Add(offset), Max: a.Max.Add(offset)}
}

// Transform returns the tightest axis-aligned box enclosing this box after
// applying the given rigid transform. The result generally grows unless the
// rotation is axis-aligned.
func (a AABB) Transform(tf Transform) AABB {
	center := a.Center()
	half := a.Extents().Mul(0.5)
	newCenter := tf.Apply(center)

	// Project the rotated half extents onto each world axis; summing the
	// absolute rotation entries gives the enclosing half extents.
	var newHalf r3.Vector
	newHalf.X = math.Abs(tf.R[0])*half.X + math.Abs(tf.R[1])*half.Y + math.Abs(tf.R[2])*half.Z
	newHalf.Y = math.Abs(tf.R[3])*half.X + math.Abs(tf.R[4])*half.Y + math.Abs(tf.R[5])*half.Z
	newHalf.Z = math.Abs(tf.R[6])*half.X + math.Abs(tf.R[7])*half.Y + math.Abs(tf.R[8])*half.Z

	return AABB{Min: newCenter.Sub(newHalf), Max: newCenter.Add(newHalf)}
}
