// Package motion provides the parameterized rigid motions used by continuous
// collision checking, along with the conservative bounds the advancement
// solvers rely on.
package motion

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/strideworks/collide/spatial"
)

// Type selects one of the four motion parameterizations.
type Type uint8

// The supported motion types.
const (
	TypeTranslation = Type(iota)
	TypeLinearInterp
	TypeScrew
	TypeSpline
)

func (t Type) String() string {
	switch t {
	case TypeTranslation:
		return "translation"
	case TypeLinearInterp:
		return "linear-interp"
	case TypeScrew:
		return "screw"
	case TypeSpline:
		return "spline"
	default:
		return "unknown"
	}
}

// Motion is a rigid path parameterized over t in [0,1]. A motion carries a
// current configuration: Integrate moves it, CurrentTransform reads it.
type Motion interface {
	// Integrate sets the current configuration to the one at parameter t,
	// clamped to [0,1].
	Integrate(t float64)

	// CurrentTransform returns the configuration set by the last
	// Integrate, the t=0 configuration initially.
	CurrentTransform() spatial.Transform

	// BoundOnMotion returns an upper bound on the speed, in world units
	// per unit t, of any body point within the given radius of the moving
	// frame's origin.
	BoundOnMotion(radius float64) float64
}

// Translational is the capability continuous mesh collision requires: a
// motion that is a pure translation with a fixed velocity.
type Translational interface {
	Motion
	Velocity() r3.Vector
}

// New builds a motion of the given type from a begin and an end
// configuration. An unknown type yields nil.
func New(motionType Type, tfBeg, tfEnd spatial.Transform) Motion {
	switch motionType {
	case TypeTranslation:
		return NewTranslation(tfBeg, tfEnd)
	case TypeLinearInterp:
		return NewInterp(tfBeg, tfEnd)
	case TypeScrew:
		return NewScrew(tfBeg, tfEnd)
	case TypeSpline:
		return NewSpline(tfBeg, tfEnd)
	default:
		return nil
	}
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}

// shortestArc flips q so that interpolating from the identity takes the
// short way around.
func shortestArc(q quat.Number) quat.Number {
	if q.Real < 0 {
		return quat.Scale(-1, q)
	}
	return q
}

// rotationAngle returns the rotation angle of a unit quaternion, in [0, pi].
func rotationAngle(q quat.Number) float64 {
	q = shortestArc(q)
	imag := math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	return 2 * math.Atan2(imag, q.Real)
}

// slerpFrom interpolates from qBeg toward qEnd by fraction s along the
// shortest arc.
func slerpFrom(qBeg, qEnd quat.Number, s float64) quat.Number {
	rel := shortestArc(quat.Mul(qEnd, quat.Inv(qBeg)))
	if rel.Real >= 1-1e-15 {
		// no relative rotation
		return qBeg
	}
	partial := quat.Pow(rel, quat.Number{Real: s})
	out := quat.Mul(partial, qBeg)
	if norm := quat.Abs(out); norm > 0 {
		out = quat.Scale(1/norm, out)
	}
	return out
}
