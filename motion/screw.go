package motion

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/strideworks/collide/spatial"
)

const screwDegenerateAngle = 1e-9

// Screw moves along a screw axis: a rotation about a fixed line in space
// combined with a translation along it. Any rigid displacement has such a
// decomposition; when the rotation vanishes the motion degenerates to a
// translation.
type Screw struct {
	qBeg       quat.Number
	tBeg       r3.Vector
	axis       r3.Vector // unit direction of the screw axis
	axisPoint  r3.Vector // a point on the screw axis
	angle      float64   // total rotation over the interval
	pitch      float64   // total translation along the axis over the interval
	linearOnly *Translation
	current    spatial.Transform
}

// NewScrew decomposes the displacement from tfBeg to tfEnd into a screw
// motion.
func NewScrew(tfBeg, tfEnd spatial.Transform) *Screw {
	qBeg := tfBeg.R.Quaternion()
	qEnd := tfEnd.R.Quaternion()
	qRel := shortestArc(quat.Mul(qEnd, quat.Inv(qBeg)))
	angle := rotationAngle(qRel)

	s := &Screw{qBeg: qBeg, tBeg: tfBeg.T, angle: angle, current: tfBeg}
	if angle < screwDegenerateAngle {
		s.linearOnly = NewTranslation(tfBeg, tfEnd)
		return s
	}

	imagNorm := math.Sqrt(qRel.Imag*qRel.Imag + qRel.Jmag*qRel.Jmag + qRel.Kmag*qRel.Kmag)
	axis := r3.Vector{X: qRel.Imag, Y: qRel.Jmag, Z: qRel.Kmag}.Mul(1 / imagNorm)

	d := tfEnd.T.Sub(tfBeg.T)
	pitch := d.Dot(axis)

	// Solve (I - R) p = rhs for the axis point, restricted to the plane
	// perpendicular to the axis where (I - R) is invertible:
	// p = (rhs + cot(angle/2) * axis x rhs) / 2.
	rot := spatial.NewRotationMatrixFromQuaternion(qRel)
	rhs := tfEnd.T.Sub(axis.Mul(pitch)).Sub(rot.Apply(tfBeg.T))
	rhs = rhs.Sub(axis.Mul(rhs.Dot(axis)))
	cot := math.Cos(angle/2) / math.Sin(angle/2)
	p := rhs.Add(axis.Cross(rhs).Mul(cot)).Mul(0.5)

	s.axis = axis
	s.axisPoint = p
	s.pitch = pitch
	return s
}

// Integrate implements Motion.
func (m *Screw) Integrate(t float64) {
	t = clamp01(t)
	if m.linearOnly != nil {
		m.linearOnly.Integrate(t)
		m.current = m.linearOnly.CurrentTransform()
		return
	}
	partial := spatial.NewRotationMatrixFromAxisAngle(m.axis, m.angle*t)
	rot := spatial.NewRotationMatrixFromQuaternion(
		quat.Mul(partial.Quaternion(), m.qBeg))
	trans := m.axisPoint.
		Add(partial.Apply(m.tBeg.Sub(m.axisPoint))).
		Add(m.axis.Mul(m.pitch * t))
	m.current = spatial.NewTransform(rot, trans)
}

// CurrentTransform implements Motion.
func (m *Screw) CurrentTransform() spatial.Transform { return m.current }

// BoundOnMotion implements Motion. A body point within the given radius of
// the frame origin is at most the origin's axis distance plus the radius away
// from the screw axis.
func (m *Screw) BoundOnMotion(radius float64) float64 {
	if m.linearOnly != nil {
		return m.linearOnly.BoundOnMotion(radius)
	}
	fromAxis := m.tBeg.Sub(m.axisPoint)
	fromAxis = fromAxis.Sub(m.axis.Mul(fromAxis.Dot(m.axis)))
	return m.angle*(fromAxis.Norm()+radius) + math.Abs(m.pitch)
}
