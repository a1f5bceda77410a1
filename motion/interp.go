package motion

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/strideworks/collide/spatial"
)

// Interp linearly interpolates the translation and spherically interpolates
// the rotation between two configurations. The rotation is taken about the
// moving frame's origin.
type Interp struct {
	qBeg, qEnd quat.Number
	tBeg, tEnd r3.Vector
	angle      float64
	current    spatial.Transform
}

// NewInterp builds a linear-interpolation motion between two configurations.
func NewInterp(tfBeg, tfEnd spatial.Transform) *Interp {
	qBeg := tfBeg.R.Quaternion()
	qEnd := tfEnd.R.Quaternion()
	return &Interp{
		qBeg:    qBeg,
		qEnd:    qEnd,
		tBeg:    tfBeg.T,
		tEnd:    tfEnd.T,
		angle:   rotationAngle(quat.Mul(qEnd, quat.Inv(qBeg))),
		current: tfBeg,
	}
}

// Integrate implements Motion.
func (m *Interp) Integrate(t float64) {
	m.current = m.transformAt(clamp01(t))
}

// CurrentTransform implements Motion.
func (m *Interp) CurrentTransform() spatial.Transform { return m.current }

// BoundOnMotion implements Motion. A point within the given radius of the
// origin moves no faster than the origin's linear speed plus the angular
// speed times the radius.
func (m *Interp) BoundOnMotion(radius float64) float64 {
	return m.tEnd.Sub(m.tBeg).Norm() + m.angle*radius
}

func (m *Interp) transformAt(t float64) spatial.Transform {
	rot := spatial.NewRotationMatrixFromQuaternion(slerpFrom(m.qBeg, m.qEnd, t))
	trans := m.tBeg.Add(m.tEnd.Sub(m.tBeg).Mul(t))
	return spatial.NewTransform(rot, trans)
}
