package motion

import (
	"github.com/strideworks/collide/spatial"
)

// splineMaxRate is the maximum of the smoothstep derivative 6s(1-s).
const splineMaxRate = 1.5

// Spline eases between two configurations with zero velocity at both ends,
// following the cubic 3t^2 - 2t^3 applied to a linear interpolation. The path
// matches Interp's; only the timing differs.
type Spline struct {
	interp *Interp
}

// NewSpline builds a spline motion between two configurations.
func NewSpline(tfBeg, tfEnd spatial.Transform) *Spline {
	return &Spline{interp: NewInterp(tfBeg, tfEnd)}
}

// Integrate implements Motion.
func (m *Spline) Integrate(t float64) {
	t = clamp01(t)
	m.interp.Integrate(t * t * (3 - 2*t))
}

// CurrentTransform implements Motion.
func (m *Spline) CurrentTransform() spatial.Transform { return m.interp.CurrentTransform() }

// BoundOnMotion implements Motion. The reparameterization scales speeds by at
// most the peak smoothstep rate.
func (m *Spline) BoundOnMotion(radius float64) float64 {
	return splineMaxRate * m.interp.BoundOnMotion(radius)
}
