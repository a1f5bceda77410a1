package motion

import (
	"github.com/golang/geo/r3"

	"github.com/strideworks/collide/spatial"
)

// Translation is a constant-velocity translation; the rotation stays fixed at
// the begin configuration's.
type Translation struct {
	rot      spatial.RotationMatrix
	beg      r3.Vector
	velocity r3.Vector
	current  spatial.Transform
}

// NewTranslation builds a translation from tfBeg's origin to tfEnd's.
func NewTranslation(tfBeg, tfEnd spatial.Transform) *Translation {
	return &Translation{
		rot:      tfBeg.R,
		beg:      tfBeg.T,
		velocity: tfEnd.T.Sub(tfBeg.T),
		current:  tfBeg,
	}
}

// Integrate implements Motion.
func (m *Translation) Integrate(t float64) {
	t = clamp01(t)
	m.current = spatial.NewTransform(m.rot, m.beg.Add(m.velocity.Mul(t)))
}

// CurrentTransform implements Motion.
func (m *Translation) CurrentTransform() spatial.Transform { return m.current }

// Velocity returns the displacement over the whole interval, i.e. the
// velocity in units per unit t.
func (m *Translation) Velocity() r3.Vector { return m.velocity }

// BoundOnMotion implements Motion. Every body point moves at exactly the
// translation speed.
func (m *Translation) BoundOnMotion(float64) float64 { return m.velocity.Norm() }
