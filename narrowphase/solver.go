// Package narrowphase decides collision and closest distance between pairs
// of concrete geometries at fixed transforms, via GJK over their support
// functions.
package narrowphase

import (
	"github.com/pkg/errors"

	"github.com/strideworks/collide/geometry"
	"github.com/strideworks/collide/spatial"
)

// SolverType selects a solver flavor. The flavors share the GJK core and
// differ in iteration and convergence budgets.
type SolverType uint8

// The supported solver flavors.
const (
	// SolverTypeLibCCD mirrors the looser defaults of libccd-style
	// solvers.
	SolverTypeLibCCD = SolverType(iota)
	// SolverTypeIndependent runs tighter convergence at higher iteration
	// cost.
	SolverTypeIndependent
)

// collideTolerance is the separation below which Collide reports contact.
const collideTolerance = 1e-9

// Solver computes boolean collision and closest distance for convex geometry
// pairs.
type Solver struct {
	maxIterations int
	tolerance     float64
}

// NewSolver returns a solver of the given flavor.
func NewSolver(solverType SolverType) *Solver {
	switch solverType {
	case SolverTypeIndependent:
		return &Solver{maxIterations: 128, tolerance: 1e-12}
	case SolverTypeLibCCD:
		fallthrough
	default:
		return &Solver{maxIterations: 64, tolerance: 1e-10}
	}
}

// Distance returns the Euclidean distance between the two geometries at the
// given transforms, zero if they intersect.
func (s *Solver) Distance(g1 geometry.Geometry, tf1 spatial.Transform, g2 geometry.Geometry, tf2 spatial.Transform) (float64, error) {
	if s1, ok := g1.(*geometry.Sphere); ok {
		if s2, ok := g2.(*geometry.Sphere); ok {
			return sphereVsSphereDistance(s1, tf1, s2, tf2), nil
		}
	}
	sup1, sup2, err := supportPair(g1, g2)
	if err != nil {
		return 0, err
	}
	return gjkDistance(sup1, tf1, sup2, tf2, s.maxIterations, s.tolerance), nil
}

// Collide reports whether the two geometries intersect at the given
// transforms.
func (s *Solver) Collide(g1 geometry.Geometry, tf1 spatial.Transform, g2 geometry.Geometry, tf2 spatial.Transform) (bool, error) {
	dist, err := s.Distance(g1, tf1, g2, tf2)
	if err != nil {
		return false, err
	}
	return dist <= collideTolerance, nil
}

func supportPair(g1, g2 geometry.Geometry) (geometry.SupportMapped, geometry.SupportMapped, error) {
	sup1, ok := g1.(geometry.SupportMapped)
	if !ok {
		return nil, nil, newSupportUnsupportedError(g1)
	}
	sup2, ok := g2.(geometry.SupportMapped)
	if !ok {
		return nil, nil, newSupportUnsupportedError(g2)
	}
	return sup1, sup2, nil
}

func sphereVsSphereDistance(s1 *geometry.Sphere, tf1 spatial.Transform, s2 *geometry.Sphere, tf2 spatial.Transform) float64 {
	d := tf2.T.Sub(tf1.T).Norm() - s1.Radius() - s2.Radius()
	if d < 0 {
		return 0
	}
	return d
}

func newSupportUnsupportedError(g geometry.Geometry) error {
	return errors.Errorf("geometry kind %s has no support function", g.Kind())
}
