// Package ccd implements continuous collision detection between pairs of
// rigid bodies moving along parameterized motions, with a dispatch matrix
// routing geometry pairs to conservative-advancement solvers.
package ccd

import (
	"github.com/strideworks/collide/geometry"
	"github.com/strideworks/collide/motion"
	"github.com/strideworks/collide/narrowphase"
	"github.com/strideworks/collide/spatial"
)

// SolverType selects the continuous collision strategy.
type SolverType uint8

// The supported strategies.
const (
	// SolverTypeNaive samples the motion at evenly spaced times and runs
	// discrete checks.
	SolverTypeNaive = SolverType(iota)
	// SolverTypeConservativeAdvancement iteratively advances a lower
	// bound on the time of contact using closest distances and motion
	// bounds.
	SolverTypeConservativeAdvancement
	// SolverTypeRayShooting is reserved and currently unimplemented.
	SolverTypeRayShooting
	// SolverTypePolynomial solves contact polynomials for translating
	// mesh pairs.
	SolverTypePolynomial
)

func (t SolverType) String() string {
	switch t {
	case SolverTypeNaive:
		return "naive"
	case SolverTypeConservativeAdvancement:
		return "conservative-advancement"
	case SolverTypeRayShooting:
		return "ray-shooting"
	case SolverTypePolynomial:
		return "polynomial"
	default:
		return "unknown"
	}
}

// Request configures a continuous collision query.
type Request struct {
	// SolverType selects the continuous collision strategy.
	SolverType SolverType
	// MotionType selects how begin/end configurations are interpolated.
	MotionType motion.Type
	// GJKSolverType selects the narrow-phase solver flavor.
	GJKSolverType narrowphase.SolverType
	// NumMaxIterations bounds the work of the iterative strategies.
	NumMaxIterations int
	// TocErr is the tolerance on the reported time of contact; must be
	// positive.
	TocErr float64
}

// DefaultRequest returns a request with the default solver configuration.
func DefaultRequest() Request {
	return Request{
		SolverType:       SolverTypeNaive,
		MotionType:       motion.TypeTranslation,
		GJKSolverType:    narrowphase.SolverTypeLibCCD,
		NumMaxIterations: 10,
		TocErr:           0.0001,
	}
}

// Result reports the outcome of a continuous collision query.
type Result struct {
	// IsCollide reports whether the bodies touch during the motion.
	IsCollide bool
	// TimeOfContact is the first contact time in [0,1] when IsCollide is
	// true.
	TimeOfContact float64
	// ContactTF1 and ContactTF2 are the world configurations of the two
	// bodies at the time of contact.
	ContactTF1 spatial.Transform
	ContactTF2 spatial.Transform
}

// ContinuousObject pairs a geometry with the motion it follows.
type ContinuousObject struct {
	geom geometry.Geometry
	mot  motion.Motion
}

// NewContinuousObject pairs a geometry with a motion.
func NewContinuousObject(geom geometry.Geometry, mot motion.Motion) *ContinuousObject {
	return &ContinuousObject{geom: geom, mot: mot}
}

// Geometry returns the object's geometry.
func (o *ContinuousObject) Geometry() geometry.Geometry { return o.geom }

// Motion returns the object's motion.
func (o *ContinuousObject) Motion() motion.Motion { return o.mot }
