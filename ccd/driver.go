package ccd

import (
	"math"

	"github.com/edaniels/golog"

	"github.com/strideworks/collide/geometry"
	"github.com/strideworks/collide/motion"
	"github.com/strideworks/collide/narrowphase"
	"github.com/strideworks/collide/spatial"
)

// sentinel returned when a query cannot be answered.
const noResult = -1.0

// ContinuousCollide checks two geometries moving from their begin to their
// end configurations under the request's motion type. It returns the time of
// first contact, or -1 if the configuration is unsupported.
func ContinuousCollide(
	g1 geometry.Geometry, tf1Beg, tf1End spatial.Transform,
	g2 geometry.Geometry, tf2Beg, tf2End spatial.Transform,
	req Request, res *Result,
) float64 {
	m1 := motion.New(req.MotionType, tf1Beg, tf1End)
	m2 := motion.New(req.MotionType, tf2Beg, tf2End)
	if m1 == nil || m2 == nil {
		golog.Global().Warnf("unknown continuous collision motion type %d", req.MotionType)
		res.IsCollide = false
		return noResult
	}
	return continuousCollide(g1, m1, g2, m2, req, res)
}

// ContinuousCollideObjects checks two collision objects moving from their
// current configurations to the given end configurations.
func ContinuousCollideObjects(
	o1 *geometry.Object, tf1End spatial.Transform,
	o2 *geometry.Object, tf2End spatial.Transform,
	req Request, res *Result,
) float64 {
	return ContinuousCollide(
		o1.Geometry(), o1.Transform(), tf1End,
		o2.Geometry(), o2.Transform(), tf2End,
		req, res,
	)
}

// Collide checks two continuous collision objects along their attached
// motions.
func Collide(o1, o2 *ContinuousObject, req Request, res *Result) float64 {
	return continuousCollide(o1.Geometry(), o1.Motion(), o2.Geometry(), o2.Motion(), req, res)
}

func continuousCollide(
	g1 geometry.Geometry, m1 motion.Motion,
	g2 geometry.Geometry, m2 motion.Motion,
	req Request, res *Result,
) float64 {
	switch req.SolverType {
	case SolverTypeNaive:
		return continuousCollideNaive(g1, m1, g2, m2, req, res)
	case SolverTypeConservativeAdvancement:
		return continuousCollideConservativeAdvancement(g1, m1, g2, m2, req, res)
	case SolverTypeRayShooting:
		if g1.Class() == geometry.ClassGeom && g2.Class() == geometry.ClassGeom && req.MotionType == motion.TypeTranslation {
			golog.Global().Warnf("ray-shooting continuous collision is not implemented")
		} else {
			golog.Global().Warnf("invalid continuous collision setting for ray shooting")
		}
		res.IsCollide = false
		return noResult
	case SolverTypePolynomial:
		if g1.Class() == geometry.ClassBVH && g2.Class() == geometry.ClassBVH && req.MotionType == motion.TypeTranslation {
			return continuousCollideBVHPolynomial(g1, m1, g2, m2, req, res)
		}
		golog.Global().Warnf("polynomial continuous collision requires two mesh models under translation")
		res.IsCollide = false
		return noResult
	default:
		golog.Global().Warnf("unknown continuous collision solver type %d", req.SolverType)
		res.IsCollide = false
		return noResult
	}
}

// continuousCollideNaive samples the motions at evenly spaced times and
// reports the first sample in discrete collision.
func continuousCollideNaive(
	g1 geometry.Geometry, m1 motion.Motion,
	g2 geometry.Geometry, m2 motion.Motion,
	req Request, res *Result,
) float64 {
	nIter := req.NumMaxIterations
	if byErr := int(math.Ceil(1 / req.TocErr)); byErr < nIter {
		nIter = byErr
	}
	if nIter < 1 {
		nIter = 1
	}

	solver := narrowphase.NewSolver(req.GJKSolverType)
	for i := 0; i < nIter; i++ {
		t := 0.0
		if nIter > 1 {
			t = float64(i) / float64(nIter-1)
		}
		m1.Integrate(t)
		m2.Integrate(t)
		tf1 := m1.CurrentTransform()
		tf2 := m2.CurrentTransform()

		hit, err := solver.Collide(g1, tf1, g2, tf2)
		if err != nil {
			golog.Global().Warnf("naive continuous collision: %v", err)
			res.IsCollide = false
			return noResult
		}
		if hit {
			res.IsCollide = true
			res.TimeOfContact = t
			res.ContactTF1 = tf1
			res.ContactTF2 = tf2
			return t
		}
	}

	res.IsCollide = false
	res.TimeOfContact = 1
	return res.TimeOfContact
}
