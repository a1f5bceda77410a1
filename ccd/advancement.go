package ccd

import (
	"github.com/edaniels/golog"

	"github.com/strideworks/collide/geometry"
	"github.com/strideworks/collide/motion"
	"github.com/strideworks/collide/narrowphase"
)

// advancementFunc computes a conservative-advancement time of first contact
// for one geometry kind pair.
type advancementFunc func(
	g1 geometry.Geometry, m1 motion.Motion,
	g2 geometry.Geometry, m2 motion.Motion,
	solver *narrowphase.Solver,
	req Request, res *Result,
) float64

// advancementMatrix routes geometry kind pairs to their specialized
// conservative-advancement routine. It is populated once at process start
// and read-only thereafter; empty cells mean the pair is unsupported.
var advancementMatrix [geometry.NumKinds][geometry.NumKinds]advancementFunc

func init() {
	convex := []geometry.Kind{
		geometry.KindBox,
		geometry.KindSphere,
	}
	for _, k1 := range convex {
		for _, k2 := range convex {
			advancementMatrix[k1][k2] = advanceConvex
		}
	}
	// Mesh models advance against models of the same bounding-volume
	// flavor, through their convex hulls' support functions.
	meshKinds := []geometry.Kind{
		geometry.KindMeshAABB,
		geometry.KindMeshOBB,
		geometry.KindMeshRSS,
		geometry.KindMeshKIOS,
		geometry.KindMeshOBBRSS,
		geometry.KindMeshKDOP16,
		geometry.KindMeshKDOP18,
		geometry.KindMeshKDOP24,
	}
	for _, k := range meshKinds {
		advancementMatrix[k][k] = advanceConvex
	}
}

// continuousCollideConservativeAdvancement looks up the dispatch cell for
// the pair's kinds and runs it with a narrow-phase solver built from the
// request. On contact, the motions are re-integrated to the reported time so
// the result carries the contact configurations.
func continuousCollideConservativeAdvancement(
	g1 geometry.Geometry, m1 motion.Motion,
	g2 geometry.Geometry, m2 motion.Motion,
	req Request, res *Result,
) float64 {
	fn := advancementMatrix[g1.Kind()][g2.Kind()]
	if fn == nil {
		golog.Global().Warnf("conservative advancement between %s and %s is not supported", g1.Kind(), g2.Kind())
		res.IsCollide = false
		return noResult
	}

	solver := narrowphase.NewSolver(req.GJKSolverType)
	ret := fn(g1, m1, g2, m2, solver, req, res)

	if res.IsCollide {
		m1.Integrate(res.TimeOfContact)
		m2.Integrate(res.TimeOfContact)
		res.ContactTF1 = m1.CurrentTransform()
		res.ContactTF2 = m2.CurrentTransform()
	}
	return ret
}

// advanceConvex is the generic conservative-advancement loop for convex
// geometry pairs: repeatedly step time forward by the closest distance over
// the combined motion bound, a step that provably cannot skip a contact.
func advanceConvex(
	g1 geometry.Geometry, m1 motion.Motion,
	g2 geometry.Geometry, m2 motion.Motion,
	solver *narrowphase.Solver,
	req Request, res *Result,
) float64 {
	r1 := g1.BoundingSphereRadius()
	r2 := g2.BoundingSphereRadius()

	t := 0.0
	maxIter := req.NumMaxIterations
	if maxIter < 1 {
		maxIter = 1
	}
	for iter := 0; iter < maxIter; iter++ {
		m1.Integrate(t)
		m2.Integrate(t)
		dist, err := solver.Distance(g1, m1.CurrentTransform(), g2, m2.CurrentTransform())
		if err != nil {
			golog.Global().Warnf("conservative advancement: %v", err)
			res.IsCollide = false
			return noResult
		}
		if dist <= req.TocErr {
			res.IsCollide = true
			res.TimeOfContact = t
			return t
		}

		bound := m1.BoundOnMotion(r1) + m2.BoundOnMotion(r2)
		if bound <= 0 {
			// No relative motion left to close the gap.
			break
		}
		t += dist / bound
		if t >= 1 {
			t = 1
			break
		}
	}

	res.IsCollide = false
	res.TimeOfContact = 1
	return res.TimeOfContact
}
