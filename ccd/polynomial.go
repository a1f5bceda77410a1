package ccd

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/strideworks/collide/geometry"
	"github.com/strideworks/collide/motion"
	"github.com/strideworks/collide/spatial"
)

// Containment slack for polynomial contact verification.
const (
	polyParamEps = 1e-9
	polyDistEps  = 1e-7
)

// continuousCollideBVHPolynomial detects the first contact between two
// translating mesh models by solving the contact polynomials of their
// triangle features. Both models must carry the same bounding-volume flavor.
func continuousCollideBVHPolynomial(
	g1 geometry.Geometry, m1 motion.Motion,
	g2 geometry.Geometry, m2 motion.Motion,
	req Request, res *Result,
) float64 {
	t1, ok1 := m1.(motion.Translational)
	t2, ok2 := m2.(motion.Translational)
	if !ok1 || !ok2 {
		golog.Global().Warnf("polynomial continuous collision requires translational motions")
		res.IsCollide = false
		return noResult
	}
	model1, ok1 := g1.(*geometry.Model)
	model2, ok2 := g2.(*geometry.Model)
	if !ok1 || !ok2 || model1.Kind() != model2.Kind() {
		golog.Global().Warnf("bounding-volume flavor pair (%s, %s) not supported by polynomial continuous collision", g1.Kind(), g2.Kind())
		res.IsCollide = false
		return noResult
	}

	m1.Integrate(0)
	m2.Integrate(0)
	tf1 := m1.CurrentTransform()
	tf2 := m2.CurrentTransform()
	v1 := t1.Velocity()
	v2 := t2.Velocity()

	// Sweep each model's vertex buffer by its velocity, expressed in the
	// model's frame, so the refit hierarchy bounds the whole motion. The
	// buffers are restored on every exit path.
	restore1, err := sweepModel(model1, tf1.R.Transpose().Apply(v1))
	if err != nil {
		golog.Global().Warnf("polynomial continuous collision: %v", err)
		res.IsCollide = false
		return noResult
	}
	defer func() { goutils.UncheckedError(restore1()) }()
	restore2, err := sweepModel(model2, tf2.R.Transpose().Apply(v2))
	if err != nil {
		golog.Global().Warnf("polynomial continuous collision: %v", err)
		res.IsCollide = false
		return noResult
	}
	defer func() { goutils.UncheckedError(restore2()) }()

	trav := &meshContinuousTraversal{
		model1: model1, model2: model2,
		tf1: tf1, tf2: tf2,
		v1: v1, v2: v2,
		timeOfContact: 1,
	}
	trav.recurse(model1.BVH(), model2.BVH())

	res.IsCollide = len(trav.pairs) > 0
	res.TimeOfContact = trav.timeOfContact

	if res.IsCollide {
		m1.Integrate(trav.timeOfContact)
		m2.Integrate(trav.timeOfContact)
		res.ContactTF1 = m1.CurrentTransform()
		res.ContactTF2 = m2.CurrentTransform()
	}
	return res.TimeOfContact
}

// sweepModel offsets every vertex of the model by the given local-frame
// velocity through the model update protocol and returns a restore function
// undoing the sweep exactly.
func sweepModel(m *geometry.Model, localVelocity r3.Vector) (func() error, error) {
	orig := append([]r3.Vector{}, m.Vertices()...)
	moved := make([]r3.Vector, len(orig))
	for i := range orig {
		moved[i] = orig[i].Add(localVelocity)
	}

	if err := m.BeginUpdate(); err != nil {
		return nil, err
	}
	if err := m.ReplaceVertices(moved); err != nil {
		return nil, multierr.Append(err, m.EndUpdate(false))
	}
	if err := m.EndUpdate(true); err != nil {
		return nil, err
	}

	restore := func() error {
		if err := m.BeginUpdate(); err != nil {
			return err
		}
		if err := m.ReplaceVertices(orig); err != nil {
			return multierr.Append(err, m.EndUpdate(false))
		}
		if err := m.EndUpdate(false); err != nil {
			return err
		}
		return m.ClearUpdateHistory()
	}
	return restore, nil
}

// meshContactPair records one triangle pair found in contact during the
// motion.
type meshContactPair struct {
	tri1, tri2 int
	time       float64
}

// meshContinuousTraversal walks two swept triangle hierarchies and collects
// contact pairs with the earliest contact time.
type meshContinuousTraversal struct {
	model1, model2 *geometry.Model
	tf1, tf2       spatial.Transform
	v1, v2         r3.Vector

	pairs         []meshContactPair
	timeOfContact float64
}

func (trav *meshContinuousTraversal) recurse(n1, n2 *geometry.ModelNode) {
	if n1 == nil || n2 == nil {
		return
	}
	b1 := n1.BV().Transform(trav.tf1)
	b2 := n2.BV().Transform(trav.tf2)
	if !b1.Overlaps(b2) {
		return
	}

	if n1.IsLeaf() && n2.IsLeaf() {
		for _, i := range n1.TriangleIndices() {
			for _, j := range n2.TriangleIndices() {
				trav.checkTrianglePair(i, j)
			}
		}
		return
	}

	if n2.IsLeaf() || (!n1.IsLeaf() && b1.Size() > b2.Size()) {
		trav.recurse(n1.Left(), n2)
		trav.recurse(n1.Right(), n2)
	} else {
		trav.recurse(n1, n2.Left())
		trav.recurse(n1, n2.Right())
	}
}

func (trav *meshContinuousTraversal) checkTrianglePair(i, j int) {
	t1 := trav.startTriangle(trav.model1, trav.tf1, i)
	t2 := trav.startTriangle(trav.model2, trav.tf2, j)

	if toc, hit := continuousTriTriContact(t1, trav.v1, t2, trav.v2); hit {
		trav.pairs = append(trav.pairs, meshContactPair{tri1: i, tri2: j, time: toc})
		if toc < trav.timeOfContact {
			trav.timeOfContact = toc
		}
	}
}

// startTriangle returns the world-space t=0 positions of triangle idx, read
// from the pre-sweep vertex buffer retained by the update protocol.
func (trav *meshContinuousTraversal) startTriangle(m *geometry.Model, tf spatial.Transform, idx int) [3]r3.Vector {
	tri := m.Triangles()[idx]
	prev := m.PreviousVertices()
	return [3]r3.Vector{
		tf.Apply(prev[tri[0]]),
		tf.Apply(prev[tri[1]]),
		tf.Apply(prev[tri[2]]),
	}
}

// continuousTriTriContact finds the earliest time in [0,1] at which two
// triangles translating at constant velocities touch, testing the six
// vertex-face and nine edge-edge feature pairs.
func continuousTriTriContact(t1 [3]r3.Vector, v1 r3.Vector, t2 [3]r3.Vector, v2 r3.Vector) (float64, bool) {
	// Work in the frame of the first triangle.
	rel := v2.Sub(v1)

	best := math.Inf(1)
	found := false
	consider := func(toc float64, ok bool) {
		if ok && toc < best {
			best, found = toc, true
		}
	}

	// Vertices of the moving triangle against the static one, and vice
	// versa (a static vertex moves at -rel relative to the moving
	// triangle).
	zero := r3.Vector{}
	for k := 0; k < 3; k++ {
		consider(vertexFaceContact(t2[k], rel, t1, zero))
		consider(vertexFaceContact(t1[k], zero, t2, rel))
	}

	// All nine edge pairs.
	for a := 0; a < 3; a++ {
		p1, p2 := t1[a], t1[(a+1)%3]
		for b := 0; b < 3; b++ {
			q1, q2 := t2[b], t2[(b+1)%3]
			consider(edgeEdgeContact(p1, p2, zero, q1, q2, rel))
		}
	}

	if !found {
		return 0, false
	}
	return best, true
}

// vertexFaceContact solves for the earliest time the moving point crosses
// the plane of the (possibly moving) triangle inside its bounds.
func vertexFaceContact(p, vp r3.Vector, tri [3]r3.Vector, vTri r3.Vector) (float64, bool) {
	// Coplanarity of (b-a, c-a, p-a) as a cubic in t.
	u0, u1 := tri[1].Sub(tri[0]), r3.Vector{}
	v0, v1 := tri[2].Sub(tri[0]), r3.Vector{}
	w0, w1 := p.Sub(tri[0]), vp.Sub(vTri)

	for _, t := range solveLinearTripleProduct(u0, u1, v0, v1, w0, w1) {
		at := tri[0].Add(vTri.Mul(t))
		bt := tri[1].Add(vTri.Mul(t))
		ct := tri[2].Add(vTri.Mul(t))
		pt := p.Add(vp.Mul(t))
		if pointInTriangle(pt, at, bt, ct) {
			return t, true
		}
	}
	return 0, false
}

// edgeEdgeContact solves for the earliest time the two moving segments
// become coplanar and actually cross.
func edgeEdgeContact(p1, p2, vP, q1, q2, vQ r3.Vector) (float64, bool) {
	u0, u1 := p2.Sub(p1), r3.Vector{}
	v0, v1 := q2.Sub(q1), r3.Vector{}
	w0, w1 := q1.Sub(p1), vQ.Sub(vP)

	for _, t := range solveLinearTripleProduct(u0, u1, v0, v1, w0, w1) {
		a1 := p1.Add(vP.Mul(t))
		a2 := p2.Add(vP.Mul(t))
		b1 := q1.Add(vQ.Mul(t))
		b2 := q2.Add(vQ.Mul(t))
		if segmentsTouch(a1, a2, b1, b2) {
			return t, true
		}
	}
	return 0, false
}

// solveLinearTripleProduct returns the roots in [0,1], ascending, of
// det(u0+u1 t, v0+v1 t, w0+w1 t) = 0.
func solveLinearTripleProduct(u0, u1, v0, v1, w0, w1 r3.Vector) []float64 {
	triple := func(a, b, c r3.Vector) float64 { return a.Dot(b.Cross(c)) }
	a := triple(u1, v1, w1)
	b := triple(u0, v1, w1) + triple(u1, v0, w1) + triple(u1, v1, w0)
	c := triple(u0, v0, w1) + triple(u0, v1, w0) + triple(u1, v0, w0)
	d := triple(u0, v0, w0)
	return solveCubicUnit(a, b, c, d)
}

func pointInTriangle(p, a, b, c r3.Vector) bool {
	// Barycentric containment with slack proportional to the triangle
	// scale.
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)
	d00 := ab.Dot(ab)
	d01 := ab.Dot(ac)
	d11 := ac.Dot(ac)
	d20 := ap.Dot(ab)
	d21 := ap.Dot(ac)
	denom := d00*d11 - d01*d01
	if math.Abs(denom) < 1e-30 {
		return false
	}
	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom
	return v >= -polyParamEps && w >= -polyParamEps && v+w <= 1+polyParamEps
}

func segmentsTouch(p1, p2, q1, q2 r3.Vector) bool {
	// Closest points of the two segments; contact requires interior
	// parameters and near-zero separation.
	// Reference: Ericson, "Real-Time Collision Detection", 5.1.9.
	d1 := p2.Sub(p1)
	d2 := q2.Sub(q1)
	r := p1.Sub(q1)
	a := d1.Norm2()
	e := d2.Norm2()
	f := d2.Dot(r)

	var s, t float64
	switch {
	case a < 1e-30 && e < 1e-30:
		s, t = 0, 0
	case a < 1e-30:
		s, t = 0, clampUnit(f/e)
	default:
		c := d1.Dot(r)
		if e < 1e-30 {
			s, t = clampUnit(-c/a), 0
		} else {
			bb := d1.Dot(d2)
			denom := a*e - bb*bb
			if denom > 1e-30 {
				s = clampUnit((bb*f - c*e) / denom)
			}
			t = (bb*s + f) / e
			if t < 0 {
				t = 0
				s = clampUnit(-c / a)
			} else if t > 1 {
				t = 1
				s = clampUnit((bb - c) / a)
			}
		}
	}
	cp1 := p1.Add(d1.Mul(s))
	cp2 := q1.Add(d2.Mul(t))
	scale := 1 + d1.Norm() + d2.Norm()
	return cp1.Sub(cp2).Norm() <= polyDistEps*scale
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
