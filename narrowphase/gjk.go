package narrowphase

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/strideworks/collide/geometry"
	"github.com/strideworks/collide/spatial"
)

// worldSupport evaluates a geometry's support function in world space: the
// query direction is rotated into the local frame, and the resulting point
// mapped back out.
func worldSupport(g geometry.SupportMapped, tf spatial.Transform, dir r3.Vector) r3.Vector {
	return tf.Apply(g.Support(tf.R.Transpose().Apply(dir)))
}

// minkowskiSupport returns support_A(d) - support_B(-d), a support point of
// the Minkowski difference A - B in direction d.
func minkowskiSupport(a geometry.SupportMapped, tfA spatial.Transform, b geometry.SupportMapped, tfB spatial.Transform, d r3.Vector) r3.Vector {
	return worldSupport(a, tfA, d).Sub(worldSupport(b, tfB, d.Mul(-1)))
}

// gjkDistance runs GJK on the Minkowski difference of the two shapes and
// returns the Euclidean distance between them, zero if they intersect.
func gjkDistance(a geometry.SupportMapped, tfA spatial.Transform, b geometry.SupportMapped, tfB spatial.Transform, maxIter int, tol float64) float64 {
	d := tfB.T.Sub(tfA.T)
	if d.Norm2() < tol*tol {
		d = r3.Vector{X: 1}
	}

	w := minkowskiSupport(a, tfA, b, tfB, d)
	simplex := []r3.Vector{w}
	v := w

	for iter := 0; iter < maxIter; iter++ {
		vv := v.Norm2()
		if vv < 1e-20 {
			return 0
		}

		d = v.Mul(-1)
		w = minkowskiSupport(a, tfA, b, tfB, d)

		// Convergence: the new support point cannot bring the simplex
		// meaningfully closer to the origin.
		if vv-v.Dot(w) <= tol*vv {
			break
		}

		simplex = append(simplex, w)
		switch len(simplex) {
		case 2:
			v, simplex = closestOnSegment(simplex[0], simplex[1])
		case 3:
			v, simplex = closestOnTriangle(simplex[0], simplex[1], simplex[2])
		case 4:
			v, simplex = closestOnTetrahedron(simplex)
		}
	}

	return v.Norm()
}

// closestOnSegment returns the closest point on segment [a,b] to the origin,
// along with the reduced simplex.
func closestOnSegment(a, b r3.Vector) (r3.Vector, []r3.Vector) {
	ab := b.Sub(a)
	denom := ab.Norm2()
	if denom < 1e-30 {
		return a, []r3.Vector{a}
	}
	t := a.Mul(-1).Dot(ab) / denom
	if t <= 0 {
		return a, []r3.Vector{a}
	}
	if t >= 1 {
		return b, []r3.Vector{b}
	}
	return a.Add(ab.Mul(t)), []r3.Vector{a, b}
}

// closestOnTriangle returns the closest point on triangle [a,b,c] to the
// origin, along with the reduced simplex. Uses Ericson's Voronoi region
// method from "Real-Time Collision Detection".
func closestOnTriangle(a, b, c r3.Vector) (r3.Vector, []r3.Vector) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)

	d1 := ab.Dot(ao)
	d2 := ac.Dot(ao)
	if d1 <= 0 && d2 <= 0 {
		return a, []r3.Vector{a}
	}

	bo := b.Mul(-1)
	d3 := ab.Dot(bo)
	d4 := ac.Dot(bo)
	if d3 >= 0 && d4 <= d3 {
		return b, []r3.Vector{b}
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Mul(v)), []r3.Vector{a, b}
	}

	co := c.Mul(-1)
	d5 := ab.Dot(co)
	d6 := ac.Dot(co)
	if d6 >= 0 && d5 <= d6 {
		return c, []r3.Vector{c}
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Mul(w)), []r3.Vector{a, c}
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w)), []r3.Vector{b, c}
	}

	denom := 1.0 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w)), []r3.Vector{a, b, c}
}

// originInTetrahedron checks whether the origin lies on the interior side of
// every face of the tetrahedron.
func originInTetrahedron(pts []r3.Vector) bool {
	type face struct{ v0, v1, v2, opp int }
	faces := [4]face{
		{0, 1, 2, 3},
		{0, 1, 3, 2},
		{0, 2, 3, 1},
		{1, 2, 3, 0},
	}
	for _, f := range faces {
		p0, p1, p2 := pts[f.v0], pts[f.v1], pts[f.v2]
		normal := p1.Sub(p0).Cross(p2.Sub(p0))
		dOrigin := normal.Dot(p0.Mul(-1))
		dOpp := normal.Dot(pts[f.opp].Sub(p0))
		if dOrigin*dOpp < 0 {
			return false
		}
	}
	return true
}

// closestOnTetrahedron returns the closest point on the tetrahedron to the
// origin. If the origin is inside, returns the zero vector.
func closestOnTetrahedron(pts []r3.Vector) (r3.Vector, []r3.Vector) {
	if originInTetrahedron(pts) {
		return r3.Vector{}, pts
	}
	faces := [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}
	bestDist := math.Inf(1)
	var bestV r3.Vector
	var bestS []r3.Vector

	for _, f := range faces {
		v, s := closestOnTriangle(pts[f[0]], pts[f[1]], pts[f[2]])
		if d := v.Norm2(); d < bestDist {
			bestDist = d
			bestV = v
			bestS = s
		}
	}
	return bestV, bestS
}
