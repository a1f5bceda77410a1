package spatial

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestTransformComposeAndInverse(t *testing.T) {
	rot := NewRotationMatrixFromAxisAngle(r3.Vector{Z: 1}, math.Pi/2)
	tf := NewTransform(rot, r3.Vector{X: 1, Y: 2, Z: 3})

	p := r3.Vector{X: 1}
	moved := tf.Apply(p)
	test.That(t, moved.X, test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, moved.Y, test.ShouldAlmostEqual, 3, 1e-9)
	test.That(t, moved.Z, test.ShouldAlmostEqual, 3, 1e-9)

	roundTrip := tf.Inverse().Apply(moved)
	test.That(t, roundTrip.X, test.ShouldAlmostEqual, p.X, 1e-9)
	test.That(t, roundTrip.Y, test.ShouldAlmostEqual, p.Y, 1e-9)
	test.That(t, roundTrip.Z, test.ShouldAlmostEqual, p.Z, 1e-9)

	test.That(t, Compose(tf, tf.Inverse()).ApproxEqual(Identity()), test.ShouldBeTrue)
	test.That(t, Compose(Identity(), tf).ApproxEqual(tf), test.ShouldBeTrue)
}

func TestRotationMatrixQuaternionRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name  string
		axis  r3.Vector
		angle float64
	}{
		{"identity", r3.Vector{Z: 1}, 0},
		{"quarter turn z", r3.Vector{Z: 1}, math.Pi / 2},
		{"half turn x", r3.Vector{X: 1}, math.Pi},
		{"skew axis", r3.Vector{X: 1, Y: 1, Z: 1}, 2.2},
		{"negative angle", r3.Vector{Y: 1}, -1.3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := NewRotationMatrixFromAxisAngle(tc.axis, tc.angle)
			back := NewRotationMatrixFromQuaternion(m.Quaternion())
			for i := range m {
				test.That(t, back[i], test.ShouldAlmostEqual, m[i], 1e-9)
			}
		})
	}
}

func TestRotationIsIdentity(t *testing.T) {
	test.That(t, IdentityRotation().IsIdentity(), test.ShouldBeTrue)
	rot := NewRotationMatrixFromAxisAngle(r3.Vector{Z: 1}, 0.1)
	test.That(t, rot.IsIdentity(), test.ShouldBeFalse)
	test.That(t, NewTransformFromTranslation(r3.Vector{X: 4}).R.IsIdentity(), test.ShouldBeTrue)
}

func TestRotationMatrixRows(t *testing.T) {
	rot := NewRotationMatrixFromAxisAngle(r3.Vector{Z: 1}, math.Pi/2)
	// rows of a rotation matrix are orthonormal
	for i := 0; i < 3; i++ {
		test.That(t, rot.Row(i).Norm(), test.ShouldAlmostEqual, 1, 1e-9)
		for j := i + 1; j < 3; j++ {
			test.That(t, rot.Row(i).Dot(rot.Row(j)), test.ShouldAlmostEqual, 0, 1e-9)
		}
	}
	// transpose inverts
	test.That(t, rot.Mul(rot.Transpose()).IsIdentity(), test.ShouldBeTrue)
}
