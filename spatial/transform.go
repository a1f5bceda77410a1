package spatial

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/num/quat"
)

const floatEpsilon = 1e-9

// RotationMatrix is a 3x3 rotation matrix in row-major order.
type RotationMatrix [9]float64

// IdentityRotation returns the identity rotation.
func IdentityRotation() RotationMatrix {
	return RotationMatrix{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Row returns the ith row of the matrix as a vector.
func (m RotationMatrix) Row(i int) r3.Vector {
	return r3.Vector{X: m[3*i], Y: m[3*i+1], Z: m[3*i+2]}
}

// Col returns the ith column of the matrix as a vector.
func (m RotationMatrix) Col(i int) r3.Vector {
	return r3.Vector{X: m[i], Y: m[i+3], Z: m[i+6]}
}

// Apply rotates the given vector.
func (m RotationMatrix) Apply(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		Y: m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		Z: m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

// Mul returns the product m * other.
func (m RotationMatrix) Mul(other RotationMatrix) RotationMatrix {
	var out RotationMatrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[3*i+j] = m[3*i]*other[j] + m[3*i+1]*other[3+j] + m[3*i+2]*other[6+j]
		}
	}
	return out
}

// Transpose returns the transposed (inverse) rotation.
func (m RotationMatrix) Transpose() RotationMatrix {
	return RotationMatrix{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// IsIdentity reports whether the matrix is the identity rotation within a
// small tolerance.
func (m RotationMatrix) IsIdentity() bool {
	ident := IdentityRotation()
	for i := range m {
		if !scalar.EqualWithinAbs(m[i], ident[i], floatEpsilon) {
			return false
		}
	}
	return true
}

// Quaternion converts the rotation matrix to a unit quaternion using
// Shepperd's method.
func (m RotationMatrix) Quaternion() quat.Number {
	tr := m[0] + m[4] + m[8]
	var q quat.Number
	switch {
	case tr > 0:
		s := 0.5 / math.Sqrt(tr+1.0)
		q = quat.Number{Real: 0.25 / s, Imag: (m[7] - m[5]) * s, Jmag: (m[2] - m[6]) * s, Kmag: (m[3] - m[1]) * s}
	case m[0] > m[4] && m[0] > m[8]:
		s := 2.0 * math.Sqrt(1.0+m[0]-m[4]-m[8])
		q = quat.Number{Real: (m[7] - m[5]) / s, Imag: 0.25 * s, Jmag: (m[1] + m[3]) / s, Kmag: (m[2] + m[6]) / s}
	case m[4] > m[8]:
		s := 2.0 * math.Sqrt(1.0+m[4]-m[0]-m[8])
		q = quat.Number{Real: (m[2] - m[6]) / s, Imag: (m[1] + m[3]) / s, Jmag: 0.25 * s, Kmag: (m[5] + m[7]) / s}
	default:
		s := 2.0 * math.Sqrt(1.0+m[8]-m[0]-m[4])
		q = quat.Number{Real: (m[3] - m[1]) / s, Imag: (m[2] + m[6]) / s, Jmag: (m[5] + m[7]) / s, Kmag: 0.25 * s}
	}
	if norm := quat.Abs(q); norm > 0 {
		q = quat.Scale(1/norm, q)
	}
	return q
}

// NewRotationMatrixFromQuaternion converts a unit quaternion to a rotation
// matrix.
func NewRotationMatrixFromQuaternion(q quat.Number) RotationMatrix {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return RotationMatrix{
		1 - 2*y*y - 2*z*z, 2*x*y - 2*z*w, 2*x*z + 2*y*w,
		2*x*y + 2*z*w, 1 - 2*x*x - 2*z*z, 2*y*z - 2*x*w,
		2*x*z - 2*y*w, 2*y*z + 2*x*w, 1 - 2*x*x - 2*y*y,
	}
}

// Transform is a rigid transform: a rotation followed by a translation.
type Transform struct {
	R RotationMatrix
	T r3.Vector
}

// NewTransform constructs a transform from a rotation and a translation.
func NewTransform(r RotationMatrix, t r3.Vector) Transform {
	return Transform{R: r, T: t}
}

// NewTransformFromTranslation constructs a pure translation.
func NewTransformFromTranslation(t r3.Vector) Transform {
	return Transform{R: IdentityRotation(), T: t}
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{R: IdentityRotation()}
}

// Apply maps a point through the transform.
func (tf Transform) Apply(p r3.Vector) r3.Vector {
	return tf.R.Apply(p).Add(tf.T)
}

// Compose returns the transform equivalent to applying b first, then a.
func Compose(a, b Transform) Transform {
	return Transform{
		R: a.R.Mul(b.R),
		T: a.R.Apply(b.T).Add(a.T),
	}
}

// Inverse returns the inverse transform.
func (tf Transform) Inverse() Transform {
	rt := tf.R.Transpose()
	return Transform{R: rt, T: rt.Apply(tf.T).Mul(-1)}
}

// ApproxEqual reports whether two transforms are equal within a small
// tolerance.
func (tf Transform) ApproxEqual(other Transform) bool {
	for i := range tf.R {
		if !scalar.EqualWithinAbs(tf.R[i], other.R[i], 1e-8) {
			return false
		}
	}
	return scalar.EqualWithinAbs(tf.T.X, other.T.X, 1e-8) &&
		scalar.EqualWithinAbs(tf.T.Y, other.T.Y, 1e-8) &&
		scalar.EqualWithinAbs(tf.T.Z, other.T.Z, 1e-8)
}

// NewRotationMatrixFromAxisAngle builds the rotation of the given angle about
// the given (not necessarily unit) axis. A zero axis yields the identity.
func NewRotationMatrixFromAxisAngle(axis r3.Vector, angle float64) RotationMatrix {
	n := axis.Norm()
	if n < floatEpsilon {
		return IdentityRotation()
	}
	u := axis.Mul(1 / n)
	s, c := math.Sincos(angle / 2)
	return NewRotationMatrixFromQuaternion(quat.Number{
		Real: c,
		Imag: u.X * s,
		Jmag: u.Y * s,
		Kmag: u.Z * s,
	})
}
