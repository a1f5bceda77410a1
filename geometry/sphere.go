package geometry

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/strideworks/collide/spatial"
)

// Sphere is a ball centered on its local origin.
type Sphere struct {
	radius float64

	Occupancy
}

// NewSphere returns a sphere of the given radius.
func NewSphere(radius float64) (*Sphere, error) {
	if radius < 0 {
		return nil, newBadGeometryDimensionsError(&Sphere{})
	}
	return &Sphere{radius: radius, Occupancy: defaultOccupancy()}, nil
}

// Kind implements Geometry.
func (s *Sphere) Kind() Kind { return KindSphere }

// Class implements Geometry.
func (s *Sphere) Class() Class { return ClassGeom }

// Radius returns the sphere's radius.
func (s *Sphere) Radius() float64 { return s.radius }

// LocalAABB implements Geometry.
func (s *Sphere) LocalAABB() spatial.AABB {
	r := r3.Vector{X: s.radius, Y: s.radius, Z: s.radius}
	return spatial.AABB{Min: r.Mul(-1), Max: r}
}

// BoundingSphereRadius implements Geometry.
func (s *Sphere) BoundingSphereRadius() float64 { return s.radius }

// Support returns the farthest point of the sphere in the given direction.
func (s *Sphere) Support(dir r3.Vector) r3.Vector {
	n := dir.Norm()
	if n == 0 {
		return r3.Vector{X: s.radius}
	}
	return dir.Mul(s.radius / n)
}

// String returns a human readable description of the sphere.
func (s *Sphere) String() string {
	return fmt.Sprintf("Type: Sphere | Radius: %.2f", s.radius)
}
