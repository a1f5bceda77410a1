package geometry

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/strideworks/collide/spatial"
)

// Box is a rectangular prism centered on its local origin. Voxel
// cross-queries also use boxes as transient stand-ins for octree cells, with
// the occupancy of the cell attached.
type Box struct {
	halfSize r3.Vector

	Occupancy
}

// NewBox returns a box with the given full side lengths. Zero dimensions are
// allowed for degenerate bounds; negative dimensions are not.
func NewBox(dims r3.Vector) (*Box, error) {
	if dims.X < 0 || dims.Y < 0 || dims.Z < 0 {
		return nil, newBadGeometryDimensionsError(&Box{})
	}
	return &Box{halfSize: dims.Mul(0.5), Occupancy: defaultOccupancy()}, nil
}

// NewBoxFromAABB returns a box with the side lengths of the given bound,
// along with the world transform placing it at the bound's center under tf.
// This mirrors how octree cells are materialized during cross-queries.
func NewBoxFromAABB(bv spatial.AABB, tf spatial.Transform) (*Box, spatial.Transform) {
	box := &Box{halfSize: bv.Extents().Mul(0.5), Occupancy: defaultOccupancy()}
	boxTF := spatial.Compose(tf, spatial.NewTransformFromTranslation(bv.Center()))
	return box, boxTF
}

// Kind implements Geometry.
func (b *Box) Kind() Kind { return KindBox }

// Class implements Geometry.
func (b *Box) Class() Class { return ClassGeom }

// HalfSize returns the box's half extents.
func (b *Box) HalfSize() r3.Vector { return b.halfSize }

// LocalAABB implements Geometry.
func (b *Box) LocalAABB() spatial.AABB {
	return spatial.AABB{Min: b.halfSize.Mul(-1), Max: b.halfSize}
}

// BoundingSphereRadius implements Geometry.
func (b *Box) BoundingSphereRadius() float64 { return b.halfSize.Norm() }

// Support returns the farthest vertex of the box in the given direction.
func (b *Box) Support(dir r3.Vector) r3.Vector {
	v := b.halfSize
	if dir.X < 0 {
		v.X = -v.X
	}
	if dir.Y < 0 {
		v.Y = -v.Y
	}
	if dir.Z < 0 {
		v.Z = -v.Z
	}
	return v
}

// String returns a human readable description of the box.
func (b *Box) String() string {
	return fmt.Sprintf("Type: Box | Dims: X:%.2f, Y:%.2f, Z:%.2f",
		2*b.halfSize.X, 2*b.halfSize.Y, 2*b.halfSize.Z)
}
