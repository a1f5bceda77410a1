// Package geometry defines the collision geometries understood by the engine:
// convex primitives, triangle-mesh models with a bounding-volume hierarchy,
// and the objects that pair a geometry with a world transform.
package geometry

import (
	"github.com/golang/geo/r3"

	"github.com/strideworks/collide/spatial"
)

// Kind tags the concrete geometry type. Mesh models carry one tag per
// bounding-volume flavor; continuous-collision dispatch requires the tags of
// a pair to match.
type Kind uint8

// The supported geometry kinds.
const (
	KindUnknown = Kind(iota)
	KindBox
	KindSphere
	KindMeshAABB
	KindMeshOBB
	KindMeshRSS
	KindMeshKIOS
	KindMeshOBBRSS
	KindMeshKDOP16
	KindMeshKDOP18
	KindMeshKDOP24
	KindOctree

	// NumKinds is the size of dispatch tables indexed by Kind.
	NumKinds = int(KindOctree) + 1
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindSphere:
		return "sphere"
	case KindMeshAABB:
		return "mesh(aabb)"
	case KindMeshOBB:
		return "mesh(obb)"
	case KindMeshRSS:
		return "mesh(rss)"
	case KindMeshKIOS:
		return "mesh(kios)"
	case KindMeshOBBRSS:
		return "mesh(obbrss)"
	case KindMeshKDOP16:
		return "mesh(kdop16)"
	case KindMeshKDOP18:
		return "mesh(kdop18)"
	case KindMeshKDOP24:
		return "mesh(kdop24)"
	case KindOctree:
		return "octree"
	case KindUnknown:
		fallthrough
	default:
		return "unknown"
	}
}

// IsMesh reports whether the kind is one of the mesh-model flavors.
func (k Kind) IsMesh() bool {
	return k >= KindMeshAABB && k <= KindMeshKDOP24
}

// Class is the coarse object class of a geometry.
type Class uint8

// The three object classes.
const (
	ClassGeom = Class(iota)
	ClassBVH
	ClassOctree
)

// Geometry is a shape that can participate in collision checking. All
// coordinates reported by a Geometry are in its own local frame; an Object
// places a Geometry in the world.
type Geometry interface {
	Kind() Kind
	Class() Class

	// LocalAABB returns the tightest axis-aligned bound of the geometry in
	// its local frame.
	LocalAABB() spatial.AABB

	// BoundingSphereRadius returns the radius of a sphere centered at the
	// local origin that encloses the geometry, used for motion bounds.
	BoundingSphereRadius() float64

	// IsFree and IsOccupied report the occupancy classification of the
	// geometry, following its cost density and thresholds.
	IsFree() bool
	IsOccupied() bool
}

// SupportMapped is implemented by convex geometries that expose a support
// function, the farthest point of the geometry in a given local-frame
// direction. The narrow-phase solver requires it.
type SupportMapped interface {
	Support(dir r3.Vector) r3.Vector
}

// Occupancy carries the cost density and classification thresholds of a
// geometry. Voxel cross-queries annotate transient geometries with the
// occupancy of the originating octree cell.
type Occupancy struct {
	// CostDensity is the occupancy probability or collision cost of the
	// geometry.
	CostDensity float64
	// OccupiedThreshold is the density at or above which the geometry
	// counts as occupied.
	OccupiedThreshold float64
	// FreeThreshold is the density at or below which the geometry counts
	// as free.
	FreeThreshold float64
}

func defaultOccupancy() Occupancy {
	return Occupancy{CostDensity: 1, OccupiedThreshold: 1, FreeThreshold: 0}
}

// IsOccupied reports whether the density meets the occupied threshold.
func (o Occupancy) IsOccupied() bool { return o.CostDensity >= o.OccupiedThreshold }

// IsFree reports whether the density is at or below the free threshold.
func (o Occupancy) IsFree() bool { return o.CostDensity <= o.FreeThreshold }
