package geometry

import (
	"github.com/strideworks/collide/spatial"
)

// Object places a Geometry in the world and caches its world-space bound.
// Objects are the proxies registered with broad-phase managers.
type Object struct {
	geom Geometry
	tf   spatial.Transform
	aabb spatial.AABB
}

// NewObject pairs a geometry with a world transform.
func NewObject(geom Geometry, tf spatial.Transform) *Object {
	obj := &Object{geom: geom, tf: tf}
	obj.computeAABB()
	return obj
}

// Geometry returns the object's geometry.
func (o *Object) Geometry() Geometry { return o.geom }

// Transform returns the object's current world transform.
func (o *Object) Transform() spatial.Transform { return o.tf }

// SetTransform moves the object and recomputes its cached bound.
func (o *Object) SetTransform(tf spatial.Transform) {
	o.tf = tf
	o.computeAABB()
}

// AABB returns the cached world-space bound, valid as of the last
// SetTransform.
func (o *Object) AABB() spatial.AABB { return o.aabb }

// IsFree reports whether the object's geometry is classified free.
func (o *Object) IsFree() bool { return o.geom.IsFree() }

// IsOccupied reports whether the object's geometry is classified occupied.
func (o *Object) IsOccupied() bool { return o.geom.IsOccupied() }

func (o *Object) computeAABB() {
	o.aabb = o.geom.LocalAABB().Transform(o.tf)
}
