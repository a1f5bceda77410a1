package geometry

import (
	"github.com/pkg/errors"
)

func newBadGeometryDimensionsError(g Geometry) error {
	return errors.Errorf("%s dimensions can not be negative", g.Kind())
}

func newBadMeshKindError(k Kind) error {
	return errors.Errorf("%s is not a mesh bounding-volume flavor", k)
}

func newMeshTopologyError(tri, vertex int) error {
	return errors.Errorf("triangle %d references vertex %d, which does not exist", tri, vertex)
}

func newModelStateError(op string, state modelState) error {
	return errors.Errorf("cannot %s a mesh model in state %q", op, state)
}

func newVertexCountMismatchError(got, want int) error {
	return errors.Errorf("replacement vertex set has %d vertices, model has %d", got, want)
}
