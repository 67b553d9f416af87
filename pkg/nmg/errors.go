package nmg

import "errors"

var (
	// ErrEmptyLoop is returned when a loop is requested with no vertices.
	ErrEmptyLoop = errors.New("nmg: loop needs at least one vertex")
	// ErrDuplicateVertex is returned when the same vertex appears at two
	// adjacent positions of a loop.
	ErrDuplicateVertex = errors.New("nmg: duplicate adjacent vertex in loop")
	// ErrNoArea is the "no area" sentinel of the plane computation.
	ErrNoArea = errors.New("nmg: loop has no area")
	// ErrNoGeometry is returned when a computation meets a vertex or face
	// without geometry.
	ErrNoGeometry = errors.New("nmg: missing geometry")
	// ErrParallelExtrude is returned when the extrusion vector lies in the
	// plane of the face.
	ErrParallelExtrude = errors.New("nmg: extrusion vector lies in face plane")
)
