package nmg

// Tol holds the distance and angle tolerances of geometric computations.
type Tol struct {
	Dist       float64 // two points closer than this are the same point
	DistSq     float64 // Dist squared
	Perp       float64 // |cos| below this is perpendicular
	Para       float64 // |cos| above this is parallel
	ExtrudeMin float64 // extrusion vectors no longer than this are ignored
}

// DefaultTol returns the tolerances used by the conversion pipeline.
func DefaultTol() Tol {
	return NewTol(0.01, 0.001)
}

// NewTol builds a Tol from a distance and a perpendicularity tolerance.
func NewTol(dist, perp float64) Tol {
	return Tol{
		Dist:       dist,
		DistSq:     dist * dist,
		Perp:       perp,
		Para:       1 - perp,
		ExtrudeMin: 1e-3,
	}
}
