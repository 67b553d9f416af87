package edit

// Handlers returns the TOR edit modes for the two radii.
func (t *Tor) Handlers() map[Mode]Handler {
	return map[Mode]Handler{
		ModeTorR1: modeHandler{arity: []int{1}, kind: ModeScale, apply: torR1},
		ModeTorR2: modeHandler{arity: []int{1}, kind: ModeScale, apply: torR2},
	}
}

func torR1(s *Session) error {
	t := s.Solid.(*Tor)
	r := s.scaled(t.R1)
	if r <= 0 {
		return errorf(ErrNonPositive, "radius %g", r*s.Base2Local)
	}
	if r <= t.R2 {
		return errorf(ErrOutOfRange, "radius 1 %g must exceed radius 2 %g", r*s.Base2Local, t.R2*s.Base2Local)
	}
	t.R1 = r
	return nil
}

func torR2(s *Session) error {
	t := s.Solid.(*Tor)
	r := s.scaled(t.R2)
	if r <= 0 {
		return errorf(ErrNonPositive, "radius %g", r*s.Base2Local)
	}
	if r >= t.R1 {
		return errorf(ErrOutOfRange, "radius 2 %g must be below radius 1 %g", r*s.Base2Local, t.R1*s.Base2Local)
	}
	t.R2 = r
	return nil
}
