package edit

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Handlers returns the VOL edit modes.
func (v *Vol) Handlers() map[Mode]Handler {
	return map[Mode]Handler{
		ModeVolFileName: immediate(volFileName),
		ModeVolFileSize: modeHandler{arity: []int{3}, apply: volFileSize},
		ModeVolCellSize: modeHandler{arity: []int{3}, apply: volCellSize},
		ModeVolThreshLo: modeHandler{arity: []int{1}, apply: volThreshLo},
		ModeVolThreshHi: modeHandler{arity: []int{1}, apply: volThreshHi},
	}
}

func volFileName(s *Session) error {
	v := s.Solid.(*Vol)
	name, ok, err := s.askFilename()
	if err != nil || !ok {
		return err
	}
	if err := checkFileSize(name, uint64(v.XDim)*uint64(v.YDim)*uint64(v.ZDim)); err != nil {
		return err
	}
	v.Name = name
	return nil
}

func volFileSize(s *Session) error {
	v := s.Solid.(*Vol)
	var dims [3]uint32
	for i, what := range []string{"x size", "y size", "z size"} {
		d, err := dimension(what, s.Params.Para[i])
		if err != nil {
			return err
		}
		dims[i] = d
	}
	if err := checkFileSize(v.Name, uint64(dims[0])*uint64(dims[1])*uint64(dims[2])); err != nil {
		return err
	}
	v.XDim, v.YDim, v.ZDim = dims[0], dims[1], dims[2]
	return nil
}

func volCellSize(s *Session) error {
	v := s.Solid.(*Vol)
	c := v3.Vec{X: s.length(0), Y: s.length(1), Z: s.length(2)}
	if c.X <= 0 || c.Y <= 0 || c.Z <= 0 {
		return errorf(ErrNonPositive, "cell size %g %g %g", s.Params.Para[0], s.Params.Para[1], s.Params.Para[2])
	}
	v.CellSize = c
	return nil
}

func threshold(v float64) (uint32, error) {
	if v < 0 || v > MaxThreshold || v != float64(uint32(v)) {
		return 0, errorf(ErrOutOfRange, "threshold %g must be a whole number in [0, %d]", v, MaxThreshold)
	}
	return uint32(v), nil
}

func volThreshLo(s *Session) error {
	v := s.Solid.(*Vol)
	lo, err := threshold(s.Params.Para[0])
	if err != nil {
		return err
	}
	if lo > v.Hi {
		return errorf(ErrOutOfRange, "low threshold %d above high threshold %d", lo, v.Hi)
	}
	v.Lo = lo
	return nil
}

func volThreshHi(s *Session) error {
	v := s.Solid.(*Vol)
	hi, err := threshold(s.Params.Para[0])
	if err != nil {
		return err
	}
	if hi < v.Lo {
		return errorf(ErrOutOfRange, "high threshold %d below low threshold %d", hi, v.Lo)
	}
	v.Hi = hi
	return nil
}
