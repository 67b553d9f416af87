package edit

// Handlers returns the EBM edit modes: choosing the bitmap file, its
// dimensions and the extrusion height.
func (e *EBM) Handlers() map[Mode]Handler {
	return map[Mode]Handler{
		ModeEBMFileName: immediate(ebmFileName),
		ModeEBMFileSize: modeHandler{arity: []int{2}, apply: ebmFileSize},
		ModeEBMHeight:   modeHandler{arity: []int{1}, kind: ModeScale, apply: ebmHeight},
	}
}

func ebmFileName(s *Session) error {
	e := s.Solid.(*EBM)
	name, ok, err := s.askFilename()
	if err != nil || !ok {
		return err
	}
	if err := checkFileSize(name, uint64(e.XDim)*uint64(e.YDim)); err != nil {
		return err
	}
	e.Name = name
	return nil
}

func ebmFileSize(s *Session) error {
	e := s.Solid.(*EBM)
	x, err := dimension("width", s.Params.Para[0])
	if err != nil {
		return err
	}
	y, err := dimension("length", s.Params.Para[1])
	if err != nil {
		return err
	}
	if err := checkFileSize(e.Name, uint64(x)*uint64(y)); err != nil {
		return err
	}
	e.XDim, e.YDim = x, y
	return nil
}

func ebmHeight(s *Session) error {
	e := s.Solid.(*EBM)
	h := s.scaled(e.Tallness)
	if h <= 0 {
		return errorf(ErrNonPositive, "height %g", h*s.Base2Local)
	}
	e.Tallness = h
	return nil
}
