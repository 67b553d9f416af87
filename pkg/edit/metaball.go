package edit

import (
	"slices"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// Handlers returns the METABALL edit modes. Point modes act on the control
// point selected with pick, next or prev.
func (mb *Metaball) Handlers() map[Mode]Handler {
	return map[Mode]Handler{
		ModeMetaballThreshold: modeHandler{arity: []int{1}, apply: metaballThreshold},
		ModeMetaballMethod:    modeHandler{arity: []int{1}, apply: metaballMethod},
		ModeMetaballPick: xyHandler{
			modeHandler: modeHandler{arity: []int{3}, apply: metaballPick},
			xy:          metaballPickXY,
		},
		ModeMetaballNext:          immediate(func(s *Session) error { return metaballStep(s, 1) }),
		ModeMetaballPrev:          immediate(func(s *Session) error { return metaballStep(s, -1) }),
		ModeMetaballMove:          modeHandler{arity: []int{3}, kind: ModeTranslate, apply: metaballMove},
		ModeMetaballFieldStrength: modeHandler{arity: []int{1}, apply: metaballFieldStrength},
		ModeMetaballSweat:         modeHandler{arity: []int{1}, apply: metaballSweat},
		ModeMetaballDelete:        immediate(metaballDelete),
		ModeMetaballAdd:           modeHandler{arity: []int{3}, kind: ModeTranslate, apply: metaballAdd},
	}
}

// selected returns the metaball and its selected point index.
func selected(s *Session) (*Metaball, int, error) {
	mb := s.Solid.(*Metaball)
	if s.Selected < 0 || s.Selected >= len(mb.Points) {
		return mb, -1, errorf(ErrNoSelection, "no metaball point selected")
	}
	return mb, s.Selected, nil
}

func metaballThreshold(s *Session) error {
	mb := s.Solid.(*Metaball)
	t := s.Params.Para[0]
	if t <= 0 {
		return errorf(ErrNonPositive, "threshold %g", t)
	}
	mb.Threshold = t
	return nil
}

func metaballMethod(s *Session) error {
	mb := s.Solid.(*Metaball)
	m := s.Params.Para[0]
	if m != float64(int(m)) || int(m) < MethodMetaball || int(m) > MethodBlob {
		return errorf(ErrOutOfRange, "method %g must be 0, 1 or 2", m)
	}
	mb.Method = int(m)
	return nil
}

// nearest returns the index of the point of mb closest to the line through
// origin along unit vector dir.
func nearest(mb *Metaball, origin, dir v3.Vec) int {
	dist := func(p v3.Vec) float64 {
		d := p.Sub(origin)
		return d.Sub(dir.MulScalar(d.Dot(dir))).Length()
	}
	idx := lo.Range(len(mb.Points))
	return lo.MinBy(idx, func(a, b int) bool {
		return dist(mb.Points[a].Coord) < dist(mb.Points[b].Coord)
	})
}

func pick(s *Session, origin, dir v3.Vec, exact bool) error {
	mb := s.Solid.(*Metaball)
	if len(mb.Points) == 0 {
		return errorf(ErrNoSelection, "metaball has no points")
	}
	var i int
	if exact {
		i = lo.MinBy(lo.Range(len(mb.Points)), func(a, b int) bool {
			return mb.Points[a].Coord.Sub(origin).Length() < mb.Points[b].Coord.Sub(origin).Length()
		})
	} else {
		i = nearest(mb, origin, dir)
	}
	s.Selected = i
	p := mb.Points[i].Coord.MulScalar(s.Base2Local)
	s.logf("selected point %d at (%g, %g, %g)", i, p.X, p.Y, p.Z)
	return nil
}

// metaballPick selects the point nearest the typed position.
func metaballPick(s *Session) error {
	return pick(s, s.point(), v3.Vec{}, true)
}

// metaballPickXY selects the point nearest the view ray under the mouse.
func metaballPickXY(s *Session, mouse v3.Vec) error {
	origin, dir := s.ray(mouse)
	return pick(s, origin, dir, false)
}

func metaballStep(s *Session, delta int) error {
	mb, i, err := selected(s)
	if err != nil {
		return err
	}
	j := i + delta
	if j < 0 || j >= len(mb.Points) {
		s.logf("point %d is the last in that direction", i)
		return nil
	}
	s.Selected = j
	return nil
}

func metaballMove(s *Session) error {
	mb, i, err := selected(s)
	if err != nil {
		return err
	}
	mb.Points[i].Coord = s.point()
	return nil
}

func metaballFieldStrength(s *Session) error {
	mb, i, err := selected(s)
	if err != nil {
		return err
	}
	f := s.Params.Para[0]
	if f <= 0 {
		return errorf(ErrNonPositive, "field strength %g", f)
	}
	mb.Points[i].FieldStrength = f
	return nil
}

func metaballSweat(s *Session) error {
	mb, i, err := selected(s)
	if err != nil {
		return err
	}
	w := s.Params.Para[0]
	if w < 0 {
		return errorf(ErrOutOfRange, "sweat %g must not be negative", w)
	}
	mb.Points[i].Sweat = w
	return nil
}

func metaballDelete(s *Session) error {
	mb, i, err := selected(s)
	if err != nil {
		return err
	}
	mb.Points = slices.Delete(mb.Points, i, i+1)
	s.Selected = min(i, len(mb.Points)-1)
	return nil
}

// metaballAdd inserts a point after the selected one, copying its field
// strength and sweat, and selects it.
func metaballAdd(s *Session) error {
	mb := s.Solid.(*Metaball)
	pt := MetaballPoint{Coord: s.point(), FieldStrength: 1, Sweat: 1}
	at := len(mb.Points)
	if s.Selected >= 0 && s.Selected < len(mb.Points) {
		cur := mb.Points[s.Selected]
		pt.FieldStrength, pt.Sweat = cur.FieldStrength, cur.Sweat
		at = s.Selected + 1
	}
	mb.Points = slices.Insert(mb.Points, at, pt)
	s.Selected = at
	return nil
}
