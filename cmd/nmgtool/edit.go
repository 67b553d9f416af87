package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/chazu/nmgkit/pkg/edit"
	"github.com/chazu/nmgkit/pkg/export"
	"github.com/chazu/nmgkit/pkg/kernel"
	"github.com/chazu/nmgkit/pkg/kernel/sdfx"
	"github.com/chazu/nmgkit/pkg/tessellate"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
)

// editFlags are the starting parameters of the edited primitive.
type editFlags struct {
	r1, r2     float64
	file       string
	xdim, ydim uint32
	zdim       uint32
	height     float64
	lo, hi     uint32
	threshold  float64
	method     int
	units      string
}

var editOpts editFlags

var editCmd = &cobra.Command{
	Use:   "edit <tor|ebm|vol|metaball>",
	Short: "Edit a primitive interactively",
	Long: `Create a primitive from the flags and edit it with commands read from
standard input, one per line:

  mode NAME        select an edit mode (see "modes")
  p A [B [C]]      apply the mode with typed parameters
  xy X Y           apply the mode with a mouse position in [-1, 1]
  file NAME        answer the next file chooser prompt with NAME
  units NAME       set the local units
  accept | reject  keep or undo the edits since the last accept
  show | modes     print the primitive or the available modes
  save PATH        write the primitive as a 3MF mesh`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"tor", "ebm", "vol", "metaball"},
	RunE:      runEdit,
}

func init() {
	f := editCmd.Flags()
	f.Float64Var(&editOpts.r1, "r1", 10, "tor: major radius")
	f.Float64Var(&editOpts.r2, "r2", 2, "tor: tube radius")
	f.StringVar(&editOpts.file, "file", "", "ebm, vol: data file")
	f.Uint32Var(&editOpts.xdim, "xdim", 1, "ebm, vol: cells along X")
	f.Uint32Var(&editOpts.ydim, "ydim", 1, "ebm, vol: cells along Y")
	f.Uint32Var(&editOpts.zdim, "zdim", 1, "vol: cells along Z")
	f.Float64Var(&editOpts.height, "height", 1, "ebm: extrusion height")
	f.Uint32Var(&editOpts.lo, "lo", 1, "vol: lowest solid value")
	f.Uint32Var(&editOpts.hi, "hi", edit.MaxThreshold, "vol: highest solid value")
	f.Float64Var(&editOpts.threshold, "threshold", 1, "metaball: threshold")
	f.IntVar(&editOpts.method, "method", edit.MethodMetaball, "metaball: rendering method")
	f.StringVar(&editOpts.units, "units", "", "local units (default from config)")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	solid, err := newPrimitive(args[0], editOpts)
	if err != nil {
		return err
	}
	units := editOpts.units
	if units == "" {
		units = cfg.Units
	}
	sh, err := newEditShell(solid, cmd.OutOrStdout(), sdfx.NewWithCells(cfg.MeshCells))
	if err != nil {
		return err
	}
	if err := sh.sess.SetUnits(units); err != nil {
		return err
	}
	return sh.run(cmd.InOrStdin())
}

// newPrimitive builds the named primitive from flags.
func newPrimitive(kind string, o editFlags) (edit.Solid, error) {
	var s edit.Solid
	switch kind {
	case "tor":
		s = edit.NewTor(o.r1, o.r2)
	case "ebm":
		s = edit.NewEBM(o.file, o.xdim, o.ydim, o.height)
	case "vol":
		s = edit.NewVol(o.file, o.xdim, o.ydim, o.zdim, o.lo, o.hi)
	case "metaball":
		s = edit.NewMetaball(o.method, o.threshold, edit.MetaballPoint{FieldStrength: 1})
	default:
		return nil, fmt.Errorf("unknown primitive %q, expected tor, ebm, vol or metaball", kind)
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return s, nil
}

// editShell runs text commands against one edit session.
type editShell struct {
	sess     *edit.Session
	out      io.Writer
	kernel   kernel.Kernel
	filename string
	parser   *shellwords.Parser
}

func newEditShell(solid edit.Solid, out io.Writer, k kernel.Kernel) (*editShell, error) {
	sh := &editShell{out: out, kernel: k, parser: shellwords.NewParser()}
	sess, err := edit.NewSession(solid, edit.Callbacks{
		GetFilename: func() string {
			name := sh.filename
			sh.filename = ""
			return name
		},
		Log:     func(msg string) { fmt.Fprintln(out, msg) },
		Refresh: func(mode edit.Mode) { fmt.Fprintf(out, "mode %s\n", mode) },
	})
	if err != nil {
		return nil, err
	}
	sh.sess = sess
	return sh, nil
}

// errQuit ends the command loop.
var errQuit = errors.New("quit")

// run executes commands from r until end of input or quit. Command errors are
// reported and the loop continues.
func (sh *editShell) run(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		err := sh.exec(sc.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		var ee *edit.Error
		switch {
		case err == nil, errors.As(err, &ee):
			// Edit errors already reached the Log callback.
		default:
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
	}
	return sc.Err()
}

// exec runs one command line.
func (sh *editShell) exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	words, err := sh.parser.Parse(line)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return nil
	}
	cmd, args := words[0], words[1:]
	switch cmd {
	case "mode":
		if len(args) != 1 {
			return errors.New("usage: mode NAME")
		}
		m, err := edit.ParseMode(args[0])
		if err != nil {
			return err
		}
		return sh.sess.SetEditMode(m)
	case "p":
		vals, err := parseFloats(args)
		if err != nil {
			return err
		}
		sh.sess.SetParams(vals...)
		return sh.sess.Edit()
	case "xy":
		vals, err := parseFloats(args)
		if err != nil {
			return err
		}
		if len(vals) != 2 {
			return errors.New("usage: xy X Y")
		}
		return sh.sess.EditXY(v3.Vec{X: vals[0], Y: vals[1]})
	case "file":
		if len(args) != 1 {
			return errors.New("usage: file NAME")
		}
		sh.filename = args[0]
		return nil
	case "units":
		if len(args) != 1 {
			return errors.New("usage: units NAME")
		}
		return sh.sess.SetUnits(args[0])
	case "accept":
		return sh.sess.Accept()
	case "reject":
		return sh.sess.Reject()
	case "show":
		fmt.Fprintln(sh.out, describe(sh.sess))
		return nil
	case "modes":
		var names []string
		for _, m := range sh.sess.Modes() {
			names = append(names, m.String())
		}
		slices.Sort(names)
		fmt.Fprintln(sh.out, strings.Join(names, " "))
		return nil
	case "save":
		if len(args) != 1 {
			return errors.New("usage: save PATH")
		}
		m, err := tessellate.Solid(sh.kernel, sh.sess.Solid)
		if err != nil {
			return err
		}
		if err := export.Write3MF(args[0], []*kernel.Mesh{m}); err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "wrote %s (%d triangles)\n", args[0], m.TriangleCount())
		return nil
	case "quit", "exit":
		return errQuit
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

// describe formats the edited solid in local units.
func describe(s *edit.Session) string {
	k := s.Base2Local
	var b strings.Builder
	switch x := s.Solid.(type) {
	case *edit.Tor:
		fmt.Fprintf(&b, "tor V (%g, %g, %g) H (%.4g, %.4g, %.4g) r1 %g r2 %g",
			x.V.X*k, x.V.Y*k, x.V.Z*k, x.H.X, x.H.Y, x.H.Z, x.R1*k, x.R2*k)
	case *edit.EBM:
		fmt.Fprintf(&b, "ebm %q %dx%d height %g", x.Name, x.XDim, x.YDim, x.Tallness*k)
	case *edit.Vol:
		fmt.Fprintf(&b, "vol %q %dx%dx%d cells (%g, %g, %g) thresholds %d..%d",
			x.Name, x.XDim, x.YDim, x.ZDim,
			x.CellSize.X*k, x.CellSize.Y*k, x.CellSize.Z*k, x.Lo, x.Hi)
	case *edit.Metaball:
		fmt.Fprintf(&b, "metaball method %d threshold %g, %d points", x.Method, x.Threshold, len(x.Points))
		for i, p := range x.Points {
			mark := " "
			if i == s.Selected {
				mark = "*"
			}
			fmt.Fprintf(&b, "\n %s%d (%g, %g, %g) strength %g sweat %g",
				mark, i, p.Coord.X*k, p.Coord.Y*k, p.Coord.Z*k, p.FieldStrength, p.Sweat)
		}
	default:
		fmt.Fprintf(&b, "%s", s.Solid.Type())
	}
	return b.String()
}
