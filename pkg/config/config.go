// Package config loads the nmgkit settings file.
//
// A settings file is TOML:
//
//	units = "mm"
//	mesh_cells = 64
//	fuse = false
//
//	[tolerance]
//	dist = 0.01
//	perp = 0.001
//	extrude_min = 0.001
//
// Keys left out keep their default values.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chazu/nmgkit/pkg/builder"
	"github.com/chazu/nmgkit/pkg/edit"
	"github.com/chazu/nmgkit/pkg/nmg"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid setting")

// Tolerance holds the geometric tolerances.
type Tolerance struct {
	Dist       float64 `toml:"dist"`
	Perp       float64 `toml:"perp"`
	ExtrudeMin float64 `toml:"extrude_min"`
}

// Config is the full settings file.
type Config struct {
	Units     string    `toml:"units"`      // local editing units
	MeshCells int       `toml:"mesh_cells"` // marching cubes resolution of primitive meshes
	Fuse      bool      `toml:"fuse"`       // fuse coincident vertices of built faces
	Tolerance Tolerance `toml:"tolerance"`
}

// Default returns the built-in settings.
func Default() Config {
	t := nmg.DefaultTol()
	return Config{
		Units:     "mm",
		MeshCells: 64,
		Tolerance: Tolerance{Dist: t.Dist, Perp: t.Perp, ExtrudeMin: t.ExtrudeMin},
	}
}

// Load reads the file at path over the defaults.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads settings from r over the defaults. Unknown keys are errors.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("config: %s", strict.String())
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every setting.
func (c Config) Validate() error {
	if _, ok := edit.ConversionFactor(c.Units); !ok {
		return fmt.Errorf("%w: units %q", ErrInvalid, c.Units)
	}
	if c.MeshCells <= 0 {
		return fmt.Errorf("%w: mesh_cells %d must be positive", ErrInvalid, c.MeshCells)
	}
	t := c.Tolerance
	if t.Dist <= 0 {
		return fmt.Errorf("%w: tolerance.dist %g must be positive", ErrInvalid, t.Dist)
	}
	if t.Perp <= 0 || t.Perp >= 1 {
		return fmt.Errorf("%w: tolerance.perp %g must lie in (0, 1)", ErrInvalid, t.Perp)
	}
	if t.ExtrudeMin < 0 {
		return fmt.Errorf("%w: tolerance.extrude_min %g is negative", ErrInvalid, t.ExtrudeMin)
	}
	return nil
}

// Tol returns the tolerances as used by the nmg package.
func (c Config) Tol() nmg.Tol {
	t := nmg.NewTol(c.Tolerance.Dist, c.Tolerance.Perp)
	t.ExtrudeMin = c.Tolerance.ExtrudeMin
	return t
}

// BuilderOptions returns the options for converting faces.
func (c Config) BuilderOptions() builder.Options {
	return builder.Options{Tol: c.Tol(), Fuse: c.Fuse}
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
