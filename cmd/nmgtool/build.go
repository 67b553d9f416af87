package main

import (
	"fmt"
	"io"
	"os"

	"github.com/chazu/nmgkit/pkg/builder"
	"github.com/chazu/nmgkit/pkg/export"
	"github.com/chazu/nmgkit/pkg/kernel"
	"github.com/chazu/nmgkit/pkg/tessellate"
	"github.com/spf13/cobra"
)

// outputs names the files a command writes; "-" is standard output.
type outputs struct {
	json    string
	threeMF string
}

func (o *outputs) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.json, "json", "", "write meshes as JSON to this file (- for stdout)")
	cmd.Flags().StringVar(&o.threeMF, "3mf", "", "write meshes as a 3MF package to this file")
}

func (o *outputs) write(stdout io.Writer, meshes []*kernel.Mesh) error {
	if o.threeMF != "" {
		if err := export.Write3MF(o.threeMF, meshes); err != nil {
			return err
		}
	}
	if o.json == "" {
		return nil
	}
	return writeTo(o.json, stdout, func(w io.Writer) error { return export.WriteJSON(w, meshes) })
}

// writeTo runs write against the named file, or stdout for "-".
func writeTo(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var (
	buildOut   outputs
	buildFuse  bool
	buildWatch bool
)

var buildCmd = &cobra.Command{
	Use:   "build [file]",
	Short: "Build a face description into an NMG solid",
	Long: `Read a face description (v<N> x y z, l [hole], e x y z tokens), build its
loops into one face, extrude it when an extrusion vector is given and repair
the result. A summary is printed; meshes can be written as JSON or 3MF.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildOut.register(buildCmd)
	buildCmd.Flags().BoolVar(&buildFuse, "fuse", false, "fuse vertices closer than the distance tolerance")
	buildCmd.Flags().BoolVar(&buildWatch, "watch", false, "rebuild whenever the file changes")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	opts := cfg.BuilderOptions()
	opts.Fuse = opts.Fuse || buildFuse
	run := func() error {
		return buildFile(cmd.OutOrStdout(), args[0], opts, &buildOut)
	}
	if err := run(); err != nil && !buildWatch {
		return err
	} else if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
	if !buildWatch {
		return nil
	}
	return watchUntilInterrupt(args[0], run)
}

// buildFile converts the face description in path, prints its summary and
// writes the requested outputs.
func buildFile(stdout io.Writer, path string, opts builder.Options, out *outputs) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := builder.Convert(f, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	meshes, err := tessellate.Model(res.Model, opts.Tol)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	// Keep stdout clean for JSON.
	if out.json != "-" {
		printSummary(stdout, path, res)
	}
	return out.write(stdout, meshes)
}

func printSummary(w io.Writer, path string, res *builder.Result) {
	c := res.Model.Counts()
	fmt.Fprintf(w, "%s: %d faces, %d loops, %d edges, %d vertices\n",
		path, c.Faces, c.Loops, c.Edges, c.Vertices)
	if res.Extruded {
		d := res.Extrusion
		fmt.Fprintf(w, "  extruded by (%g, %g, %g)\n", d.X, d.Y, d.Z)
	}
	if res.Fused > 0 {
		fmt.Fprintf(w, "  fused %d vertices\n", res.Fused)
	}
	b := res.Attributes.Box
	fmt.Fprintf(w, "  bounds (%g, %g, %g) - (%g, %g, %g)\n",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}
