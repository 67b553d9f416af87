package main

import (
	"fmt"
	"os"

	"github.com/chazu/nmgkit/pkg/builder"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Display the topology of a built face description",
	Long:  "Build a face description and show its entity counts, face planes, bounds and invariant check result.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := builder.Convert(f, cfg.BuilderOptions())
	if res == nil || res.Model == nil {
		return err
	}
	w := cmd.OutOrStdout()
	m := res.Model

	fmt.Fprintln(w, "NMG Model Information")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintf(w, "File: %s\n", filename)
	if err != nil {
		fmt.Fprintf(w, "Build stopped: %v\n", err)
	}
	fmt.Fprintln(w)

	c := m.Counts()
	fmt.Fprintln(w, "Entities (records / uses):")
	fmt.Fprintf(w, "  Regions:  %d\n", c.Regions)
	fmt.Fprintf(w, "  Shells:   %d\n", c.Shells)
	fmt.Fprintf(w, "  Faces:    %d / %d\n", c.Faces, c.FaceUses)
	fmt.Fprintf(w, "  Loops:    %d / %d\n", c.Loops, c.LoopUses)
	fmt.Fprintf(w, "  Edges:    %d / %d\n", c.Edges, c.EdgeUses)
	fmt.Fprintf(w, "  Vertices: %d / %d\n\n", c.Vertices, c.VertexUses)

	fmt.Fprintln(w, "Faces:")
	for _, fu := range m.FaceUses(res.Shell) {
		p, ok := m.FaceUsePlane(fu)
		if !ok {
			fmt.Fprintf(w, "  faceuse %d: no plane\n", fu)
			continue
		}
		fmt.Fprintf(w, "  faceuse %d: %d loops, normal (%.4f, %.4f, %.4f), d %.4f\n",
			fu, len(m.LoopUses(fu)), p.N.X, p.N.Y, p.N.Z, p.D)
	}
	fmt.Fprintln(w)

	if a, ok := m.RegionAttributes(res.Region); ok {
		b := a.Box
		fmt.Fprintln(w, "Bounding Box:")
		fmt.Fprintf(w, "  Min: (%g, %g, %g)\n", b.Min.X, b.Min.Y, b.Min.Z)
		fmt.Fprintf(w, "  Max: (%g, %g, %g)\n\n", b.Max.X, b.Max.Y, b.Max.Z)
	}

	if cerr := m.Check(); cerr != nil {
		fmt.Fprintf(w, "Check: FAILED: %v\n", cerr)
	} else {
		fmt.Fprintln(w, "Check: ok")
	}
	return err
}
