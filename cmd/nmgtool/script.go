package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/chazu/nmgkit/pkg/export"
	"github.com/spf13/cobra"
)

var (
	scriptJSON  string
	script3MF   string
	scriptWatch bool
)

var scriptCmd = &cobra.Command{
	Use:   "script [file]",
	Short: "Run an nmgkit Lisp script",
	Long: `Evaluate a Lisp script that builds faces with (face ...) and primitives
with (defsolid ...), tessellate everything it defines and write the meshes.`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	scriptCmd.Flags().StringVar(&scriptJSON, "json", "", "write the viewer JSON to this file (- for stdout)")
	scriptCmd.Flags().StringVar(&script3MF, "3mf", "", "write meshes as a 3MF package to this file")
	scriptCmd.Flags().BoolVar(&scriptWatch, "watch", false, "rerun whenever the file changes")
	rootCmd.AddCommand(scriptCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	app := NewApp(cfg)
	run := func() error {
		return scriptFile(cmd.OutOrStdout(), app, args[0])
	}
	if err := run(); err != nil && !scriptWatch {
		return err
	} else if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
	if !scriptWatch {
		return nil
	}
	return watchUntilInterrupt(args[0], run)
}

// scriptFile evaluates the script at path and writes its outputs.
func scriptFile(stdout io.Writer, app *App, path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	result := app.Evaluate(string(source))
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			if e.Line > 0 {
				fmt.Fprintf(stdout, "%s:%d: %s\n", path, e.Line, e.Message)
			} else {
				fmt.Fprintf(stdout, "%s: %s\n", path, e.Message)
			}
		}
		return fmt.Errorf("%s: %d errors", path, len(result.Errors))
	}

	if scriptJSON != "-" {
		for _, l := range result.Log {
			fmt.Fprintln(stdout, l)
		}
		for _, m := range result.meshes {
			fmt.Fprintf(stdout, "%s: %d triangles\n", m.Name, m.TriangleCount())
		}
	}
	if script3MF != "" {
		if err := export.Write3MF(script3MF, result.meshes); err != nil {
			return err
		}
	}
	if scriptJSON == "" {
		return nil
	}
	return writeTo(scriptJSON, stdout, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	})
}
