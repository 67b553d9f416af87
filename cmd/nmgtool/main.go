// Command nmgtool builds faces into NMG solids, runs nmgkit scripts and edits
// primitives from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/chazu/nmgkit/pkg/config"
	"github.com/spf13/cobra"
)

// cfg holds the settings loaded before any subcommand runs.
var cfg = config.Default()

var configPath string

var rootCmd = &cobra.Command{
	Use:   "nmgtool",
	Short: "Build, repair and edit non-manifold geometry",
	Long: `nmgtool converts face descriptions into NMG solids, runs nmgkit Lisp
scripts and edits procedural primitives (tor, ebm, vol, metaball).
Results are written as 3MF or JSON.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			return nil
		}
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML settings file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
