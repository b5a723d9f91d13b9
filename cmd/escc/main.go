// Command escc compiles endpoint-state policy source files: it runs the
// front-end pipeline (scan, parse, symbol discovery, reference
// validation, semantic analysis, resolution) and reports diagnostics or
// a resolved plan.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"esplang.dev/compiler/internal/compile"
	"esplang.dev/compiler/internal/config"
	"esplang.dev/compiler/internal/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "escc <file>",
		Short: "Compile an endpoint-state policy source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(args[0], configPath, verbose)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML runtime-preferences file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	return cmd
}

func runCompile(path, configPath string, verbose bool) error {
	prefs, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	res := compile.Compile(path, src, prefs, log)
	if len(res.Diagnostics) > 0 {
		res.Diagnostics.Sort()
		for _, d := range res.Diagnostics {
			fmt.Fprintln(os.Stderr, d.Error())
		}
	}
	if res.Diagnostics.HasErrors() {
		return fmt.Errorf("compilation failed with %d error(s)", res.Diagnostics.Count(errors.Error))
	}

	fmt.Printf("job %s (digest %s): %d symbol(s) resolved in %s\n",
		res.JobID, res.Digest, len(res.Plan.Order), res.Duration)
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
