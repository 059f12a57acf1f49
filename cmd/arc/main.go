// Package main is the arc compiler's command-line entry point. This file
// wires a single `build` command to internal/pipeline.Build and nothing
// more — no project scaffolding, no upload transport, no subcommand
// richness.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/saint0x/ar-c/internal/arcconfig"
	"github.com/saint0x/ar-c/internal/diagnostics"
	"github.com/saint0x/ar-c/internal/pipeline"
)

// compilerVersion is embedded into every bundle's metadata/build.json.
const compilerVersion = "0.1.0"

var (
	verbose    bool
	configPath string
	jsonlPath  string
)

// exit codes: 0 on success, a distinct non-zero code for IO-level failures
// (an unreadable config file, a missing source root, an unwritable output
// path), and a third generic non-zero code for any other error diagnostic.
const (
	exitOK      = 0
	exitIO      = 2
	exitInvalid = 1
)

var rootCmd = &cobra.Command{
	Use:   "arc",
	Short: "arc compiles a decorator-annotated source project into a .aria bundle",
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile the project at --config into a .aria bundle",
	RunE:  runBuild,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	buildCmd.Flags().StringVarP(&configPath, "config", "c", "arc.toml", "Path to the project configuration file")
	buildCmd.Flags().StringVar(&jsonlPath, "diagnostics-jsonl", "", "Optional path to also write diagnostics as JSON Lines")
	rootCmd.AddCommand(buildCmd)
}

func newLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

func runBuild(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	cfg, err := arcconfig.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		_ = logger.Sync()
		os.Exit(exitIO)
	}

	var packageJSON []byte
	if data, readErr := os.ReadFile("package.json"); readErr == nil {
		packageJSON = data
	}

	result := pipeline.Build(context.Background(), pipeline.BuildInputs{
		Config:          cfg,
		PackageJSON:     packageJSON,
		BuiltAt:         time.Now().UTC().Format(time.RFC3339),
		CompilerVersion: compilerVersion,
	}, logger)

	sink := diagnostics.NewSink()
	for _, d := range result.Diagnostics {
		sink.Add(d)
	}
	fmt.Fprint(os.Stderr, sink.WriteText())

	if jsonlPath != "" {
		data, jsonlErr := sink.WriteJSONL()
		if jsonlErr != nil {
			fmt.Fprintln(os.Stderr, jsonlErr)
		} else if writeErr := os.WriteFile(jsonlPath, data, 0o644); writeErr != nil {
			fmt.Fprintln(os.Stderr, writeErr)
		}
	}

	if !result.Succeeded {
		code := exitInvalid
		for _, d := range result.Diagnostics {
			if d.Severity == diagnostics.SeverityError && d.Code == diagnostics.CodeIO {
				code = exitIO
			}
		}
		_ = logger.Sync()
		os.Exit(code)
	}
	fmt.Fprintf(os.Stdout, "wrote %s\n", result.OutputPath)
	_ = logger.Sync()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitInvalid)
	}
}
