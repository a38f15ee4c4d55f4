// Command enginecli is the embedding CLI per SPEC_FULL.md §10.4: a thin
// cobra front end over pkg/engine for running a persisted bytecode
// cache file, scanning a BCP47 language tag through pkg/langtag, and
// reporting heap/inline-cache diagnostics -- the operator-facing
// counterpart to embedding pkg/engine directly in a host program.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "enginecli",
	Short: "Run and inspect suzaku bytecode cache files",
}

var (
	flagConfig   string
	flagLogLevel string
	flagColor    string
)

func main() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a TOML config file (see Config in config.go)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override the config's log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto", "colorize output (auto|on|off)")

	rootCmd.AddCommand(runCmd, langtagCmd, statsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging loads the config file (if any), applies the --log-level
// override, and sets up color.NoColor per --color, returning the
// logger every subcommand hands to engine.New.
func setupLogging() *slog.Logger {
	cfg, err := loadConfig(flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "enginecli: %v\n", err)
		cfg = defaultConfig()
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	switch flagColor {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
