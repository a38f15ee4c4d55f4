package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"suzaku/pkg/engine"
)

var runCmd = &cobra.Command{
	Use:   "run <bytecode-file>",
	Short: "Load and call a persisted bytecode cache file's entry point",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	e := engine.New(setupLogging())
	result, err := e.Run(data)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	okColor := color.New(color.FgGreen)
	okColor.Fprintf(cmd.OutOrStdout(), "=> ")
	fmt.Fprintln(cmd.OutOrStdout(), e.Realm.ToJSString(result).String())
	return nil
}
