package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"suzaku/pkg/engine"
)

var statsCmd = &cobra.Command{
	Use:   "stats <bytecode-file>",
	Short: "Run a cache file and report heap and inline-cache diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	cfg, err := loadConfig(flagConfig)
	if err != nil {
		cfg = defaultConfig()
	}

	e := engine.New(setupLogging())
	if _, err := e.Run(data); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	e.Collect()

	out := cmd.OutOrStdout()
	header := color.New(color.FgYellow, color.Bold)

	if cfg.Stats.ShowHeap {
		header.Fprintln(out, "heap")
		st := e.Realm.HeapStats()
		fmt.Fprintf(out, "  collections: %s\n", humanize.Comma(int64(st.Collections)))
		for kind, n := range st.LiveByKind {
			fmt.Fprintf(out, "  %-16s %s\n", kind, humanize.Comma(int64(n)))
		}
	}

	if cfg.Stats.ShowCache {
		header.Fprintln(out, "inline caches")
		var hits, misses uint64
		for i, site := range e.CacheSites() {
			hits += uint64(site.Hits)
			misses += uint64(site.Misses)
			fmt.Fprintf(out, "  site %-4d hits=%s misses=%s\n", i, humanize.Comma(int64(site.Hits)), humanize.Comma(int64(site.Misses)))
		}
		total := hits + misses
		rate := 0.0
		if total > 0 {
			rate = 100 * float64(hits) / float64(total)
		}
		fmt.Fprintf(out, "  overall hit rate: %.1f%% (%s/%s)\n", rate, humanize.Comma(int64(hits)), humanize.Comma(int64(total)))
	}
	return nil
}
