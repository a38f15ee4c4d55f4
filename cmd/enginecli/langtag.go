package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"suzaku/pkg/langtag"
)

var langtagCmd = &cobra.Command{
	Use:   "langtag <tag>",
	Short: "Scan a BCP47 language tag and print its parsed components",
	Args:  cobra.ExactArgs(1),
	RunE:  runLangtag,
}

func runLangtag(cmd *cobra.Command, args []string) error {
	tag := langtag.Parse(args[0])
	out := cmd.OutOrStdout()

	label := color.New(color.FgCyan)
	if !tag.WellFormed {
		color.New(color.FgRed).Fprintln(out, "not well-formed")
		return nil
	}

	if tag.Grandfathered != "" {
		label.Fprint(out, "grandfathered: ")
		fmt.Fprintln(out, tag.Grandfathered)
		return nil
	}

	printField(out, label, "language", tag.Language)
	printListField(out, label, "extlang", tag.Extlang)
	printField(out, label, "script", tag.Script)
	printField(out, label, "region", tag.Region)
	printListField(out, label, "variants", tag.Variants)
	if len(tag.Extensions) > 0 {
		singletons := make([]byte, 0, len(tag.Extensions))
		for s := range tag.Extensions {
			singletons = append(singletons, s)
		}
		sort.Slice(singletons, func(i, j int) bool { return singletons[i] < singletons[j] })
		for _, s := range singletons {
			printListField(out, label, fmt.Sprintf("extension[%c]", s), tag.Extensions[s])
		}
	}
	printListField(out, label, "privateuse", tag.PrivateUse)
	return nil
}

func printField(out io.Writer, label *color.Color, name, value string) {
	if value == "" {
		return
	}
	label.Fprintf(out, "%s: ", name)
	fmt.Fprintln(out, value)
}

func printListField(out io.Writer, label *color.Color, name string, values []string) {
	if len(values) == 0 {
		return
	}
	label.Fprintf(out, "%s: ", name)
	fmt.Fprintln(out, values)
}
