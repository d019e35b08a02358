package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/batchlabel/internal/lookup"
)

var lookupResolve bool

var lookupCmd = &cobra.Command{
	Use:   "lookup [code]",
	Short: "Look up the mix name for a WIP code, or list known codes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLookup,
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupResolve, "resolve", false, "Ask the name resolver when the code is unknown")
}

func runLookup(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	table := cfg.Table()
	if len(args) == 0 {
		for _, e := range table.Entries() {
			fmt.Fprintf(out, "%-12s %s\n", e.Code, e.Name)
		}
		return nil
	}

	code := lookup.Normalize(args[0])
	if name, ok := table.Lookup(code); ok {
		fmt.Fprintf(out, "%s\t%s\n", code, name)
		return nil
	}
	if !lookupResolve {
		return fmt.Errorf("%s not found", code)
	}
	name := newResolver(commandContext(cmd)).Resolve(commandContext(cmd), code)
	fmt.Fprintf(out, "%s\t%s\t(resolved)\n", code, name)
	return nil
}
