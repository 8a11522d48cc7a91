package main

import (
	"fmt"

	"causaldiscovery/domain/grounding"

	"github.com/spf13/cobra"
)

var groundCmd = &cobra.Command{
	Use:   "ground NAME...",
	Short: "Resolve entity names to database identifiers",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGround,
}

func init() {
	rootCmd.AddCommand(groundCmd)
}

func runGround(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	container, err := newContainer(ctx)
	if err != nil {
		return err
	}
	defer container.Shutdown(ctx)

	results := container.Resolver.GroundMany(ctx, args)

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		return writeJSON(out, results)
	}
	for _, name := range args {
		ent := results[name]
		if ent == nil {
			fmt.Fprintf(out, "%-20s (no grounding)\n", name)
			continue
		}
		fmt.Fprintf(out, "%-20s %-22s %-13s %s\n", name, grounding.FormatForQuery(*ent), ent.Type, ent.Name)
	}
	return nil
}
