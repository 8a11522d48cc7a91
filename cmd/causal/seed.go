package main

import (
	"fmt"

	"causaldiscovery/infrastructure/persistence/fixtures"

	"github.com/spf13/cobra"
)

var seedFiles []string

var seedCmd = &cobra.Command{
	Use:   "seed-fixtures",
	Short: "Copy fixtures into the DynamoDB fixture table",
	Long:  "Write the built-in fixtures, or those of the given YAML files, to the table named by FIXTURE_TABLE.",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringSliceVar(&seedFiles, "file", nil, "Fixture YAML files (default: built-in fixtures)")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	container, err := newContainer(ctx)
	if err != nil {
		return err
	}
	defer container.Shutdown(ctx)

	if container.FixtureTable == nil {
		return fmt.Errorf("no fixture table configured (set FIXTURE_TABLE)")
	}

	store := fixtures.NewBuiltinStore(container.Logger)
	if len(seedFiles) > 0 {
		store = fixtures.NewStore(container.Logger)
		for _, f := range seedFiles {
			if err := store.LoadFile(f); err != nil {
				return err
			}
		}
	}

	for _, fx := range store.Fixtures() {
		if err := container.FixtureTable.Put(ctx, fx.Source, fx.Target, fx.Paths); err != nil {
			return fmt.Errorf("seed %s -> %s: %w", fx.Source, fx.Target, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %s -> %s (%d paths)\n", fx.Source, fx.Target, len(fx.Paths))
	}
	return nil
}
