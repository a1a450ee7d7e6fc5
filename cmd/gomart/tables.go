package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func tablesCommand(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of a persistent catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := load()
			if err != nil {
				return err
			}
			if s.Catalog.Driver == "memory" {
				return errors.New("the memory catalog does not outlive a build, use sqlite or postgres")
			}

			ctx := cmd.Context()
			catalog, err := openCatalog(ctx, s)
			if err != nil {
				return fmt.Errorf("failed to open catalog: %w", err)
			}
			defer func() { err = errors.Join(err, catalog.Close()) }()

			names, err := catalog.List(ctx)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}

			stats, err := catalog.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d tables, %d rows\n", stats.Tables, stats.TotalRows)
			return nil
		},
	}
}
