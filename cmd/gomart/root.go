package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/w0rng/gomart"
	"github.com/w0rng/gomart/catalog/postgres"
	"github.com/w0rng/gomart/catalog/sqlite"
	"github.com/w0rng/gomart/internal/config"
)

// RootCommand creates and returns the root command
func RootCommand() *cobra.Command {
	v := viper.New()
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "gomart",
		Short:         "Build the reorder prediction feature mart",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default ./gomart.yaml)")
	rootCmd.PersistentFlags().String("catalog-driver", "", "Catalog backend: memory, sqlite, postgres")
	rootCmd.PersistentFlags().String("catalog-dsn", "", "SQLite file or PostgreSQL connection string")
	rootCmd.PersistentFlags().String("log-mode", "", "Log mode: dev or prod")

	bind(v, rootCmd.PersistentFlags().Lookup("catalog-driver"), "catalog.driver")
	bind(v, rootCmd.PersistentFlags().Lookup("catalog-dsn"), "catalog.dsn")
	bind(v, rootCmd.PersistentFlags().Lookup("log-mode"), "log.mode")

	load := func() (*config.Settings, error) { return config.Load(v, configFile) }

	rootCmd.AddCommand(
		buildCommand(v, load),
		tablesCommand(load),
	)
	return rootCmd
}

type loadFunc func() (*config.Settings, error)

func bind(v *viper.Viper, flag *pflag.Flag, key string) {
	// Errors only on a nil flag, which would be a programming error here.
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind %s: %v", key, err))
	}
}

func openCatalog(ctx context.Context, s *config.Settings) (gomart.Catalog, error) {
	switch s.Catalog.Driver {
	case "sqlite":
		c, err := sqlite.Open(ctx, sqlite.Config{Path: s.Catalog.DSN})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "postgres":
		c, err := postgres.Open(ctx, s.Catalog.DSN)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return gomart.NewMemoryCatalog(), nil
}
