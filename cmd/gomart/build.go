package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/w0rng/gomart"
	"github.com/w0rng/gomart/export"
	"github.com/w0rng/gomart/internal/config"
	"github.com/w0rng/gomart/internal/logger"
	"github.com/w0rng/gomart/loader"
)

func buildCommand(v *viper.Viper, load loadFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the labeled mart from raw order logs",
		Long: `Load the order logs from the data directory, compute product, user and
user-product features, merge and label them, and write the labeled mart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := load()
			if err != nil {
				return err
			}
			return runBuild(cmd, settings)
		},
	}

	cmd.Flags().StringP("data", "d", "", "Directory holding the input files")
	cmd.Flags().StringP("output", "o", "", "Path of the labeled mart CSV")
	cmd.Flags().String("compression", "", "Output compression: none, snappy")
	cmd.Flags().String("report", "", "Write the run report as YAML to this path")
	cmd.Flags().String("metrics-textfile", "", "Write Prometheus metrics to this textfile")

	bind(v, cmd.Flags().Lookup("data"), "data.dir")
	bind(v, cmd.Flags().Lookup("output"), "output.path")
	bind(v, cmd.Flags().Lookup("compression"), "output.compression")
	bind(v, cmd.Flags().Lookup("report"), "report.path")
	bind(v, cmd.Flags().Lookup("metrics-textfile"), "metrics.textfile")

	return cmd
}

func runBuild(cmd *cobra.Command, s *config.Settings) (err error) {
	ctx := cmd.Context()

	log, err := logger.New(s.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	compression, err := export.ParseCompression(s.Output.Compression)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics, err := gomart.NewMetrics(registry)
	if err != nil {
		return err
	}

	catalog, err := openCatalog(ctx, s)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	p := gomart.New(gomart.Config{
		Catalog: catalog,
		Logger:  log.Zap(),
		Metrics: metrics,
	})
	defer func() { err = errors.Join(err, p.Close()) }()

	start := time.Now()
	in, err := loader.LoadDir(ctx, s.Data.Dir, s.Data.Files)
	if err != nil {
		return fmt.Errorf("failed to load inputs: %w", err)
	}
	log.Info("inputs loaded", "dir", s.Data.Dir, "elapsed", time.Since(start))

	out, err := p.Run(ctx, in)
	if err != nil {
		var stageErr *gomart.StageError
		if errors.As(err, &stageErr) {
			log.Error("pipeline failed", "stage", stageErr.Stage, "rows_in", stageErr.RowsIn, "rows_out", stageErr.RowsOut)
		}
		return err
	}

	labeled := gomart.NewTable(gomart.TableLabeledMart, gomart.LabeledMartSchema, out.Labeled)
	if err := export.WriteFile(s.Output.Path, labeled, compression); err != nil {
		return err
	}
	log.Info("labeled mart written", "path", s.Output.Path, "rows", labeled.Len(), "compression", compression)

	if s.Report.Path != "" {
		if err := writeReport(s.Report.Path, out.Report); err != nil {
			return err
		}
	}
	if s.Metrics.Textfile != "" {
		if err := prometheus.WriteToTextfile(s.Metrics.Textfile, registry); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

func writeReport(path string, r gomart.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() { err = errors.Join(err, f.Close()) }()
	return r.WriteYAML(f)
}
