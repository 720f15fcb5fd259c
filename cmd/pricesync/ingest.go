package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelfwatch/pricesync/app/ingest"
	"github.com/shelfwatch/pricesync/app/notify"
	"github.com/shelfwatch/pricesync/app/upsert"
	"github.com/shelfwatch/pricesync/config"
	"github.com/shelfwatch/pricesync/logging"
)

func newIngestCmd(a *app) *cobra.Command {
	var (
		format string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [file|-]",
		Short: "Reconcile scraped product records with the catalog",
		Long: `Ingest reads scraped product records from a file, or from standard input
when the file is "-" or omitted, and upserts each record into the catalog.

Records that fail to reconcile are reported but do not stop the batch.`,
		Example: `  pricesync ingest scrape-2024-01-02.json
  scraper | pricesync ingest --format yaml -
  pricesync ingest --dry-run scrape.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			cfg := *a.cfg
			if dryRun {
				cfg.Database.Driver = config.DriverMemory
			}
			return runIngest(cmd.Context(), &cfg, path, format, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "input format (json, yaml); guessed from the file extension when empty")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "reconcile against an empty in-memory store")
	return cmd
}

func runIngest(ctx context.Context, cfg *config.Config, path, formatName string, stdin io.Reader, out io.Writer) error {
	format := ingest.FormatFromPath(path)
	if formatName != "" {
		f, err := ingest.ParseFormat(formatName)
		if err != nil {
			return err
		}
		format = f
	}

	in := stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer file.Close()
		in = file
	}

	records, err := ingest.Decode(in, format)
	if err != nil {
		return err
	}
	log := logging.FromContext(ctx)
	log.Debug().Str("input", path).Str("format", string(format)).Int("records", len(records)).Msg("Decoded records")

	gateway, closeGateway, err := openGateway(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeGateway(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database connection")
		}
	}()

	reconciler, err := newReconciler(cfg.Reconcile)
	if err != nil {
		return err
	}
	orchestrator, err := upsert.New(gateway,
		upsert.WithReconciler(reconciler),
		upsert.WithNotifier(notify.NewLogNotifier()),
		upsert.WithWorkers(cfg.Ingest.Workers),
	)
	if err != nil {
		return err
	}

	result := orchestrator.UpsertAll(ctx, records)

	fmt.Fprintln(out, result.Summary())
	for _, f := range result.Failures() {
		fmt.Fprintf(out, "  failed %s: %v\n", f.ProductID, f.Err)
	}
	return nil
}
