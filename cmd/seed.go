package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cellar-app/cellar/internal/classify"
	"github.com/cellar-app/cellar/internal/ingest"
	"github.com/cellar-app/cellar/internal/model"
	"github.com/cellar-app/cellar/internal/monitoring"
	"github.com/cellar-app/cellar/internal/source"
	"github.com/cellar-app/cellar/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load seed datasets into the catalog",
	Long:  "Inserts wineries and wines from JSON datasets. Records already in the catalog are skipped; a failing record is counted and the run continues.",
}

// -- seed wineries --

var seedWineryFiles []string

var seedWineriesCmd = &cobra.Command{
	Use:   "wineries",
	Short: "Seed wineries from one or more datasets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("seed"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		metrics := monitoring.NewIngestMetrics()
		ing := newIngester(st, metrics)

		if _, err := runSeedWineries(ctx, ing, seedWineryFiles, os.Stdout); err != nil {
			return err
		}
		writeMetrics(metrics)
		return nil
	},
}

// -- seed wines --

var seedWineFile string

var seedWinesCmd = &cobra.Command{
	Use:   "wines",
	Short: "Seed wines from a dataset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("seed"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		metrics := monitoring.NewIngestMetrics()
		ing := newIngester(st, metrics)

		if _, err := runSeedWines(ctx, ing, seedWineFile, os.Stdout); err != nil {
			return err
		}
		writeMetrics(metrics)
		return nil
	},
}

func init() {
	seedWineriesCmd.Flags().StringSliceVar(&seedWineryFiles, "file", nil, "winery dataset JSON file (repeatable, required)")
	_ = seedWineriesCmd.MarkFlagRequired("file")

	seedWinesCmd.Flags().StringVar(&seedWineFile, "file", "", "wine dataset JSON file (required)")
	_ = seedWinesCmd.MarkFlagRequired("file")

	seedCmd.AddCommand(seedWineriesCmd)
	seedCmd.AddCommand(seedWinesCmd)
	rootCmd.AddCommand(seedCmd)
}

func newIngester(st store.Store, metrics *monitoring.IngestMetrics) *ingest.Ingester {
	return ingest.New(st,
		ingest.WithDefaults(classify.Defaults{
			Country:         cfg.Seed.DefaultCountry,
			NapaRegion:      cfg.Seed.NapaRegion,
			LivermoreRegion: cfg.Seed.LivermoreRegion,
		}),
		ingest.WithObserver(metrics),
	)
}

// runSeedWineries loads every dataset before writing anything, so a missing
// or malformed file aborts the run without partial writes.
func runSeedWineries(ctx context.Context, ing *ingest.Ingester, files []string, out io.Writer) (model.Summary, error) {
	datasets := make([][]map[string]any, 0, len(files))
	for _, f := range files {
		recs, err := source.LoadRecords(ctx, f)
		if err != nil {
			return model.Summary{}, eris.Wrap(err, "seed wineries")
		}
		datasets = append(datasets, recs)
	}

	var total model.Summary
	rows := make([]summaryRow, 0, len(files)+1)
	for i, recs := range datasets {
		sum := ing.IngestWineries(ctx, recs)
		zap.L().Info("dataset seeded",
			zap.String("file", files[i]),
			zap.Int("created", sum.Created),
			zap.Int("skipped", sum.Skipped),
			zap.Int("errors", sum.Errors),
			zap.Int("total", sum.Total),
		)
		rows = append(rows, summaryRow{Label: files[i], Summary: sum})
		total.Add(sum)
	}
	if len(files) > 1 {
		rows = append(rows, summaryRow{Label: "TOTAL", Summary: total})
	}

	formatSummaries(out, rows)
	formatFailures(out, total)
	return total, nil
}

func runSeedWines(ctx context.Context, ing *ingest.Ingester, file string, out io.Writer) (model.Summary, error) {
	raws, err := source.LoadRecords(ctx, file)
	if err != nil {
		return model.Summary{}, eris.Wrap(err, "seed wines")
	}

	sum := ing.SeedRawWines(ctx, raws)
	zap.L().Info("wines seeded",
		zap.String("file", file),
		zap.Int("created", sum.Created),
		zap.Int("updated", sum.Updated),
		zap.Int("skipped", sum.Skipped),
		zap.Int("errors", sum.Errors),
		zap.Int("total", sum.Total),
	)

	formatSummaries(out, []summaryRow{{Label: file, Summary: sum}})
	formatFailures(out, sum)
	return sum, nil
}

func writeMetrics(metrics *monitoring.IngestMetrics) {
	if cfg.Metrics.Textfile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		zap.L().Warn("failed to write metrics textfile", zap.Error(err))
	}
}

type summaryRow struct {
	Label   string
	Summary model.Summary
}

// formatSummaries writes a table of run counts to out.
func formatSummaries(out io.Writer, rows []summaryRow) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATASET\tCREATED\tUPDATED\tSKIPPED\tERRORS\tTOTAL")
	for _, r := range rows {
		s := r.Summary
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n", r.Label, s.Created, s.Updated, s.Skipped, s.Errors, s.Total)
	}
	_ = w.Flush()
}

// formatFailures lists the records that errored, if any.
func formatFailures(out io.Writer, s model.Summary) {
	if s.Errors == 0 {
		return
	}
	_, _ = fmt.Fprintf(out, "\n%d record(s) failed:\n", s.Errors)
	for _, r := range s.Results {
		if r.Outcome != model.OutcomeFailed {
			continue
		}
		name := r.Name
		if name == "" {
			name = "(unnamed)"
		}
		_, _ = fmt.Fprintf(out, "  %s: %v\n", name, r.Err)
	}
}
