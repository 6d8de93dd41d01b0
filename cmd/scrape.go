package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cellar-app/cellar/internal/merge"
	"github.com/cellar-app/cellar/internal/model"
	"github.com/cellar-app/cellar/internal/scrape"
	"github.com/cellar-app/cellar/internal/source"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Capture and merge retailer snapshots",
	Long:  "Captures wine cards from retailer pages into snapshot logs and merges snapshots into a deduplicated wine dataset.",
}

// -- scrape merge --

var (
	mergeSnapshots []string
	mergeExisting  string
	mergeOut       string
	mergeKey       string
)

var scrapeMergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge snapshot logs into a wine dataset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("merge"); err != nil {
			return err
		}

		key := mergeKey
		if key == "" {
			key = cfg.Merge.Key
		}
		mode, err := merge.ParseKeyMode(key)
		if err != nil {
			return err
		}

		merged, err := runMerge(cmd.Context(), mergeSnapshots, mergeExisting, mode, os.Stdout)
		if err != nil {
			return err
		}
		return source.WriteJSON(mergeOut, merged)
	},
}

// -- scrape capture --

var (
	captureURLs []string
	captureOut  string
)

var scrapeCaptureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture wine cards from retailer pages",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		c := scrape.NewCapturer(scrape.Config{
			UserAgent:         cfg.Scrape.UserAgent,
			CardSelector:      cfg.Scrape.CardSelector,
			Timeout:           time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
			RequestsPerMinute: cfg.Scrape.RequestsPerMinute,
			Concurrency:       cfg.Scrape.Concurrency,
			ExecPath:          cfg.Scrape.ChromePath,
		})

		snaps, err := c.Capture(cmd.Context(), captureURLs)
		if err != nil {
			return err
		}

		var wines int
		for _, s := range snaps {
			if err := source.AppendSnapshot(captureOut, s); err != nil {
				return err
			}
			wines += len(s.Wines)
		}

		zap.L().Info("capture complete",
			zap.Int("pages", len(snaps)),
			zap.Int("wines", wines),
			zap.String("out", captureOut),
		)
		_, _ = fmt.Fprintf(os.Stdout, "captured %d wines from %d of %d pages into %s\n", wines, len(snaps), len(captureURLs), captureOut)
		return nil
	},
}

func init() {
	scrapeMergeCmd.Flags().StringSliceVar(&mergeSnapshots, "snapshot", nil, "snapshot log, YAML or JSON (repeatable, required)")
	scrapeMergeCmd.Flags().StringVar(&mergeExisting, "existing", "", "previously merged wine dataset to fold into")
	scrapeMergeCmd.Flags().StringVar(&mergeOut, "out", "", "output JSON file (required)")
	scrapeMergeCmd.Flags().StringVar(&mergeKey, "key", "", "identity key: name_vintage or name_vineyard (default from config)")
	_ = scrapeMergeCmd.MarkFlagRequired("snapshot")
	_ = scrapeMergeCmd.MarkFlagRequired("out")

	scrapeCaptureCmd.Flags().StringSliceVar(&captureURLs, "url", nil, "page to capture (repeatable, required)")
	scrapeCaptureCmd.Flags().StringVar(&captureOut, "out", "", "snapshot log to append to (required)")
	_ = scrapeCaptureCmd.MarkFlagRequired("url")
	_ = scrapeCaptureCmd.MarkFlagRequired("out")

	scrapeCmd.AddCommand(scrapeMergeCmd)
	scrapeCmd.AddCommand(scrapeCaptureCmd)
	rootCmd.AddCommand(scrapeCmd)
}

// runMerge folds every snapshot's wines into the existing dataset. Wine
// objects that do not decode are logged and left out.
func runMerge(ctx context.Context, snapshots []string, existingPath string, mode merge.KeyMode, out io.Writer) ([]model.WineRecord, error) {
	var existing []model.WineRecord
	if existingPath != "" {
		recs, err := source.LoadWines(ctx, existingPath)
		if err != nil {
			return nil, eris.Wrap(err, "scrape merge: existing")
		}
		existing = recs
	}

	var (
		incoming []model.WineRecord
		dropped  int
	)
	for _, path := range snapshots {
		snaps, err := source.LoadSnapshots(path)
		if err != nil {
			return nil, eris.Wrap(err, "scrape merge")
		}
		for _, raw := range source.SnapshotWines(snaps) {
			rec, err := source.DecodeWine(raw)
			if err == nil && rec.Name == "" {
				err = eris.New("scrape merge: wine has no name")
			}
			if err != nil {
				dropped++
				zap.L().Warn("scrape merge: dropping wine", zap.String("snapshot", path), zap.Error(err))
				continue
			}
			incoming = append(incoming, rec)
		}
	}

	merged := merge.Merge(existing, incoming, merge.WithKeyMode(mode))
	zap.L().Info("merge complete",
		zap.Int("existing", len(existing)),
		zap.Int("incoming", len(incoming)),
		zap.Int("dropped", dropped),
		zap.Int("merged", len(merged)),
		zap.String("key", mode.String()),
	)
	_, _ = fmt.Fprintf(out, "merged %d existing + %d incoming wines into %d (%d dropped, key %s)\n",
		len(existing), len(incoming), len(merged), dropped, mode)
	return merged, nil
}
