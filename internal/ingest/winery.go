package ingest

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cellar-app/cellar/internal/classify"
	"github.com/cellar-app/cellar/internal/model"
	"github.com/cellar-app/cellar/internal/monitoring"
)

// IngestWineries inserts every winery whose name is not yet stored.
// Records are classified into a dataset variant only after the name check,
// so duplicates are skipped even when their shape is unrecognized.
func (i *Ingester) IngestWineries(ctx context.Context, raws []map[string]any) model.Summary {
	var sum model.Summary
	for idx, raw := range raws {
		name := recordName(raw)
		outcome, err := i.ingestWinery(ctx, name, raw)
		if err != nil {
			i.log.Warn("ingest: winery failed",
				zap.Int("index", idx),
				zap.String("name", name),
				zap.Error(err),
			)
		}
		sum.Record(model.RecordResult{Name: name, Outcome: outcome, Err: err})
		i.observe(monitoring.EntityWinery, outcome)
	}

	i.log.Info("ingest: wineries done",
		zap.Int("created", sum.Created),
		zap.Int("skipped", sum.Skipped),
		zap.Int("errors", sum.Errors),
		zap.Int("total", sum.Total),
	)
	return sum
}

func (i *Ingester) ingestWinery(ctx context.Context, name string, raw map[string]any) (model.Outcome, error) {
	if raw == nil {
		return model.OutcomeFailed, eris.New("ingest: winery record is not an object")
	}
	if strings.TrimSpace(name) == "" {
		return model.OutcomeFailed, eris.New("ingest: winery record has no name")
	}

	existing, err := i.store.FindWineryByName(ctx, name)
	if err != nil {
		return model.OutcomeFailed, eris.Wrapf(err, "ingest: look up winery %q", name)
	}
	if existing != nil {
		i.log.Debug("ingest: winery exists", zap.String("name", name))
		return model.OutcomeSkipped, nil
	}

	src, err := classify.Parse(raw)
	if err != nil {
		return model.OutcomeFailed, err
	}

	rec := src.Record(i.defaults)
	if _, err := i.store.CreateWinery(ctx, rec); err != nil {
		return model.OutcomeFailed, eris.Wrapf(err, "ingest: create winery %q", name)
	}
	i.log.Debug("ingest: winery created",
		zap.String("name", name),
		zap.String("format", string(src.Format())),
	)
	return model.OutcomeCreated, nil
}
