package ingest

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cellar-app/cellar/internal/model"
	"github.com/cellar-app/cellar/internal/monitoring"
	"github.com/cellar-app/cellar/internal/source"
)

// SeedWines seeds every record in order and returns the run summary.
func (i *Ingester) SeedWines(ctx context.Context, recs []model.WineRecord) model.Summary {
	var sum model.Summary
	for idx, rec := range recs {
		sum.Record(i.seedLogged(ctx, idx, rec))
	}
	i.logWineSummary(sum)
	return sum
}

// SeedRawWines decodes and seeds loosely typed wine objects. A record that
// does not decode is counted as an error and the run continues.
func (i *Ingester) SeedRawWines(ctx context.Context, raws []map[string]any) model.Summary {
	var sum model.Summary
	for idx, raw := range raws {
		rec, err := source.DecodeWine(raw)
		if err != nil {
			name := recordName(raw)
			i.log.Warn("ingest: wine failed to decode",
				zap.Int("index", idx),
				zap.String("name", name),
				zap.Error(err),
			)
			sum.Record(model.RecordResult{Name: name, Outcome: model.OutcomeFailed, Err: err})
			i.observe(monitoring.EntityWine, model.OutcomeFailed)
			continue
		}
		sum.Record(i.seedLogged(ctx, idx, rec))
	}
	i.logWineSummary(sum)
	return sum
}

func (i *Ingester) seedLogged(ctx context.Context, idx int, rec model.WineRecord) model.RecordResult {
	outcome, err := i.SeedWine(ctx, rec)
	if err != nil {
		i.log.Warn("ingest: wine failed",
			zap.Int("index", idx),
			zap.String("name", rec.Name),
			zap.Error(err),
		)
	}
	return model.RecordResult{Name: rec.Name, Outcome: outcome, Err: err}
}

func (i *Ingester) logWineSummary(sum model.Summary) {
	i.log.Info("ingest: wines done",
		zap.Int("created", sum.Created),
		zap.Int("updated", sum.Updated),
		zap.Int("skipped", sum.Skipped),
		zap.Int("errors", sum.Errors),
		zap.Int("total", sum.Total),
	)
}

// SeedWine stores one wine. A new (name, vintage) pair is inserted and linked
// to the first winery whose name contains the vineyard's first word. An
// existing wine without a description takes the incoming description, and
// the alcohol content and image where those are still empty. Blank strings
// count as missing on both sides. Anything else is skipped.
func (i *Ingester) SeedWine(ctx context.Context, rec model.WineRecord) (model.Outcome, error) {
	outcome, err := i.seedWine(ctx, rec)
	i.observe(monitoring.EntityWine, outcome)
	return outcome, err
}

func (i *Ingester) seedWine(ctx context.Context, rec model.WineRecord) (model.Outcome, error) {
	if strings.TrimSpace(rec.Name) == "" {
		return model.OutcomeFailed, eris.New("ingest: wine record has no name")
	}

	existing, err := i.store.FindWine(ctx, rec.Name, rec.Vintage)
	if err != nil {
		return model.OutcomeFailed, eris.Wrapf(err, "ingest: look up wine %q", rec.Name)
	}

	if existing == nil {
		rec.Description = presentOrNil(rec.Description)
		rec.Image = presentOrNil(rec.Image)
		wineryID, err := i.resolveWinery(ctx, rec.Vineyard)
		if err != nil {
			return model.OutcomeFailed, err
		}
		if _, err := i.store.CreateWine(ctx, rec, wineryID); err != nil {
			return model.OutcomeFailed, eris.Wrapf(err, "ingest: create wine %q", rec.Name)
		}
		return model.OutcomeCreated, nil
	}

	patch := descriptionPatch(existing, rec)
	if patch.Empty() {
		return model.OutcomeSkipped, nil
	}
	if err := i.store.PatchWine(ctx, existing.ID, patch); err != nil {
		return model.OutcomeFailed, eris.Wrapf(err, "ingest: patch wine %q", rec.Name)
	}
	return model.OutcomeUpdated, nil
}

// resolveWinery returns the id of the winery matching the vineyard's first
// word, or nil when the vineyard is empty or nothing matches.
func (i *Ingester) resolveWinery(ctx context.Context, vineyard string) (*string, error) {
	token := VineyardToken(vineyard)
	if token == "" {
		return nil, nil
	}
	w, err := i.store.FindWineryByToken(ctx, token)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: resolve winery %q", token)
	}
	if w == nil {
		i.log.Debug("ingest: no winery for vineyard", zap.String("vineyard", vineyard))
		return nil, nil
	}
	return &w.ID, nil
}

// VineyardToken returns the first whitespace-delimited word of vineyard.
func VineyardToken(vineyard string) string {
	fields := strings.Fields(vineyard)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func descriptionPatch(existing *model.Wine, rec model.WineRecord) model.WinePatch {
	if present(existing.Description) || !present(rec.Description) {
		return model.WinePatch{}
	}
	patch := model.WinePatch{Description: rec.Description}
	if existing.AlcoholContent == nil {
		patch.AlcoholContent = rec.AlcoholContent
	}
	if !present(existing.Image) && present(rec.Image) {
		patch.Image = rec.Image
	}
	return patch
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func presentOrNil(s *string) *string {
	if !present(s) {
		return nil
	}
	return s
}
