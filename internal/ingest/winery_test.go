package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellar-app/cellar/internal/classify"
	"github.com/cellar-app/cellar/internal/model"
	"github.com/cellar-app/cellar/internal/store"
)

func TestIngestWineries_NapaDefaults(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	sum := New(st).IngestWineries(ctx, []map[string]any{
		{"name": "A Winery", "phone": "555-1234"},
	})

	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 0, sum.Skipped)
	assert.Equal(t, 0, sum.Errors)
	assert.Equal(t, 1, sum.Total)

	w, err := st.FindWineryByName(ctx, "A Winery")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "Napa Valley", w.Region)
	assert.Equal(t, "United States", w.Country)
	require.NotNil(t, w.Phone)
	assert.Equal(t, "555-1234", *w.Phone)
}

func TestIngestWineries_DuplicateNames(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	sum := New(st).IngestWineries(ctx, []map[string]any{
		{"name": "Twin Oaks", "address": "1 Vine Rd"},
		{"name": "Twin Oaks", "address": "2 Vine Rd"},
	})

	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 0, sum.Errors)

	all, err := st.ListWineries(ctx, store.WineryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].Address)
	assert.Equal(t, "1 Vine Rd", *all[0].Address)
}

func TestIngestWineries_AllVariants(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	sum := New(st).IngestWineries(ctx, []map[string]any{
		{"name": "Hilltop", "address": "9 Ridge", "city": "Calistoga"},
		{"name": "Release House", "country": "United States", "state": "Oregon", "phone": "555"},
		{"name": "Valley Guide", "description": "Family estate", "country": "United States"},
	})
	require.Equal(t, 3, sum.Created, "results: %+v", sum.Results)

	release, err := st.FindWineryByName(ctx, "Release House")
	require.NoError(t, err)
	require.NotNil(t, release)
	assert.Equal(t, "Oregon", release.Region)
	assert.Equal(t, "United States", release.Country)

	guide, err := st.FindWineryByName(ctx, "Valley Guide")
	require.NoError(t, err)
	require.NotNil(t, guide)
	assert.Equal(t, "Livermore Valley", guide.Region)
	require.NotNil(t, guide.Description)
	assert.Equal(t, "Family estate", *guide.Description)
}

func TestIngestWineries_CustomDefaults(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ing := New(st, WithDefaults(classify.Defaults{Country: "USA", NapaRegion: "Napa", LivermoreRegion: "Livermore"}))
	sum := ing.IngestWineries(ctx, []map[string]any{{"name": "Short", "phone": "1"}})
	require.Equal(t, 1, sum.Created)

	w, err := st.FindWineryByName(ctx, "Short")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "Napa", w.Region)
	assert.Equal(t, "USA", w.Country)
}

func TestIngestWineries_ErrorsContinue(t *testing.T) {
	st := &failingStore{Store: newTestStore(t), failNames: map[string]bool{"Broken": true}}
	obs := &recordingObserver{}
	ctx := context.Background()

	sum := New(st, WithObserver(obs)).IngestWineries(ctx, []map[string]any{
		{"name": "Broken", "phone": "1"},
		{"name": "Shapeless"},
		{"phone": "no name"},
		{"name": "Fine", "phone": "2"},
	})

	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 3, sum.Errors)
	assert.Equal(t, 4, sum.Total)
	require.Len(t, sum.Results, 4)

	assert.Equal(t, model.OutcomeFailed, sum.Results[0].Outcome)
	assert.Contains(t, sum.Results[0].Err.Error(), "disk full")

	assert.Equal(t, "Shapeless", sum.Results[1].Name)
	assert.True(t, errors.Is(sum.Results[1].Err, classify.ErrUnrecognizedFormat))

	assert.Contains(t, sum.Results[2].Err.Error(), "no name")

	assert.Equal(t, model.OutcomeCreated, sum.Results[3].Outcome)
	assert.NoError(t, sum.Results[3].Err)

	assert.Equal(t, []model.Outcome{
		model.OutcomeFailed, model.OutcomeFailed, model.OutcomeFailed, model.OutcomeCreated,
	}, obs.seen["winery"])
}

func TestIngestWineries_DuplicateSkippedBeforeClassify(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	ing := New(st)

	require.Equal(t, 1, ing.IngestWineries(ctx, []map[string]any{{"name": "Known", "phone": "1"}}).Created)

	sum := ing.IngestWineries(ctx, []map[string]any{{"name": "Known"}})
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 0, sum.Errors)
}

func TestIngestWineries_NonObjectCounted(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	sum := New(st).IngestWineries(ctx, []map[string]any{
		{"name": "A", "phone": "1"},
		nil,
		{"name": "B", "phone": "2"},
	})
	assert.Equal(t, 2, sum.Created)
	assert.Equal(t, 1, sum.Errors)
	require.Len(t, sum.Results, 3)
	assert.Contains(t, sum.Results[1].Err.Error(), "not an object")
}

func TestIngestWineries_NumericName(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	ing := New(st)

	sum := ing.IngestWineries(ctx, []map[string]any{
		{"name": float64(1881), "phone": "555-0101"},
	})
	require.Equal(t, 1, sum.Created, "results: %+v", sum.Results)
	assert.Equal(t, "1881", sum.Results[0].Name)

	w, err := st.FindWineryByName(ctx, "1881")
	require.NoError(t, err)
	require.NotNil(t, w)

	again := ing.IngestWineries(ctx, []map[string]any{
		{"name": float64(1881), "phone": "555-0101"},
	})
	assert.Equal(t, 1, again.Skipped)
}
