package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellar-app/cellar/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// --- Wineries ---

func TestSQLite_Winery_CreateAndFind(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateWinery(ctx, model.WineryRecord{
		Name:    "Acme Estate",
		Region:  "Napa Valley",
		Country: "United States",
		Phone:   model.Ptr("555-1234"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "acme-estate", created.Slug)

	got, err := st.FindWineryByName(ctx, "Acme Estate")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, model.Ptr("555-1234"), got.Phone)
	assert.Nil(t, got.Address)
	assert.Equal(t, "Napa Valley", got.Region)
}

func TestSQLite_Winery_FindByNameIsExact(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateWinery(ctx, model.WineryRecord{Name: "Acme Estate", Region: "r", Country: "c"})
	require.NoError(t, err)

	got, err := st.FindWineryByName(ctx, "acme estate")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_Winery_UniqueName(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := model.WineryRecord{Name: "Dup", Region: "r", Country: "c"}
	_, err := st.CreateWinery(ctx, rec)
	require.NoError(t, err)

	_, err = st.CreateWinery(ctx, rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert winery")
}

func TestSQLite_Winery_FindByToken(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, name := range []string{"Zed Vineyards", "Acme Estate", "Big Acme Cellars"} {
		_, err := st.CreateWinery(ctx, model.WineryRecord{Name: name, Region: "r", Country: "c"})
		require.NoError(t, err)
	}

	got, err := st.FindWineryByToken(ctx, "Acme")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme Estate", got.Name)

	got, err = st.FindWineryByToken(ctx, "acme")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme Estate", got.Name)

	got, err = st.FindWineryByToken(ctx, "Nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_Winery_FindByTokenEscapesWildcards(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateWinery(ctx, model.WineryRecord{Name: "Acme Estate", Region: "r", Country: "c"})
	require.NoError(t, err)

	got, err := st.FindWineryByToken(ctx, "%")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_ListWineries(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateWinery(ctx, model.WineryRecord{Name: "B", Region: "Napa Valley", Country: "United States"})
	require.NoError(t, err)
	_, err = st.CreateWinery(ctx, model.WineryRecord{Name: "A", Region: "Livermore Valley", Country: "United States"})
	require.NoError(t, err)

	all, err := st.ListWineries(ctx, WineryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Name)

	napa, err := st.ListWineries(ctx, WineryFilter{Region: "Napa Valley"})
	require.NoError(t, err)
	require.Len(t, napa, 1)
	assert.Equal(t, "B", napa[0].Name)
}

// --- Wines ---

func TestSQLite_Wine_CreateAndFind(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	winery, err := st.CreateWinery(ctx, model.WineryRecord{Name: "Acme Estate", Region: "r", Country: "c"})
	require.NoError(t, err)

	rec := model.WineRecord{
		Name:     "X",
		Vineyard: "Acme Cellars",
		Varietal: "Cabernet Sauvignon",
		Vintage:  model.Ptr(2020),
		Price:    model.Ptr(42.5),
	}
	created, err := st.CreateWine(ctx, rec, &winery.ID)
	require.NoError(t, err)
	assert.Equal(t, "x-2020", created.Slug)

	got, err := st.FindWine(ctx, "X", model.Ptr(2020))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, &winery.ID, got.WineryID)
	assert.Equal(t, model.Ptr(42.5), got.Price)
	assert.Nil(t, got.Description)

	missing, err := st.FindWine(ctx, "X", model.Ptr(2019))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLite_Wine_FindNullVintage(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateWine(ctx, model.WineRecord{Name: "House Red"}, nil)
	require.NoError(t, err)

	got, err := st.FindWine(ctx, "House Red", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Vintage)
	assert.Nil(t, got.WineryID)

	vintaged, err := st.FindWine(ctx, "House Red", model.Ptr(2020))
	require.NoError(t, err)
	assert.Nil(t, vintaged)
}

func TestSQLite_Wine_RejectsUnknownWinery(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.CreateWine(context.Background(), model.WineRecord{Name: "Orphan"}, model.Ptr("no-such-winery"))
	require.Error(t, err)
}

func TestSQLite_Wine_Patch(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateWine(ctx, model.WineRecord{Name: "P", Image: model.Ptr("old.png")}, nil)
	require.NoError(t, err)

	err = st.PatchWine(ctx, created.ID, model.WinePatch{
		Description:    model.Ptr("Bright acidity"),
		AlcoholContent: model.Ptr(13.5),
	})
	require.NoError(t, err)

	got, err := st.FindWine(ctx, "P", nil)
	require.NoError(t, err)
	assert.Equal(t, model.Ptr("Bright acidity"), got.Description)
	assert.Equal(t, model.Ptr(13.5), got.AlcoholContent)
	assert.Equal(t, model.Ptr("old.png"), got.Image)
}

func TestSQLite_Wine_PatchNotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.PatchWine(context.Background(), "missing", model.WinePatch{Description: model.Ptr("d")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_ListWines_FilterSortPage(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	wines := []model.WineRecord{
		{Name: "Alpha", Varietal: "Merlot", Rating: model.Ptr(3.9), Price: model.Ptr(15.0)},
		{Name: "Bravo", Varietal: "Merlot", Rating: model.Ptr(4.5), Price: model.Ptr(30.0)},
		{Name: "Charlie", Varietal: "Zinfandel", Rating: model.Ptr(4.2), Price: model.Ptr(22.0)},
		{Name: "Delta 50%", Varietal: "Merlot", Rating: model.Ptr(4.0)},
	}
	for _, w := range wines {
		_, err := st.CreateWine(ctx, w, nil)
		require.NoError(t, err)
	}

	merlots, err := st.ListWines(ctx, WineFilter{Varietal: "Merlot", Sort: "-rating"})
	require.NoError(t, err)
	require.Len(t, merlots, 3)
	assert.Equal(t, "Bravo", merlots[0].Name)
	assert.Equal(t, "Delta 50%", merlots[1].Name)

	rated, err := st.ListWines(ctx, WineFilter{MinRating: 4.1})
	require.NoError(t, err)
	assert.Len(t, rated, 2)

	page, err := st.ListWines(ctx, WineFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Charlie", page[0].Name)

	search, err := st.ListWines(ctx, WineFilter{Search: "zin"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "Charlie", search[0].Name)

	literal, err := st.ListWines(ctx, WineFilter{Search: "50%"})
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, "Delta 50%", literal[0].Name)
}

func TestSQLite_Stats(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	empty, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.CatalogStats{}, *empty)

	w, err := st.CreateWinery(ctx, model.WineryRecord{Name: "Acme Estate", Region: "Napa Valley", Country: "United States"})
	require.NoError(t, err)
	_, err = st.CreateWine(ctx, model.WineRecord{Name: "Linked", Description: model.Ptr("Bold")}, &w.ID)
	require.NoError(t, err)
	_, err = st.CreateWine(ctx, model.WineRecord{Name: "Loose"}, nil)
	require.NoError(t, err)
	_, err = st.CreateWine(ctx, model.WineRecord{Name: "Blank", Description: model.Ptr("  ")}, nil)
	require.NoError(t, err)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Wineries)
	assert.Equal(t, 3, stats.Wines)
	assert.Equal(t, 1, stats.LinkedWines)
	assert.Equal(t, 2, stats.UndescribedWines)
}
