package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSnapshots_YAMLBareSequence(t *testing.T) {
	path := writeFile(t, "snap.yaml", `
- name: Estate Cabernet
  vineyard: Acme Cellars
  vintage: 2019
- name: House Red
  price: "$12.99"
`)
	snaps, err := LoadSnapshots(path)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	require.Len(t, snaps[0].Wines, 2)
	assert.Equal(t, "Estate Cabernet", snaps[0].Wines[0]["name"])
	assert.Equal(t, 2019, snaps[0].Wines[0]["vintage"])
	assert.Empty(t, snaps[0].URL)
}

func TestLoadSnapshots_YAMLStream(t *testing.T) {
	path := writeFile(t, "log.yaml", `url: https://shop.example.com/reds
captured_at: 2026-10-01T10:00:00Z
wines:
  - name: A
---
url: https://shop.example.com/whites
captured_at: 2026-10-02T10:00:00Z
wines:
  - name: B
  - name: C
`)
	snaps, err := LoadSnapshots(path)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "https://shop.example.com/reds", snaps[0].URL)
	assert.True(t, snaps[0].CapturedAt.Equal(time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)))

	wines := SnapshotWines(snaps)
	require.Len(t, wines, 3)
	assert.Equal(t, "A", wines[0]["name"])
	assert.Equal(t, "C", wines[2]["name"])
}

func TestLoadSnapshots_JSON(t *testing.T) {
	path := writeFile(t, "snap.json", `{"url": "https://shop.example.com", "captured_at": "2026-10-01T10:00:00Z",
		"wines": [{"name": "A", "rating": 4.5}]}`)
	snaps, err := LoadSnapshots(path)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "https://shop.example.com", snaps[0].URL)
	require.Len(t, snaps[0].Wines, 1)
	assert.Equal(t, "A", snaps[0].Wines[0]["name"])
}

func TestLoadSnapshots_Invalid(t *testing.T) {
	_, err := LoadSnapshots(writeFile(t, "bad.yaml", "just a scalar"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse snapshot")

	_, err = LoadSnapshots(writeFile(t, "empty.yaml", ""))
	require.Error(t, err)
}

func TestLoadSnapshots_Missing(t *testing.T) {
	_, err := LoadSnapshots(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAppendSnapshot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.yaml")
	at := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, AppendSnapshot(path, Snapshot{
		URL: "https://a.example.com", CapturedAt: at,
		Wines: []map[string]any{{"name": "A", "price": "$10"}},
	}))
	require.NoError(t, AppendSnapshot(path, Snapshot{
		URL: "https://b.example.com", CapturedAt: at.Add(time.Hour),
		Wines: []map[string]any{{"name": "B"}},
	}))

	snaps, err := LoadSnapshots(path)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "https://b.example.com", snaps[1].URL)
	assert.True(t, snaps[1].CapturedAt.Equal(at.Add(time.Hour)))
	assert.Equal(t, "$10", snaps[0].Wines[0]["price"])
}
