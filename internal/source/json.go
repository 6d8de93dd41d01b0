// Package source reads seed datasets and scraped snapshot logs from disk.
package source

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// DecodeArray decodes a top-level JSON array element by element.
// An empty input yields an empty slice.
func DecodeArray[T any](ctx context.Context, r io.Reader) ([]T, error) {
	decoder := json.NewDecoder(r)

	tok, err := decoder.Token()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, eris.Wrap(err, "json: read opening token")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, eris.Errorf("json: expected '[', got %v", tok)
	}

	var out []T
	for decoder.More() {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "json: context cancelled")
		}
		var item T
		if err := decoder.Decode(&item); err != nil {
			return nil, eris.Wrapf(err, "json: decode element %d", len(out))
		}
		out = append(out, item)
	}

	if _, err := decoder.Token(); err != nil && err != io.EOF {
		return nil, eris.Wrap(err, "json: read closing token")
	}
	return out, nil
}

// LoadRecords reads a JSON array of loosely typed objects from path.
// A missing file, a top level that is not an array, or malformed JSON is a
// setup error for the run. Elements that are valid JSON but not objects
// come back as nil maps in their position so callers can count them as
// failed records.
func LoadRecords(ctx context.Context, path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open %s", path)
	}
	defer f.Close()

	elems, err := DecodeArray[any](ctx, f)
	if err != nil {
		return nil, eris.Wrapf(err, "source: parse %s", path)
	}

	recs := make([]map[string]any, len(elems))
	for i, e := range elems {
		if obj, ok := e.(map[string]any); ok {
			recs[i] = obj
		}
	}
	return recs, nil
}

// WriteJSON writes v to path as indented JSON.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "source: marshal")
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "source: write %s", path)
	}
	return nil
}
