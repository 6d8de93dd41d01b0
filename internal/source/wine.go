package source

import (
	"context"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rotisserie/eris"

	"github.com/cellar-app/cellar/internal/model"
)

// DecodeWine decodes a loosely typed wine object into a WineRecord.
// Numeric fields may arrive as strings from scrapes ("$24.99", "1,204
// ratings", "NV"); unparseable or blank values are treated as absent, as
// are blank descriptions and images. A nil raw is a record that was not a
// JSON object.
func DecodeWine(raw map[string]any) (model.WineRecord, error) {
	var rec model.WineRecord
	if raw == nil {
		return rec, eris.New("source: wine is not an object")
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &rec,
		TagName:    "mapstructure",
		DecodeHook: numericStringHook,
	})
	if err != nil {
		return rec, eris.Wrap(err, "source: create wine decoder")
	}
	if err := dec.Decode(raw); err != nil {
		name, _ := raw["name"].(string)
		return rec, eris.Wrapf(err, "source: decode wine %q", name)
	}
	rec.Name = strings.TrimSpace(rec.Name)
	return rec, nil
}

// DecodeWines decodes every element of raws, stopping at the first failure.
func DecodeWines(raws []map[string]any) ([]model.WineRecord, error) {
	out := make([]model.WineRecord, 0, len(raws))
	for i, raw := range raws {
		rec, err := DecodeWine(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "source: wine %d", i)
		}
		out = append(out, rec)
	}
	return out, nil
}

// LoadWines reads a JSON array of wine objects from path.
func LoadWines(ctx context.Context, path string) ([]model.WineRecord, error) {
	raws, err := LoadRecords(ctx, path)
	if err != nil {
		return nil, err
	}
	return DecodeWines(raws)
}

// numericStringHook parses numeric strings into number fields and drops
// blank strings bound for optional fields, so "" never counts as a value.
func numericStringHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	target := to
	if target.Kind() == reflect.Ptr {
		target = target.Elem()
		if strings.TrimSpace(data.(string)) == "" {
			return nil, nil
		}
	}
	switch target.Kind() {
	case reflect.Int, reflect.Int64:
		f, ok := ParseNumber(data.(string))
		if !ok {
			return nil, nil
		}
		return int(f), nil
	case reflect.Float64:
		f, ok := ParseNumber(data.(string))
		if !ok {
			return nil, nil
		}
		return f, nil
	}
	return data, nil
}

// ParseNumber extracts the leading number from strings such as "$1,299.00",
// "13.5%", "4.2 / 5" or "1,204 ratings".
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£ ")

	var b strings.Builder
scan:
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',':
		case r == '-' && i == 0:
			b.WriteRune(r)
		default:
			if b.Len() > 0 {
				break scan
			}
			return 0, false
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// RecordMap is the inverse of DecodeWine: it flattens rec into a loosely
// typed object, leaving out the fields rec does not supply.
func RecordMap(rec model.WineRecord) map[string]any {
	m := map[string]any{"name": rec.Name}
	setString := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	setString("vineyard", rec.Vineyard)
	setString("region", rec.Region)
	setString("country", rec.Country)
	setString("varietal", rec.Varietal)
	if rec.Vintage != nil {
		m["vintage"] = *rec.Vintage
	}
	if rec.Description != nil {
		m["description"] = *rec.Description
	}
	if rec.AlcoholContent != nil {
		m["alcoholContent"] = *rec.AlcoholContent
	}
	if rec.Image != nil {
		m["image"] = *rec.Image
	}
	if rec.Rating != nil {
		m["rating"] = *rec.Rating
	}
	if rec.RatingCount != nil {
		m["ratingCount"] = *rec.RatingCount
	}
	if rec.Price != nil {
		m["price"] = *rec.Price
	}
	return m
}
