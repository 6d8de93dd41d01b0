// Package merge deduplicates wine records gathered from several datasets and
// scraped snapshots into one field-complete list.
package merge

import (
	"strings"

	"github.com/cellar-app/cellar/internal/model"
)

type options struct {
	mode KeyMode
}

// Option configures Merge.
type Option func(*options)

// WithKeyMode selects the identity key. The default is KeyNameVintage.
func WithKeyMode(m KeyMode) Option {
	return func(o *options) { o.mode = m }
}

// Merge folds incoming into existing and returns one record per identity key.
// Records keep the order in which their key first appeared, existing first.
// When keys collide the earlier record wins every field it already has;
// the later one only fills its gaps. Merging the same incoming list twice
// yields the same result as merging it once.
func Merge(existing, incoming []model.WineRecord, opts ...Option) []model.WineRecord {
	o := options{mode: KeyNameVintage}
	for _, opt := range opts {
		opt(&o)
	}

	index := make(map[string]int, len(existing)+len(incoming))
	out := make([]model.WineRecord, 0, len(existing)+len(incoming))

	fold := func(r model.WineRecord) {
		k := Key(r, o.mode)
		if i, ok := index[k]; ok {
			out[i] = Fill(out[i], r)
			return
		}
		index[k] = len(out)
		out = append(out, clone(r))
	}

	for _, r := range existing {
		fold(r)
	}
	for _, r := range incoming {
		fold(r)
	}
	return out
}

// Fill returns base with each empty field copied from other.
// Fields base already has are never overwritten.
func Fill(base, other model.WineRecord) model.WineRecord {
	fillString(&base.Name, other.Name)
	fillString(&base.Vineyard, other.Vineyard)
	fillString(&base.Region, other.Region)
	fillString(&base.Country, other.Country)
	fillString(&base.Varietal, other.Varietal)
	fillPtr(&base.Vintage, other.Vintage)
	fillPtr(&base.Description, other.Description)
	fillPtr(&base.AlcoholContent, other.AlcoholContent)
	fillPtr(&base.Image, other.Image)
	fillPtr(&base.Rating, other.Rating)
	fillPtr(&base.RatingCount, other.RatingCount)
	fillPtr(&base.Price, other.Price)
	return base
}

// clone copies r so the merged list shares no pointers with its inputs.
func clone(r model.WineRecord) model.WineRecord {
	r.Vintage = copyPtr(r.Vintage)
	r.Description = copyPtr(r.Description)
	r.AlcoholContent = copyPtr(r.AlcoholContent)
	r.Image = copyPtr(r.Image)
	r.Rating = copyPtr(r.Rating)
	r.RatingCount = copyPtr(r.RatingCount)
	r.Price = copyPtr(r.Price)
	return r
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func fillString(dst *string, src string) {
	if strings.TrimSpace(*dst) == "" && strings.TrimSpace(src) != "" {
		*dst = src
	}
}

func fillPtr[T any](dst **T, src *T) {
	if *dst == nil && src != nil {
		v := *src
		*dst = &v
	}
}
