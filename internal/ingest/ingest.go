// Package ingest loads winery and wine records into the store one record at
// a time. A failing record is logged, counted and skipped; it never stops
// the rest of the run.
package ingest

import (
	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"

	"github.com/cellar-app/cellar/internal/classify"
	"github.com/cellar-app/cellar/internal/model"
	"github.com/cellar-app/cellar/internal/store"
)

// Observer receives one call per processed record.
type Observer interface {
	Observe(entity string, outcome model.Outcome)
}

// Ingester writes records through a caller-owned Store.
type Ingester struct {
	store    store.Store
	defaults classify.Defaults
	observer Observer
	log      *zap.Logger
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithDefaults overrides the location defaults applied to winery variants.
func WithDefaults(d classify.Defaults) Option {
	return func(i *Ingester) { i.defaults = d }
}

// WithObserver reports every record outcome to o.
func WithObserver(o Observer) Option {
	return func(i *Ingester) { i.observer = o }
}

// New creates an Ingester backed by st.
func New(st store.Store, opts ...Option) *Ingester {
	i := &Ingester{
		store:    st,
		defaults: classify.StandardDefaults(),
		log:      zap.L().With(zap.String("component", "ingest")),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Ingester) observe(entity string, o model.Outcome) {
	if i.observer != nil {
		i.observer.Observe(entity, o)
	}
}

// recordName reads a raw record's name the way the weakly typed variant
// decoder will, so a numeric name looks up the same string it is stored as.
// Names that cannot become a string read as empty.
func recordName(raw map[string]any) string {
	var name string
	if err := mapstructure.WeakDecode(raw["name"], &name); err != nil {
		return ""
	}
	return name
}
