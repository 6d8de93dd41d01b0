// Package store persists wineries and wines.
package store

import (
	"context"
	"errors"

	"github.com/cellar-app/cellar/internal/model"
)

// ErrNotFound is returned by updates that match no row.
var ErrNotFound = errors.New("store: not found")

// WineFilter specifies criteria for listing wines.
type WineFilter struct {
	Varietal  string  `json:"varietal,omitempty"`
	Country   string  `json:"country,omitempty"`
	Region    string  `json:"region,omitempty"`
	WineryID  string  `json:"winery_id,omitempty"`
	Search    string  `json:"search,omitempty"`
	MinRating float64 `json:"min_rating,omitempty"`
	// Sort is one of name, rating, price, vintage; a leading "-" sorts descending.
	Sort   string `json:"sort,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// WineryFilter specifies criteria for listing wineries.
type WineryFilter struct {
	Region  string `json:"region,omitempty"`
	Country string `json:"country,omitempty"`
	Search  string `json:"search,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for seeding and browsing.
// Lookups return (nil, nil) when nothing matches.
type Store interface {
	// Wineries
	FindWineryByName(ctx context.Context, name string) (*model.Winery, error)
	FindWineryByToken(ctx context.Context, token string) (*model.Winery, error)
	CreateWinery(ctx context.Context, rec model.WineryRecord) (*model.Winery, error)
	ListWineries(ctx context.Context, filter WineryFilter) ([]model.Winery, error)

	// Wines
	FindWine(ctx context.Context, name string, vintage *int) (*model.Wine, error)
	CreateWine(ctx context.Context, rec model.WineRecord, wineryID *string) (*model.Wine, error)
	PatchWine(ctx context.Context, id string, patch model.WinePatch) error
	ListWines(ctx context.Context, filter WineFilter) ([]model.Wine, error)

	// Catalog
	Stats(ctx context.Context) (*model.CatalogStats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
