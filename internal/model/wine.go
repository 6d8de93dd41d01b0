package model

import "time"

// WineRecord is a wine as it appears in a seed dataset or a scraped snapshot.
// Nil pointers mark fields the source did not supply.
type WineRecord struct {
	Name           string   `json:"name" yaml:"name" mapstructure:"name"`
	Vineyard       string   `json:"vineyard" yaml:"vineyard" mapstructure:"vineyard"`
	Region         string   `json:"region" yaml:"region" mapstructure:"region"`
	Country        string   `json:"country" yaml:"country" mapstructure:"country"`
	Varietal       string   `json:"varietal" yaml:"varietal" mapstructure:"varietal"`
	Vintage        *int     `json:"vintage,omitempty" yaml:"vintage,omitempty" mapstructure:"vintage"`
	Description    *string  `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	AlcoholContent *float64 `json:"alcoholContent,omitempty" yaml:"alcoholContent,omitempty" mapstructure:"alcoholContent"`
	Image          *string  `json:"image,omitempty" yaml:"image,omitempty" mapstructure:"image"`
	Rating         *float64 `json:"rating,omitempty" yaml:"rating,omitempty" mapstructure:"rating"`
	RatingCount    *int     `json:"ratingCount,omitempty" yaml:"ratingCount,omitempty" mapstructure:"ratingCount"`
	Price          *float64 `json:"price,omitempty" yaml:"price,omitempty" mapstructure:"price"`
}

// Wine is a persisted wine row.
type Wine struct {
	ID       string  `json:"id"`
	Slug     string  `json:"slug"`
	WineryID *string `json:"wineryId,omitempty"`
	WineRecord
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WinePatch lists the columns a re-seed may fill on an existing wine.
// Nil fields are left untouched.
type WinePatch struct {
	Description    *string
	AlcoholContent *float64
	Image          *string
}

// Empty reports whether the patch would change nothing.
func (p WinePatch) Empty() bool {
	return p.Description == nil && p.AlcoholContent == nil && p.Image == nil
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
