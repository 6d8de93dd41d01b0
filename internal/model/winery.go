package model

import "time"

// WineryRecord is the normalized shape every winery dataset maps onto.
type WineryRecord struct {
	Name        string  `json:"name"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
	Region      string  `json:"region"`
	Country     string  `json:"country"`
	Phone       *string `json:"phone,omitempty"`
	Website     *string `json:"website,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Winery is a persisted winery row. Name is unique across the store.
type Winery struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	WineryRecord
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
