package model

// CatalogStats is a point-in-time count of the persisted catalog.
type CatalogStats struct {
	Wineries         int `json:"wineries"`
	Wines            int `json:"wines"`
	LinkedWines      int `json:"linked_wines"`
	UndescribedWines int `json:"undescribed_wines"`
}
