package domain

import "time"

// Catalog is keyed by seller. Writing a catalog replaces its whole item set.
type Catalog struct {
	SellerID  string
	ItemIDs   []string
	UpdatedAt time.Time
}

type SellerCatalog struct {
	Catalog []string `json:"catalog"`
}
