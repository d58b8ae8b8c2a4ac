package domain

import "time"

// Order is immutable once created. ItemIDs is a snapshot of the seller's
// catalog entries resolved at creation time.
type Order struct {
	ID        string
	SellerID  string
	BuyerID   string
	ItemIDs   []string
	CreatedAt time.Time
}

// SellerOrders is the cached projection of a seller's orders: one slice of
// item names per order, oldest order first.
type SellerOrders struct {
	Orders [][]string `json:"orders"`
}
