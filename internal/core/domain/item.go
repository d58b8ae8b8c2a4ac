package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	CreatedAt time.Time
}

// ItemRef is the {id, name} projection used as the authoritative side of a
// reconciliation.
type ItemRef struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}
