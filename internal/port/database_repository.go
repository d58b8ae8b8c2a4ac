package port

import (
	"context"

	"github.com/rl1809/marketplace/internal/core/domain"
)

// QueryLayer holds the aggregate and reconciliation-source reads. Empty
// results are returned as empty slices with a nil error.
type QueryLayer interface {
	// ListSellers returns usernames of all sellers, oldest registration first
	ListSellers(ctx context.Context) ([]string, error)

	// SellerCatalog returns the item names of a seller's catalog in catalog order
	SellerCatalog(ctx context.Context, sellerID string) ([]string, error)

	// SellerOrders returns one slice of item names per order, oldest order first
	SellerOrders(ctx context.Context, sellerID string) ([][]string, error)

	// CatalogReconciliationSource returns every item as {id, name}
	CatalogReconciliationSource(ctx context.Context) ([]domain.ItemRef, error)

	// OrderReconciliationSource returns the seller's catalog items as {id, name}
	OrderReconciliationSource(ctx context.Context, sellerID string) ([]domain.ItemRef, error)
}

type DatabaseRepository interface {
	QueryLayer

	// CreateUser persists a user, returning domain.ErrAlreadyExists on a duplicate username
	CreateUser(ctx context.Context, user domain.User) error

	// GetUser retrieves a user by ID, returning domain.ErrNotFound if absent
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertCatalog replaces the seller's catalog item set
	UpsertCatalog(ctx context.Context, catalog domain.Catalog) error

	// CreateOrder persists a new order with its item lines
	CreateOrder(ctx context.Context, order domain.Order) error

	// CreateItems seeds items, skipping names that already exist
	CreateItems(ctx context.Context, items []domain.Item) (int, error)
}
