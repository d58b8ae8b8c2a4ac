package port

import (
	"context"

	"github.com/rl1809/marketplace/internal/core/domain"
)

// MarketplaceService is what the transports drive.
type MarketplaceService interface {
	ListSellers(ctx context.Context) (domain.SellerList, error)
	SellerCatalog(ctx context.Context, sellerID string) (domain.SellerCatalog, error)
	SellerOrders(ctx context.Context, sellerID string) (domain.SellerOrders, error)
	RegisterUser(ctx context.Context, username string, role domain.Role) (*domain.User, error)
	CreateCatalog(ctx context.Context, sellerID string, items []string) error
	CreateOrder(ctx context.Context, buyerID, sellerID string, items []string) (*domain.Order, error)
}
