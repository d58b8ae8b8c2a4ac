package handler

import (
	"context"
	"sync"

	"github.com/rl1809/marketplace/internal/core/domain"
)

const (
	buyerID  = "b0c5a8f2-1a6d-4c1e-9a57-3f0f1d2e4b61"
	sellerID = "5e11e7a0-8d2b-4f3a-b6c9-0a1b2c3d4e5f"
)

type mockService struct {
	mu sync.Mutex

	sellers  domain.SellerList
	catalogs map[string]domain.SellerCatalog
	orders   map[string]domain.SellerOrders
	err      error

	registered []domain.User
	created    map[string][]string
	lastBuyer  string
	lastSeller string
}

func newMockService() *mockService {
	return &mockService{
		catalogs: make(map[string]domain.SellerCatalog),
		orders:   make(map[string]domain.SellerOrders),
		created:  make(map[string][]string),
	}
}

func (m *mockService) ListSellers(ctx context.Context) (domain.SellerList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.SellerList{}, m.err
	}
	return m.sellers, nil
}

func (m *mockService) SellerCatalog(ctx context.Context, id string) (domain.SellerCatalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.SellerCatalog{}, m.err
	}
	c, ok := m.catalogs[id]
	if !ok {
		return domain.SellerCatalog{}, domain.ErrNotFound
	}
	return c, nil
}

func (m *mockService) SellerOrders(ctx context.Context, id string) (domain.SellerOrders, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.SellerOrders{}, m.err
	}
	o, ok := m.orders[id]
	if !ok {
		return domain.SellerOrders{}, domain.ErrNotFound
	}
	return o, nil
}

func (m *mockService) RegisterUser(ctx context.Context, username string, role domain.Role) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u := domain.User{ID: "new-user-id", Username: username, Role: role}
	m.registered = append(m.registered, u)
	return &u, nil
}

func (m *mockService) CreateCatalog(ctx context.Context, id string, items []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.created[id] = items
	return nil
}

func (m *mockService) CreateOrder(ctx context.Context, buyer, seller string, items []string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.lastBuyer = buyer
	m.lastSeller = seller
	return &domain.Order{ID: "order-1", SellerID: seller, BuyerID: buyer, ItemIDs: []string{"1", "2"}}, nil
}
