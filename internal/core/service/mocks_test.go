package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rl1809/marketplace/internal/core/domain"
)

// journal records cache and store side effects in the order they happen.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// Mock CacheRepository
type cacheEntry struct {
	value []byte
	ttl   time.Duration
}

type mockCacheRepo struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	journal *journal

	getErr error
	setErr error
	delErr error

	gets, sets, dels int

	// beforeSet runs at the start of every Set, outside the lock.
	beforeSet func(key string)
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{entries: make(map[string]cacheEntry)}
}

func (m *mockCacheRepo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	hook := m.beforeSet
	m.mu.Unlock()
	if hook != nil {
		hook(key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[key] = cacheEntry{value: value, ttl: ttl}
	m.journal.add("cache.set " + key)
	return nil
}

func (m *mockCacheRepo) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dels++
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.entries, key)
	m.journal.add("cache.delete " + key)
	return nil
}

func (m *mockCacheRepo) entry(key string) (cacheEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return e, ok
}

// Mock DatabaseRepository backed by in-memory tables
type mockDatabaseRepo struct {
	mu      sync.Mutex
	journal *journal

	users    map[string]domain.User
	items    []domain.ItemRef
	catalogs map[string][]string
	orders   []domain.Order

	err   error
	calls map[string]int
}

func newMockDatabaseRepo(items ...domain.ItemRef) *mockDatabaseRepo {
	return &mockDatabaseRepo{
		users:    make(map[string]domain.User),
		items:    items,
		catalogs: make(map[string][]string),
		calls:    make(map[string]int),
	}
}

var errStoreDown = errors.New("connection refused")

func (m *mockDatabaseRepo) call(name string) error {
	m.calls[name]++
	return m.err
}

func (m *mockDatabaseRepo) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockDatabaseRepo) itemName(id string) string {
	for _, ref := range m.items {
		if ref.ID == id {
			return ref.Name
		}
	}
	return ""
}

func (m *mockDatabaseRepo) ListSellers(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListSellers"); err != nil {
		return nil, err
	}
	sellers := []string{}
	for _, u := range m.users {
		if u.Role == domain.RoleSeller {
			sellers = append(sellers, u.Username)
		}
	}
	return sellers, nil
}

func (m *mockDatabaseRepo) SellerCatalog(ctx context.Context, sellerID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("SellerCatalog"); err != nil {
		return nil, err
	}
	names := []string{}
	for _, id := range m.catalogs[sellerID] {
		names = append(names, m.itemName(id))
	}
	return names, nil
}

func (m *mockDatabaseRepo) SellerOrders(ctx context.Context, sellerID string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("SellerOrders"); err != nil {
		return nil, err
	}
	out := [][]string{}
	for _, o := range m.orders {
		if o.SellerID != sellerID {
			continue
		}
		names := []string{}
		for _, id := range o.ItemIDs {
			names = append(names, m.itemName(id))
		}
		out = append(out, names)
	}
	return out, nil
}

func (m *mockDatabaseRepo) CatalogReconciliationSource(ctx context.Context) ([]domain.ItemRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CatalogReconciliationSource"); err != nil {
		return nil, err
	}
	return append([]domain.ItemRef(nil), m.items...), nil
}

func (m *mockDatabaseRepo) OrderReconciliationSource(ctx context.Context, sellerID string) ([]domain.ItemRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("OrderReconciliationSource"); err != nil {
		return nil, err
	}
	var refs []domain.ItemRef
	for _, id := range m.catalogs[sellerID] {
		refs = append(refs, domain.ItemRef{ID: id, Name: m.itemName(id)})
	}
	return refs, nil
}

func (m *mockDatabaseRepo) CreateUser(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CreateUser"); err != nil {
		return err
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return domain.ErrAlreadyExists
		}
	}
	m.users[user.ID] = user
	m.journal.add("db.create_user")
	return nil
}

func (m *mockDatabaseRepo) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("GetUser"); err != nil {
		return nil, err
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (m *mockDatabaseRepo) UpsertCatalog(ctx context.Context, catalog domain.Catalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("UpsertCatalog"); err != nil {
		return err
	}
	m.catalogs[catalog.SellerID] = append([]string(nil), catalog.ItemIDs...)
	m.journal.add("db.upsert_catalog")
	return nil
}

func (m *mockDatabaseRepo) CreateOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CreateOrder"); err != nil {
		return err
	}
	m.orders = append(m.orders, order)
	m.journal.add("db.create_order")
	return nil
}

func (m *mockDatabaseRepo) CreateItems(ctx context.Context, items []domain.Item) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CreateItems"); err != nil {
		return 0, err
	}
	for _, it := range items {
		m.items = append(m.items, domain.ItemRef{ID: it.ID, Name: it.Name})
	}
	return len(items), nil
}
