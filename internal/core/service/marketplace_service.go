package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/core/reconcile"
	"github.com/rl1809/marketplace/internal/port"
)

const minUsernameLength = 6

type MarketplaceService struct {
	db      port.DatabaseRepository
	cache   *CacheCoordinator
	log     *zap.Logger
	timeout time.Duration

	newID func() string
	now   func() time.Time
}

// NewMarketplaceService builds the service. A positive storeTimeout bounds
// every durable store call.
func NewMarketplaceService(db port.DatabaseRepository, cache *CacheCoordinator, log *zap.Logger, storeTimeout time.Duration) *MarketplaceService {
	return &MarketplaceService{
		db:      db,
		cache:   cache,
		log:     log,
		timeout: storeTimeout,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

func (s *MarketplaceService) ListSellers(ctx context.Context) (domain.SellerList, error) {
	sellers, err := GetOrCompute(ctx, s.cache, domain.SellerListKey, domain.SellerListTTL,
		func(ctx context.Context) ([]string, error) {
			return loadNonEmpty(ctx, s, "list sellers", s.db.ListSellers)
		})
	if err != nil {
		return domain.SellerList{}, fmt.Errorf("list sellers: %w", err)
	}
	return domain.SellerList{Sellers: sellers}, nil
}

func (s *MarketplaceService) SellerCatalog(ctx context.Context, sellerID string) (domain.SellerCatalog, error) {
	names, err := GetOrCompute(ctx, s.cache, domain.SellerCatalogKey(sellerID), domain.SellerCatalogTTL,
		func(ctx context.Context) ([]string, error) {
			return loadNonEmpty(ctx, s, "seller catalog", func(ctx context.Context) ([]string, error) {
				return s.db.SellerCatalog(ctx, sellerID)
			})
		})
	if err != nil {
		return domain.SellerCatalog{}, fmt.Errorf("seller catalog %s: %w", sellerID, err)
	}
	return domain.SellerCatalog{Catalog: names}, nil
}

func (s *MarketplaceService) SellerOrders(ctx context.Context, sellerID string) (domain.SellerOrders, error) {
	orders, err := GetOrCompute(ctx, s.cache, domain.SellerOrdersKey(sellerID), domain.SellerOrdersTTL,
		func(ctx context.Context) ([][]string, error) {
			return loadNonEmpty(ctx, s, "seller orders", func(ctx context.Context) ([][]string, error) {
				return s.db.SellerOrders(ctx, sellerID)
			})
		})
	if err != nil {
		return domain.SellerOrders{}, fmt.Errorf("seller orders %s: %w", sellerID, err)
	}
	return domain.SellerOrders{Orders: orders}, nil
}

// RegisterUser persists a new user and invalidates the seller list.
func (s *MarketplaceService) RegisterUser(ctx context.Context, username string, role domain.Role) (*domain.User, error) {
	const op = "register user"

	if len(username) < minUsernameLength {
		return nil, fmt.Errorf("%s: %w", op, &domain.ValidationError{
			Reason: fmt.Sprintf("username should be at least %d characters in length", minUsernameLength),
		})
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%s: %w", op, &domain.ValidationError{
			Reason: fmt.Sprintf("role should be one of %s,%s", domain.RoleBuyer, domain.RoleSeller),
		})
	}

	user := domain.User{
		ID:        s.newID(),
		Username:  username,
		Role:      role,
		CreatedAt: s.now(),
	}

	err := s.commit(ctx, op, func(ctx context.Context) error {
		return s.db.CreateUser(ctx, user)
	}, domain.SellerListKey)
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return &user, nil
}

// CreateCatalog replaces the seller's catalog with the named items. Every name
// must resolve against the full item collection or nothing is written.
func (s *MarketplaceService) CreateCatalog(ctx context.Context, sellerID string, items []string) error {
	const op = "create catalog"

	if len(items) == 0 {
		return fmt.Errorf("%s: %w", op, &domain.ValidationError{
			Reason: "invalid list of items, please provide a non-empty list",
		})
	}

	refs, err := load(ctx, s, op, s.db.CatalogReconciliationSource)
	if err != nil {
		return err
	}

	res, err := reconciled(items, refs, "these items are not available for adding in catalog")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	catalog := domain.Catalog{
		SellerID:  sellerID,
		ItemIDs:   res.Available,
		UpdatedAt: s.now(),
	}

	err = s.commit(ctx, op, func(ctx context.Context) error {
		return s.db.UpsertCatalog(ctx, catalog)
	}, domain.SellerCatalogKey(sellerID))
	if err != nil {
		return err
	}

	s.log.Info("catalog replaced", zap.String("seller_id", sellerID), zap.Int("items", len(catalog.ItemIDs)))
	return nil
}

// CreateOrder places an order for items from the seller's current catalog.
// Every name must resolve against that catalog or nothing is written.
func (s *MarketplaceService) CreateOrder(ctx context.Context, buyerID, sellerID string, items []string) (*domain.Order, error) {
	const op = "create order"

	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", op, &domain.ValidationError{
			Reason: "missing items, please provide a non-empty list",
		})
	}

	seller, err := s.getUser(ctx, op, sellerID)
	if err != nil {
		return nil, err
	}
	if seller.Role != domain.RoleSeller {
		return nil, fmt.Errorf("%s: user %s is not a seller: %w", op, sellerID, domain.ErrNotFound)
	}

	refs, err := load(ctx, s, op, func(ctx context.Context) ([]domain.ItemRef, error) {
		return s.db.OrderReconciliationSource(ctx, sellerID)
	})
	if err != nil {
		return nil, err
	}

	res, err := reconciled(items, refs, "these items are not available in the catalog")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order := domain.Order{
		ID:        s.newID(),
		SellerID:  sellerID,
		BuyerID:   buyerID,
		ItemIDs:   res.Available,
		CreatedAt: s.now(),
	}

	err = s.commit(ctx, op, func(ctx context.Context) error {
		return s.db.CreateOrder(ctx, order)
	}, domain.SellerOrdersKey(sellerID))
	if err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("seller_id", sellerID),
		zap.String("buyer_id", buyerID),
	)
	return &order, nil
}

// commit is the single write sequence: persist, then invalidate keys. Keys
// are only invalidated once persist has returned successfully. Invalidation
// failures are logged; the write has already been committed.
func (s *MarketplaceService) commit(ctx context.Context, op string, persist func(context.Context) error, keys ...string) error {
	sctx, cancel := s.bound(ctx)
	err := persist(sctx)
	cancel()
	if err != nil {
		s.log.Error("store write failed", zap.String("op", op), zap.Error(err))
		return storeError(op, err)
	}

	for _, key := range keys {
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.log.Error("cache invalidation failed after commit, entry stays until ttl",
				zap.String("op", op), zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

func (s *MarketplaceService) getUser(ctx context.Context, op, userID string) (*domain.User, error) {
	sctx, cancel := s.bound(ctx)
	defer cancel()

	user, err := s.db.GetUser(sctx, userID)
	if err != nil {
		return nil, storeError(op, err)
	}
	return user, nil
}

func (s *MarketplaceService) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func load[T any](ctx context.Context, s *MarketplaceService, op string, fn func(context.Context) ([]T, error)) ([]T, error) {
	sctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := fn(sctx)
	if err != nil {
		s.log.Error("store read failed", zap.String("op", op), zap.Error(err))
		return nil, storeError(op, err)
	}
	return rows, nil
}

// loadNonEmpty is load for aggregate reads, where no rows means not found.
func loadNonEmpty[T any](ctx context.Context, s *MarketplaceService, op string, fn func(context.Context) ([]T, error)) ([]T, error) {
	rows, err := load(ctx, s, op, fn)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows, nil
}

// reconciled runs the engine and turns a partial match into a
// ValidationError. It also checks the engine's totality guarantee.
func reconciled(requested []string, refs []domain.ItemRef, reason string) (reconcile.Result, error) {
	res := reconcile.Reconcile(requested, refs)
	if !res.OK() {
		return res, &domain.ValidationError{Reason: reason, Unavailable: res.Unavailable}
	}

	available := make(map[string]struct{}, len(res.Available))
	for _, id := range res.Available {
		available[id] = struct{}{}
	}
	resolved := reconcile.Resolve(requested, refs)
	for _, token := range requested {
		id, ok := resolved[token]
		if !ok {
			return res, fmt.Errorf("%w: item %q neither available nor unavailable", domain.ErrInternal, token)
		}
		if _, ok := available[id]; !ok {
			return res, fmt.Errorf("%w: item %q resolved to %s outside the available set", domain.ErrInternal, token, id)
		}
	}
	return res, nil
}

func storeError(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAlreadyExists) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstreamUnavailable, err)
}
