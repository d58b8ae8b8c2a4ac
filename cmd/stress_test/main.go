package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/marketplace/internal/adapter/storage"
	"github.com/rl1809/marketplace/internal/config"
	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/core/service"
)

const (
	totalReaders = 200
	rounds       = 3
)

// countingStore counts the catalog reads that reach MySQL.
type countingStore struct {
	*storage.MySQLAdapter
	catalogReads atomic.Int32
}

func (c *countingStore) SellerCatalog(ctx context.Context, sellerID string) ([]string, error) {
	c.catalogReads.Add(1)
	return c.MySQLAdapter.SellerCatalog(ctx, sellerID)
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := storage.ConnectMySQL(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()

	cache, closeCache, err := storage.OpenCache(ctx, cfg.Cache)
	if err != nil {
		log.Fatalf("failed to open cache: %v", err)
	}
	defer closeCache()

	store := &countingStore{MySQLAdapter: storage.NewMySQLAdapter(db)}
	coordinator := service.NewCacheCoordinator(cache, zap.NewNop(), cfg.Cache.Timeout)
	svc := service.NewMarketplaceService(store, coordinator, zap.NewNop(), cfg.Database.Timeout)

	// Fresh seller and items for this run
	suffix := time.Now().Format("150405.000")
	seller, err := svc.RegisterUser(ctx, "stress-seller-"+suffix, domain.RoleSeller)
	if err != nil {
		log.Fatalf("failed to register seller: %v", err)
	}

	names := []string{"stress-pen-" + suffix, "stress-book-" + suffix, "stress-ink-" + suffix}
	items := make([]domain.Item, 0, len(names))
	for _, n := range names {
		items = append(items, domain.Item{ID: uuid.NewString(), Name: n, Price: decimal.NewFromInt(1), CreatedAt: time.Now()})
	}
	if _, err := store.CreateItems(ctx, items); err != nil {
		log.Fatalf("failed to seed items: %v", err)
	}

	var (
		readFailures atomic.Int32
		staleReads   atomic.Int32
	)
	start := time.Now()

	for round := 1; round <= rounds; round++ {
		want := names[:round]
		if err := svc.CreateCatalog(ctx, seller.ID, want); err != nil {
			log.Fatalf("round %d: failed to create catalog: %v", round, err)
		}

		var wg sync.WaitGroup
		for i := 0; i < totalReaders; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				got, err := svc.SellerCatalog(ctx, seller.ID)
				if err != nil {
					readFailures.Add(1)
					return
				}
				if len(got.Catalog) != len(want) {
					staleReads.Add(1)
				}
			}()
		}
		wg.Wait()
	}
	elapsed := time.Since(start)

	storeReads := store.catalogReads.Load()

	fmt.Println("========== CACHE STRESS TEST RESULTS ==========")
	fmt.Printf("Cache Driver:     %s\n", cfg.Cache.Driver)
	fmt.Printf("Rounds:           %d\n", rounds)
	fmt.Printf("Reads per Round:  %d\n", totalReaders)
	fmt.Printf("Store Reads:      %d\n", storeReads)
	fmt.Printf("Read Failures:    %d\n", readFailures.Load())
	fmt.Printf("Stale Reads:      %d\n", staleReads.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("===============================================")

	if storeReads == rounds {
		fmt.Printf("PASS: one store read per catalog version (%d)\n", rounds)
	} else {
		fmt.Printf("FAIL: expected %d store reads, got %d\n", rounds, storeReads)
	}

	if staleReads.Load() == 0 && readFailures.Load() == 0 {
		fmt.Println("PASS: every read saw the catalog written before it")
	} else {
		fmt.Println("FAIL: stale or failed reads after catalog replacement")
	}

	// Negative results are not cached: an unknown seller always reaches the store.
	unknown := uuid.NewString()
	before := store.catalogReads.Load()
	for i := 0; i < 2; i++ {
		if _, err := svc.SellerCatalog(ctx, unknown); !errors.Is(err, domain.ErrNotFound) {
			fmt.Printf("FAIL: expected not found for unknown seller, got %v\n", err)
		}
	}
	if store.catalogReads.Load()-before == 2 {
		fmt.Println("PASS: not-found results were not cached")
	} else {
		fmt.Println("FAIL: not-found result served from cache")
	}
}
