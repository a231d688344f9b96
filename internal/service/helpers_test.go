package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fjod/thread-storefront/domain"
	"github.com/fjod/thread-storefront/internal/cache"
	"github.com/fjod/thread-storefront/internal/catalog"
	"github.com/fjod/thread-storefront/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errBackendDown = errors.New("backend unavailable")

// spyStore counts reads and can fail selected operations.
type spyStore struct {
	*repository.MemoryStore
	lists      atomic.Int32
	failList   atomic.Bool
	failAdd    atomic.Bool
	failDelete atomic.Bool
}

func newSpyStore() *spyStore {
	return &spyStore{MemoryStore: repository.NewMemoryStore()}
}

func (s *spyStore) List(ctx context.Context, collection string) ([]repository.Document, error) {
	s.lists.Add(1)
	if s.failList.Load() {
		return nil, errBackendDown
	}
	return s.MemoryStore.List(ctx, collection)
}

func (s *spyStore) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if s.failAdd.Load() {
		return "", errBackendDown
	}
	return s.MemoryStore.Add(ctx, collection, fields)
}

func (s *spyStore) Delete(ctx context.Context, docPath string) error {
	if s.failDelete.Load() {
		return errBackendDown
	}
	return s.MemoryStore.Delete(ctx, docPath)
}

type mockCache struct {
	m       sync.Mutex
	carts   map[string]domain.CartSnapshot
	deletes int
}

func newMockCache() *mockCache {
	return &mockCache{carts: make(map[string]domain.CartSnapshot)}
}

func (c *mockCache) Get(_ context.Context, userID string) (*domain.CartSnapshot, error) {
	c.m.Lock()
	defer c.m.Unlock()
	cart, ok := c.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &cart, nil
}

func (c *mockCache) Set(_ context.Context, userID string, cart *domain.CartSnapshot) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.carts[userID] = cart.Clone()
	return nil
}

func (c *mockCache) Delete(_ context.Context, userID string) error {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.carts, userID)
	c.deletes++
	return nil
}

func (c *mockCache) has(userID string) bool {
	c.m.Lock()
	defer c.m.Unlock()
	_, ok := c.carts[userID]
	return ok
}

// slowCache holds its first Set until release is closed.
type slowCache struct {
	*mockCache
	once       sync.Once
	setStarted chan struct{}
	release    chan struct{}
}

func newSlowCache() *slowCache {
	return &slowCache{
		mockCache:  newMockCache(),
		setStarted: make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func (c *slowCache) Set(ctx context.Context, userID string, cart *domain.CartSnapshot) error {
	c.once.Do(func() {
		close(c.setStarted)
		<-c.release
	})
	return c.mockCache.Set(ctx, userID, cart)
}

type recordingPublisher struct {
	m      sync.Mutex
	orders []domain.Order
	err    error
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, order domain.Order) error {
	p.m.Lock()
	defer p.m.Unlock()
	p.orders = append(p.orders, order)
	return p.err
}

type fixture struct {
	store     *spyStore
	ns        repository.Namespace
	catalog   *CatalogService
	cart      *CartService
	wishlist  *WishlistService
	orders    *OrderService
	checkout  *CheckoutService
	drafts    *DraftStore
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newSpyStore()
	ns := repository.NewNamespace("test-app")
	logger := zap.NewNop()

	catalogSvc := NewCatalogService(store, ns, logger)
	products, err := catalog.Seed()
	require.NoError(t, err)
	_, err = catalogSvc.SeedIfEmpty(context.Background(), products)
	require.NoError(t, err)

	cartSvc := NewCartService(store, ns, cache.Noop{}, catalogSvc, logger)
	drafts := NewDraftStore(DraftTTL)
	t.Cleanup(drafts.Close)
	publisher := &recordingPublisher{}

	return &fixture{
		store:     store,
		ns:        ns,
		catalog:   catalogSvc,
		cart:      cartSvc,
		wishlist:  NewWishlistService(store, ns, cartSvc, logger),
		orders:    NewOrderService(store, ns),
		checkout:  NewCheckoutService(cartSvc, store, ns, drafts, publisher, nil, logger),
		drafts:    drafts,
		publisher: publisher,
	}
}

// product returns the seeded product with the given name.
func (f *fixture) product(t *testing.T, name string) domain.Product {
	t.Helper()
	products, err := f.catalog.List(context.Background())
	require.NoError(t, err)
	for _, p := range products {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("product %q not seeded", name)
	return domain.Product{}
}
