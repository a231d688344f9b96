package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/fjod/thread-storefront/domain"
	"github.com/fjod/thread-storefront/internal/cache"
	"github.com/fjod/thread-storefront/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type CartService struct {
	store   repository.DocumentStore
	ns      repository.Namespace
	cache   cache.CartCache
	catalog *CatalogService
	logger  *zap.Logger
	sfg     singleflight.Group // one store read per user on a cache miss
	now     func() time.Time

	// fillMu orders cache fills against invalidation. A fill only writes if
	// the user's generation is unchanged since its store read began.
	fillMu sync.Mutex
	gens   map[string]uint64
}

func NewCartService(store repository.DocumentStore, ns repository.Namespace, cartCache cache.CartCache, catalog *CatalogService, logger *zap.Logger) *CartService {
	if cartCache == nil {
		cartCache = cache.Noop{}
	}
	return &CartService{
		store:   store,
		ns:      ns,
		cache:   cartCache,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
		gens:    make(map[string]uint64),
	}
}

// List returns the user's cart. Anonymous sessions get an empty cart without
// touching storage.
func (s *CartService) List(ctx context.Context, userID string) (domain.CartSnapshot, error) {
	if userID == "" {
		return domain.CartSnapshot{CapturedAt: s.now().UTC()}, nil
	}

	v, err, _ := s.sfg.Do(userID, func() (any, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return *cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cart cache get failed", zap.String("user_id", userID), zap.Error(err))
		}

		gen := s.generation(userID)
		snapshot, err := s.load(ctx, userID)
		if err != nil {
			return nil, err
		}

		go s.fillCache(userID, gen, snapshot.Clone())

		return snapshot, nil
	})
	if err != nil {
		return domain.CartSnapshot{}, err
	}
	return v.(domain.CartSnapshot).Clone(), nil
}

// Live reads the cart straight from storage, bypassing the cache.
func (s *CartService) Live(ctx context.Context, userID string) (domain.CartSnapshot, error) {
	if userID == "" {
		return domain.CartSnapshot{}, &domain.AuthRequiredError{Action: "view your cart"}
	}
	return s.load(ctx, userID)
}

func (s *CartService) Count(ctx context.Context, userID string) (int, error) {
	cart, err := s.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	return cart.Count(), nil
}

// Add merges on (product, size): an existing line gains one, otherwise a new
// line is inserted with quantity 1.
func (s *CartService) Add(ctx context.Context, userID string, item domain.LineItem) (domain.LineItem, error) {
	if userID == "" {
		return domain.LineItem{}, &domain.AuthRequiredError{Action: "add items to your cart"}
	}
	if strings.TrimSpace(item.ProductID) == "" {
		return domain.LineItem{}, &domain.ValidationError{Field: "product_id", Message: "is required"}
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return domain.LineItem{}, err
	}
	defer s.invalidate(userID)

	collection := s.ns.User(userID, repository.CollectionCart)
	if existing, ok := cart.FindLine(item); ok {
		existing.Quantity = existing.Qty() + 1
		err := s.store.Update(ctx, repository.DocPath(collection, existing.ID), map[string]any{"quantity": existing.Quantity})
		if err != nil {
			return domain.LineItem{}, storeError("update cart item", err, "cart item", existing.ID)
		}
		return existing, nil
	}

	item.ID = ""
	item.Quantity = 1
	item.CreatedAt = s.now().UTC()
	fields, err := repository.Encode(item)
	if err != nil {
		return domain.LineItem{}, err
	}
	id, err := s.store.Add(ctx, collection, fields)
	if err != nil {
		return domain.LineItem{}, domain.Remote("add to cart", err)
	}
	item.ID = id
	return item, nil
}

// AddProduct looks the product up and adds it in the chosen size. Every
// listing is a single item in one size, so any other size is rejected. Size
// may be omitted only for one-size categories.
func (s *CartService) AddProduct(ctx context.Context, userID, productID, size string) (domain.LineItem, error) {
	if userID == "" {
		return domain.LineItem{}, &domain.AuthRequiredError{Action: "add items to your cart"}
	}
	product, err := s.catalog.Find(ctx, productID)
	if err != nil {
		return domain.LineItem{}, err
	}
	size = strings.TrimSpace(size)
	if size == "" {
		if product.RequiresSize() {
			return domain.LineItem{}, &domain.ValidationError{Field: "size", Message: "please select a size"}
		}
		size = product.Size
	}
	if !strings.EqualFold(size, product.Size) {
		return domain.LineItem{}, &domain.ValidationError{Field: "size", Message: "is not available for this item, only " + product.Size + " is"}
	}
	return s.Add(ctx, userID, domain.LineItem{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Size:      product.Size,
		Brand:     product.Brand,
		Image:     product.Image,
	})
}

// UpdateQuantity sets a line's quantity. Zero or negative is ignored; only
// Remove deletes a line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	if userID == "" {
		return &domain.AuthRequiredError{Action: "update your cart"}
	}
	if quantity <= 0 {
		return nil
	}
	docPath := repository.DocPath(s.ns.User(userID, repository.CollectionCart), lineID)
	if err := s.store.Update(ctx, docPath, map[string]any{"quantity": quantity}); err != nil {
		return storeError("update cart item", err, "cart item", lineID)
	}
	s.invalidate(userID)
	return nil
}

// Remove deletes a line. Callers confirm with the user first.
func (s *CartService) Remove(ctx context.Context, userID, lineID string) error {
	if userID == "" {
		return &domain.AuthRequiredError{Action: "update your cart"}
	}
	docPath := repository.DocPath(s.ns.User(userID, repository.CollectionCart), lineID)
	if err := s.store.Delete(ctx, docPath); err != nil {
		return storeError("remove cart item", err, "cart item", lineID)
	}
	s.invalidate(userID)
	return nil
}

// Clear deletes every line. It stops at the first failure; lines already
// deleted stay deleted.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return &domain.AuthRequiredError{Action: "update your cart"}
	}
	cart, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	defer s.invalidate(userID)

	collection := s.ns.User(userID, repository.CollectionCart)
	for _, item := range cart.Items {
		err := s.store.Delete(ctx, repository.DocPath(collection, item.ID))
		if err != nil && !errors.Is(err, repository.ErrDocumentNotFound) {
			return domain.Remote("clear cart", err)
		}
	}
	return nil
}

// RemoveOrderedLines deletes cart lines that were bought in an order and are
// unchanged since. It is the retry path for a cart clear that failed after
// the order was saved. A line whose quantity changed is left alone.
func (s *CartService) RemoveOrderedLines(ctx context.Context, userID string, ordered []domain.LineItem) (int, error) {
	if userID == "" {
		return 0, &domain.AuthRequiredError{Action: "update your cart"}
	}
	cart, err := s.load(ctx, userID)
	if err != nil {
		return 0, err
	}

	collection := s.ns.User(userID, repository.CollectionCart)
	removed := 0
	for _, item := range ordered {
		line, ok := cart.Find(item.ID)
		if !ok {
			continue
		}
		if line.Qty() != item.Qty() || !line.SameLine(item) {
			s.logger.Info("cart line changed after order, kept",
				zap.String("user_id", userID), zap.String("line_id", item.ID))
			continue
		}
		err := s.store.Delete(ctx, repository.DocPath(collection, item.ID))
		if err != nil && !errors.Is(err, repository.ErrDocumentNotFound) {
			s.invalidate(userID)
			return removed, domain.Remote("remove ordered lines", err)
		}
		removed++
	}
	if removed > 0 {
		s.invalidate(userID)
	}
	return removed, nil
}

func (s *CartService) load(ctx context.Context, userID string) (domain.CartSnapshot, error) {
	docs, err := s.store.List(ctx, s.ns.User(userID, repository.CollectionCart))
	if err != nil {
		return domain.CartSnapshot{}, domain.Remote("load cart", err)
	}
	items, err := repository.DecodeAll[domain.LineItem](docs)
	if err != nil {
		return domain.CartSnapshot{}, err
	}
	return domain.CartSnapshot{UserID: userID, Items: items, CapturedAt: s.now().UTC()}, nil
}

func (s *CartService) generation(userID string) uint64 {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	return s.gens[userID]
}

// fillCache stores a snapshot read at generation gen. A mutation that
// invalidated the cart since then wins and the stale snapshot is dropped.
func (s *CartService) fillCache(userID string, gen uint64, snapshot domain.CartSnapshot) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if s.gens[userID] != gen {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, userID, &snapshot); err != nil {
		s.logger.Warn("cart cache set failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *CartService) invalidate(userID string) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	s.gens[userID]++

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn("cart cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}
