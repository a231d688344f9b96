package service

import (
	"context"
	"strings"
	"sync"

	"github.com/fjod/thread-storefront/domain"
	"github.com/fjod/thread-storefront/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CatalogService reads the shared product collection. Products are loaded
// once and kept in memory until Invalidate.
type CatalogService struct {
	store  repository.DocumentStore
	ns     repository.Namespace
	logger *zap.Logger
	sfg    singleflight.Group

	mu       sync.RWMutex
	products []domain.Product
	loaded   bool
}

func NewCatalogService(store repository.DocumentStore, ns repository.Namespace, logger *zap.Logger) *CatalogService {
	return &CatalogService{store: store, ns: ns, logger: logger}
}

func (s *CatalogService) List(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	if s.loaded {
		out := cloneProducts(s.products)
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.sfg.Do("products", func() (any, error) {
		docs, err := s.store.List(ctx, s.ns.Products())
		if err != nil {
			return nil, domain.Remote("load products", err)
		}
		products, err := repository.DecodeAll[domain.Product](docs)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.products = products
		s.loaded = true
		s.mu.Unlock()
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneProducts(v.([]domain.Product)), nil
}

func (s *CatalogService) Find(ctx context.Context, id string) (domain.Product, error) {
	products, err := s.List(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, &domain.NotFoundError{Kind: "product", ID: id}
}

func (s *CatalogService) Featured(ctx context.Context) ([]domain.Product, error) {
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out, nil
}

// Filter keeps products whose name or brand contains search (case
// insensitive) and whose category is one of categories. Empty arguments
// match everything.
func (s *CatalogService) Filter(ctx context.Context, search string, categories []string) ([]domain.Product, error) {
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	search = strings.ToLower(strings.TrimSpace(search))
	wanted := make(map[string]bool, len(categories))
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			wanted[strings.ToLower(c)] = true
		}
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		matchesSearch := search == "" ||
			strings.Contains(strings.ToLower(p.Name), search) ||
			strings.Contains(strings.ToLower(p.Brand), search)
		matchesCategory := len(wanted) == 0 || wanted[strings.ToLower(p.Category)]
		if matchesSearch && matchesCategory {
			out = append(out, p)
		}
	}
	return out, nil
}

// SeedIfEmpty writes products when the collection has none and returns how
// many were written.
func (s *CatalogService) SeedIfEmpty(ctx context.Context, products []domain.Product) (int, error) {
	docs, err := s.store.List(ctx, s.ns.Products())
	if err != nil {
		return 0, domain.Remote("load products", err)
	}
	if len(docs) > 0 {
		return 0, nil
	}

	written := 0
	for _, p := range products {
		fields, err := repository.Encode(p)
		if err != nil {
			return written, err
		}
		if _, err := s.store.Add(ctx, s.ns.Products(), fields); err != nil {
			s.Invalidate()
			return written, domain.Remote("seed products", err)
		}
		written++
	}
	s.Invalidate()
	s.logger.Info("catalog seeded", zap.Int("products", written))
	return written, nil
}

func (s *CatalogService) Invalidate() {
	s.mu.Lock()
	s.products = nil
	s.loaded = false
	s.mu.Unlock()
}

func cloneProducts(in []domain.Product) []domain.Product {
	out := make([]domain.Product, len(in))
	copy(out, in)
	return out
}
