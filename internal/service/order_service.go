package service

import (
	"context"
	"sort"

	"github.com/fjod/thread-storefront/domain"
	"github.com/fjod/thread-storefront/internal/repository"
)

type OrderService struct {
	store repository.DocumentStore
	ns    repository.Namespace
}

func NewOrderService(store repository.DocumentStore, ns repository.Namespace) *OrderService {
	return &OrderService{store: store, ns: ns}
}

// List returns the user's orders, newest first.
func (s *OrderService) List(ctx context.Context, userID string) ([]domain.Order, error) {
	if userID == "" {
		return nil, &domain.AuthRequiredError{Action: "view your orders"}
	}
	docs, err := s.store.List(ctx, s.ns.User(userID, repository.CollectionOrders))
	if err != nil {
		return nil, domain.Remote("load orders", err)
	}
	orders, err := repository.DecodeAll[domain.Order](docs)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}
