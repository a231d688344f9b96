package cache

import (
	"context"
	"errors"

	"github.com/fjod/thread-storefront/domain"
)

type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.CartSnapshot, error)
	Set(ctx context.Context, userID string, cart *domain.CartSnapshot) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// Noop never hits. Used when REDIS_ADDR is empty.
type Noop struct{}

func (Noop) Get(context.Context, string) (*domain.CartSnapshot, error) {
	return nil, ErrCacheMiss
}

func (Noop) Set(context.Context, string, *domain.CartSnapshot) error {
	return nil
}

func (Noop) Delete(context.Context, string) error {
	return nil
}
