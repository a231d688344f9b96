package repository

import (
	"context"
	"errors"

	"github.com/fjod/thread-storefront/pkg/circuitbreaker"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerStore guards a remote DocumentStore with a circuit breaker so a dead
// backend fails fast instead of piling up requests.
type BreakerStore struct {
	inner DocumentStore
	cb    *gobreaker.CircuitBreaker[any]
}

func NewBreakerStore(inner DocumentStore, cfg circuitbreaker.Config, logger *zap.Logger) *BreakerStore {
	isSuccessful := func(err error) bool {
		return err == nil || errors.Is(err, ErrDocumentNotFound) || errors.Is(err, ErrInvalidPath) ||
			errors.Is(err, context.Canceled)
	}
	onStateChange := func(name string, from, to gobreaker.State) {
		logger.Warn("document store circuit changed state",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	}
	return &BreakerStore{
		inner: inner,
		cb:    circuitbreaker.New[any](cfg, isSuccessful, onStateChange),
	}
}

func (b *BreakerStore) List(ctx context.Context, collection string) ([]Document, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.inner.List(ctx, collection)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Document), nil
}

func (b *BreakerStore) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.inner.Add(ctx, collection, fields)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (b *BreakerStore) Update(ctx context.Context, docPath string, fields map[string]any) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.inner.Update(ctx, docPath, fields)
	})
	return err
}

func (b *BreakerStore) Delete(ctx context.Context, docPath string) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.inner.Delete(ctx, docPath)
	})
	return err
}

func (b *BreakerStore) Close() error {
	return b.inner.Close()
}

func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}
