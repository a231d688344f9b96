package service

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/thread-storefront/domain"
	"github.com/fjod/thread-storefront/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func scarf() domain.LineItem {
	return domain.LineItem{
		ProductID: "p-scarf",
		Name:      "Silk Scarf",
		UnitPrice: decimal.NewFromInt(285),
		Size:      "OS",
		Brand:     "Hermès",
	}
}

func TestCart_AddRequiresUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cart.Add(ctx, "", scarf())
	assert.True(t, domain.IsAuthRequired(err))

	docs, err := f.store.MemoryStore.List(ctx, f.ns.User("", repository.CollectionCart))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestCart_AddMergesSameProductAndSize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.cart.Add(ctx, "u-1", scarf())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Quantity)

	second, err := f.cart.Add(ctx, "u-1", scarf())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Quantity)

	cart, err := f.cart.List(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 2, cart.Count())
}

func TestCart_AddDifferentSizeIsNewLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := scarf()
	_, err := f.cart.Add(ctx, "u-1", item)
	require.NoError(t, err)
	item.Size = "L"
	_, err = f.cart.Add(ctx, "u-1", item)
	require.NoError(t, err)

	cart, err := f.cart.List(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestCart_AddIgnoresIncomingQuantity(t *testing.T) {
	f := newFixture(t)
	item := scarf()
	item.Quantity = 5

	line, err := f.cart.Add(context.Background(), "u-1", item)
	require.NoError(t, err)
	assert.Equal(t, 1, line.Quantity)
}

func TestCart_AddProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	coat := f.product(t, "Cashmere Oversized Coat")
	bag := f.product(t, "Vintage Leather Bag")

	t.Run("size required for clothing", func(t *testing.T) {
		_, err := f.cart.AddProduct(ctx, "u-1", coat.ID, "")
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "size", verr.Field)
	})

	t.Run("selected size", func(t *testing.T) {
		line, err := f.cart.AddProduct(ctx, "u-1", coat.ID, "M")
		require.NoError(t, err)
		assert.Equal(t, "M", line.Size)
		assert.Equal(t, "Cashmere Oversized Coat", line.Name)
		assert.True(t, line.UnitPrice.Equal(decimal.NewFromInt(890)))
	})

	t.Run("accessories default to product size", func(t *testing.T) {
		line, err := f.cart.AddProduct(ctx, "u-1", bag.ID, "")
		require.NoError(t, err)
		assert.Equal(t, "OS", line.Size)
	})

	t.Run("other size rejected", func(t *testing.T) {
		_, err := f.cart.AddProduct(ctx, "u-2", coat.ID, "XL")
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "size", verr.Field)

		cart, err := f.cart.Live(ctx, "u-2")
		require.NoError(t, err)
		assert.True(t, cart.IsEmpty())
	})

	t.Run("size match ignores case", func(t *testing.T) {
		line, err := f.cart.AddProduct(ctx, "u-3", bag.ID, "os")
		require.NoError(t, err)
		assert.Equal(t, "OS", line.Size)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := f.cart.AddProduct(ctx, "u-1", "missing", "M")
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := f.cart.AddProduct(ctx, "", coat.ID, "M")
		assert.True(t, domain.IsAuthRequired(err))
	})
}

func TestCart_UpdateQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	line, err := f.cart.Add(ctx, "u-1", scarf())
	require.NoError(t, err)

	require.NoError(t, f.cart.UpdateQuantity(ctx, "u-1", line.ID, 4))
	cart, err := f.cart.List(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	for _, q := range []int{0, -3} {
		require.NoError(t, f.cart.UpdateQuantity(ctx, "u-1", line.ID, q))
	}
	cart, err = f.cart.List(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	err = f.cart.UpdateQuantity(ctx, "u-1", "missing", 2)
	assert.True(t, domain.IsNotFound(err))
}

func TestCart_Remove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	line, err := f.cart.Add(ctx, "u-1", scarf())
	require.NoError(t, err)

	require.NoError(t, f.cart.Remove(ctx, "u-1", line.ID))
	cart, err := f.cart.List(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	assert.True(t, domain.IsNotFound(f.cart.Remove(ctx, "u-1", line.ID)))
}

func TestCart_Clear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := scarf()
	_, err := f.cart.Add(ctx, "u-1", item)
	require.NoError(t, err)
	item.ProductID = "p-other"
	_, err = f.cart.Add(ctx, "u-1", item)
	require.NoError(t, err)
	_, err = f.cart.Add(ctx, "u-2", item)
	require.NoError(t, err)

	require.NoError(t, f.cart.Clear(ctx, "u-1"))

	n, err := f.cart.Count(ctx, "u-1")
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = f.cart.Count(ctx, "u-2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCart_AnonymousListDoesNotTouchStore(t *testing.T) {
	f := newFixture(t)
	before := f.store.lists.Load()

	cart, err := f.cart.List(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, before, f.store.lists.Load())
}

func TestCart_StoreFailureIsRemote(t *testing.T) {
	f := newFixture(t)
	f.store.failList.Store(true)

	_, err := f.cart.List(context.Background(), "u-1")
	assert.True(t, domain.IsRemote(err))

	_, err = f.cart.Add(context.Background(), "u-1", scarf())
	assert.True(t, domain.IsRemote(err))
}

func TestCart_ReadsThroughCache(t *testing.T) {
	store := newSpyStore()
	ns := repository.NewNamespace("test-app")
	cartCache := newMockCache()
	svc := NewCartService(store, ns, cartCache, NewCatalogService(store, ns, zap.NewNop()), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Add(ctx, "u-1", scarf())
	require.NoError(t, err)
	assert.Equal(t, 1, cartCache.deletes)

	_, err = svc.List(ctx, "u-1")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return cartCache.has("u-1") }, time.Second, 10*time.Millisecond)

	reads := store.lists.Load()
	cart, err := svc.List(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Count())
	assert.Equal(t, reads, store.lists.Load())

	_, err = svc.Add(ctx, "u-1", scarf())
	require.NoError(t, err)
	assert.False(t, cartCache.has("u-1"))
}

func TestCart_SlowCacheFillDoesNotHideAdd(t *testing.T) {
	store := newSpyStore()
	ns := repository.NewNamespace("test-app")
	cartCache := newSlowCache()
	svc := NewCartService(store, ns, cartCache, NewCatalogService(store, ns, zap.NewNop()), zap.NewNop())
	ctx := context.Background()

	// the miss schedules a fill of the empty cart that stalls inside Set
	cart, err := svc.List(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	<-cartCache.setStarted

	added := make(chan error, 1)
	go func() {
		_, err := svc.Add(ctx, "u-1", scarf())
		added <- err
	}()
	close(cartCache.release)
	require.NoError(t, <-added)

	cart, err = svc.List(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Count())
}

func TestCart_FillAfterInvalidateIsDropped(t *testing.T) {
	store := newSpyStore()
	ns := repository.NewNamespace("test-app")
	cartCache := newMockCache()
	svc := NewCartService(store, ns, cartCache, NewCatalogService(store, ns, zap.NewNop()), zap.NewNop())

	gen := svc.generation("u-1")
	stale := domain.CartSnapshot{Items: []domain.LineItem{scarf()}}
	svc.invalidate("u-1")
	svc.fillCache("u-1", gen, stale)
	assert.False(t, cartCache.has("u-1"))

	svc.fillCache("u-1", svc.generation("u-1"), stale)
	assert.True(t, cartCache.has("u-1"))
}

func TestCart_RemoveOrderedLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	scarfLine, err := f.cart.Add(ctx, "u-1", scarf())
	require.NoError(t, err)
	coat := domain.LineItem{ProductID: "p-coat", Name: "Coat", UnitPrice: decimal.NewFromInt(890), Size: "M"}
	coatLine, err := f.cart.Add(ctx, "u-1", coat)
	require.NoError(t, err)
	ordered := []domain.LineItem{scarfLine, coatLine}

	// the coat was added again after the order, so its line changed
	_, err = f.cart.Add(ctx, "u-1", coat)
	require.NoError(t, err)
	belt := domain.LineItem{ProductID: "p-belt", Name: "Belt", UnitPrice: decimal.NewFromInt(60), Size: "OS"}
	_, err = f.cart.Add(ctx, "u-1", belt)
	require.NoError(t, err)

	removed, err := f.cart.RemoveOrderedLines(ctx, "u-1", ordered)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	cart, err := f.cart.Live(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	_, hasScarf := cart.Find(scarfLine.ID)
	assert.False(t, hasScarf)
	line, hasCoat := cart.Find(coatLine.ID)
	require.True(t, hasCoat)
	assert.Equal(t, 2, line.Quantity)

	// already reconciled: nothing left to remove
	removed, err = f.cart.RemoveOrderedLines(ctx, "u-1", ordered)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestCart_RemoveOrderedLinesStoreDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	line, err := f.cart.Add(ctx, "u-1", scarf())
	require.NoError(t, err)
	f.store.failDelete.Store(true)

	_, err = f.cart.RemoveOrderedLines(ctx, "u-1", []domain.LineItem{line})
	assert.True(t, domain.IsRemote(err))
}
