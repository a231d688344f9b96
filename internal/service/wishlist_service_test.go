package service

import (
	"context"
	"testing"

	"github.com/fjod/thread-storefront/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlist_DedupByProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dress := f.product(t, "Silk Midi Dress")

	first, err := f.wishlist.AddProduct(ctx, "u-1", dress.ID)
	require.NoError(t, err)
	assert.True(t, first.Added)

	again, err := f.wishlist.Add(ctx, "u-1", domain.WishlistItem{ProductID: dress.ID, Size: "XL"})
	require.NoError(t, err)
	assert.False(t, again.Added)
	assert.Equal(t, first.Item.ID, again.Item.ID)

	items, err := f.wishlist.List(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Silk Midi Dress", items[0].Name)
	assert.Equal(t, "S", items[0].Size)
}

func TestWishlist_RequiresUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.wishlist.Add(ctx, "", domain.WishlistItem{ProductID: "p"})
	assert.True(t, domain.IsAuthRequired(err))
	_, err = f.wishlist.List(ctx, "")
	assert.True(t, domain.IsAuthRequired(err))
}

func TestWishlist_Remove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.wishlist.Add(ctx, "u-1", domain.WishlistItem{ProductID: "p-1", Name: "Tee"})
	require.NoError(t, err)

	require.NoError(t, f.wishlist.Remove(ctx, "u-1", res.Item.ID))
	items, err := f.wishlist.List(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.True(t, domain.IsNotFound(f.wishlist.Remove(ctx, "u-1", res.Item.ID)))
}

func TestWishlist_MoveToCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boots := f.product(t, "Suede Ankle Boots")
	res, err := f.wishlist.AddProduct(ctx, "u-1", boots.ID)
	require.NoError(t, err)

	line, err := f.wishlist.MoveToCart(ctx, "u-1", res.Item.ID)
	require.NoError(t, err)
	assert.Equal(t, boots.ID, line.ProductID)
	assert.Equal(t, "38", line.Size)
	assert.Equal(t, 1, line.Quantity)

	items, err := f.wishlist.List(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, items)
	cart, err := f.cart.List(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Count())

	_, err = f.wishlist.MoveToCart(ctx, "u-1", res.Item.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestWishlist_MoveToCartRemoveFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.wishlist.Add(ctx, "u-1", domain.WishlistItem{ProductID: "p-1", Size: "M"})
	require.NoError(t, err)

	f.store.failDelete.Store(true)
	line, err := f.wishlist.MoveToCart(ctx, "u-1", res.Item.ID)
	assert.True(t, domain.IsRemote(err))
	assert.NotEmpty(t, line.ID)
}
