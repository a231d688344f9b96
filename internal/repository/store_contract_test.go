package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStoreContract runs the behaviour every DocumentStore must share.
func testStoreContract(t *testing.T, store DocumentStore) {
	ns := NewNamespace("test-app")
	ctx := context.Background()

	t.Run("list empty collection", func(t *testing.T) {
		docs, err := store.List(ctx, ns.User("nobody", CollectionCart))
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("add then list in insertion order", func(t *testing.T) {
		cart := ns.User("user-order", CollectionCart)
		first, err := store.Add(ctx, cart, map[string]any{"product_id": "p1", "quantity": float64(1)})
		require.NoError(t, err)
		second, err := store.Add(ctx, cart, map[string]any{"product_id": "p2", "quantity": float64(3)})
		require.NoError(t, err)

		docs, err := store.List(ctx, cart)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, first, docs[0].ID)
		assert.Equal(t, second, docs[1].ID)
		assert.Equal(t, "p2", docs[1].Fields["product_id"])
		assert.Equal(t, float64(3), docs[1].Fields["quantity"])
	})

	t.Run("collections are isolated per user", func(t *testing.T) {
		_, err := store.Add(ctx, ns.User("alice", CollectionCart), map[string]any{"product_id": "p1"})
		require.NoError(t, err)

		docs, err := store.List(ctx, ns.User("bob", CollectionCart))
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("update merges fields", func(t *testing.T) {
		cart := ns.User("user-update", CollectionCart)
		id, err := store.Add(ctx, cart, map[string]any{"product_id": "p1", "quantity": float64(1)})
		require.NoError(t, err)

		err = store.Update(ctx, DocPath(cart, id), map[string]any{"quantity": float64(4)})
		require.NoError(t, err)

		docs, err := store.List(ctx, cart)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, float64(4), docs[0].Fields["quantity"])
		assert.Equal(t, "p1", docs[0].Fields["product_id"])
	})

	t.Run("update missing document", func(t *testing.T) {
		cart := ns.User("user-missing", CollectionCart)
		err := store.Update(ctx, DocPath(cart, "5f0c7a3e-0000-4000-8000-000000000000"), map[string]any{"quantity": float64(2)})
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		wishlist := ns.User("user-delete", CollectionWishlist)
		id, err := store.Add(ctx, wishlist, map[string]any{"product_id": "p9"})
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, DocPath(wishlist, id)))

		docs, err := store.List(ctx, wishlist)
		require.NoError(t, err)
		assert.Empty(t, docs)

		assert.ErrorIs(t, store.Delete(ctx, DocPath(wishlist, id)), ErrDocumentNotFound)
	})

	t.Run("nested values survive", func(t *testing.T) {
		orders := ns.User("user-nested", CollectionOrders)
		_, err := store.Add(ctx, orders, map[string]any{
			"items":            []any{map[string]any{"product_id": "p1", "price": "100"}},
			"shipping_address": map[string]any{"city": "London"},
		})
		require.NoError(t, err)

		docs, err := store.List(ctx, orders)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		items, ok := docs[0].Fields["items"].([]any)
		require.True(t, ok)
		assert.Equal(t, "100", items[0].(map[string]any)["price"])
		assert.Equal(t, "London", docs[0].Fields["shipping_address"].(map[string]any)["city"])
	})
}
