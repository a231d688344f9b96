package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fjod/thread-storefront/domain"
	"github.com/fjod/thread-storefront/internal/repository"
	"github.com/fjod/thread-storefront/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func address() domain.ShippingAddress {
	return domain.ShippingAddress{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Address:   "12 St James's Square",
		City:      "London",
		State:     "LDN",
		Zip:       "SW1Y 4JH",
		Country:   "UK",
	}
}

func priced(name, price string) domain.LineItem {
	return domain.LineItem{ProductID: "p-" + name, Name: name, UnitPrice: decimal.RequireFromString(price), Size: "M"}
}

// readyCheckout fills the cart, begins checkout and sets valid details.
func readyCheckout(t *testing.T, f *fixture, userID string, items ...domain.LineItem) domain.CheckoutState {
	t.Helper()
	ctx := context.Background()
	for _, item := range items {
		_, err := f.cart.Add(ctx, userID, item)
		require.NoError(t, err)
	}
	state, err := f.checkout.Begin(ctx, userID, "")
	require.NoError(t, err)
	state, err = f.checkout.SetDetails(userID, state.ID, "ada@example.com", address())
	require.NoError(t, err)
	return state
}

func ordersOf(t *testing.T, f *fixture, userID string) []domain.Order {
	t.Helper()
	orders, err := f.orders.List(context.Background(), userID)
	require.NoError(t, err)
	return orders
}

func TestCheckout_BeginEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.checkout.Begin(context.Background(), "u-1", "ada@example.com")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.True(t, IsRedirectToShop(err))
	assert.Zero(t, f.drafts.Len())
	assert.Empty(t, ordersOf(t, f, "u-1"))
}

func TestCheckout_BeginRequiresUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.checkout.Begin(context.Background(), "", "")
	assert.True(t, domain.IsAuthRequired(err))
}

func TestCheckout_QuoteScenarios(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		adds     int
		method   domain.ShippingMethod
		subtotal string
		shipping string
		tax      string
		total    string
	}{
		{"below threshold", "100", 2, domain.ShippingStandard, "200.00", "15.00", "16.00", "231.00"},
		{"free shipping", "300", 1, domain.ShippingStandard, "300.00", "0.00", "24.00", "324.00"},
		{"express", "50", 1, domain.ShippingExpress, "50.00", "25.00", "4.00", "79.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			items := make([]domain.LineItem, tt.adds)
			for i := range items {
				items[i] = priced("coat", tt.price)
			}
			state := readyCheckout(t, f, "u-1", items...)
			_, err := f.checkout.SetShippingMethod("u-1", state.ID, tt.method)
			require.NoError(t, err)

			totals, err := f.checkout.Quote("u-1", state.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.subtotal, totals.Subtotal.StringFixed(2))
			assert.Equal(t, tt.shipping, totals.ShippingCost.StringFixed(2))
			assert.Equal(t, tt.tax, totals.Tax.StringFixed(2))
			assert.Equal(t, tt.total, totals.Total.StringFixed(2))
		})
	}
}

func TestCheckout_SetDetailsValidation(t *testing.T) {
	f := newFixture(t)
	state := readyCheckout(t, f, "u-1", priced("coat", "100"))

	bad := address()
	bad.Zip = ""
	_, err := f.checkout.SetDetails("u-1", state.ID, "other@example.com", bad)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "zip", verr.Field)

	got, err := f.checkout.Get("u-1", state.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, "SW1Y 4JH", got.ShippingAddress.Zip)

	_, err = f.checkout.SetDetails("u-1", state.ID, "nope", address())
	assert.True(t, domain.IsValidation(err))
}

func TestCheckout_SetShippingMethodRejectsUnknown(t *testing.T) {
	f := newFixture(t)
	state := readyCheckout(t, f, "u-1", priced("coat", "100"))

	_, err := f.checkout.SetShippingMethod("u-1", state.ID, "overnight")
	assert.True(t, domain.IsValidation(err))
}

func TestCheckout_DraftIsPerUser(t *testing.T) {
	f := newFixture(t)
	state := readyCheckout(t, f, "u-1", priced("coat", "100"))

	_, err := f.checkout.Get("u-2", state.ID)
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
	_, err = f.checkout.PlaceOrder(context.Background(), "u-2", state.ID)
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
}

func TestCheckout_PlaceOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fixed := time.UnixMilli(1700000123456)
	f.checkout.now = func() time.Time { return fixed }

	state := readyCheckout(t, f, "u-1", priced("coat", "100"), priced("coat", "100"))

	result, err := f.checkout.PlaceOrder(ctx, "u-1", state.ID)
	require.NoError(t, err)
	assert.True(t, result.CartCleared)

	order := result.Order
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "TT-123456", order.OrderNumber)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "231.00", order.Total.StringFixed(2))

	stored := ordersOf(t, f, "u-1")
	require.Len(t, stored, 1)
	assert.Equal(t, order.ID, stored[0].ID)
	assert.True(t, stored[0].Total.Equal(order.Total))
	assert.Equal(t, "ada@example.com", stored[0].CustomerEmail)
	require.Len(t, stored[0].Items, 1)
	assert.Equal(t, 2, stored[0].Items[0].Quantity)

	cart, err := f.cart.List(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	require.Len(t, f.publisher.orders, 1)
	assert.Equal(t, "TT-123456", f.publisher.orders[0].OrderNumber)

	_, err = f.checkout.Get("u-1", state.ID)
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
}

func TestCheckout_PlaceOrderCartChanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	f.checkout.metrics = metrics.NewServerMetrics(reg, "test")

	state := readyCheckout(t, f, "u-1", priced("coat", "100"))
	_, err := f.cart.Add(ctx, "u-1", priced("coat", "100"))
	require.NoError(t, err)

	_, err = f.checkout.PlaceOrder(ctx, "u-1", state.ID)
	assert.ErrorIs(t, err, domain.ErrCartChanged)
	assert.Empty(t, ordersOf(t, f, "u-1"))
	assert.Empty(t, f.publisher.orders)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.checkout.metrics.CartChanged))

	n, err := f.cart.Count(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCheckout_PlaceOrderRequiresDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.cart.Add(ctx, "u-1", priced("coat", "100"))
	require.NoError(t, err)
	state, err := f.checkout.Begin(ctx, "u-1", "ada@example.com")
	require.NoError(t, err)

	_, err = f.checkout.PlaceOrder(ctx, "u-1", state.ID)
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, ordersOf(t, f, "u-1"))
}

func TestCheckout_PlaceOrderSaveFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	state := readyCheckout(t, f, "u-1", priced("coat", "100"))

	f.store.failAdd.Store(true)
	_, err := f.checkout.PlaceOrder(ctx, "u-1", state.ID)
	assert.True(t, domain.IsRemote(err))

	n, err := f.cart.Count(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// draft survives for a retry
	f.store.failAdd.Store(false)
	result, err := f.checkout.PlaceOrder(ctx, "u-1", state.ID)
	require.NoError(t, err)
	assert.True(t, result.CartCleared)
}

func TestCheckout_PlaceOrderClearFailsKeepsOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	state := readyCheckout(t, f, "u-1", priced("coat", "100"))

	f.store.failDelete.Store(true)
	result, err := f.checkout.PlaceOrder(ctx, "u-1", state.ID)
	require.NoError(t, err)
	assert.False(t, result.CartCleared)
	assert.Len(t, ordersOf(t, f, "u-1"), 1)
}

func TestCheckout_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")
	state := readyCheckout(t, f, "u-1", priced("coat", "100"))

	result, err := f.checkout.PlaceOrder(context.Background(), "u-1", state.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Order.ID)
}

func TestCheckout_PlaceOrderRecordsMetrics(t *testing.T) {
	f := newFixture(t)
	reg := prometheus.NewRegistry()
	f.checkout.metrics = metrics.NewServerMetrics(reg, "test")
	state := readyCheckout(t, f, "u-1", priced("coat", "300"))

	_, err := f.checkout.PlaceOrder(context.Background(), "u-1", state.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.checkout.metrics.OrdersPlaced))
}

func TestOrders_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	collection := f.ns.User("u-1", repository.CollectionOrders)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, number := range []string{"TT-000001", "TT-000003", "TT-000002"} {
		created := base.Add(time.Duration([]int{0, 2, 1}[i]) * time.Hour)
		fields, err := repository.Encode(domain.Order{OrderNumber: number, CreatedAt: created})
		require.NoError(t, err)
		_, err = f.store.Add(ctx, collection, fields)
		require.NoError(t, err)
	}

	orders := ordersOf(t, f, "u-1")
	require.Len(t, orders, 3)
	assert.Equal(t, "TT-000003", orders[0].OrderNumber)
	assert.Equal(t, "TT-000002", orders[1].OrderNumber)
	assert.Equal(t, "TT-000001", orders[2].OrderNumber)

	_, err := f.orders.List(ctx, "")
	assert.True(t, domain.IsAuthRequired(err))
}

func TestAccount_Overview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	state := readyCheckout(t, f, "u-1", priced("coat", "100"))
	_, err := f.checkout.PlaceOrder(ctx, "u-1", state.ID)
	require.NoError(t, err)
	_, err = f.wishlist.Add(ctx, "u-1", domain.WishlistItem{ProductID: "p-9"})
	require.NoError(t, err)

	account := NewAccountService(f.orders, f.wishlist)
	overview, err := account.Overview(ctx, domain.User{ID: "u-1", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Len(t, overview.Orders, 1)
	assert.Len(t, overview.Wishlist, 1)
	assert.Equal(t, "ada@example.com", overview.User.Email)

	_, err = account.Overview(ctx, domain.User{})
	assert.True(t, domain.IsAuthRequired(err))
}
