package pricing

import (
	"fmt"
	"strings"
	"time"

	"github.com/fjod/thread-storefront/domain"
)

const OrderNumberPrefix = "TT-"

// OrderNumber keeps the last six digits of the epoch-millisecond timestamp.
// It is a human reference only; two orders in the same millisecond collide.
func OrderNumber(now time.Time) string {
	return fmt.Sprintf("%s%06d", OrderNumberPrefix, now.UnixMilli()%1_000_000)
}

// AssembleOrder builds the pending order from the checkout snapshot. It never
// looks at the live cart; the snapshot taken at checkout entry is priced.
func AssembleOrder(state domain.CheckoutState, userID string, now time.Time) (domain.Order, error) {
	if len(state.Items) == 0 {
		return domain.Order{}, domain.ErrEmptyCart
	}
	if strings.TrimSpace(userID) == "" {
		return domain.Order{}, &domain.AuthRequiredError{Action: "place an order"}
	}
	if err := state.ValidateDetails(); err != nil {
		return domain.Order{}, err
	}

	method := state.ShippingMethod
	if method == "" {
		method = domain.ShippingStandard
	}
	totals := ComputeTotals(state.Items, method)

	return domain.Order{
		OrderNumber:     OrderNumber(now),
		Items:           domain.CloneItems(state.Items),
		Subtotal:        totals.Subtotal,
		ShippingCost:    totals.ShippingCost,
		Tax:             totals.Tax,
		Total:           totals.Total,
		CustomerEmail:   strings.TrimSpace(state.Email),
		ShippingAddress: state.ShippingAddress,
		ShippingMethod:  method,
		PaymentMethod:   domain.PaymentMethodCard,
		Status:          domain.OrderStatusPending,
		UserID:          userID,
		CreatedAt:       now.UTC(),
	}, nil
}
