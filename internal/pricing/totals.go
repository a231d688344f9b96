package pricing

import (
	"github.com/fjod/thread-storefront/domain"
	"github.com/shopspring/decimal"
)

// Store policy. Shipping depends only on the method and the subtotal.
var (
	ExpressShippingFee    = decimal.NewFromInt(25)
	StandardShippingFee   = decimal.NewFromInt(15)
	FreeShippingThreshold = decimal.NewFromInt(250)
	TaxRate               = decimal.RequireFromString("0.08")
)

type Totals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
}

// ComputeTotals prices a cart snapshot. Nothing is rounded here.
func ComputeTotals(items []domain.LineItem, method domain.ShippingMethod) Totals {
	subtotal := Subtotal(items)
	shipping := ShippingCost(subtotal, method)
	tax := subtotal.Mul(TaxRate)
	return Totals{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Tax:          tax,
		Total:        subtotal.Add(shipping).Add(tax),
	}
}

func Subtotal(items []domain.LineItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}

// ShippingCost is the flat express fee, or standard shipping which is free
// from the threshold up.
func ShippingCost(subtotal decimal.Decimal, method domain.ShippingMethod) decimal.Decimal {
	if method == domain.ShippingExpress {
		return ExpressShippingFee
	}
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return StandardShippingFee
}
