package pricing

import "github.com/shopspring/decimal"

const CurrencySymbol = "$"

// FormatMoney renders an amount with exactly two decimals.
func FormatMoney(d decimal.Decimal) string {
	return CurrencySymbol + d.StringFixed(2)
}

// FormatShipping shows "Free" for a zero cost. The stored value stays 0.00.
func FormatShipping(d decimal.Decimal) string {
	if d.IsZero() {
		return "Free"
	}
	return FormatMoney(d)
}

type Display struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
	PayLabel string `json:"pay_label"`
}

func (t Totals) Display() Display {
	return Display{
		Subtotal: FormatMoney(t.Subtotal),
		Shipping: FormatShipping(t.ShippingCost),
		Tax:      FormatMoney(t.Tax),
		Total:    FormatMoney(t.Total),
		PayLabel: "Pay " + FormatMoney(t.Total),
	}
}
