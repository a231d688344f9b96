package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fjod/thread-storefront/domain"
	"github.com/fjod/thread-storefront/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newQuoteCmd() *cobra.Command {
	var (
		items  []string
		method string
	)
	cmd := &cobra.Command{
		Use:     "quote",
		Short:   "Price a cart offline",
		Example: `  storefront quote --item 150:1 --item 45.50:2 --method express`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shipping, err := domain.ParseShippingMethod(method)
			if err != nil {
				return err
			}
			lines := make([]domain.LineItem, 0, len(items))
			for _, raw := range items {
				line, err := parseItem(raw)
				if err != nil {
					return err
				}
				lines = append(lines, line)
			}

			d := pricing.ComputeTotals(lines, shipping).Display()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Subtotal  %s\n", d.Subtotal)
			fmt.Fprintf(out, "Shipping  %s\n", d.Shipping)
			fmt.Fprintf(out, "Tax       %s\n", d.Tax)
			fmt.Fprintf(out, "Total     %s\n", d.Total)
			fmt.Fprintln(out, d.PayLabel)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&items, "item", nil, "line item as price:quantity, repeatable")
	cmd.Flags().StringVar(&method, "method", string(domain.ShippingStandard), "shipping method: standard or express")
	return cmd
}

// parseItem reads "price" or "price:quantity".
func parseItem(raw string) (domain.LineItem, error) {
	priceText, qtyText, hasQty := strings.Cut(strings.TrimSpace(raw), ":")
	price, err := decimal.NewFromString(priceText)
	if err != nil {
		return domain.LineItem{}, &domain.ValidationError{Field: "item", Message: fmt.Sprintf("%q has an invalid price", raw)}
	}
	if price.IsNegative() {
		return domain.LineItem{}, &domain.ValidationError{Field: "item", Message: fmt.Sprintf("%q has a negative price", raw)}
	}
	qty := 1
	if hasQty {
		if qty, err = strconv.Atoi(qtyText); err != nil || qty < 1 {
			return domain.LineItem{}, &domain.ValidationError{Field: "item", Message: fmt.Sprintf("%q has an invalid quantity", raw)}
		}
	}
	return domain.LineItem{UnitPrice: price, Quantity: qty}, nil
}
