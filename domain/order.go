package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
)

const PaymentMethodCard = "card"

type Order struct {
	ID              string          `json:"id,omitempty"`
	OrderNumber     string          `json:"order_number"`
	Items           []LineItem      `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	CustomerEmail   string          `json:"customer_email"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	ShippingMethod  ShippingMethod  `json:"shipping_method"`
	PaymentMethod   string          `json:"payment_method"`
	Status          OrderStatus     `json:"status"`
	UserID          string          `json:"user_id"`
	CreatedAt       time.Time       `json:"created_date"`
}
