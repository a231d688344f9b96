package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const CategoryAccessories = "accessories"

type Product struct {
	ID            string          `json:"id,omitempty"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Category      string          `json:"category"`
	Size          string          `json:"size"`
	Condition     string          `json:"condition"`
	InStock       bool            `json:"in_stock"`
	Image         string          `json:"image"`
	Images        []string        `json:"images"`
	Featured      bool            `json:"featured"`
}

// RequiresSize is false for one-size categories.
func (p Product) RequiresSize() bool {
	return p.Category != CategoryAccessories
}

type WishlistItem struct {
	ID        string          `json:"id,omitempty"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Brand     string          `json:"brand"`
	Size      string          `json:"size"`
	CreatedAt time.Time       `json:"created_at"`
}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}
