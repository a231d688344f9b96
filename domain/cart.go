package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LineItem struct {
	ID        string          `json:"id,omitempty"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Size      string          `json:"size"`
	Brand     string          `json:"brand"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
}

// SameLine reports whether both items share the (product, size) merge key.
func (i LineItem) SameLine(other LineItem) bool {
	return i.ProductID == other.ProductID && i.Size == other.Size
}

// Qty treats a missing quantity as 1.
func (i LineItem) Qty() int {
	if i.Quantity <= 0 {
		return 1
	}
	return i.Quantity
}

func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Qty())))
}

// CartSnapshot is a point-in-time copy of one user's cart.
type CartSnapshot struct {
	UserID     string     `json:"user_id"`
	Items      []LineItem `json:"items"`
	CapturedAt time.Time  `json:"captured_at"`
}

func (c CartSnapshot) IsEmpty() bool {
	return len(c.Items) == 0
}

// Count sums quantities, which is what the cart badge shows.
func (c CartSnapshot) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Qty()
	}
	return n
}

func (c CartSnapshot) Find(id string) (LineItem, bool) {
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return LineItem{}, false
}

func (c CartSnapshot) FindLine(item LineItem) (LineItem, bool) {
	for _, existing := range c.Items {
		if existing.SameLine(item) {
			return existing, true
		}
	}
	return LineItem{}, false
}

func (c CartSnapshot) Clone() CartSnapshot {
	out := c
	out.Items = CloneItems(c.Items)
	return out
}

func CloneItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

// SameContents compares two carts by line id, product, size, price and quantity,
// ignoring order.
func SameContents(a, b []LineItem) bool {
	if len(a) != len(b) {
		return false
	}
	byID := make(map[string]LineItem, len(a))
	for _, item := range a {
		byID[item.ID] = item
	}
	for _, item := range b {
		other, ok := byID[item.ID]
		if !ok {
			return false
		}
		if !other.SameLine(item) || other.Qty() != item.Qty() || !other.UnitPrice.Equal(item.UnitPrice) {
			return false
		}
		delete(byID, item.ID)
	}
	return len(byID) == 0
}
