package cart

import "time"

// Line is a cart entry joined with the live catalog data it points at.
// UnitPrice, ProductName and ImageURL reflect the catalog at read time;
// they are snapshotted into a receipt only when an order is created.
type Line struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	UnitPrice   int64     `json:"unitPrice"`
	ImageURL    string    `json:"imageUrl"`
	Quantity    int       `json:"quantity"`
	IsChecked   bool      `json:"isChecked"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Subtotal is the line's contribution to the order total.
func (l Line) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}
