// Package entity contains the core business objects of the project.
package entity

import "time"

// LineItem is a single cart or order line. Prices are integer kobo.
type LineItem struct {
	SKU           string `json:"sku" bson:"sku"`
	Name          string `json:"name" bson:"name"`
	Qty           int    `json:"qty" bson:"qty"`
	UnitPriceKobo int64  `json:"unit_price_kobo" bson:"unit_price_kobo"`
}

// SubtotalKobo returns qty times unit price for the line.
func (l LineItem) SubtotalKobo() int64 {
	return int64(l.Qty) * l.UnitPriceKobo
}

// Cart represents a member's personal cart keyed by phone. Cluster carts are
// virtualized from the cluster's shared items and never persisted here.
type Cart struct {
	Phone     string     `json:"phone" bson:"phone"`
	Items     []LineItem `json:"items" bson:"items"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

// SubtotalKobo returns the sum of all line subtotals.
func (c *Cart) SubtotalKobo() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.SubtotalKobo()
	}

	return total
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// MergeLine adds the line into items, accumulating qty when the SKU already
// exists. Lines stay unique by SKU.
func MergeLine(items []LineItem, line LineItem) []LineItem {
	for i := range items {
		if items[i].SKU == line.SKU {
			items[i].Qty += line.Qty

			return items
		}
	}

	return append(items, line)
}
