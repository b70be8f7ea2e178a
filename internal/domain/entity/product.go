// Package entity contains the core business objects of the project.
package entity

// Product represents a catalog item offered to members.
type Product struct {
	SKU       string   `json:"sku" bson:"sku"`                               // Stock keeping unit, unique per product.
	Name      string   `json:"name" bson:"name"`                             // Display name shown in product cards.
	PriceKobo int64    `json:"price_kobo" bson:"price_kobo"`                 // Unit price in kobo.
	ImageURL  string   `json:"image_url,omitempty" bson:"image_url,omitempty"` // Optional product card image.
	Cities    []string `json:"cities,omitempty" bson:"cities,omitempty"`     // Cities the product is visible in; empty means all.
	InStock   bool     `json:"in_stock" bson:"in_stock"`
}

// VisibleIn reports whether the product is offered in the given city.
func (p *Product) VisibleIn(city string) bool {
	if len(p.Cities) == 0 {
		return true
	}
	for _, c := range p.Cities {
		if c == city {
			return true
		}
	}

	return false
}
