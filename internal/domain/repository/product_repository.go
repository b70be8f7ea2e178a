package repository

import (
	"context"
	"errors"

	"clustercart/internal/domain/entity"
)

// ErrProductNotFound is a domain-specific error returned when a product is not found.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines read access to the catalog.
type ProductRepository interface {
	// FindBySKU retrieves a single product by SKU.
	FindBySKU(ctx context.Context, sku string) (*entity.Product, error)

	// Search retrieves in-stock products whose name matches the query,
	// filtered to the member's city when one is set.
	Search(ctx context.Context, query string, city string, limit int) ([]entity.Product, error)
}
