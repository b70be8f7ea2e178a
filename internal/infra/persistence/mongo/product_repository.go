package mongo

import (
	"context"
	"regexp"

	"clustercart/internal/domain/entity"
	"clustercart/internal/domain/repository"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productRepository struct {
	coll *mongo.Collection
}

// NewProductRepository is the constructor for productRepository.
func NewProductRepository(db *mongo.Database) repository.ProductRepository {
	return &productRepository{coll: db.Collection(collProducts)}
}

// FindBySKU retrieves a single product by SKU.
func (repo *productRepository) FindBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	var product entity.Product
	err := repo.coll.FindOne(ctx, bson.M{"sku": sku}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrProductNotFound
		}

		return nil, errors.Wrap(err, "failed to find product by sku")
	}

	return &product, nil
}

// Search retrieves in-stock products whose name matches the query,
// case-insensitively, filtered to the member's city. Products with no cities
// listed are visible everywhere.
func (repo *productRepository) Search(ctx context.Context, query string, city string, limit int) ([]entity.Product, error) {
	filter := bson.M{"in_stock": true}
	if query != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	}
	if city != "" {
		filter["$or"] = bson.A{
			bson.M{"cities": city},
			bson.M{"cities": bson.M{"$exists": false}},
			bson.M{"cities": bson.M{"$size": 0}},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search products")
	}
	defer cursor.Close(ctx)

	var products []entity.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, errors.Wrap(err, "failed to decode products")
	}

	return products, nil
}
