package mongo

import (
	"context"

	"clustercart/internal/domain/entity"
	"clustercart/internal/domain/repository"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cartRepository struct {
	coll *mongo.Collection
}

// NewCartRepository is the constructor for cartRepository.
func NewCartRepository(db *mongo.Database) repository.CartRepository {
	return &cartRepository{coll: db.Collection(collCarts)}
}

// FindByPhone retrieves the member's personal cart.
func (repo *cartRepository) FindByPhone(ctx context.Context, phone string) (*entity.Cart, error) {
	var cart entity.Cart
	err := repo.coll.FindOne(ctx, bson.M{"phone": phone}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrCartNotFound
		}

		return nil, errors.Wrap(err, "failed to find cart by phone")
	}

	return &cart, nil
}

// Save upserts the member's personal cart.
func (repo *cartRepository) Save(ctx context.Context, cart *entity.Cart) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := repo.coll.ReplaceOne(ctx, bson.M{"phone": cart.Phone}, cart, opts); err != nil {
		return errors.Wrap(err, "failed to save cart")
	}

	return nil
}

// Clear removes the member's personal cart document entirely.
func (repo *cartRepository) Clear(ctx context.Context, phone string) error {
	if _, err := repo.coll.DeleteOne(ctx, bson.M{"phone": phone}); err != nil {
		return errors.Wrap(err, "failed to clear cart")
	}

	return nil
}
