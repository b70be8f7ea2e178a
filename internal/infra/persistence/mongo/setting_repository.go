package mongo

import (
	"context"

	"clustercart/internal/domain/repository"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type settingRepository struct {
	coll *mongo.Collection
}

// NewSettingRepository is the constructor for settingRepository.
func NewSettingRepository(db *mongo.Database) repository.SettingRepository {
	return &settingRepository{coll: db.Collection(collSettings)}
}

// Get retrieves the value stored under the key.
func (repo *settingRepository) Get(ctx context.Context, key string) (string, error) {
	var doc struct {
		Value string `bson:"value"`
	}
	err := repo.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", repository.ErrSettingNotFound
		}

		return "", errors.Wrap(err, "failed to get setting")
	}

	return doc.Value, nil
}

// Set upserts the value under the key.
func (repo *settingRepository) Set(ctx context.Context, key string, value string) error {
	opts := options.Update().SetUpsert(true)
	_, err := repo.coll.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": value}},
		opts,
	)
	if err != nil {
		return errors.Wrap(err, "failed to set setting")
	}

	return nil
}
