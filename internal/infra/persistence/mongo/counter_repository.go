package mongo

import (
	"context"

	"clustercart/internal/domain/repository"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type counterRepository struct {
	coll *mongo.Collection
}

// NewCounterRepository is the constructor for counterRepository.
func NewCounterRepository(db *mongo.Database) repository.CounterRepository {
	return &counterRepository{coll: db.Collection(collCounters)}
}

// Next atomically increments and returns the sequence stored under the key.
// FindOneAndUpdate with upsert makes the read-modify-write a single server
// operation, so concurrent callers always observe distinct values.
func (repo *counterRepository) Next(ctx context.Context, key string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := repo.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, errors.Wrap(err, "failed to advance counter")
	}

	return doc.Seq, nil
}
