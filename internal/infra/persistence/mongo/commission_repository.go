package mongo

import (
	"context"

	"clustercart/internal/domain/entity"
	"clustercart/internal/domain/repository"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type commissionRepository struct {
	coll *mongo.Collection
}

// NewCommissionRepository is the constructor for commissionRepository.
func NewCommissionRepository(db *mongo.Database) repository.CommissionRepository {
	return &commissionRepository{coll: db.Collection(collCommissions)}
}

// Create persists a new commission. The unique referred_phone index turns
// any second award for the member, replayed or concurrent, into
// ErrCommissionExists.
func (repo *commissionRepository) Create(ctx context.Context, commission *entity.Commission) error {
	if commission.ID == "" {
		commission.ID = primitive.NewObjectID().Hex()
	}
	if _, err := repo.coll.InsertOne(ctx, commission); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrCommissionExists
		}

		return errors.Wrap(err, "failed to create commission")
	}

	return nil
}

// CountByReferredPhone returns how many commissions name the phone as the
// referred member.
func (repo *commissionRepository) CountByReferredPhone(ctx context.Context, phone string) (int64, error) {
	count, err := repo.coll.CountDocuments(ctx, bson.M{"referred_phone": phone})
	if err != nil {
		return 0, errors.Wrap(err, "failed to count commissions")
	}

	return count, nil
}
