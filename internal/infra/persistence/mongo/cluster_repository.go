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

type clusterRepository struct {
	coll *mongo.Collection
}

// NewClusterRepository is the constructor for clusterRepository.
func NewClusterRepository(db *mongo.Database) repository.ClusterRepository {
	return &clusterRepository{coll: db.Collection(collClusters)}
}

// FindByID retrieves a single active cluster by its document id.
func (repo *clusterRepository) FindByID(ctx context.Context, id string) (*entity.Cluster, error) {
	var cluster entity.Cluster
	err := repo.coll.FindOne(ctx, bson.M{"_id": id, "is_active": true}).Decode(&cluster)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrClusterNotFound
		}

		return nil, errors.Wrap(err, "failed to find cluster by id")
	}

	return &cluster, nil
}

// FindByMemberPhone retrieves the active clusters the phone belongs to.
func (repo *clusterRepository) FindByMemberPhone(ctx context.Context, phone string) ([]entity.Cluster, error) {
	cursor, err := repo.coll.Find(ctx, bson.M{"members": phone, "is_active": true})
	if err != nil {
		return nil, errors.Wrap(err, "failed to find clusters by member")
	}
	defer cursor.Close(ctx)

	var clusters []entity.Cluster
	if err := cursor.All(ctx, &clusters); err != nil {
		return nil, errors.Wrap(err, "failed to decode clusters")
	}

	return clusters, nil
}

// Create persists a new cluster and returns its assigned id. Ids are hex
// strings so they survive the wa.me deep-link round trip unchanged.
func (repo *clusterRepository) Create(ctx context.Context, cluster *entity.Cluster) (string, error) {
	if cluster.ID == "" {
		cluster.ID = primitive.NewObjectID().Hex()
	}
	if _, err := repo.coll.InsertOne(ctx, cluster); err != nil {
		return "", errors.Wrap(err, "failed to create cluster")
	}

	return cluster.ID, nil
}

// Update modifies an existing cluster entity in the storage.
func (repo *clusterRepository) Update(ctx context.Context, cluster *entity.Cluster) error {
	result, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": cluster.ID}, cluster)
	if err != nil {
		return errors.Wrap(err, "failed to update cluster")
	}
	if result.MatchedCount == 0 {
		return repository.ErrClusterNotFound
	}

	return nil
}

// UpdateItems replaces the shared cart only if the stored version still
// matches expectedVersion, bumping it on success.
func (repo *clusterRepository) UpdateItems(ctx context.Context, id string, items []entity.LineItem, expectedVersion int64) error {
	if items == nil {
		items = []entity.LineItem{}
	}

	result, err := repo.coll.UpdateOne(ctx,
		bson.M{"_id": id, "version": expectedVersion},
		bson.M{
			"$set": bson.M{"items": items},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return errors.Wrap(err, "failed to update cluster items")
	}
	if result.MatchedCount == 0 {
		// Distinguish a lost race from a missing cluster.
		if err := repo.coll.FindOne(ctx, bson.M{"_id": id, "is_active": true}).Err(); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return repository.ErrClusterNotFound
			}

			return errors.Wrap(err, "failed to check cluster existence")
		}

		return repository.ErrClusterConflict
	}

	return nil
}

// AddMember appends the phone to the member list. The capacity condition
// lives in the update filter so two concurrent joins for the last spot
// cannot both land.
func (repo *clusterRepository) AddMember(ctx context.Context, id string, phone string) error {
	result, err := repo.coll.UpdateOne(ctx,
		bson.M{
			"_id":       id,
			"is_active": true,
			"$expr":     bson.M{"$lt": bson.A{bson.M{"$size": "$members"}, "$max_people"}},
		},
		bson.M{"$addToSet": bson.M{"members": phone}},
	)
	if err != nil {
		return errors.Wrap(err, "failed to add cluster member")
	}
	if result.MatchedCount == 0 {
		// Distinguish a full cluster from a missing one.
		if err := repo.coll.FindOne(ctx, bson.M{"_id": id, "is_active": true}).Err(); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return repository.ErrClusterNotFound
			}

			return errors.Wrap(err, "failed to check cluster existence")
		}

		return repository.ErrClusterFull
	}

	return nil
}
