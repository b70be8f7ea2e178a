package mongo

import (
	"context"

	"clustercart/internal/domain/entity"
	"clustercart/internal/domain/repository"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type orderRepository struct {
	coll *mongo.Collection
}

// NewOrderRepository is the constructor for orderRepository.
func NewOrderRepository(db *mongo.Database) repository.OrderRepository {
	return &orderRepository{coll: db.Collection(collOrders)}
}

// Create persists a new order and returns its assigned id.
func (repo *orderRepository) Create(ctx context.Context, order *entity.Order) (string, error) {
	if order.ID == "" {
		order.ID = primitive.NewObjectID().Hex()
	}
	if _, err := repo.coll.InsertOne(ctx, order); err != nil {
		return "", errors.Wrap(err, "failed to create order")
	}

	return order.ID, nil
}

// FindBySlug retrieves a single order by its human-readable slug.
func (repo *orderRepository) FindBySlug(ctx context.Context, slug string) (*entity.Order, error) {
	var order entity.Order
	err := repo.coll.FindOne(ctx, bson.M{"slug": slug}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrOrderNotFound
		}

		return nil, errors.Wrap(err, "failed to find order by slug")
	}

	return &order, nil
}

// Update modifies an existing order entity in the storage.
func (repo *orderRepository) Update(ctx context.Context, order *entity.Order) error {
	result, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": order.ID}, order)
	if err != nil {
		return errors.Wrap(err, "failed to update order")
	}
	if result.MatchedCount == 0 {
		return repository.ErrOrderNotFound
	}

	return nil
}

// SetStatusBySlug updates only the status field of the order.
func (repo *orderRepository) SetStatusBySlug(ctx context.Context, slug string, status entity.OrderStatus) error {
	result, err := repo.coll.UpdateOne(ctx,
		bson.M{"slug": slug},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return errors.Wrap(err, "failed to set order status")
	}
	if result.MatchedCount == 0 {
		return repository.ErrOrderNotFound
	}

	return nil
}

// UpsertClusterPayment overwrites the entry for the phone when one exists,
// otherwise appends it. The $ne guard on the push keeps a race between the
// two steps from producing a duplicate entry for the same phone.
func (repo *orderRepository) UpsertClusterPayment(ctx context.Context, slug string, payment entity.ClusterPayment) error {
	result, err := repo.coll.UpdateOne(ctx,
		bson.M{"slug": slug, "cluster_payments.phone": payment.Phone},
		bson.M{"$set": bson.M{"cluster_payments.$": payment}},
	)
	if err != nil {
		return errors.Wrap(err, "failed to overwrite cluster payment")
	}
	if result.MatchedCount > 0 {
		return nil
	}

	result, err = repo.coll.UpdateOne(ctx,
		bson.M{"slug": slug, "cluster_payments.phone": bson.M{"$ne": payment.Phone}},
		bson.M{"$push": bson.M{"cluster_payments": payment}},
	)
	if err != nil {
		return errors.Wrap(err, "failed to append cluster payment")
	}
	if result.MatchedCount == 0 {
		// Either the order is gone or the entry appeared between the two
		// updates. Retry the overwrite once to settle which.
		result, err = repo.coll.UpdateOne(ctx,
			bson.M{"slug": slug, "cluster_payments.phone": payment.Phone},
			bson.M{"$set": bson.M{"cluster_payments.$": payment}},
		)
		if err != nil {
			return errors.Wrap(err, "failed to overwrite cluster payment")
		}
		if result.MatchedCount == 0 {
			return repository.ErrOrderNotFound
		}
	}

	return nil
}

// SetClusterPaidAmount stores the recomputed sum of PAID entries.
func (repo *orderRepository) SetClusterPaidAmount(ctx context.Context, slug string, amountKobo int64) error {
	result, err := repo.coll.UpdateOne(ctx,
		bson.M{"slug": slug},
		bson.M{"$set": bson.M{"cluster_paid_amount_kobo": amountKobo}},
	)
	if err != nil {
		return errors.Wrap(err, "failed to set cluster paid amount")
	}
	if result.MatchedCount == 0 {
		return repository.ErrOrderNotFound
	}

	return nil
}

// CountPaidByMember returns how many PAID orders the member has.
func (repo *orderRepository) CountPaidByMember(ctx context.Context, phone string) (int64, error) {
	count, err := repo.coll.CountDocuments(ctx, bson.M{
		"member_phone": phone,
		"status":       entity.OrderPaid,
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to count paid orders")
	}

	return count, nil
}

// ListRecent retrieves the newest orders for the admin views.
func (repo *orderRepository) ListRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := repo.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recent orders")
	}
	defer cursor.Close(ctx)

	var orders []entity.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, errors.Wrap(err, "failed to decode orders")
	}

	return orders, nil
}
