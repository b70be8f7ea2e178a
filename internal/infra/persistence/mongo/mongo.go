// Package mongo contains the concrete implementation of the persistence layer
// using the official MongoDB driver. Entities carry bson tags and are stored
// directly; cross-document invariants are kept with targeted updates instead
// of multi-document transactions.
package mongo

import (
	"context"
	"log/slog"

	"clustercart/config"
	"clustercart/internal/domain/lifecycle"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
)

// Collection names used across the repositories.
const (
	collMembers         = "members"
	collCarts           = "carts"
	collClusters        = "clusters"
	collOrders          = "orders"
	collCommissions     = "commissions"
	collProducts        = "products"
	collNotifications   = "notifications"
	collMessages        = "messages"
	collMessageStatuses = "message_statuses"
	collMessageContexts = "message_contexts"
	collCounters        = "counters"
	collSettings        = "settings"
)

// Params defines the dependencies for the database connection.
type Params struct {
	fx.In

	Config    *config.Config
	Logger    *slog.Logger
	Lifecycle fx.Lifecycle
}

// New connects to MongoDB, ensures the indexes the invariants rely on, and
// registers a disconnect hook on shutdown.
func New(params Params) (*mongo.Database, error) {
	cfg := params.Config.Mongo
	if cfg == nil || cfg.URI == "" {
		return nil, errors.New("mongo configuration is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = lifecycle.DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "failed to ping mongo")
	}

	db := client.Database(cfg.Database)
	if err := ensureIndexes(ctx, db); err != nil {
		return nil, err
	}

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("disconnecting mongo")

			return client.Disconnect(ctx)
		},
	})

	return db, nil
}

// ensureIndexes creates the indexes the repositories rely on.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	for coll, models := range indexModels() {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "failed to ensure %s indexes", coll)
		}
	}

	return nil
}

// indexModels declares the indexes per collection. The unique commission
// index is on referred_phone alone: a member earns at most one commission in
// their lifetime, so concurrent awards for different orders collide here and
// the loser maps to ErrCommissionExists.
func indexModels() map[string][]mongo.IndexModel {
	unique := options.Index().SetUnique(true)

	return map[string][]mongo.IndexModel{
		collMembers: {
			{Keys: bson.D{{Key: "phone", Value: 1}}, Options: unique},
		},
		collCarts: {
			{Keys: bson.D{{Key: "phone", Value: 1}}, Options: unique},
		},
		collOrders: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "member_phone", Value: 1}, {Key: "status", Value: 1}}},
		},
		collClusters: {
			{Keys: bson.D{{Key: "members", Value: 1}}},
		},
		collCommissions: {
			{Keys: bson.D{{Key: "referred_phone", Value: 1}}, Options: unique},
		},
		collProducts: {
			{Keys: bson.D{{Key: "sku", Value: 1}}, Options: unique},
		},
		collMessages: {
			{Keys: bson.D{{Key: "phone", Value: 1}, {Key: "ts", Value: -1}}},
		},
	}
}
