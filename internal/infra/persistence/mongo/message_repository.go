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

type messageRepository struct {
	coll *mongo.Collection
}

// NewMessageRepository is the constructor for messageRepository.
func NewMessageRepository(db *mongo.Database) repository.MessageRepository {
	return &messageRepository{coll: db.Collection(collMessages)}
}

// Log appends a transcript entry.
func (repo *messageRepository) Log(ctx context.Context, message *entity.MessageLog) error {
	if message.ID == "" {
		message.ID = primitive.NewObjectID().Hex()
	}
	if _, err := repo.coll.InsertOne(ctx, message); err != nil {
		return errors.Wrap(err, "failed to log message")
	}

	return nil
}

// LogStatus appends a provider delivery-status callback entry.
func (repo *messageRepository) LogStatus(ctx context.Context, status *entity.MessageStatus) error {
	if status.ID == "" {
		status.ID = primitive.NewObjectID().Hex()
	}
	coll := repo.coll.Database().Collection(collMessageStatuses)
	if _, err := coll.InsertOne(ctx, status); err != nil {
		return errors.Wrap(err, "failed to log message status")
	}

	return nil
}

type messageContextRepository struct {
	coll *mongo.Collection
}

// NewMessageContextRepository is the constructor for messageContextRepository.
func NewMessageContextRepository(db *mongo.Database) repository.MessageContextRepository {
	return &messageContextRepository{coll: db.Collection(collMessageContexts)}
}

// Save records the SID to SKU binding for an outbound product card. The SID
// is the document id, so re-sends overwrite rather than duplicate.
func (repo *messageContextRepository) Save(ctx context.Context, messageContext *entity.MessageContext) error {
	opts := options.Replace().SetUpsert(true)
	_, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": messageContext.MessageSID}, messageContext, opts)
	if err != nil {
		return errors.Wrap(err, "failed to save message context")
	}

	return nil
}

// FindBySID retrieves the binding for a quoted-reply SID.
func (repo *messageContextRepository) FindBySID(ctx context.Context, sid string) (*entity.MessageContext, error) {
	var messageContext entity.MessageContext
	err := repo.coll.FindOne(ctx, bson.M{"_id": sid}).Decode(&messageContext)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrMessageContextNotFound
		}

		return nil, errors.Wrap(err, "failed to find message context")
	}

	return &messageContext, nil
}
