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

type memberRepository struct {
	coll *mongo.Collection
}

// NewMemberRepository is the constructor for memberRepository.
func NewMemberRepository(db *mongo.Database) repository.MemberRepository {
	return &memberRepository{coll: db.Collection(collMembers)}
}

// FindByPhone retrieves a single member by phone number. A stored state
// outside the closed enum is an error, not a silent reset.
func (repo *memberRepository) FindByPhone(ctx context.Context, phone string) (*entity.Member, error) {
	var member entity.Member
	err := repo.coll.FindOne(ctx, bson.M{"phone": phone}).Decode(&member)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrMemberNotFound
		}

		return nil, errors.Wrap(err, "failed to find member by phone")
	}

	if _, err := entity.ParseConversationState(member.State.String()); err != nil {
		return nil, errors.Wrapf(err, "member %s has state %q", phone, member.State)
	}

	return &member, nil
}

// Create persists a new member entity to the storage.
func (repo *memberRepository) Create(ctx context.Context, member *entity.Member) error {
	if _, err := repo.coll.InsertOne(ctx, member); err != nil {
		return errors.Wrap(err, "failed to create member")
	}

	return nil
}

// Update modifies an existing member entity in the storage.
func (repo *memberRepository) Update(ctx context.Context, member *entity.Member) error {
	result, err := repo.coll.ReplaceOne(ctx, bson.M{"phone": member.Phone}, member)
	if err != nil {
		return errors.Wrap(err, "failed to update member")
	}
	if result.MatchedCount == 0 {
		return repository.ErrMemberNotFound
	}

	return nil
}

// List retrieves members, most recently joined first. A non-positive limit
// returns everyone.
func (repo *memberRepository) List(ctx context.Context, limit int) ([]entity.Member, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := repo.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list members")
	}
	defer cursor.Close(ctx)

	var members []entity.Member
	if err := cursor.All(ctx, &members); err != nil {
		return nil, errors.Wrap(err, "failed to decode members")
	}

	return members, nil
}
