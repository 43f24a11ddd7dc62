package inboxRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookdesk/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const opTimeout = 5 * time.Second

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

// MongoDraftRepo implements DraftRepository using MongoDB.
type MongoDraftRepo struct {
	coll *mongo.Collection
}

// NewMongoDraftRepo creates a DraftRepository on the "drafts" collection.
func NewMongoDraftRepo(db *mongo.Database, logger *zap.Logger) DraftRepository {
	repo := &MongoDraftRepo{coll: db.Collection("drafts")}
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		logger.Warn("failed to create draft indexes", zap.Error(err))
	}
	return repo
}

// Save inserts a draft.
func (r *MongoDraftRepo) Save(ctx context.Context, draft *models.Draft) error {
	ctx, cancel := newContext(ctx, opTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, draft); err != nil {
		return fmt.Errorf("error saving draft: %w", err)
	}
	return nil
}

// GetByID fetches a draft by id.
func (r *MongoDraftRepo) GetByID(ctx context.Context, id string) (*models.Draft, error) {
	ctx, cancel := newContext(ctx, opTimeout)
	defer cancel()

	var d models.Draft
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching draft %s: %w", id, err)
	}
	return &d, nil
}

func unsent() bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"sent_at": bson.M{"$exists": false}},
		bson.M{"sent_at": time.Time{}},
	}}
}

// Claim sets sending_at on an unsent draft whose previous claim, if any, is stale.
func (r *MongoDraftRepo) Claim(ctx context.Context, id string, at, staleBefore time.Time) (bool, error) {
	ctx, cancel := newContext(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"id": id, "$and": bson.A{
		unsent(),
		bson.M{"$or": bson.A{
			bson.M{"sending_at": bson.M{"$exists": false}},
			bson.M{"sending_at": bson.M{"$lt": staleBefore}},
		}},
	}}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"sending_at": at}})
	if err != nil {
		return false, fmt.Errorf("error claiming draft %s: %w", id, err)
	}
	return res.MatchedCount == 1, nil
}

// Release clears sending_at so the draft can be sent again.
func (r *MongoDraftRepo) Release(ctx context.Context, id string) error {
	ctx, cancel := newContext(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"id": id, "$and": bson.A{unsent()}}
	if _, err := r.coll.UpdateOne(ctx, filter, bson.M{"$unset": bson.M{"sending_at": ""}}); err != nil {
		return fmt.Errorf("error releasing draft %s: %w", id, err)
	}
	return nil
}

// MarkSent only matches drafts with no sent_at yet.
func (r *MongoDraftRepo) MarkSent(ctx context.Context, id string, at time.Time) (bool, error) {
	ctx, cancel := newContext(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"id": id, "$and": bson.A{unsent()}}
	update := bson.M{"$set": bson.M{"sent_at": at}, "$unset": bson.M{"sending_at": ""}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("error marking draft %s sent: %w", id, err)
	}
	return res.MatchedCount == 1, nil
}

// MongoEscalationRepo implements EscalationRepository using MongoDB.
type MongoEscalationRepo struct {
	coll *mongo.Collection
}

// NewMongoEscalationRepo creates an EscalationRepository on the "escalations" collection.
func NewMongoEscalationRepo(db *mongo.Database) EscalationRepository {
	return &MongoEscalationRepo{coll: db.Collection("escalations")}
}

// Save inserts an escalation.
func (r *MongoEscalationRepo) Save(ctx context.Context, esc *models.Escalation) error {
	ctx, cancel := newContext(ctx, opTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, esc); err != nil {
		return fmt.Errorf("error saving escalation: %w", err)
	}
	return nil
}
