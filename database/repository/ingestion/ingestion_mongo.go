package ingestionRepo

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

// MongoEventRepo implements EventRepository using MongoDB.
type MongoEventRepo struct {
	coll *mongo.Collection
}

// NewMongoEventRepo creates an EventRepository on the "inbound_events" collection.
func NewMongoEventRepo(db *mongo.Database, logger *zap.Logger) EventRepository {
	repo := &MongoEventRepo{coll: db.Collection("inbound_events")}
	if err := repo.ensureIndexes(); err != nil {
		logger.Warn("failed to create inbound event indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoEventRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "channel", Value: 1}, {Key: "external_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Insert relies on the unique index to reject redeliveries.
func (r *MongoEventRepo) Insert(ctx context.Context, event *models.InboundEvent) error {
	ctx, cancel := newContext(ctx, opTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error inserting inbound event: %w", err)
	}
	return nil
}

// FindByKey looks an event up by its dedup key.
func (r *MongoEventRepo) FindByKey(ctx context.Context, channel models.Channel, externalID string) (*models.InboundEvent, error) {
	ctx, cancel := newContext(ctx, opTimeout)
	defer cancel()

	var ev models.InboundEvent
	filter := bson.M{"channel": channel, "external_id": externalID}
	if err := r.coll.FindOne(ctx, filter).Decode(&ev); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching inbound event: %w", err)
	}
	return &ev, nil
}

func (r *MongoEventRepo) MarkProcessed(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := newContext(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"id": id, "processed_at": bson.M{"$exists": false}}
	if _, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"processed_at": at}}); err != nil {
		return fmt.Errorf("error marking inbound event %s processed: %w", id, err)
	}
	return nil
}

// MongoIdentityRepo implements IdentityRepository using MongoDB.
type MongoIdentityRepo struct {
	coll *mongo.Collection
}

// NewMongoIdentityRepo creates an IdentityRepository on the "channel_identities" collection.
func NewMongoIdentityRepo(db *mongo.Database, logger *zap.Logger) IdentityRepository {
	repo := &MongoIdentityRepo{coll: db.Collection("channel_identities")}
	if err := repo.ensureIndexes(); err != nil {
		logger.Warn("failed to create channel identity indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoIdentityRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "channel", Value: 1}, {Key: "customer_identifier", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// GetOrCreate upserts with $setOnInsert so a concurrent first contact cannot
// overwrite the winner's conversation id.
func (r *MongoIdentityRepo) GetOrCreate(ctx context.Context, m models.ChannelIdentityMapping) (*models.ChannelIdentityMapping, bool, error) {
	ctx, cancel := newContext(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"channel": m.Channel, "customer_identifier": m.CustomerIdentifier}
	update := bson.M{"$setOnInsert": bson.M{
		"conversation_id": m.ConversationID,
		"created_at":      m.CreatedAt,
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return nil, false, fmt.Errorf("error upserting channel identity: %w", err)
	}
	created := err == nil && res.UpsertedCount == 1

	var stored models.ChannelIdentityMapping
	if err := r.coll.FindOne(ctx, filter).Decode(&stored); err != nil {
		return nil, false, fmt.Errorf("error reading channel identity: %w", err)
	}
	return &stored, created, nil
}
