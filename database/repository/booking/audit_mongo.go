package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"bookdesk/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoAuditRepo implements AuditRepository using MongoDB. It only ever inserts.
type MongoAuditRepo struct {
	coll *mongo.Collection
}

// NewMongoAuditRepo creates an AuditRepository on the "booking_audit" collection.
func NewMongoAuditRepo(db *mongo.Database, logger *zap.Logger) AuditRepository {
	repo := &MongoAuditRepo{coll: db.Collection("booking_audit")}
	if err := repo.ensureIndexes(); err != nil {
		logger.Warn("failed to create audit indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoAuditRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// One entry per booking version.
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "seq", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Append inserts an entry under the sequence number its transition produced.
func (r *MongoAuditRepo) Append(ctx context.Context, entry *models.BookingAuditEntry) error {
	ctx, cancel := newContext(ctx, opTimeout)
	defer cancel()

	if entry.Seq <= 0 {
		return fmt.Errorf("audit entry for %s has no sequence number", entry.BookingID)
	}
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("error inserting audit entry for %s: %w", entry.BookingID, err)
	}
	return nil
}

// ListForBooking returns all entries for a booking in ledger order.
func (r *MongoAuditRepo) ListForBooking(ctx context.Context, bookingID string) ([]models.BookingAuditEntry, error) {
	ctx, cancel := newContext(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing audit entries for %s: %w", bookingID, err)
	}
	defer cursor.Close(ctx)

	entries := []models.BookingAuditEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("error decoding audit entries: %w", err)
	}
	return entries, nil
}
