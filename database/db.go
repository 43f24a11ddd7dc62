package database

import (
	"context"
	"fmt"
	"time"

	"bookdesk/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// MongoClient is set by InitDB.
var MongoClient *mongo.Client

// InitDB connects to MongoDB and checks that a primary answers, since every
// booking write goes to the primary.
func InitDB(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.DatabaseURL).
		SetAppName("bookdesk").
		SetServerSelectionTimeout(connectTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("failed to ping MongoDB primary: %w", err)
	}
	MongoClient = client
	logger.Info("connected to MongoDB", zap.String("database", cfg.DatabaseName))
	return nil
}

// DB returns the application database handle.
func DB() *mongo.Database {
	return MongoClient.Database(config.AppConfig.DatabaseName)
}
