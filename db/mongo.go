package db

import (
	"context"
	"fmt"

	"usuarios-service/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

var (
	mongoConnect = mongo.Connect
	pingMongo    = func(ctx context.Context, client *mongo.Client) error {
		return client.Ping(ctx, readpref.Primary())
	}
)

func ConnectMongo(ctx context.Context, cfg config.MongoConfig, log *zap.SugaredLogger) (*mongo.Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo URI is empty")
	}

	client, err := mongoConnect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("error opening mongo client: %w", err)
	}

	if err := pingMongo(ctx, client); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("error connecting to mongo: %w", err)
	}

	log.Infow("connected to mongo", "database", cfg.Database, "collection", cfg.Collection)
	return client, nil
}
