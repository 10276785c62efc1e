package main

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"fieldmapper/mapping"
	"fieldmapper/storage"
)

type App struct {
	cfg    Config
	logger *zap.Logger
	mongo  *mongo.Client
	users  *mongo.Collection
	store  *mapping.FieldStore
}

func newApp(ctx context.Context, cfg Config, logger *zap.Logger) (*App, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDB)

	app := &App{
		cfg:    cfg,
		logger: logger,
		mongo:  client,
		users:  db.Collection("users"),
	}

	// Indexes
	if _, err := app.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return nil, err
	}

	kv := storage.NewMongo(db.Collection("kv"))
	engineCfg := mapping.Config{
		MinSpacingMeters:       cfg.MinSpacingMeters,
		ClosureToleranceMeters: cfg.ClosureToleranceMeters,
	}
	app.store = mapping.NewFieldStore(engineCfg, kv, nil, logger)
	if err := app.store.Restore(ctx); err != nil {
		return nil, err
	}

	return app, nil
}

func (a *App) close(ctx context.Context) { _ = a.mongo.Disconnect(ctx) }
