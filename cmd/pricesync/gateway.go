package main

import (
	"context"
	"fmt"

	"github.com/shelfwatch/pricesync/app/database"
	"github.com/shelfwatch/pricesync/app/reconcile"
	"github.com/shelfwatch/pricesync/app/upsert"
	"github.com/shelfwatch/pricesync/config"
	"github.com/shelfwatch/pricesync/logging"
	"github.com/shelfwatch/pricesync/models"
)

// openGateway connects the configured storage driver. The returned func
// releases the connection.
func openGateway(ctx context.Context, cfg *config.Config) (upsert.Gateway, func() error, error) {
	log := logging.FromContext(ctx)

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		log.Debug().Str("driver", cfg.Database.Driver).Msg("Connected to database")
		return models.NewProductsRepository(db), func() error { return database.Close(db) }, nil

	case config.DriverMongo:
		client, err := database.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		log.Debug().Str("driver", cfg.Database.Driver).Str("database", cfg.Mongo.Database).Msg("Connected to database")
		repo := models.NewMongoRepository(database.MongoCollection(client, cfg.Mongo))
		return repo, func() error { return client.Disconnect(context.Background()) }, nil

	case config.DriverMemory:
		return models.NewMemoryRepository(), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unsupported driver %q", cfg.Database.Driver)
}

func newReconciler(cfg config.Reconcile) (*reconcile.Reconciler, error) {
	return reconcile.New(
		reconcile.WithVocabulary(reconcile.NewVocabulary(cfg.Categories...)),
		reconcile.WithPriceThreshold(cfg.PriceThreshold),
		reconcile.WithLocation(cfg.Location),
	)
}
