package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelfwatch/pricesync/app/database"
	"github.com/shelfwatch/pricesync/config"
	"github.com/shelfwatch/pricesync/logging"
	"github.com/shelfwatch/pricesync/models"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the catalog schema",
		Long: `Migrate creates the products, product_categories and price_history tables
for the postgres driver, or the collection indexes for the mongo driver.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			switch a.cfg.Database.Driver {
			case config.DriverPostgres:
				db, err := database.Open(ctx, a.cfg.Database)
				if err != nil {
					return err
				}
				defer database.Close(db)
				if err := models.Migrate(ctx, db); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}

			case config.DriverMongo:
				client, err := database.ConnectMongo(ctx, a.cfg.Mongo)
				if err != nil {
					return err
				}
				defer client.Disconnect(ctx)
				repo := models.NewMongoRepository(database.MongoCollection(client, a.cfg.Mongo))
				if err := repo.EnsureIndexes(ctx); err != nil {
					return fmt.Errorf("ensure indexes: %w", err)
				}

			default:
				return fmt.Errorf("driver %q has no schema to migrate", a.cfg.Database.Driver)
			}

			log.Info().Str("driver", a.cfg.Database.Driver).Msg("Schema is up to date")
			return nil
		},
	}
}
