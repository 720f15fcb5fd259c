package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/shelfwatch/pricesync/app/catalog"
	"github.com/shelfwatch/pricesync/app/categories"
	"github.com/shelfwatch/pricesync/app/database"
	"github.com/shelfwatch/pricesync/app/httputil"
	"github.com/shelfwatch/pricesync/app/reconcile"
	"github.com/shelfwatch/pricesync/config"
	"github.com/shelfwatch/pricesync/logging"
	"github.com/shelfwatch/pricesync/models"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tracked catalog over HTTP",
		Long: `Serve exposes a read-only JSON API over the tracked catalog:

  GET /products          paginated product list (offset, limit, category, price_lt)
  GET /products/{id}     one product with its categories and price history
  GET /categories        category labels with product counts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("serve requires the %s driver, got %q", config.DriverPostgres, a.cfg.Database.Driver)
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			ctx := cmd.Context()
			db, err := database.Open(ctx, a.cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close(db)

			repo := models.NewProductsRepository(db)
			vocabulary := reconcile.NewVocabulary(a.cfg.Reconcile.Categories...)
			return serve(ctx, addr, newRouter(ctx, repo, vocabulary))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.addr)")
	return cmd
}

func newRouter(ctx context.Context, repo *models.ProductsRepository, vocabulary reconcile.Vocabulary) http.Handler {
	catHandler := catalog.NewCatalogHandler(repo)
	categoryHandler := categories.NewCategoryHandler(repo, vocabulary)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", catHandler.HandleGet)
	mux.HandleFunc("GET /products/{id}", catHandler.HandleGetProduct)
	mux.HandleFunc("GET /categories", categoryHandler.HandleGetAll)

	logger := logging.FromContext(ctx)
	return httputil.Chain(
		httputil.Recovery(logger),
		httputil.Logger(logger),
	)(mux)
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	log := logging.FromContext(ctx)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("Graceful shutdown complete")
	return nil
}
