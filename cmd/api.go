package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"example.com/restaurant-pos/internal/api"
	"example.com/restaurant-pos/internal/services"
	"example.com/restaurant-pos/internal/storage"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server for the catalog, orders, billing and dashboard`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := checkJWTSecret(cfg); err != nil {
		return err
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	auth, err := rt.auth(cfg)
	if err != nil {
		return err
	}

	images, err := storage.NewLocalImageStore(cfg.Storage)
	if err != nil {
		return err
	}

	catalog := rt.catalog(images)
	deps := api.Dependencies{
		Orders:    rt.orders(cfg, catalog.Pricing()),
		Catalog:   catalog,
		Auth:      auth,
		Dashboard: services.NewDashboardService(rt.store),
		Metrics:   rt.metrics,
		Health:    rt.healthChecks(),
	}
	if rt.elastic != nil {
		deps.Searcher = rt.elastic
	}

	server := api.NewServer(cfg, deps, rt.tracer)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("API server error")
		return err
	}

	log.Info().Msg("API server stopped")
	return nil
}
