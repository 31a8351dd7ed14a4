package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"example.com/restaurant-pos/internal/messaging"
	"example.com/restaurant-pos/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that relays committed order events to the broker and the search index`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	publisher, err := messaging.NewPublisher(cfg.Messaging)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close publisher")
		}
	}()

	var indexer services.Indexer
	if rt.elastic != nil {
		indexer = rt.elastic
	}
	relay := services.NewOutboxRelay(rt.store, publisher, indexer, cfg.Worker.BatchSize, rt.metrics)

	g.Go(func() error {
		log.Info().
			Str("provider", cfg.Messaging.Provider).
			Bool("search", indexer != nil).
			Dur("interval", cfg.Worker.RelayInterval).
			Msg("Starting outbox relay")

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Worker.RelayInterval),
			gocron.NewTask(func() {
				if _, err := relay.RelayPending(ctx); err != nil {
					log.Error().Err(err).Msg("Outbox relay stopped early, remaining events retry on the next run")
				}
			}),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		<-ctx.Done()

		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
