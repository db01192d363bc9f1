package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Alwanly/service-feed-ingest/internal/bootstrap"
	"github.com/Alwanly/service-feed-ingest/internal/catalog"
	"github.com/Alwanly/service-feed-ingest/internal/config"
	"github.com/Alwanly/service-feed-ingest/internal/feed"
	"github.com/Alwanly/service-feed-ingest/internal/scheduler"
	"github.com/Alwanly/service-feed-ingest/pkg/logger"
)

func main() {
	log, err := logger.NewLoggerFromEnv("batch")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting batch ingest")

	cfg, err := config.LoadBatchConfig(os.Args[1:])
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	log.Info("configuration loaded",
		logger.String("catalog", cfg.CatalogPath),
		logger.Duration("timeout", cfg.Timeout),
		logger.Int("threads", cfg.Threads),
		logger.String("sink_backend", cfg.Sink.Backend),
	)

	agencies, err := catalog.Load(cfg.CatalogPath, log)
	if err != nil {
		log.WithError(err).Fatal("failed to load catalog")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snk, err := bootstrap.NewSink(ctx, cfg.Sink, cfg.Redis, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize sink")
	}
	defer snk.Close()

	fetcher := feed.NewFetcher(feed.NewHTTPClient(), log)
	poller := feed.NewPoller(fetcher, snk.Store, snk.Forwarder, log)
	batch := scheduler.NewBatch(agencies, poller, scheduler.Config{
		Concurrency: cfg.Threads,
		Timeout:     cfg.Timeout,
		Cadence:     cfg.Cadence,
	}, log)

	app, _ := bootstrap.NewAdminApp("Feed Ingest Batch", cfg.Admin, log)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "agencies": len(agencies)})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return batch.Run(gCtx)
	})

	g.Go(func() error {
		log.Info("starting admin server", logger.String("address", cfg.Admin.Addr))
		if err := app.Listen(cfg.Admin.Addr); err != nil {
			return fmt.Errorf("failed to start admin server: %w", err)
		}
		return nil
	})

	// Handle graceful shutdown
	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Info("received shutdown signal", logger.String("signal", sig.String()))
		case <-gCtx.Done():
			log.Info("context cancelled")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Error("error during server shutdown")
		}

		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("batch ingest stopped with error")
		os.Exit(1)
	}

	log.Info("batch ingest stopped gracefully")
}
