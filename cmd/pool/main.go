package main

// @title           Feed Ingest - Worker Pool API
// @version         1.0
// @description     Admin API of the realtime feed worker pool. Lists and adds agencies at runtime.
// @host      localhost:8090
// @BasePath  /
// @securityDefinitions.basic  BasicAuth

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	swagger "github.com/gofiber/swagger"
	"golang.org/x/sync/errgroup"

	_ "github.com/Alwanly/service-feed-ingest/docs/pool"

	"github.com/Alwanly/service-feed-ingest/internal/bootstrap"
	"github.com/Alwanly/service-feed-ingest/internal/catalog"
	"github.com/Alwanly/service-feed-ingest/internal/config"
	"github.com/Alwanly/service-feed-ingest/internal/feed"
	"github.com/Alwanly/service-feed-ingest/internal/membership"
	poolhandler "github.com/Alwanly/service-feed-ingest/internal/server/pool/handler"
	"github.com/Alwanly/service-feed-ingest/internal/server/pool/repository"
	"github.com/Alwanly/service-feed-ingest/internal/server/pool/usecase"
	"github.com/Alwanly/service-feed-ingest/pkg/deps"
	"github.com/Alwanly/service-feed-ingest/pkg/logger"
	"github.com/Alwanly/service-feed-ingest/pkg/poll"
	"github.com/Alwanly/service-feed-ingest/pkg/rpc"
)

func main() {
	log, err := logger.NewLoggerFromEnv("pool")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting worker pool")

	cfg, err := config.LoadPoolConfig(os.Args[1:])
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	log.Info("configuration loaded",
		logger.String("catalog", cfg.CatalogPath),
		logger.String("rpc_addr", cfg.RPCAddr),
		logger.String("admin_addr", cfg.Admin.Addr),
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

	rpcServer, err := rpc.Listen(cfg.RPCAddr, log, rpc.WithMaxFrameSize(cfg.RPCMaxFrame))
	if err != nil {
		log.WithError(err).Fatal("failed to bind control-plane listener")
	}

	app, auth := bootstrap.NewAdminApp("Feed Ingest Pool", cfg.Admin, log)

	fetcher := feed.NewFetcher(feed.NewHTTPClient(), log)
	poller := feed.NewPoller(fetcher, snk.Store, snk.Forwarder, log)

	uc := usecase.NewUseCase(ctx, repository.NewRepository(), poller, poll.DefaultConfig(), log)

	dependencies := deps.App{
		Fiber:      app,
		Logger:     log,
		Middleware: auth,
		RPC:        rpcServer,
	}
	poolhandler.NewHandler(dependencies, uc)

	app.Get("/swagger/*", swagger.HandlerDefault)

	if m := cfg.Membership; m != nil {
		ensemble, node, err := membership.JoinZK(ctx, m.Servers, m.Root, m.SessionTimeout, m.ConnectTimeout, log)
		if err != nil {
			log.WithError(err).Fatal("failed to register with coordination ensemble")
		}
		defer ensemble.Close()
		log.Info("pool registered as member",
			logger.Uint64(logger.FieldWorkerUID, node.ID),
			logger.String("path", node.Path),
		)
	}

	uc.StartCatalog(agencies)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rpcServer.Serve(gCtx)
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
		uc.Shutdown()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("worker pool stopped with error")
		os.Exit(1)
	}

	log.Info("worker pool stopped gracefully")
}

