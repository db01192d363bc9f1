package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alwanly/service-feed-ingest/internal/config"
	"github.com/Alwanly/service-feed-ingest/internal/membership"
	"github.com/Alwanly/service-feed-ingest/pkg/logger"
)

func main() {
	log, err := logger.NewLoggerFromEnv("member")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.LoadMemberConfig(os.Args[1:])
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ensemble, node, err := membership.JoinZK(ctx, cfg.Servers, cfg.Root, cfg.SessionTimeout, cfg.ConnectTimeout, log)
	if err != nil {
		log.WithError(err).Fatal("failed to register worker node")
	}
	defer ensemble.Close()

	log.Info("member registered, waiting for shutdown",
		logger.Uint64(logger.FieldWorkerUID, node.ID),
		logger.String("path", node.Path),
	)

	<-ctx.Done()
	log.Info("member stopped")
}
