package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"aulasec/config"
	"aulasec/core/appbootstrap"
	"aulasec/core/metrics"
	"aulasec/core/store"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the configuration file")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	db, err := store.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.ApplyMigrations(ctx, db, cfg.DBDriver, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}

	metrics.Init()

	server, workers, err := appbootstrap.Compose(cfg, db, logger)
	if err != nil {
		logger.Fatalf("compose: %v", err)
	}

	for _, w := range workers {
		w.Start()
	}
	defer func() {
		for _, w := range workers {
			w.Stop()
		}
	}()

	if err := server.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server: %v", err)
	}
	logger.Info("shutdown complete")
}
