package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apiserver "github.com/netdevopsbr/proxbox/internal/api_server"
	"github.com/netdevopsbr/proxbox/internal/cache"
	"github.com/netdevopsbr/proxbox/internal/config"
	"github.com/netdevopsbr/proxbox/internal/store"
	"github.com/netdevopsbr/proxbox/pkg/log"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the proxbox api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			zap.S().Fatalf("reading configuration: %v", err)
		}

		logLvl, err := zap.ParseAtomicLevel(cfg.Service.LogLevel)
		if err != nil {
			logLvl = zap.NewAtomicLevelAt(zap.InfoLevel)
		}

		logger := log.InitLog(logLvl)
		defer func() { _ = logger.Sync() }()
		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Named("proxbox_api").Info("Starting API service")
		defer zap.S().Named("proxbox_api").Info("API service stopped")

		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Named("proxbox_api").Fatalf("initializing data store: %v", err)
		}

		store := store.NewStore(db)
		defer store.Close()

		if err := store.InitialMigration(); err != nil {
			zap.S().Named("proxbox_api").Fatalf("running initial migration: %v", err)
		}

		responseCache, err := cache.New()
		if err != nil {
			zap.S().Named("proxbox_api").Fatalf("initializing response cache: %v", err)
		}
		defer responseCache.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Named("proxbox_api").Fatalf("creating listener: %s", err)
			}

			server := apiserver.New(cfg, store, responseCache, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Named("proxbox_api").Fatalf("Error running server: %s", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Named("proxbox_api").Fatalf("creating metrics listener: %s", err)
			}

			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Named("proxbox_api").Fatalf("Error running metrics server: %s", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
