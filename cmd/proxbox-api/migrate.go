package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/netdevopsbr/proxbox/internal/config"
	"github.com/netdevopsbr/proxbox/internal/store"
	"github.com/netdevopsbr/proxbox/pkg/log"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
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

		zap.S().Named("proxbox_api").Info("Migrating database")
		defer zap.S().Named("proxbox_api").Info("Db migrated")

		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Named("proxbox_api").Fatalf("initializing data store: %v", err)
		}

		store := store.NewStore(db)
		defer store.Close()

		if err := store.InitialMigration(); err != nil {
			zap.S().Named("proxbox_api").Fatalf("running initial migration: %v", err)
		}

		return nil
	},
}
