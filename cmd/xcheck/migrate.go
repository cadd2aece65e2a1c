package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/totegamma/xcheck/internal/config"
	"github.com/totegamma/xcheck/internal/infra/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the store schema and listing indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if conf.Store.Driver == config.DriverMongo {
			session, err := database.NewMongo(conf.Store.MongoURL, time.Duration(conf.Store.DialTimeout)*time.Second)
			if err != nil {
				return err
			}
			defer session.Close()
			if err := database.MigrateMongo(session, conf.Store.Database); err != nil {
				return fmt.Errorf("migrate mongo: %w", err)
			}
		}

		// the audit log lives in postgres even when documents are in mongo
		if conf.Store.PostgresDsn != "" {
			db, err := database.NewPostgres(conf.Store.PostgresDsn)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			if err := database.MigratePostgres(db); err != nil {
				return fmt.Errorf("migrate postgres: %w", err)
			}
		}

		slog.Info("migration completed", slog.String("driver", conf.Store.Driver))
		return nil
	},
}
