package main

import (
	"errors"

	"github.com/spf13/cobra"

	"plantscan-service/internal/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.DSN == "" {
				return errors.New("database.dsn is not set")
			}

			gdb, err := db.Open(cfg.Database.DSN, log)
			if err != nil {
				return err
			}
			return db.Close(gdb)
		},
	}
}
