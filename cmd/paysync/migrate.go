package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"paysync-server/internal/app"
	"paysync-server/internal/db"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}

			gormDB, err := db.ConnectGorm(cmd.Context(), cfg.DBURL, app.PoolOptions(cfg), logger)
			if err != nil {
				return err
			}
			defer gormDB.Close()

			if err := db.Migrate(cmd.Context(), gormDB.DB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
