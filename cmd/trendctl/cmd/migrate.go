package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"stock_trend/internal/feature/trend/adapters"
	"stock_trend/internal/platform/db"
)

// migrateCmd migrate サブコマンド
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := db.Open(cfg.Database)
		if err != nil {
			return err
		}
		if sqlDB, err := gdb.DB(); err == nil {
			defer func() { _ = sqlDB.Close() }()
		}

		if err := db.Migrate(gdb, adapters.Models()...); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migration ok")
		return nil
	},
}
