package main

import (
	"github.com/spf13/cobra"

	"github.com/rl1809/marketplace/internal/adapter/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		return storage.Migrate(cfg.Database, log)
	},
}
