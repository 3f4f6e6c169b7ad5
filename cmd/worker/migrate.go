package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/folio-studio/folio-backend/internal/storage/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.db.Close()

		applied, err := postgres.Migrate(cmd.Context(), e.db)
		for _, v := range applied {
			e.logger.Info("worker.migrate.applied", "version", v)
		}
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Println("schema is up to date")
		}
		return nil
	},
}
