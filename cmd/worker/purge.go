package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/folio-studio/folio-backend/internal/logging"
	"github.com/folio-studio/folio-backend/internal/maintenance"
	oauthrepo "github.com/folio-studio/folio-backend/internal/oauth/repository"
)

var purgeRetention int

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Hard-delete soft-deleted content and abandoned OAuth clients",
	Long: `Permanently removes content rows soft-deleted more than the retention
period ago, and dynamically registered OAuth clients that never completed a
token exchange within 30 days. Prints a JSON report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.db.Close()

		days := e.cfg.Maintenance.RetentionDays
		if purgeRetention > 0 {
			days = purgeRetention
		}
		purger := maintenance.NewPurger(e.db, oauthrepo.NewClientRepository(e.db), days)

		report, err := purger.Run(logging.WithLogger(cmd.Context(), e.logger))
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	purgeCmd.Flags().IntVar(&purgeRetention, "retention-days", 0, "override PURGE_RETENTION_DAYS")
}
