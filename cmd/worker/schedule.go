package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/folio-studio/folio-backend/internal/maintenance"
	oauthrepo "github.com/folio-studio/folio-backend/internal/oauth/repository"
)

const defaultPurgeSchedule = "0 0 3 * * *"

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the purge job on PURGE_SCHEDULE until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.db.Close()

		spec := e.cfg.Maintenance.Schedule
		if spec == "" {
			spec = defaultPurgeSchedule
		}

		s := maintenance.NewScheduler(e.logger)
		purger := maintenance.NewPurger(e.db, oauthrepo.NewClientRepository(e.db), e.cfg.Maintenance.RetentionDays)
		if err := s.Add(spec, "purge", purger); err != nil {
			return err
		}
		s.Start()
		fmt.Printf("purge scheduled with %q, press Ctrl+C to stop\n", spec)

		<-cmd.Context().Done()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.Stop(ctx)
		return nil
	},
}
