package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/folio-studio/folio-backend/config"
	"github.com/folio-studio/folio-backend/internal/logging"
	"github.com/folio-studio/folio-backend/internal/storage/postgres"
)

// env is what every subcommand needs: config, a logger and the database.
type env struct {
	cfg    *config.Config
	logger pslog.Logger
	db     *sql.DB
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.App.LogLevel, cfg.App.Version).With("component", "worker")

	db, err := postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, db: db}, nil
}

var rootCmd = &cobra.Command{
	Use:           "worker",
	Short:         "Maintenance tasks for the folio backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.AddCommand(migrateCmd, purgeCmd, scheduleCmd, clientsCmd)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
