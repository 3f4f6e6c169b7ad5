package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/folio-studio/folio-backend/config"
	"github.com/folio-studio/folio-backend/internal/auth"
	"github.com/folio-studio/folio-backend/internal/bootstrap"
	"github.com/folio-studio/folio-backend/internal/logging"
	"github.com/folio-studio/folio-backend/internal/maintenance"
	oauthrepo "github.com/folio-studio/folio-backend/internal/oauth/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.App.LogLevel, cfg.App.Version)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, pool, err := bootstrap.OpenDatabases(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	defer pool.Close()

	rdb, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	var firebase *fbauth.Client
	if cfg.Firebase.CredentialsPath != "" || cfg.IsProduction() {
		firebase, err = auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
	} else {
		logger.Warn("firebase.disabled", "reason", "FIREBASE_CREDENTIALS_PATH not set")
	}

	if cfg.Maintenance.Schedule != "" {
		s := maintenance.NewScheduler(logger.With("component", "scheduler"))
		purger := maintenance.NewPurger(db, oauthrepo.NewClientRepository(db), cfg.Maintenance.RetentionDays)
		if err := s.Add(cfg.Maintenance.Schedule, "purge", purger); err != nil {
			log.Fatalf("Failed to schedule purge: %v", err)
		}
		s.Start()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			s.Stop(sctx)
		}()
	}

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Pool:     pool,
		Redis:    rdb,
		Firebase: firebase,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server.listening", "addr", srv.Addr, "env", cfg.App.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server.failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("server.shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server.shutdown_failed", "error", err)
	}
}
