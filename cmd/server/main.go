package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/team-shuffler-backend/internal/config"
	"github.com/DoyleJ11/team-shuffler-backend/internal/httpapi"
	"github.com/DoyleJ11/team-shuffler-backend/internal/hub"
	"github.com/DoyleJ11/team-shuffler-backend/internal/journal"
	"github.com/DoyleJ11/team-shuffler-backend/internal/lobby"
	"github.com/DoyleJ11/team-shuffler-backend/internal/logging"
)

func main() {
	envFile := flag.String("env", ".env", "optional .env file")
	flag.Parse()

	if err := run(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(envFile string) (err error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	j, err := openJournal(cfg, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, j.Close()) }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, lobby.Options{
		NoticeTTL: cfg.NoticeTTL,
		Journal:   j,
		Logger:    log,
	})

	// Build the router *with* the hub injected
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Hub:            h,
			Journal:        j,
			Roster:         cfg.Roster(),
			DefaultTeams:   cfg.DefaultTeamIDs(),
			Logger:         log,
			AllowedOrigins: cfg.AllowedOrigins,
			RateLimit:      cfg.RateLimit,
			RateBurst:      cfg.RateBurst,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.Int("teams", len(cfg.Teams)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		h.Shutdown(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openJournal(cfg config.Config, log *zap.Logger) (journal.Journal, error) {
	if cfg.DatabaseURL == "" {
		log.Info("no database configured, keeping journal in memory")
		return journal.NewMemory(), nil
	}
	j, err := journal.OpenPostgres(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return j, nil
}
