package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/padel-elo/internal/config"
	"github.com/AdamBeresnev/padel-elo/internal/db"
	"github.com/AdamBeresnev/padel-elo/internal/metrics"
	"github.com/AdamBeresnev/padel-elo/internal/service"
	"github.com/AdamBeresnev/padel-elo/internal/store"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	rules := service.Rules{KFactor: cfg.KFactor, Courts: cfg.Courts}
	tournament := service.NewTournamentService(store.NewStateStore(store.NewSQLiteStore(database)), rules, cfg.Cooldown, m)
	if err := tournament.Load(context.Background()); err != nil {
		slog.Error("failed to load tournament", "error", err)
		os.Exit(1)
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Store = sqlite3store.New(database.DB)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(sessionManager, tournament, m, time.Now),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	s := <-stop
	slog.Info("shutting down", "signal", s.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down cleanly", "error", err)
	}
}
