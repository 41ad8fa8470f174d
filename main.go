package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/danielhkuo/securevote/auth"
	"github.com/danielhkuo/securevote/cliparse"
	"github.com/danielhkuo/securevote/ledger"
	"github.com/danielhkuo/securevote/middleware"
	"github.com/danielhkuo/securevote/polls"
	"github.com/danielhkuo/securevote/router"
	"github.com/danielhkuo/securevote/store"
	"github.com/danielhkuo/securevote/tally"
	"github.com/danielhkuo/securevote/voting"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the configured storage strategy
	st, err := store.Open(ctx, cfg)
	if err != nil {
		slog.Error("storage setup failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer st.Close()
	slog.Info("Storage ready", "type", cfg.DatabaseType)

	// Wire the ledger core
	projector := tally.NewProjector(st, nil)
	votes := ledger.New(st, projector, ledger.Options{MaxRetries: cfg.VoteMaxRetries})
	svc := voting.NewService(voting.Config{
		Polls:     polls.New(st, votes, nil, nil),
		Ledger:    votes,
		Projector: projector,
	})
	roles := auth.NewStaticRoles(cfg.AdminIDs, cfg.CreatorIDs)

	if cfg.SeedDemo {
		if _, err := svc.SeedDemoPolls(ctx); err != nil {
			slog.Error("demo seed failed", "error", err)
			os.Exit(1)
		}
	}

	reconciler := tally.Reconciler{
		Projector: projector,
		Store:     st,
		Interval:  cfg.ReconcileInterval,
	}
	go reconciler.Run(ctx)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(router.NewRouter(svc, roles)),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
