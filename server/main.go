package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"hu-holdem/server/agent"
	"hu-holdem/server/config"
	"hu-holdem/server/llm"
	"hu-holdem/server/logger"
	"hu-holdem/server/session"
	"hu-holdem/server/store"
)

type historySink interface {
	session.Sink
	session.Lister
	Close() error
}

func main() {
	var play, migrate bool
	flag.BoolVar(&play, "play", false, "play one session in the terminal")
	flag.BoolVar(&migrate, "migrate", false, "apply the Postgres schema and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, play, migrate); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("exit", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger, play, migrate bool) error {
	if migrate {
		if cfg.DatabaseURL == "" {
			return errors.New("--migrate needs HU_DATABASE_URL")
		}
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := store.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info("migrated")
		return nil
	}

	sink, err := openSink(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer sink.Close()

	newDecider, err := deciderFactory(cfg, log)
	if err != nil {
		return err
	}
	opts := session.Options{
		Table:        cfg.Table(),
		PlayerName:   cfg.PlayerName,
		AgentTimeout: cfg.AgentTimeout,
		DeckSeed:     cfg.DeckSeed,
	}

	if play {
		s, err := session.New(opts, newDecider(), sink, log)
		if err != nil {
			return err
		}
		return playCLI(ctx, s)
	}
	return serve(ctx, cfg.Addr, session.NewManager(opts, newDecider, sink, log), log)
}

// openSink prefers Postgres when a DSN is configured and falls back to a
// local SQLite file.
func openSink(ctx context.Context, cfg config.Config, log *zap.Logger) (historySink, error) {
	if cfg.DatabaseURL != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		log.Info("hand history in postgres")
		return db, nil
	}
	db, err := store.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	log.Info("hand history in sqlite", zap.String("path", cfg.SQLitePath))
	return db, nil
}

func deciderFactory(cfg config.Config, log *zap.Logger) (func() agent.Decider, error) {
	switch cfg.Agent {
	case "llm":
		c, err := llm.New(cfg.Model, log)
		if err != nil {
			return nil, err
		}
		log.Info("agent: llm", zap.String("model", c.Model()))
		return func() agent.Decider { return c }, nil
	default:
		base := cfg.DeckSeed
		if base == 0 {
			base = time.Now().UnixNano()
		}
		var n atomic.Int64
		return func() agent.Decider { return agent.NewRuleAgent(base + n.Add(1)) }, nil
	}
}

func serve(ctx context.Context, addr string, m *session.Manager, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Router(m, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdown)
	})
	return g.Wait()
}
