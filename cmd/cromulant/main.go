// Command cromulant runs the ant colony daemon.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/talgya/cromulant/internal/api"
	"github.com/talgya/cromulant/internal/config"
	"github.com/talgya/cromulant/internal/engine"
	"github.com/talgya/cromulant/internal/entropy"
	"github.com/talgya/cromulant/internal/feed"
	"github.com/talgya/cromulant/internal/persistence"
	"github.com/talgya/cromulant/internal/settings"
	"github.com/talgya/cromulant/internal/words"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("CROMULANT_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	slog.Info("Cromulant ant colony starting")

	// ── Configuration ─────────────────────────────────────────────────
	cfg, err := config.Load(os.Getenv("CROMULANT_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if dir := os.Getenv("CROMULANT_DATA_DIR"); dir != "" {
		cfg.Storage.Dir = dir
	}
	if p := os.Getenv("CROMULANT_PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			slog.Error("invalid CROMULANT_PORT", "value", p)
			os.Exit(1)
		}
		cfg.API.Port = port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Storage ───────────────────────────────────────────────────────
	store, err := persistence.NewStore(cfg.Storage.Backend, cfg.Storage.Dir)
	if err != nil {
		slog.Error("failed to open storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage opened", "backend", cfg.Storage.Backend, "dir", cfg.Storage.Dir)

	st, err := store.LoadSettings(ctx)
	if err != nil {
		slog.Error("failed to load settings", "error", err)
		os.Exit(1)
	}
	if sp := os.Getenv("CROMULANT_SPEED"); sp != "" {
		speed, err := settings.ParseSpeed(sp)
		if err != nil {
			slog.Error("invalid CROMULANT_SPEED", "error", err)
			os.Exit(1)
		}
		st.Speed = speed
	}

	// ── Names ─────────────────────────────────────────────────────────
	src := entropy.Crypto{}
	names := words.New(src)
	if cfg.Storage.NamesFile != "" {
		pool, err := persistence.LoadNamePool(cfg.Storage.NamesFile)
		if err != nil {
			slog.Error("failed to load name pool", "path", cfg.Storage.NamesFile, "error", err)
			os.Exit(1)
		}
		names.SetNamePool(pool)
		slog.Info("name pool loaded", "path", cfg.Storage.NamesFile, "names", len(names.NamePool()))
	}

	// ── Feed ──────────────────────────────────────────────────────────
	entryLog, _ := persistence.FeedLog(store)
	fd := feed.New(cfg.Feed, entryLog)
	if err := fd.Restore(ctx); err != nil {
		slog.Warn("feed history unavailable", "error", err)
	}
	fd.Verbose = func() bool { return st.Verbose }

	// ── Colony ────────────────────────────────────────────────────────
	colony := engine.NewColony(cfg.Colony.MaxAnts, names, src, store, fd)
	stored, err := store.LoadAnts(ctx)
	if err != nil {
		slog.Error("failed to load ants", "error", err)
		os.Exit(1)
	}
	if n := colony.Load(stored); n > 0 {
		slog.Info("colony restored", "ants", n)
	} else {
		slog.Info("no saved colony found, hatching", "ants", cfg.Colony.DefaultPopulation)
		if _, err := colony.Hatch(ctx, cfg.Colony.DefaultPopulation); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	sched := engine.NewScheduler(colony, &st, cfg, names, src)
	eng := engine.NewEngine(cfg.Speeds, st.Speed)
	if v, err := store.GetMeta(ctx, "last_tick"); err == nil && v != "" {
		if t, err := strconv.ParseUint(v, 10, 64); err == nil {
			eng.SetTick(t)
		}
	}
	eng.OnTick = func(ctx context.Context, tick uint64) {
		res, err := sched.Tick(ctx)
		if err != nil {
			slog.Error("tick failed", "tick", tick, "error", err)
		}
		if res.Skipped {
			slog.Debug("tick skipped", "tick", tick, "population", colony.Len())
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("CROMULANT_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("CROMULANT_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}

	apiServer := &api.Server{
		Colony:   colony,
		Sched:    sched,
		Eng:      eng,
		Feed:     fd,
		Settings: &st,
		Store:    store,
		Config:   cfg,
		AdminKey: adminKey,
	}
	go func() {
		if err := apiServer.Start(ctx); err != nil {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	fmt.Printf("\nThe colony is alive: %d ants, speed %s.\n", colony.Len(), st.Speed)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	if eng.Tick() > 0 {
		fmt.Printf("Resuming from tick %d\n", eng.Tick())
	}
	fmt.Println("Starting colony... (Ctrl+C to stop)")

	if err := eng.Run(ctx); err != nil {
		slog.Error("engine error", "error", err)
	}

	// Final save on shutdown.
	slog.Info("final save...")
	saveCtx := context.Background()
	if err := colony.Save(saveCtx); err != nil {
		slog.Error("final save failed", "error", err)
	}
	if err := store.SaveSettings(saveCtx, st); err != nil {
		slog.Error("failed to save settings", "error", err)
	}
	if err := store.SaveMeta(saveCtx, "last_tick", strconv.FormatUint(eng.Tick(), 10)); err != nil {
		slog.Error("failed to save tick", "error", err)
	}
	if err := fd.Flush(saveCtx); err != nil {
		slog.Error("failed to flush feed", "error", err)
	}

	fmt.Println("Colony stopped. State saved.")
}
