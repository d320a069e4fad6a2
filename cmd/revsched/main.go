package main

import (
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/revsched/internal/config"
	"github.com/example/revsched/internal/importer"
	"github.com/example/revsched/internal/interval"
	"github.com/example/revsched/internal/logger"
	"github.com/example/revsched/internal/recommend"
	"github.com/example/revsched/internal/session"
	"github.com/example/revsched/internal/store"
	"github.com/example/revsched/internal/sweep"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logg.Sync()

	if cfg.DBType == "sqlite" {
		if err := os.MkdirAll("data", 0o755); err != nil {
			logg.Error("failed to create data directory", "error", err)
			os.Exit(1)
		}
	}
	db, err := store.Open(store.Config{Type: cfg.DBType, DSN: cfg.DBDSN})
	if err != nil {
		logg.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.ImportFile != "" {
		im := importer.New(db, logg)
		result, err := im.Import(importer.DefaultImportConfig(cfg.ImportFile))
		if err != nil {
			logg.Error("catalog import failed", "file", cfg.ImportFile, "error", err)
			os.Exit(1)
		}
		for _, e := range result.Errors {
			logg.Warn("import row rejected", "detail", e)
		}
	}

	ivl := interval.New()
	if cfg.BaseIntervals != nil {
		ivl = &interval.Model{BaseIntervals: cfg.BaseIntervals}
	}
	var gen *recommend.Generator
	if cfg.RecommendSeed != 0 {
		gen = recommend.New(recommend.Config{Rand: rand.New(rand.NewSource(cfg.RecommendSeed))})
	}

	orch, err := session.New(session.Config{
		Progress:    db,
		Sessions:    db.Sessions(),
		Catalog:     db,
		Interval:    ivl,
		Generator:   gen,
		Logger:      logg,
		TargetCount: cfg.SessionTarget,
	})
	if err != nil {
		logg.Error("failed to create orchestrator", "error", err)
		os.Exit(1)
	}

	sweeper := sweep.New(orch, cfg.SweepInterval, cfg.SessionIdleWindow, logg)
	sweeper.Start()
	defer sweeper.Stop()

	logg.Info("scheduler service started",
		"db_type", cfg.DBType,
		"session_target", cfg.SessionTarget,
		"sweep_interval", cfg.SweepInterval,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logg.Info("shutting down", "signal", sig.String())
}
