package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/tatianab/idle-arena/internal/catalog"
	"github.com/tatianab/idle-arena/internal/combat"
	"github.com/tatianab/idle-arena/internal/config"
	"github.com/tatianab/idle-arena/internal/engine"
	"github.com/tatianab/idle-arena/internal/events"
	"github.com/tatianab/idle-arena/internal/storage/sqlite"
	"github.com/tatianab/idle-arena/internal/storage/yamlfile"
	"github.com/tatianab/idle-arena/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := openLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	cat, err := loadCatalog(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open save store: %w", err)
	}
	defer closeStore()

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	bus := events.NewBus()
	feed, cancel := bus.Subscribe(4096)
	defer cancel()

	opts := []engine.Option{
		engine.WithRand(combat.NewRand(seed)),
		engine.WithLogger(logger),
		engine.WithPublisher(events.Multi(bus, events.LogSink(logger, events.TypeSwing))),
		engine.WithTickInterval(cfg.TickInterval),
		engine.WithHero(cfg.Hero),
	}
	if store != nil {
		opts = append(opts, engine.WithStore(store))
	}
	eng, err := engine.New(cat, opts...)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	restored, err := eng.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	logger.Printf("seed %d, hero %s, restored %v", seed, eng.HeroID(), restored)
	if cfg.Autostart {
		if err := eng.Start(); err != nil {
			return fmt.Errorf("autostart: %w", err)
		}
	}

	runErr := tui.Run(eng, tui.Options{FPS: cfg.FPS, Events: feed, Dropped: bus.Dropped})

	saveCtx, cancelSave := context.WithTimeout(ctx, 5*time.Second)
	defer cancelSave()
	if err := eng.Save(saveCtx); err != nil {
		logger.Printf("final save: %v", err)
	}
	if runErr != nil {
		return fmt.Errorf("run tui: %w", runErr)
	}
	return nil
}

func openLogger(path string) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(io.Discard, "", 0), func() {}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return log.New(f, "idle-arena ", log.LstdFlags), func() { _ = f.Close() }, nil
}

func loadCatalog(dir string) (*catalog.Catalog, error) {
	if dir == "" {
		return catalog.Default()
	}
	return catalog.LoadDir(dir)
}

func openStore(cfg *config.Config) (engine.Store, func(), error) {
	switch cfg.SaveBackend {
	case config.BackendYAML:
		s, err := yamlfile.New(cfg.SaveDir, cfg.SaveSlot)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.SQLitePath, cfg.SaveSlot)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
	return nil, func() {}, nil
}
