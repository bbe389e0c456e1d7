package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/talgya/gridcity/internal/api"
	"github.com/talgya/gridcity/internal/config"
	"github.com/talgya/gridcity/internal/engine"
	"github.com/talgya/gridcity/internal/persistence"
	"github.com/talgya/gridcity/internal/world"
)

func engineConfig(cfg config.Config, name string) engine.Config {
	return engine.Config{Seed: cfg.Seed, EventChance: cfg.EventChance, Name: name}
}

func openDB(cfg config.Config) (*persistence.DB, error) {
	db, err := persistence.Open(persistence.Dialect(cfg.Store.Dialect), cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Dialect, err)
	}
	return db, nil
}

func runServe(ctx context.Context, cfg config.Config, resume bool) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	sessions := api.NewSessions(engineConfig(cfg, ""))
	if resume {
		saves, err := db.ListSaves(ctx)
		if err != nil {
			return fmt.Errorf("listing saves: %w", err)
		}
		for _, info := range saves {
			c, err := db.LoadCity(ctx, info.ID)
			if err != nil {
				slog.Warn("skipping unreadable save", "save", info.ID, "error", err)
				continue
			}
			sessions.Put(c)
		}
		slog.Info("resumed saved cities", "count", sessions.Len())
	}

	hub := api.NewHub()
	go hub.Run(ctx)

	srv := &api.Server{
		Sessions: sessions,
		DB:       db,
		SaveDir:  cfg.Store.SaveDir,
		Hub:      hub,
		AdminKey: cfg.HTTP.AdminKey,
	}
	if cfg.HTTP.RateLimitPerMinute > 0 {
		srv.Limiter = api.NewRateLimiter(cfg.HTTP.RateLimitPerMinute, time.Minute)
	}
	if cfg.Clock.YearInterval > 0 {
		srv.Clock = engine.NewClock(cfg.Clock.YearInterval, srv.AdvanceAll)
		go srv.Clock.Run(ctx)
	}

	fmt.Printf("citysim serving %d cities on %s\n", sessions.Len(), cfg.HTTP.Addr)
	fmt.Println("Ctrl+C to stop")
	err = srv.Start(ctx, cfg.HTTP.Addr)

	// Final save on shutdown.
	slog.Info("final save...")
	saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	saved := 0
	for _, id := range sessions.IDs() {
		sessions.With(id, func(c *engine.City) error {
			if _, serr := db.SaveCity(saveCtx, c); serr != nil {
				slog.Error("final save failed", "city", id, "error", serr)
				return serr
			}
			saved++
			return nil
		})
	}
	fmt.Printf("Server stopped. %d cities saved.\n", saved)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type simulateOptions struct {
	years   int
	name    string
	from    string
	starter bool
	out     string
	save    bool
}

func runSimulate(cfg config.Config, opts simulateOptions) error {
	if opts.years < 0 {
		return fmt.Errorf("--years must not be negative")
	}

	var c *engine.City
	if opts.from != "" {
		_, rec, err := persistence.ReadSaveFile(opts.from)
		if err != nil {
			return fmt.Errorf("reading %s: %w", opts.from, err)
		}
		c = engine.Restore(rec)
		if opts.name != "" {
			c.Name = opts.name
		}
	} else {
		c = engine.NewCity(engineConfig(cfg, opts.name))
		if opts.starter {
			if err := layStarterTown(c); err != nil {
				return err
			}
		}
	}

	printCity(c)
	for range opts.years {
		printReport(c.Advance())
	}
	fmt.Println()
	printCity(c)

	if opts.out != "" {
		if err := persistence.WriteSaveFile(opts.out, c); err != nil {
			return fmt.Errorf("writing %s: %w", opts.out, err)
		}
		fmt.Printf("Saved to %s\n", opts.out)
	}
	if opts.save {
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		info, err := db.SaveCity(context.Background(), c)
		if err != nil {
			return err
		}
		fmt.Printf("Stored as save %s\n", info.ID)
	}
	return nil
}

// starterTown is a small powered, road-connected town in the middle rows.
var starterTown = []struct {
	pos  world.Position
	kind world.Occupant
}{
	{world.Pos(2, 0), world.RoadNone},
	{world.Pos(2, 1), world.RoadNone},
	{world.Pos(2, 2), world.RoadNone},
	{world.Pos(2, 3), world.RoadNone},
	{world.Pos(2, 4), world.RoadNone},
	{world.Pos(0, 0), world.PowerPlant},
	{world.Pos(1, 0), world.Residential},
	{world.Pos(1, 1), world.Residential},
	{world.Pos(1, 2), world.Residential},
	{world.Pos(3, 1), world.Commercial},
	{world.Pos(3, 2), world.Commercial},
	{world.Pos(3, 3), world.Industrial},
	{world.Pos(1, 3), world.Park},
	{world.Pos(3, 0), world.School},
}

func layStarterTown(c *engine.City) error {
	for _, step := range starterTown {
		var err error
		if step.kind.IsZone() {
			err = c.Zone(step.pos, step.kind)
		} else {
			err = c.Build(step.pos, step.kind)
		}
		if err != nil {
			return fmt.Errorf("starter town: %s at %v: %w", step.kind.Name(), step.pos, err)
		}
	}
	return nil
}

// loadCityArg reads a save file when arg names an existing file, otherwise
// a database save slot.
func loadCityArg(ctx context.Context, cfg config.Config, arg string) (*engine.City, error) {
	if _, err := os.Stat(arg); err == nil || strings.HasSuffix(arg, persistence.SaveFileExt) {
		_, rec, err := persistence.ReadSaveFile(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		return engine.Restore(rec), nil
	}
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.LoadCity(ctx, arg)
}

func runShow(ctx context.Context, cfg config.Config, arg string) error {
	c, err := loadCityArg(ctx, cfg, arg)
	if err != nil {
		return err
	}
	printCity(c)
	printEvents(c.EventHistory)
	return nil
}

func runList(ctx context.Context, cfg config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	saves, err := db.ListSaves(ctx)
	if err != nil {
		return err
	}
	printSaves(saves)

	if cfg.Store.SaveDir != "" {
		headers, paths, err := persistence.ListSaveFiles(cfg.Store.SaveDir)
		if err != nil {
			return err
		}
		printSaveFiles(headers, paths)
	}
	return nil
}

func runExport(ctx context.Context, cfg config.Config, id, path string) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	c, err := db.LoadCity(ctx, id)
	if err != nil {
		return err
	}
	if path == "" {
		path = persistence.SaveFilePath(cfg.Store.SaveDir, c.Name)
	}
	if err := persistence.WriteSaveFile(path, c); err != nil {
		return err
	}
	fmt.Printf("Exported %s (year %d) to %s\n", c.ID, c.Year, path)
	return nil
}

func runImport(ctx context.Context, cfg config.Config, path string) error {
	hdr, rec, err := persistence.ReadSaveFile(path)
	if err != nil {
		return err
	}
	c := engine.Restore(rec)
	if c.Name == "" {
		c.Name = hdr.Name
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	info, err := db.SaveCity(ctx, c)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %q as save %s (year %d)\n", info.Name, info.ID, info.Year)
	return nil
}
