// Package app wires a workspace directory into a ready engine: config, logger,
// database and migrations.
package app

import (
	"context"
	"fmt"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/config"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/db"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/engine"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/logger"
	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/migrate"
)

type Options struct {
	Workspace string
	// DBPath overrides <workspace>/.teaching/teaching.db.
	DBPath string
	// Logger is built from config log.mode when nil.
	Logger *logger.Logger
}

// Open loads teaching.yml (defaults when absent), opens and migrates the
// database and returns the engine with a close function.
func Open(ctx context.Context, opts Options) (engine.Engine, func() error, error) {
	cfg, err := config.LoadOptional(opts.Workspace)
	if err != nil {
		return engine.Engine{}, nil, fmt.Errorf("load config: %w", err)
	}
	log := opts.Logger
	if log == nil {
		if log, err = logger.New(cfg.Log.Mode); err != nil {
			return engine.Engine{}, nil, fmt.Errorf("build logger: %w", err)
		}
	}
	conn, err := db.Open(db.Config{Workspace: opts.Workspace, Path: opts.DBPath})
	if err != nil {
		return engine.Engine{}, nil, err
	}
	if err := migrate.Migrate(ctx, conn); err != nil {
		conn.Close()
		return engine.Engine{}, nil, fmt.Errorf("migrate: %w", err)
	}
	closer := func() error {
		log.Sync()
		return conn.Close()
	}
	return engine.New(conn, cfg, log), closer, nil
}
