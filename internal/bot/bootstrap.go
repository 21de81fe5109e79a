package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/vidgate/core/bootstrap"
	coredatabase "github.com/m3rciful/vidgate/core/database"
	"github.com/m3rciful/vidgate/core/logger"
	"github.com/m3rciful/vidgate/internal/appconfig"
	"github.com/m3rciful/vidgate/internal/session"
)

// Bootstrap initializes logging, opens the configured session store and
// returns the wired App. The postgres driver also runs migrations.
func Bootstrap(ctx context.Context, cfg *appconfig.Config) (*App, error) {
	var db *coredatabase.Config
	if cfg.Storage.Driver == session.DriverPostgres {
		db = &cfg.Database
	}
	infra, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg.CoreConfig(), Database: db})
	if err != nil {
		return nil, err
	}

	var (
		store   session.Store
		closers []func() error
	)
	switch cfg.Storage.Driver {
	case session.DriverRedis:
		client, err := session.DialRedis(ctx, cfg.Storage.RedisURL)
		if err != nil {
			return nil, err
		}
		store = session.NewRedis(client, cfg.Storage.RedisKey)
		closers = append(closers, client.Close)
	case session.DriverPostgres:
		store = session.NewPostgres(infra.DB)
		closers = append(closers, infra.Close)
	case session.DriverMemory, "":
		store = session.NewMemory()
	default:
		return nil, fmt.Errorf("bot: unknown storage driver %q", cfg.Storage.Driver)
	}
	logger.Info(ctx, logger.CompSession, "session.open",
		slog.String("status", "ok"),
		slog.String("driver", cfg.Storage.Driver),
	)

	app, err := New(Options{Config: cfg, Store: store, Closers: closers})
	if err != nil {
		for _, c := range closers {
			_ = c()
		}
		return nil, err
	}
	return app, nil
}
