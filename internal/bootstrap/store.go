// Package bootstrap opens the backing services selected by configuration.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/config"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/repository"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/repository/memory"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/repository/mongodb"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/repository/postgres"
)

// Store bundles an item store with its health check and shutdown hook.
type Store struct {
	Items  repository.ItemStore
	Health func(ctx context.Context) error
	Close  func(ctx context.Context) error
}

func noop(context.Context) error { return nil }

// OpenStore connects to the store named by cfg.Store.Driver.
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.Store.Driver {
	case config.StoreMongo, "":
		client, err := mongodb.NewClient(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		items, err := mongodb.NewItemStore(ctx, client.Database(), cfg.Mongo.Collection)
		if err != nil {
			_ = client.Close(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Str("collection", cfg.Mongo.Collection).Msg("using mongo item store")
		return &Store{Items: items, Health: client.HealthCheck, Close: client.Close}, nil

	case config.StorePostgres:
		db, err := postgres.NewDB(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := postgres.Migrate(ctx, db.DB.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.DBName).Msg("using postgres item store")
		return &Store{
			Items:  postgres.NewItemRepository(db),
			Health: db.PingContext,
			Close:  func(context.Context) error { return db.Close() },
		}, nil

	case config.StoreMemory:
		log.Warn().Msg("using in-memory item store; data is lost on exit")
		return &Store{Items: memory.NewItemStore(), Health: noop, Close: noop}, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// ParseHistoryStart reads FORECAST_HISTORY_START as a date or month.
func ParseHistoryStart(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid history start %q", raw)
}
