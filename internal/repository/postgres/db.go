package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/config"
)

// DB is a sqlx pool whose transactions are bounded by a semaphore.
type DB struct {
	*sqlx.DB
	txSlots *semaphore.Weighted
}

type poolSettings struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
	maxTx       int64
}

func poolSettingsFor(cfg *config.DatabaseConfig) poolSettings {
	s := poolSettings{maxOpen: 25, maxIdle: 5, maxLifetime: 5 * time.Minute, maxTx: 10}
	if cfg.MaxOpenConns > 0 {
		s.maxOpen = cfg.MaxOpenConns
	}
	if cfg.MaxIdleConns > 0 {
		s.maxIdle = cfg.MaxIdleConns
	}
	if s.maxIdle > s.maxOpen {
		s.maxIdle = s.maxOpen
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		s.maxLifetime = time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute
	}
	if cfg.MaxConcurrentTx > 0 {
		s.maxTx = int64(cfg.MaxConcurrentTx)
	}
	return s
}

// DSN renders cfg as a lib/pq key/value connection string. Empty settings are
// left to the driver defaults.
func DSN(cfg *config.DatabaseConfig) string {
	pairs := []struct{ key, value string }{
		{"host", cfg.Host},
		{"port", cfg.Port},
		{"user", cfg.User},
		{"password", cfg.Password},
		{"dbname", cfg.DBName},
		{"sslmode", cfg.SSLMode},
	}

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		parts = append(parts, p.key+"="+quoteDSNValue(p.value))
	}
	return strings.Join(parts, " ")
}

func quoteDSNValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
	return "'" + escaped + "'"
}

// NewDB opens and pings a postgres pool.
func NewDB(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", DSN(cfg))
	if err != nil {
		return nil, err
	}

	settings := poolSettingsFor(cfg)
	db.SetMaxOpenConns(settings.maxOpen)
	db.SetMaxIdleConns(settings.maxIdle)
	db.SetConnMaxLifetime(settings.maxLifetime)

	return &DB{DB: db, txSlots: semaphore.NewWeighted(settings.maxTx)}, nil
}

// WithTx runs fn in a transaction, committing when it returns nil and rolling
// back otherwise. A panic in fn rolls back before propagating.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	if err := db.txSlots.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for a transaction slot: %w", err)
	}
	defer db.txSlots.Release(1)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil && !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("could not rollback transaction")
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	committed = true
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}
