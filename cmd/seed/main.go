package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/bootstrap"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/config"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/inventory-tracker/backend-go/pkg/logger"
)

type contextKey string

const (
	dbKey    contextKey = "db"
	storeKey contextKey = "store"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newPrefixFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "prefix",
		Usage:   "Object key prefix of archived snapshots",
		Value:   "snapshots",
		EnvVars: []string{"SNAPSHOT_PREFIX"},
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(c.Context); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

// openStore connects to the configured item store for the command.
func openStore(c *cli.Context) error {
	store, err := bootstrap.OpenStore(c.Context, config.Load())
	if err != nil {
		return err
	}
	c.Context = context.WithValue(c.Context, storeKey, store)
	return nil
}

func closeStore(c *cli.Context) error {
	if store, ok := c.Context.Value(storeKey).(*bootstrap.Store); ok && store != nil {
		return store.Close(context.Background())
	}
	return nil
}

func storeFrom(c *cli.Context) *bootstrap.Store {
	return c.Context.Value(storeKey).(*bootstrap.Store)
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)

	app := &cli.App{
		Name:  "seed",
		Usage: "Manage inventory data: schema, seeding, snapshot archives and batch forecasts",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create the inventory table in PostgreSQL",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runMigrate,
			},
			{
				Name:  "seed",
				Usage: "Seed an empty item store from the reference catalog, a JSON file or an archived snapshot",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "Local JSON array of items",
					},
					&cli.StringFlag{
						Name:  "object",
						Usage: "Object key (relative to --prefix) of an archived snapshot",
					},
					newPrefixFlag(),
				},
				Before: openStore,
				After:  closeStore,
				Action: runSeed,
			},
			{
				Name:   "export",
				Usage:  "Upload the current inventory as a JSON snapshot",
				Flags:  []cli.Flag{newPrefixFlag()},
				Before: openStore,
				After:  closeStore,
				Action: runExport,
			},
			{
				Name:   "snapshots",
				Usage:  "List archived snapshots",
				Flags:  []cli.Flag{newPrefixFlag()},
				Action: runListSnapshots,
			},
			{
				Name:  "forecast",
				Usage: "Forecast every stored item and print one JSON document per item",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "horizon",
						Usage: "Months to forecast",
						Value: cfg.Forecast.Horizon,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent forecasts",
						Value: 4,
					},
					&cli.Int64SliceFlag{
						Name:  "item",
						Usage: "Only forecast these item ids",
					},
				},
				Before: openStore,
				After:  closeStore,
				Action: runForecast,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("seed command failed")
	}
}

func runMigrate(c *cli.Context) error {
	db := c.Context.Value(dbKey).(*sql.DB)
	if err := postgres.Migrate(c.Context, db); err != nil {
		return err
	}
	logger.Log.Info().Msg("schema applied")
	return nil
}
