package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/config"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/storage"
	"github.com/andresuchdata/inventory-tracker/backend-go/pkg/logger"
)

func newArchive() (*storage.SnapshotArchive, error) {
	client, err := storage.NewMinioClient(config.Load().ObjectStorage)
	if err != nil {
		return nil, err
	}
	return storage.NewSnapshotArchive(client), nil
}

func runSeed(c *cli.Context) error {
	if c.IsSet("file") && c.IsSet("object") {
		return fmt.Errorf("--file and --object are mutually exclusive")
	}

	items, source, err := loadSeedItems(c)
	if err != nil {
		return err
	}

	seeded, err := storeFrom(c).Items.SeedIfEmpty(c.Context, items)
	if err != nil {
		return fmt.Errorf("failed to seed item store: %w", err)
	}
	if !seeded {
		logger.Log.Info().Msg("item store already holds data, nothing seeded")
		return nil
	}

	logger.Log.Info().Int("items", len(items)).Str("source", source).Msg("item store seeded")
	return nil
}

func loadSeedItems(c *cli.Context) ([]domain.InventoryItem, string, error) {
	switch {
	case c.String("file") != "":
		path := c.String("file")
		f, err := os.Open(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()

		var items []domain.InventoryItem
		if err := domain.DecodeStrict(f, &items); err != nil {
			return nil, "", fmt.Errorf("failed to decode %s: %w", path, err)
		}
		if err := domain.ValidateSeed(items); err != nil {
			return nil, "", fmt.Errorf("%s: %w", path, err)
		}
		return items, path, nil

	case c.String("object") != "":
		archive, err := newArchive()
		if err != nil {
			return nil, "", err
		}
		key := resolveObjectKey(c.String("prefix"), c.String("object"))
		items, err := archive.Load(c.Context, key)
		if err != nil {
			return nil, "", err
		}
		return items, key, nil
	}

	return domain.ReferenceItems(), "reference catalog", nil
}

func runExport(c *cli.Context) error {
	archive, err := newArchive()
	if err != nil {
		return err
	}

	items, err := storeFrom(c).Items.FindAll(c.Context)
	if err != nil {
		return fmt.Errorf("failed to load inventory: %w", err)
	}

	key := snapshotKey(c.String("prefix"), time.Now())
	if err := archive.Save(c.Context, key, items); err != nil {
		return err
	}

	logger.Log.Info().Str("key", key).Int("items", len(items)).Msg("snapshot exported")
	return nil
}

func runListSnapshots(c *cli.Context) error {
	archive, err := newArchive()
	if err != nil {
		return err
	}

	objects, err := archive.List(c.Context, strings.TrimSuffix(c.String("prefix"), "/")+"/")
	if err != nil {
		return err
	}
	for _, object := range objects {
		fmt.Fprintf(c.App.Writer, "%s\t%d\n", object.Key, object.Size)
	}
	return nil
}

// snapshotKey names an export so keys sort chronologically.
func snapshotKey(prefix string, now time.Time) string {
	name := now.UTC().Format("20060102T150405Z") + ".json"
	return resolveObjectKey(prefix, name)
}

func resolveObjectKey(prefix, override string) string {
	if override == "" {
		return strings.TrimSpace(prefix)
	}
	if prefix == "" {
		return strings.TrimPrefix(override, "/")
	}

	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	overrideTrimmed := strings.TrimPrefix(strings.TrimSpace(override), "/")

	if strings.HasPrefix(overrideTrimmed, prefixTrimmed+"/") {
		return overrideTrimmed
	}
	return fmt.Sprintf("%s/%s", prefixTrimmed, overrideTrimmed)
}
