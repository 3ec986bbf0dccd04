package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/bootstrap"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/config"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/service"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/summarizer"
	"github.com/andresuchdata/inventory-tracker/backend-go/pkg/logger"
)

func runForecast(c *cli.Context) error {
	cfg := config.Load()
	store := storeFrom(c)

	start, err := bootstrap.ParseHistoryStart(cfg.Forecast.HistoryStart)
	if err != nil {
		return err
	}
	history := forecast.NewSyntheticHistory(start, cfg.Forecast.HistoryMonths, cfg.Forecast.Seed)
	svc := service.NewForecastService(
		store.Items,
		history,
		forecast.NewEngine(cfg.Forecast.Horizon),
		summarizer.New(cfg.Summarizer, nil),
		nil,
		nil,
	)

	ids := c.Int64Slice("item")
	if len(ids) == 0 {
		items, err := store.Items.FindAll(c.Context)
		if err != nil {
			return fmt.Errorf("failed to load inventory: %w", err)
		}
		for _, item := range items {
			ids = append(ids, item.ID)
		}
	}

	var mu sync.Mutex
	enc := json.NewEncoder(c.App.Writer)
	horizon := c.Int("horizon")

	return processWithWorkers(c.Context, ids, c.Int("workers"), func(ctx context.Context, id int64) error {
		view, err := svc.View(ctx, id, horizon)
		if errors.Is(err, domain.ErrItemNotFound) {
			logger.Log.Warn().Int64("item_id", id).Msg("item not found, skipping")
			return nil
		}
		if err != nil {
			return fmt.Errorf("forecast item %d: %w", id, err)
		}

		mu.Lock()
		defer mu.Unlock()
		return enc.Encode(view)
	})
}

// processWithWorkers runs fn over ids on a bounded pool and stops at the
// first error.
func processWithWorkers(ctx context.Context, ids []int64, workers int, fn func(context.Context, int64) error) error {
	if len(ids) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	jobs := make(chan int64)
	errCh := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case id, ok := <-jobs:
					if !ok {
						return
					}
					if err := fn(ctx, id); err != nil {
						select {
						case errCh <- err:
						default:
						}
						cancel()
						return
					}
				}
			}
		}()
	}
loop:
	for _, id := range ids {
		select {
		case <-ctx.Done():
			break loop
		case jobs <- id:
		}
	}
	close(jobs)
	wg.Wait()
	select {
	case err := <-errCh:
		return err
	default:
		if ctx.Err() != nil && ctx.Err() != context.Canceled {
			return ctx.Err()
		}
	}
	return nil
}
