package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"serialsync/internal/config"
	"serialsync/internal/crawler"
	"serialsync/internal/history"
	"serialsync/internal/logger"
	"serialsync/internal/watermark"
)

// newCrawler wires a scraper and a parser for the configured site.
func newCrawler(cfg *config.Config, log *logger.Logger) (*crawler.Client, error) {
	parser, err := crawler.NewParser(cfg.Source)
	if err != nil {
		return nil, err
	}

	scraper := crawler.NewScraperWithConfig(cfg.HTTP, crawler.NewAttemptLog())

	return crawler.NewClientWithDeps(scraper, parser, log), nil
}

// lazyRecorder opens the history database on the first recorded run, so runs
// that end before fetching leave no database behind.
type lazyRecorder struct {
	store *history.Store
	path  string
}

func (r *lazyRecorder) Record(ctx context.Context, run *history.Run) error {
	if r.store == nil {
		store, err := history.Open(ctx, r.path)
		if err != nil {
			return err
		}

		r.store = store
	}

	return r.store.Record(ctx, run)
}

func (r *lazyRecorder) Close() error {
	return r.store.Close()
}

// sinceLast derives the watermark from the previous successful sync of indexURL.
// It returns nil, so that every part counts as modified, when there is no such
// run or when that run left parts unfetched.
func sinceLast(ctx context.Context, path, indexURL string, log *logger.Logger) (*time.Time, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Info("No sync history yet, every part counts as modified")

		return nil, nil
	}

	store, err := history.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	finished, err := store.LastSuccess(ctx, indexURL)

	switch {
	case errors.Is(err, history.ErrNoRuns):
		log.Info("No previous successful sync, every part counts as modified")

		return nil, nil
	case errors.Is(err, history.ErrIncompleteRun):
		log.Warn("⚠️  Last sync left parts unfetched, every part counts as modified", "error", err)

		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read sync history: %w", err)
	}

	w := watermark.FromRun(finished)
	log.Info("Using last successful sync as watermark", "finished", finished.Format(time.RFC3339), "watermark", w.Format("2006-01-02"))

	return w, nil
}
