package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/lighthouse-monitor/internal/compare"
	"github.com/nao1215/lighthouse-monitor/internal/model"
)

// ErrNoScores is recorded as the failure reason when a fetch succeeds but
// returns no category scores.
var ErrNoScores = errors.New("no category scores returned")

// Fetcher retrieves the current category scores of one URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (model.ScoreRecord, error)
}

// FetcherFunc adapts an ordinary function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (model.ScoreRecord, error)

// Fetch calls f(ctx, url).
func (f FetcherFunc) Fetch(ctx context.Context, url string) (model.ScoreRecord, error) {
	return f(ctx, url)
}

// HistoryStore is the part of history.Store the aggregator depends on.
// The aggregator reads the latest run and appends exactly one run per batch.
type HistoryStore interface {
	Latest() (model.Run, bool)
	Append(ctx context.Context, run model.Run) error
}

// Aggregator runs audit batches.
type Aggregator struct {
	fetcher   Fetcher
	store     HistoryStore
	threshold int

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// now returns the batch timestamp.
	now func() time.Time
}

// Option is a function that configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets a custom logger for the aggregator.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// WithClock sets the function that stamps each batch. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// New creates an Aggregator that compares against store with the given
// change threshold.
func New(fetcher Fetcher, store HistoryStore, threshold int, opts ...Option) *Aggregator {
	a := &Aggregator{
		fetcher:   fetcher,
		store:     store,
		threshold: threshold,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.now == nil {
		a.now = time.Now
	}

	return a
}

// Run audits urls in order and appends the resulting run to the store.
//
// A failed fetch never aborts the batch: the URL is recorded in
// Batch.Failures and skipped. The run is appended even when no URL
// succeeded. If the context is cancelled between URLs, Run returns
// ctx.Err() and nothing is appended. If the append fails, the complete
// batch is returned together with the error so that it can still be
// reported.
func (a *Aggregator) Run(ctx context.Context, urls []string) (*model.Batch, error) {
	batch := &model.Batch{
		Date:     a.now(),
		Results:  make([]model.Result, 0, len(urls)),
		Failures: make([]model.FetchFailure, 0),
	}

	previous, hasPrevious := a.store.Latest()
	if !hasPrevious {
		a.logger.Info("no previous run found, this batch sets the baseline")
	}

	for _, url := range urls {
		select {
		case <-ctx.Done():
			a.logger.Warn("audit cancelled",
				"url", url,
				"reason", ctx.Err(),
			)
			return nil, ctx.Err()
		default:
		}

		a.logger.Info("auditing url", "url", url)

		current, err := a.fetcher.Fetch(ctx, url)
		if err == nil && current.IsEmpty() {
			err = ErrNoScores
		}
		if err != nil {
			// The fetcher may have failed because the context ended.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			a.logger.Warn("failed to fetch scores",
				"url", url,
				"error", err,
			)
			batch.Failures = append(batch.Failures, model.FetchFailure{URL: url, Reason: err.Error()})
			continue
		}

		var baseline model.ScoreRecord
		if hasPrevious {
			if scores, ok := previous.Scores(url); ok {
				baseline = scores
			}
		}

		changes := compare.Detect(current, baseline, a.threshold)
		if len(changes) > 0 {
			batch.HasChanges = true
			a.logger.Info("significant score change",
				"url", url,
				"changes", len(changes),
			)
		} else {
			a.logger.Debug("no significant change", "url", url)
		}

		batch.Results = append(batch.Results, model.Result{
			URL:      url,
			Current:  current,
			Previous: baseline,
			Changes:  changes,
		})
	}

	if err := a.store.Append(ctx, batch.Run()); err != nil {
		a.logger.Error("failed to record run",
			"error", err,
		)
		return batch, fmt.Errorf("failed to record run: %w", err)
	}

	a.logger.Info("batch complete",
		"processed", batch.Processed(),
		"failed", len(batch.Failures),
		"changes", batch.HasChanges,
	)

	return batch, nil
}
