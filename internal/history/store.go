package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/lighthouse-monitor/internal/model"
)

// ErrCorrupt is returned by a Backend whose persisted history cannot be read.
var ErrCorrupt = errors.New("history is corrupt")

// Backend persists the full run sequence.
// Save always rewrites the complete sequence; implementations must make
// the rewrite atomic so that a crash leaves either the old or the new
// history, never a partial one.
type Backend interface {
	// Load returns the persisted runs, oldest first.
	// A store that does not exist yet returns nil runs and a nil error.
	// An unreadable store returns an error wrapping ErrCorrupt.
	Load(ctx context.Context) ([]model.Run, error)

	// Save replaces the persisted runs with runs.
	Save(ctx context.Context, runs []model.Run) error

	// Close releases resources held by the backend.
	Close() error
}

// Store owns the run history for one invocation: it is loaded once when
// opened, appended to through Append, and persisted on every append.
// Store is the only writer of the history.
type Store struct {
	backend Backend
	history *History
	logger  *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used to report recovered load problems.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open loads the history from backend.
// Missing history starts empty. Corrupt history is logged and also starts
// empty, so a run can always proceed from zero prior data. Any other
// load error is returned.
func Open(ctx context.Context, backend Backend, opts ...StoreOption) (*Store, error) {
	s := &Store{backend: backend}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads the persisted runs into memory.
func (s *Store) load(ctx context.Context) error {
	runs, err := s.backend.Load(ctx)
	switch {
	case errors.Is(err, ErrCorrupt):
		s.logger.Warn("history is unreadable, starting from empty history", "error", err)
		runs = nil
	case err != nil:
		return fmt.Errorf("failed to load history: %w", err)
	}

	s.history = New(runs...)
	s.logger.Debug("history loaded", "runs", s.history.Len())
	return nil
}

// Latest returns the most recent run, or false when the history is empty.
func (s *Store) Latest() (model.Run, bool) {
	return s.history.Latest()
}

// Runs returns a copy of all runs, oldest first.
func (s *Store) Runs() []model.Run {
	return s.history.Runs()
}

// Len returns the number of runs in the history.
func (s *Store) Len() int {
	return s.history.Len()
}

// Append adds run to the history, evicting the oldest runs beyond MaxRuns,
// and persists the full history. If persisting fails the in-memory history
// is rolled back, so memory and storage stay consistent.
func (s *Store) Append(ctx context.Context, run model.Run) error {
	before := s.history.Runs()

	s.history.Append(run)
	if err := s.persist(ctx); err != nil {
		s.history = New(before...)
		return err
	}

	s.logger.Debug("run appended to history",
		"date", run.Date,
		"urls", len(run.Results),
		"runs", s.history.Len(),
	)
	return nil
}

// persist writes the full history through the backend.
func (s *Store) persist(ctx context.Context) error {
	if err := s.backend.Save(ctx, s.history.Runs()); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	return nil
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
