package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/lighthouse-monitor/internal/config"
)

func writeTestConfig(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func TestScheduler_Loop(t *testing.T) {
	t.Parallel()

	t.Run("runs immediately and on every tick until cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var runs atomic.Int32
		s := &scheduler{
			cfg:      config.NewConfig(),
			interval: 5 * time.Millisecond,
			logger:   discardLogger(),
			execute: func(_ context.Context, _ *config.Config) error {
				if runs.Add(1) == 3 {
					cancel()
				}
				return nil
			},
		}

		if err := s.run(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := runs.Load(); got != 3 {
			t.Errorf("expected 3 runs, got %d", got)
		}
	})

	t.Run("a failed run does not stop the schedule", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var runs atomic.Int32
		s := &scheduler{
			cfg:      config.NewConfig(),
			interval: time.Millisecond,
			logger:   discardLogger(),
			execute: func(_ context.Context, _ *config.Config) error {
				if runs.Add(1) == 2 {
					cancel()
				}
				return errors.New("history could not be saved")
			},
		}

		if err := s.run(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := runs.Load(); got != 2 {
			t.Errorf("expected 2 runs, got %d", got)
		}
	})
}

func TestScheduler_OnConfigChange(t *testing.T) {
	t.Parallel()

	initial := config.NewConfig()
	initial.URLs = []string{"https://old.example"}

	s := &scheduler{
		cfg:    initial,
		logger: discardLogger(),
		reload: func(c *config.Config) error { return c.Validate() },
	}

	invalid := config.NewConfig()
	s.onConfigChange(invalid)
	if s.current() != initial {
		t.Fatal("an invalid configuration must not replace the current one")
	}

	valid := config.NewConfig()
	valid.URLs = []string{"https://new.example"}
	s.onConfigChange(valid)
	if s.current() != valid {
		t.Error("a valid configuration must replace the current one")
	}
}

func TestScheduler_PicksUpEditedConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeTestConfig(t, path, "urls: [https://old.example]\n")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	seen := make(chan string, 100)
	s := &scheduler{
		cfg:      cfg,
		interval: 20 * time.Millisecond,
		logger:   discardLogger(),
		reload:   func(c *config.Config) error { return c.Validate() },
		execute: func(_ context.Context, c *config.Config) error {
			select {
			case seen <- c.URLs[0]:
			default:
			}
			return nil
		},
	}

	done := make(chan error, 1)
	go func() { done <- s.run(ctx) }()

	// Wait for the first run, then edit the file until a run sees it.
	// The watcher may start after the first edit, so keep rewriting.
	if got := <-seen; got != "https://old.example" {
		t.Fatalf("unexpected first run URL %q", got)
	}

	edit := time.NewTicker(50 * time.Millisecond)
	defer edit.Stop()

	for {
		select {
		case <-edit.C:
			writeTestConfig(t, path, "urls: [https://new.example]\n")
		case got := <-seen:
			if got == "https://new.example" {
				cancel()
				if err := <-done; err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
		case <-ctx.Done():
			t.Fatal("edited configuration was never used")
		}
	}
}
