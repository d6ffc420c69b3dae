package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nao1215/lighthouse-monitor/internal/model"
)

// DefaultFileName is the file name of the JSON history inside the data directory.
const DefaultFileName = "history.json"

// fileDocument is the on-disk shape of the history file.
type fileDocument struct {
	Runs []model.Run `json:"runs"`
}

// FileBackend stores the history as a single JSON document:
//
//	{"runs": [{"date": "...", "results": [{"url": "...", "scores": {...}}]}]}
//
// Every save rewrites the whole file through a temporary file and a rename.
type FileBackend struct {
	path string
	now  func() time.Time
}

// NewFileBackend creates a FileBackend for the file at path.
// The parent directory is created on the first save.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path, now: time.Now}
}

// Path returns the history file path.
func (b *FileBackend) Path() string {
	return b.path
}

// Load reads the history file.
// A missing file yields no runs. A file that cannot be decoded is moved
// aside to "<path>.corrupt-<unix seconds>" and an error wrapping ErrCorrupt
// is returned, so a later save does not overwrite the only copy.
func (b *FileBackend) Load(_ context.Context) ([]model.Run, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		aside := b.path + ".corrupt-" + strconv.FormatInt(b.now().Unix(), 10)
		if renameErr := os.Rename(b.path, aside); renameErr != nil {
			return nil, fmt.Errorf("%w: %s: %v (could not move aside: %v)", ErrCorrupt, b.path, err, renameErr)
		}
		return nil, fmt.Errorf("%w: %s moved to %s: %v", ErrCorrupt, b.path, aside, err)
	}

	return doc.Runs, nil
}

// Save atomically replaces the history file with runs.
func (b *FileBackend) Save(_ context.Context, runs []model.Run) error {
	if runs == nil {
		runs = []model.Run{}
	}

	data, err := json.MarshalIndent(fileDocument{Runs: runs}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	return writeFileAtomic(b.path, data)
}

// Close is a no-op; FileBackend holds no open resources.
func (b *FileBackend) Close() error {
	return nil
}

// writeFileAtomic writes data to a temporary file next to path, syncs it,
// and renames it over path.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary history file: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()         //nolint:errcheck // best effort cleanup
			_ = os.Remove(tmpPath) //nolint:errcheck // best effort cleanup
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temporary history file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temporary history file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary history file: %w", err)
	}
	if err = os.Chmod(tmpPath, 0600); err != nil {
		return fmt.Errorf("failed to set history file permissions: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}
