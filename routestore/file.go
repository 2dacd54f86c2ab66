package routestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend stores the table as a JSON document. Writes go to a
// temporary file in the same directory which is then renamed over the
// target, so readers never see a partially written table.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend persisting to path. The file is created
// on the first save.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the file location.
func (b *FileBackend) Path() string {
	return b.path
}

// Load reads the table from disk. A missing or empty file is an empty table.
func (b *FileBackend) Load(_ context.Context) ([]Route, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Route{}, nil
		}
		return nil, fmt.Errorf("read routes file: %w", err)
	}

	if len(data) == 0 {
		return []Route{}, nil
	}

	var routes []Route
	if err := json.Unmarshal(data, &routes); err != nil {
		return nil, fmt.Errorf("decode routes file %s: %w", b.path, err)
	}

	return clone(routes), nil
}

// Save atomically replaces the file with routes.
func (b *FileBackend) Save(_ context.Context, routes []Route) error {
	data, err := json.MarshalIndent(clone(routes), "", "  ")
	if err != nil {
		return fmt.Errorf("encode routes: %w", err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create routes dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".routes-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, b.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace routes file: %w", err)
	}

	return nil
}
