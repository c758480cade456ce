// Package catalog stores the named timers used to create countdowns: item
// durations and dungeon/boss durations, each kept as a flat JSON document.
//
// Documents are re-read from disk on every operation so that edits made by
// another writer are picked up without a restart.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrExists          = errors.New("already exists")
	ErrDungeonNotFound = errors.New("dungeon not found")
	ErrEmptyName       = errors.New("name is required")
)

// Normalize is the canonical form of item, dungeon and boss names.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// loadJSON decodes path into a fresh T. A missing, empty or corrupt file
// yields the zero T; nothing partially decoded is ever returned.
func loadJSON[T any](path string) T {
	var zero T
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to read timer file, using empty store", "path", path, "error", err)
		}
		return zero
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return zero
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		slog.Warn("Failed to decode timer file, using empty store", "path", path, "error", err)
		return zero
	}
	return v
}

// saveJSON writes v to a temp file next to path and renames it into place.
func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
