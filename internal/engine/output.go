package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tartampluch/chronos-ics/internal/config"
)

// WriteCalendar replaces the file at path with data.
//
// The bytes go to a temp file in the same directory which is then renamed over
// path, so readers never observe a partially written calendar and a failed
// run leaves any previous file untouched. Errors wrap ErrOutputWrite.
func WriteCalendar(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".chronos-ics-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	tmpName := tmp.Name()

	// No-op once the rename succeeded.
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}

	// CreateTemp uses 0600; calendars are meant to be shared.
	if err := os.Chmod(tmpName, config.FilePermPublic); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrOutputWrite, path, err)
	}
	return nil
}
