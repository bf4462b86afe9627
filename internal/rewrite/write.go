package rewrite

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shinji-kodama/devcode/internal/model"
)

// readOptional reads a file, returning (nil, nil) when it does not exist.
func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// WriteFile writes data to path atomically, creating parent directories if
// they don't exist. An existing file keeps its permissions; new files are
// written with 0644.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	// Write to a temp file in the same directory, then rename over the
	// target so a failed write never leaves a half-written file behind.
	tmp, err := os.CreateTemp(dir, ".devcode-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	success = true
	return nil
}

// writeIfChanged writes next over a file whose current content is prev.
// Identical content is left alone and reported as unchanged.
func writeIfChanged(path string, prev, next []byte) (model.Change, error) {
	if bytes.Equal(prev, next) {
		return model.ChangeUnchanged, nil
	}
	if err := WriteFile(path, next); err != nil {
		return "", err
	}
	return model.ChangeUpdated, nil
}
