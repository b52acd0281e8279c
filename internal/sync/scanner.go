// Package sync reconciles a project's Markdown files on disk with the graph
// store: a full directory scan plus incremental updates driven by the
// watcher, and the impact-scoped Dataview relation refresh that rides along
// with both.
package sync

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goliatone/go-memory/internal/fsio"
)

// FileState is the (path, checksum) pair a scan or a database row reduces
// to for change detection, grounded on original_source's FileState.
type FileState struct {
	Path     string
	Checksum string
}

// ScanResult is the outcome of walking a project directory: every Markdown
// file found, plus any that could not be read (permission errors are
// recorded, not fatal, matching the original's scan_directory behavior).
type ScanResult struct {
	Files  map[string]FileState
	Errors map[string]error
}

// ScanDirectory walks root for *.md files and computes each one's checksum.
// A missing root is treated as an empty scan rather than an error, so a
// project directory that hasn't been created yet just yields zero files.
func ScanDirectory(root string) (*ScanResult, error) {
	result := &ScanResult{Files: map[string]FileState{}, Errors: map[string]error{}}

	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, err
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".md" {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			result.Errors[rel] = readErr
			return nil
		}
		result.Files[rel] = FileState{Path: rel, Checksum: fsio.Checksum(data)}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return result, nil
}
