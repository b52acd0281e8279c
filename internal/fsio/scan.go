package fsio

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
)

// FileState is a (file_path, checksum) pair as discovered during a
// directory scan, matching spec.md §4.7's fs_state shape.
type FileState struct {
	FilePath string
	Checksum string
	ModTime  int64
}

// ScanConfig controls directory discovery.
type ScanConfig struct {
	// Pattern limits discovered files, defaulting to "*.md".
	Pattern string
	// Ignore is consulted per entry; nil means nothing is ignored.
	Ignore *IgnoreMatcher
}

// Scan walks root (an absolute or process-relative directory) and returns
// one FileState per matching file, sorted by path, skipping ignored paths.
// Grounded on the teacher's internal/markdown/loader.go LoadDirectory walk,
// generalized from Markdown-document loading to plain checksum discovery.
func Scan(ctx context.Context, root string, cfg ScanConfig) ([]FileState, error) {
	pattern := cfg.Pattern
	if pattern == "" {
		pattern = "*.md"
	}

	var results []FileState

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if cfg.Ignore != nil && cfg.Ignore.ShouldIgnore(rel, true) {
				return fs.SkipDir
			}
			return nil
		}

		if cfg.Ignore != nil && cfg.Ignore.ShouldIgnore(rel, false) {
			return nil
		}

		matched, err := filepath.Match(pattern, filepath.Base(rel))
		if err != nil || !matched {
			return nil
		}

		data, checksum, err := Read(path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		_ = data

		results = append(results, FileState{
			FilePath: rel,
			Checksum: checksum,
			ModTime:  info.ModTime().Unix(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].FilePath < results[j].FilePath
	})

	return results, nil
}
