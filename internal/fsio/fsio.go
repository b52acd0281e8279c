// Package fsio implements the engine's file I/O layer: atomic writes,
// checksums, path normalization, and gitignore-style ignore filtering.
// Grounded on the teacher's internal/markdown/loader.go discovery walk and
// checksum computation, and on original_source's file_utils.py semantics
// where spec.md is silent on exact mechanics.
package fsio

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrEmptyNormalizedPath is returned by NormalizePath when normalization
// would produce an empty path.
var ErrEmptyNormalizedPath = errors.New("fsio: normalized path is empty")

// Read loads a file's bytes and its SHA-256 checksum.
func Read(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", goerrors.Wrap(err, CategoryFileNotFound, "fsio: read file").
			WithTextCode(textCodeFileNotFound)
	}
	return data, Checksum(data), nil
}

// Checksum returns the lowercase hex-encoded SHA-256 digest of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// WriteAtomic writes data to path by creating a sibling temp file in the
// same directory, then renaming it over the destination. On any failure the
// temp file is removed and either the old contents or nothing remains at
// path — never a partial write.
func WriteAtomic(path string, data []byte, perm os.FileMode) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", goerrors.Wrap(err, CategoryFileError, "fsio: create directory").
			WithTextCode(textCodeFileError)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return "", goerrors.Wrap(err, CategoryFileError, "fsio: create temp file").
			WithTextCode(textCodeFileError)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return "", goerrors.Wrap(err, CategoryFileError, "fsio: write temp file").
			WithTextCode(textCodeFileError)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return "", goerrors.Wrap(err, CategoryFileError, "fsio: sync temp file").
			WithTextCode(textCodeFileError)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", goerrors.Wrap(err, CategoryFileError, "fsio: close temp file").
			WithTextCode(textCodeFileError)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return "", goerrors.Wrap(err, CategoryFileError, "fsio: chmod temp file").
			WithTextCode(textCodeFileError)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", goerrors.Wrap(err, CategoryFileError, "fsio: rename temp file").
			WithTextCode(textCodeFileError)
	}

	return Checksum(data), nil
}

// WriteAtomicChecked behaves like WriteAtomic but first verifies the current
// on-disk checksum matches expectedChecksum, guarding against concurrent
// writers (dirty-file detection). An empty expectedChecksum skips the check.
func WriteAtomicChecked(path string, data []byte, perm os.FileMode, expectedChecksum string) (string, error) {
	if expectedChecksum != "" {
		if existing, err := os.ReadFile(path); err == nil {
			if got := Checksum(existing); got != expectedChecksum {
				return "", goerrors.Wrap(ErrDirtyFile, CategoryDirtyFile, "fsio: checksum mismatch at write time").
					WithTextCode(textCodeDirtyFile)
			}
		} else if !os.IsNotExist(err) {
			return "", goerrors.Wrap(err, CategoryFileError, "fsio: read file for dirty check").
				WithTextCode(textCodeFileError)
		}
	}
	return WriteAtomic(path, data, perm)
}

// ErrDirtyFile is the sentinel wrapped by WriteAtomicChecked on a checksum
// mismatch; it never carries a retry.
var ErrDirtyFile = errors.New("fsio: expected checksum did not match on-disk file")

// NormalizePath maps backslashes to forward slashes, collapses repeated
// slashes, strips a leading "./", and trims a trailing slash. Fails if the
// result is empty.
func NormalizePath(path string) (string, error) {
	normalized := strings.ReplaceAll(path, "\\", "/")
	for strings.Contains(normalized, "//") {
		normalized = strings.ReplaceAll(normalized, "//", "/")
	}
	normalized = strings.TrimPrefix(normalized, "./")
	normalized = strings.TrimSuffix(normalized, "/")
	if normalized == "" {
		return "", ErrEmptyNormalizedPath
	}
	return normalized, nil
}

// SanitizeForFilename produces a filesystem-safe filename from an arbitrary
// title string: lowercased, spaces replaced with hyphens, characters
// outside [a-z0-9-_.] stripped, truncated to 255 bytes.
func SanitizeForFilename(title string) string {
	lowered := strings.ToLower(strings.TrimSpace(title))
	var b strings.Builder
	lastHyphen := false
	for _, r := range lowered {
		switch {
		case r == ' ' || r == '\t':
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
			lastHyphen = r == '-'
		default:
			// drop
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > 255 {
		out = out[:255]
	}
	if out == "" {
		out = "untitled"
	}
	return out
}

// EnsureDirectory idempotently creates dir and any missing parents.
func EnsureDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return goerrors.Wrap(err, CategoryFileError, "fsio: ensure directory").
			WithTextCode(textCodeFileError)
	}
	return nil
}
