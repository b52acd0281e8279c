package fsio_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-memory/internal/fsio"
)

func TestChecksumIsDeterministic(t *testing.T) {
	data := []byte("hello world")
	if fsio.Checksum(data) != fsio.Checksum(append([]byte(nil), data...)) {
		t.Fatal("expected checksum to be stable for identical bytes")
	}
}

func TestWriteAtomicThenReadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes", "x.md")

	sum, err := fsio.WriteAtomic(path, []byte("# X\n"), 0o644)
	if err != nil {
		t.Fatalf("WriteAtomic returned error: %v", err)
	}

	data, readSum, err := fsio.Read(path)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if string(data) != "# X\n" {
		t.Fatalf("unexpected content: %q", data)
	}
	if readSum != sum {
		t.Fatalf("expected checksum %s, got %s", sum, readSum)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "notes"))
	if err != nil {
		t.Fatalf("ReadDir returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no leftover temp files, found %d entries", len(entries))
	}
}

func TestWriteAtomicCheckedRejectsDirtyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.md")

	if _, err := fsio.WriteAtomic(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("seed WriteAtomic returned error: %v", err)
	}

	_, err := fsio.WriteAtomicChecked(path, []byte("v2"), 0o644, "not-the-real-checksum")
	if !errors.Is(err, fsio.ErrDirtyFile) {
		t.Fatalf("expected ErrDirtyFile, got %v", err)
	}

	data, _, readErr := fsio.Read(path)
	if readErr != nil {
		t.Fatalf("Read returned error: %v", readErr)
	}
	if string(data) != "v1" {
		t.Fatalf("expected original content preserved, got %q", data)
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"notes\\x.md":   "notes/x.md",
		"./notes/x.md":  "notes/x.md",
		"notes//x.md//": "notes/x.md",
	}
	for input, want := range cases {
		got, err := fsio.NormalizePath(input)
		if err != nil {
			t.Fatalf("NormalizePath(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("NormalizePath(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizePathRejectsEmptyResult(t *testing.T) {
	_, err := fsio.NormalizePath("./")
	if !errors.Is(err, fsio.ErrEmptyNormalizedPath) {
		t.Fatalf("expected ErrEmptyNormalizedPath, got %v", err)
	}
}

func TestScanSkipsIgnoredPaths(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "notes", "x.md"), "# X\n")
	mustWrite(t, filepath.Join(dir, "node_modules", "pkg", "y.md"), "# Y\n")
	mustWrite(t, filepath.Join(dir, ".bmignore"), "scratch/\n")
	mustWrite(t, filepath.Join(dir, "scratch", "z.md"), "# Z\n")

	ignore, err := fsio.NewIgnoreMatcher(filepath.Join(dir, ".bmignore"))
	if err != nil {
		t.Fatalf("NewIgnoreMatcher returned error: %v", err)
	}

	results, err := fsio.Scan(context.Background(), dir, fsio.ScanConfig{Ignore: ignore})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	if len(results) != 1 || results[0].FilePath != "notes/x.md" {
		t.Fatalf("expected only notes/x.md, got %+v", results)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if _, err := fsio.WriteAtomic(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to seed %s: %v", path, err)
	}
}
