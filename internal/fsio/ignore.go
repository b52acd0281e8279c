package fsio

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultIgnorePatterns mirrors the default pattern set original_source's
// file_utils/gitignore.py ships, covering common build artifacts, IDE
// metadata, and dependency directories every project should skip even
// without a .bmignore file.
var DefaultIgnorePatterns = []string{
	"target/",
	"node_modules/",
	"dist/",
	"build/",
	"__pycache__/",
	".pytest_cache/",
	".ruff_cache/",
	".mypy_cache/",
	".coverage/",

	"*.o",
	"*.so",
	"*.dylib",
	"*.dll",
	"*.pyc",
	"*.pyo",
	"*.pyd",

	".idea/",
	".vscode/",
	"*.swp",
	".DS_Store",

	".venv/",
	"venv/",
	"env/",
	".env/",
	"site-packages/",

	".git/",
	".gitmodules",
}

// IgnoreMatcher answers ShouldIgnore queries for a project root, combining
// the default pattern set with an optional user-provided ignore file loaded
// once per scan (the ignore file name is project-configurable; the on-disk
// convention is ".bmignore").
type IgnoreMatcher struct {
	patterns []compiledPattern
}

type compiledPattern struct {
	raw      string
	dirOnly  bool
	anchored bool
	matcher  glob.Glob
}

// NewIgnoreMatcher compiles the default patterns plus any lines found in
// ignoreFilePath (gitignore syntax: blank lines and lines starting with '#'
// are skipped). A missing ignore file is not an error.
func NewIgnoreMatcher(ignoreFilePath string) (*IgnoreMatcher, error) {
	patterns := append([]string(nil), DefaultIgnorePatterns...)

	if ignoreFilePath != "" {
		file, err := os.Open(ignoreFilePath)
		if err == nil {
			defer file.Close()
			scanner := bufio.NewScanner(file)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				patterns = append(patterns, line)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	compiled := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		cp, err := compilePattern(p)
		if err != nil {
			continue
		}
		compiled = append(compiled, cp)
	}

	return &IgnoreMatcher{patterns: compiled}, nil
}

func compilePattern(pattern string) (compiledPattern, error) {
	raw := pattern
	dirOnly := strings.HasSuffix(pattern, "/")
	pattern = strings.TrimSuffix(pattern, "/")
	anchored := strings.HasPrefix(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")

	globPattern := pattern
	if !strings.Contains(globPattern, "/") {
		globPattern = "{" + globPattern + ",**/" + globPattern + "}"
	}

	g, err := glob.Compile(globPattern, '/')
	if err != nil {
		return compiledPattern{}, err
	}

	return compiledPattern{raw: raw, dirOnly: dirOnly, anchored: anchored, matcher: g}, nil
}

// ShouldIgnore reports whether relPath (project-root-relative, forward
// slashes) matches any compiled pattern. isDir lets directory-only patterns
// (trailing "/") match the directory itself as well as everything under it.
func (m *IgnoreMatcher) ShouldIgnore(relPath string, isDir bool) bool {
	if m == nil {
		return false
	}
	relPath = filepath.ToSlash(relPath)
	relPath = strings.TrimPrefix(relPath, "./")

	for _, p := range m.patterns {
		if p.dirOnly && !isDir {
			// A directory-only pattern still ignores files nested beneath
			// the matching directory; check every ancestor segment.
			if matchesAnyAncestor(p, relPath) {
				return true
			}
			continue
		}
		if p.matcher.Match(relPath) {
			return true
		}
		if p.dirOnly && p.matcher.Match(relPath+"/") {
			return true
		}
	}
	return false
}

func matchesAnyAncestor(p compiledPattern, relPath string) bool {
	segments := strings.Split(relPath, "/")
	for i := range segments {
		prefix := strings.Join(segments[:i+1], "/")
		if p.matcher.Match(prefix) {
			return true
		}
	}
	return false
}
