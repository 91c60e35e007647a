package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Directories never descended into regardless of configuration.
var defaultIgnoredDirs = map[string]struct{}{
	".git":          {},
	".svn":          {},
	".hg":           {},
	".idea":         {},
	".vscode":       {},
	".cache":        {},
	".tox":          {},
	".venv":         {},
	"venv":          {},
	"node_modules":  {},
	"__pycache__":   {},
	"dist":          {},
	"build":         {},
	"out":           {},
	"bin":           {},
	"obj":           {},
	".mypy_cache":   {},
	".ruff_cache":   {},
	".pytest_cache": {},
}

// Glob patterns for files skipped by default (relative POSIX paths).
var defaultIgnorePatterns = []string{
	"**/*.min.js",
	"**/*.min.css",
	"**/*.map",
	"**/*.lock",
	"**/*.log",
	"**/*.exe",
	"**/*.dll",
	"**/*.so",
	"**/*.dylib",
	"**/*.bin",
	"**/*.jpg",
	"**/*.jpeg",
	"**/*.png",
	"**/*.gif",
	"**/*.ico",
	"**/*.pdf",
	"**/*.zip",
	"**/*.tar",
	"**/*.gz",
	"**/*.woff",
	"**/*.woff2",
	"**/*.ttf",
	"**/*.mp3",
	"**/*.mp4",
	"**/package-lock.json",
	"**/yarn.lock",
	"**/go.sum",
}

// ignoreMatcher combines the built-in patterns with user-supplied ones
// and the optional .pixrepignore file at the repo root.
type ignoreMatcher struct {
	patterns []string
}

func newIgnoreMatcher(root string, extra []string) *ignoreMatcher {
	patterns := make([]string, 0, len(defaultIgnorePatterns)+len(extra))
	patterns = append(patterns, defaultIgnorePatterns...)
	for _, p := range extra {
		p = strings.TrimSpace(p)
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	patterns = append(patterns, readIgnoreFile(filepath.Join(root, ".pixrepignore"))...)
	return &ignoreMatcher{patterns: patterns}
}

// readIgnoreFile parses a gitignore-style pattern file. A missing file
// yields no patterns.
func readIgnoreFile(path string) []string {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Bare names match anywhere in the tree.
		if !strings.ContainsAny(line, "/*") {
			line = "**/" + line
		}
		patterns = append(patterns, line)
	}
	return patterns
}

func shouldIgnoreDir(name string) bool {
	if _, ok := defaultIgnoredDirs[name]; ok {
		return true
	}
	return strings.HasPrefix(name, ".") && name != "."
}

// Matches reports whether a relative POSIX path hits any ignore pattern.
func (m *ignoreMatcher) Matches(relPath string) bool {
	for _, pattern := range m.patterns {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}
