package analyzer

import (
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

// normalizePosixPath converts any slash convention to a clean
// forward-slash relative path, the identity form for scanned files.
func normalizePosixPath(pathValue string) string {
	cleaned := path.Clean(strings.ReplaceAll(strings.TrimSpace(pathValue), "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "./")
	if cleaned == "." {
		return ""
	}
	return cleaned
}

// caseInsensitiveFS reports whether path lookups should fall back to a
// case-insensitive comparison on this platform's default file system.
func caseInsensitiveFS() bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}

// relativeToRepo maps a tool-reported path back to the scanned
// repository-relative identity. Anything outside the repository root,
// or not present in the scanned set, is rejected.
func (e *AnalysisEngine) relativeToRepo(pathValue string) (string, bool) {
	if pathValue == "" {
		return "", false
	}

	candidate := filepath.FromSlash(strings.ReplaceAll(pathValue, "\\", "/"))
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(e.resolvedRoot, candidate)
	}
	resolved := filepath.Clean(candidate)
	if evaled, err := filepath.EvalSymlinks(resolved); err == nil {
		resolved = evaled
	}

	rel, err := filepath.Rel(e.resolvedRoot, resolved)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	norm := normalizePosixPath(rel)
	if _, ok := e.scannedPaths[norm]; ok {
		return norm, true
	}
	if e.ciPaths != nil {
		if original, ok := e.ciPaths[strings.ToLower(norm)]; ok {
			return original, true
		}
	}
	return "", false
}
