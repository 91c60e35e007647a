package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/zeebo/xxh3"
)

// cacheSchemaVersion is mixed into every cache key so that payload
// format changes invalidate old entries instead of misreading them.
const cacheSchemaVersion = "v2"

// cacheDirEnvVar overrides the resolved cache root when set.
const cacheDirEnvVar = "PIXREP_CACHE_DIR"

// diskCache is one cache namespace: one JSON file per key under a
// single directory. There is no in-process locking; correctness under
// concurrent workers relies on atomic rename-on-write and on readers
// treating any unreadable entry as a miss.
type diskCache struct {
	dir    string
	hits   atomic.Int64
	misses atomic.Int64
}

func newDiskCache(dir string) (*diskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &diskCache{dir: dir}, nil
}

// Get returns the raw payload for name, or ok=false on any miss,
// including I/O errors. Misses are never surfaced as errors.
func (c *diskCache) Get(name string) ([]byte, bool) {
	data, err := os.ReadFile(filepath.Join(c.dir, name))
	if err != nil {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return data, true
}

// Set writes the payload atomically: temp file in the same directory,
// sync, then rename. Concurrent readers never see a partial entry.
func (c *diskCache) Set(name string, payload []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache payload: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync cache payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(c.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache entry: %w", err)
	}
	return nil
}

// Clear removes every entry in the namespace, keeping the directory.
func (c *diskCache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete cache entry: %w", err)
		}
	}
	return nil
}

// usage reports entry count and total size on disk.
func (c *diskCache) usage() (int, int64) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, 0
	}
	var count int
	var size int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		count++
		if info, err := entry.Info(); err == nil {
			size += info.Size()
		}
	}
	return count, size
}

// resolveCacheRoot picks the cache root directory: an explicit override
// wins, then the environment variable, then the platform user-cache
// location namespaced by repository name.
func resolveCacheRoot(override, repoName string) (string, error) {
	if override != "" {
		return override, nil
	}
	if env := os.Getenv(cacheDirEnvVar); env != "" {
		return env, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user cache dir: %w", err)
	}
	return filepath.Join(base, "pixrep", repoName), nil
}

func hashKey(signature string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(signature))
}

// semanticCacheKey derives the per-file key from the file's content
// signature. Negative size or mtime marks missing metadata and still
// produces a stable (always-recomputed-together) key.
func semanticCacheKey(relPath string, mtimeNs, size int64) string {
	var sig string
	if mtimeNs < 0 || size < 0 {
		sig = relPath + "|missing|" + cacheSchemaVersion
	} else {
		sig = fmt.Sprintf("%s|%d|%d|%s", relPath, mtimeNs, size, cacheSchemaVersion)
	}
	return hashKey(sig)
}

// lintCacheKey derives the per-batch key for one tool from the sorted
// identity list of every target in the batch. Changing any one target
// invalidates the whole batch entry.
func (e *AnalysisEngine) lintCacheKey(tool string, targets []string) string {
	sorted := make([]string, 0, len(targets))
	seen := make(map[string]struct{}, len(targets))
	for _, rel := range targets {
		if _, ok := seen[rel]; ok {
			continue
		}
		seen[rel] = struct{}{}
		sorted = append(sorted, rel)
	}
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString(tool)
	b.WriteString("|")
	b.WriteString(cacheSchemaVersion)
	b.WriteString("|")
	for _, rel := range sorted {
		meta, ok := e.fileMeta[rel]
		if !ok || meta.mtimeNs < 0 || meta.size < 0 {
			fmt.Fprintf(&b, "%s|missing\n", rel)
			continue
		}
		fmt.Fprintf(&b, "%s|%d|%d\n", rel, meta.mtimeNs, meta.size)
	}
	return hashKey(b.String())
}
