package analyzer

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TingjiaInFuture/pixrep/analyzer/contracts"
	"github.com/TingjiaInFuture/pixrep/analyzer/models"
)

type fileIdentity struct {
	mtimeNs int64
	size    int64
}

// Options configures one engine instance. Zero values fall back to
// sensible defaults in NewAnalysisEngine.
type Options struct {
	EnableSemanticMinimap bool
	EnableLintHeatmap     bool
	LinterTimeout         time.Duration
	CacheDir              string
	Logger                *slog.Logger
}

// AnalysisEngine enriches scanned files with semantic maps and lint
// issues. Each engine owns its cache directories, configuration and
// logger; multiple engines can run without interference.
type AnalysisEngine struct {
	repo           *models.RepoInfo
	enableSemantic bool
	enableLint     bool
	linterTimeout  time.Duration
	logger         *slog.Logger

	resolvedRoot string
	cacheRoot    string
	scannedPaths map[string]struct{}
	ciPaths      map[string]string
	fileMeta     map[string]fileIdentity

	semanticCache *diskCache
	lintCache     *diskCache
}

// NewAnalysisEngine initializes an engine over an already-scanned
// repository. Cache setup failures degrade to uncached operation.
func NewAnalysisEngine(repo *models.RepoInfo, opts Options) contracts.IAnalysisEngine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.LinterTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	resolvedRoot, err := filepath.Abs(repo.Root)
	if err != nil {
		resolvedRoot = repo.Root
	}
	if evaled, err := filepath.EvalSymlinks(resolvedRoot); err == nil {
		resolvedRoot = evaled
	}

	engine := &AnalysisEngine{
		repo:           repo,
		enableSemantic: opts.EnableSemanticMinimap,
		enableLint:     opts.EnableLintHeatmap,
		linterTimeout:  timeout,
		logger:         logger,
		resolvedRoot:   resolvedRoot,
		scannedPaths:   make(map[string]struct{}, len(repo.Files)),
		fileMeta:       make(map[string]fileIdentity, len(repo.Files)),
	}
	for _, info := range repo.Files {
		norm := normalizePosixPath(info.Path)
		engine.scannedPaths[norm] = struct{}{}
		engine.fileMeta[norm] = fileIdentity{mtimeNs: info.MtimeNs, size: info.Size}
	}
	if caseInsensitiveFS() {
		engine.ciPaths = make(map[string]string, len(engine.scannedPaths))
		for norm := range engine.scannedPaths {
			engine.ciPaths[strings.ToLower(norm)] = norm
		}
	}

	cacheRoot, err := resolveCacheRoot(opts.CacheDir, repo.Name)
	if err != nil {
		logger.Warn("failed to resolve cache root, caching disabled", "error", err)
		return engine
	}
	engine.cacheRoot = cacheRoot
	if engine.semanticCache, err = newDiskCache(filepath.Join(cacheRoot, "semantic")); err != nil {
		logger.Warn("semantic cache unavailable", "error", err)
		engine.semanticCache = nil
	}
	if engine.lintCache, err = newDiskCache(filepath.Join(cacheRoot, "lint")); err != nil {
		logger.Warn("lint cache unavailable", "error", err)
		engine.lintCache = nil
	}
	return engine
}

// EnrichRepo is the orchestration entry point: semantic extraction and
// lint collection run concurrently, each degrades independently, and
// results are reassembled onto the file list by original index.
func (e *AnalysisEngine) EnrichRepo(ctx context.Context) {
	var semanticMaps map[int]models.SemanticMap
	var lintMap map[string][]models.LintIssue

	group := new(errgroup.Group)
	if e.enableLint {
		group.Go(func() error {
			lintMap = e.collectLintIssues(ctx)
			return nil
		})
	}
	if e.enableSemantic && len(e.repo.Files) > 0 {
		group.Go(func() error {
			semanticMaps = e.collectSemanticMaps(ctx)
			return nil
		})
	}
	_ = group.Wait()

	var lintMapCI map[string][]models.LintIssue
	if caseInsensitiveFS() && len(lintMap) > 0 {
		lintMapCI = make(map[string][]models.LintIssue, len(lintMap))
		for rel, issues := range lintMap {
			lintMapCI[strings.ToLower(rel)] = issues
		}
	}

	matched := 0
	for idx, info := range e.repo.Files {
		if e.enableSemantic {
			if m, ok := semanticMaps[idx]; ok {
				info.SemanticMap = m
			} else {
				// Never dispatched, which only happens on cancellation.
				info.SemanticMap = analysisFailedMap()
			}
		} else {
			info.SemanticMap = models.SemanticMap{Kind: "none", Lines: []string{}}
		}

		key := normalizePosixPath(info.Path)
		issues := lintMap[key]
		if issues == nil && lintMapCI != nil {
			issues = lintMapCI[strings.ToLower(key)]
		}
		if issues == nil {
			issues = []models.LintIssue{}
		}
		info.LintIssues = issues
		if len(issues) > 0 {
			matched++
		}
	}

	if e.enableLint && len(lintMap) > 0 && matched == 0 {
		e.logger.Warn("lint findings matched no scanned files, path normalization mismatch?",
			"finding_files", len(lintMap))
	}
}

// collectSemanticMaps fans out one task per file across a bounded
// worker pool. A per-file panic degrades that file only.
func (e *AnalysisEngine) collectSemanticMaps(ctx context.Context) map[int]models.SemanticMap {
	workers := runtime.NumCPU()
	if workers > 4 {
		workers = 4
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	semanticMaps := make(map[int]models.SemanticMap, len(e.repo.Files))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				result := e.semanticMapForFile(e.repo.Files[idx])
				e.repo.Files[idx].ReleaseContent()
				mu.Lock()
				semanticMaps[idx] = result
				mu.Unlock()
			}
		}()
	}

feed:
	for idx := range e.repo.Files {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return semanticMaps
}

// semanticMapForFile isolates one file's extraction: any panic inside
// a parser or extractor is replaced by the degraded sentinel.
func (e *AnalysisEngine) semanticMapForFile(info *models.FileInfo) (result models.SemanticMap) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("semantic extraction panicked", "path", info.Path, "panic", r)
			result = analysisFailedMap()
		}
	}()
	return e.semanticMapCached(info)
}

// ClearCache removes every entry in both cache namespaces.
func (e *AnalysisEngine) ClearCache() error {
	for _, cache := range []*diskCache{e.semanticCache, e.lintCache} {
		if cache == nil {
			continue
		}
		if err := cache.Clear(); err != nil {
			return err
		}
	}
	return nil
}

// CacheStats reports hit/miss counters for this run plus on-disk usage.
func (e *AnalysisEngine) CacheStats() models.CacheStats {
	stats := models.CacheStats{CacheDir: e.cacheRoot}
	if e.semanticCache != nil {
		stats.SemanticHits = e.semanticCache.hits.Load()
		stats.SemanticMisses = e.semanticCache.misses.Load()
		entries, size := e.semanticCache.usage()
		stats.Entries += entries
		stats.TotalSizeBytes += size
	}
	if e.lintCache != nil {
		stats.LintHits = e.lintCache.hits.Load()
		stats.LintMisses = e.lintCache.misses.Load()
		entries, size := e.lintCache.usage()
		stats.Entries += entries
		stats.TotalSizeBytes += size
	}
	return stats
}
