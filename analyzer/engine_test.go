package analyzer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TingjiaInFuture/pixrep/analyzer/models"
)

func newTestEngine(t *testing.T, repo *models.RepoInfo, opts Options) *AnalysisEngine {
	t.Helper()
	if opts.CacheDir == "" {
		opts.CacheDir = t.TempDir()
	}
	engine, ok := NewAnalysisEngine(repo, opts).(*AnalysisEngine)
	require.True(t, ok)
	return engine
}

func pythonFixtureRepo(t *testing.T, count int) *models.RepoInfo {
	t.Helper()
	repo := &models.RepoInfo{Root: t.TempDir(), Name: "fixture"}
	for i := 0; i < count; i++ {
		info := &models.FileInfo{
			Path:     fmt.Sprintf("pkg/mod%02d.py", i),
			Language: "python",
			MtimeNs:  int64(1000 + i),
			Size:     int64(100 + i),
			Index:    i,
		}
		info.SetContent(fmt.Sprintf("def fn%d():\n    helper%d()\n\ndef helper%d():\n    pass\n", i, i, i))
		repo.Files = append(repo.Files, info)
	}
	return repo
}

func TestEnrichRepo_AssignsEveryFileByIndex(t *testing.T) {
	t.Setenv("PATH", "")

	repo := pythonFixtureRepo(t, 10)
	engine := newTestEngine(t, repo, Options{
		EnableSemanticMinimap: true,
		EnableLintHeatmap:     true,
		LinterTimeout:         time.Second,
	})

	engine.EnrichRepo(context.Background())

	for i, info := range repo.Files {
		assert.Equal(t, i, info.Index)
		require.NotEmpty(t, info.SemanticMap.Kind, info.Path)
		assert.Contains(t, info.SemanticMap.Lines, fmt.Sprintf("fn%d -> helper%d", i, i))
		assert.NotNil(t, info.LintIssues)
		assert.Empty(t, info.LintIssues)
	}
}

func TestEnrichRepo_SemanticDisabled(t *testing.T) {
	repo := pythonFixtureRepo(t, 2)
	engine := newTestEngine(t, repo, Options{
		EnableSemanticMinimap: false,
		EnableLintHeatmap:     false,
	})

	engine.EnrichRepo(context.Background())

	for _, info := range repo.Files {
		assert.Equal(t, "none", info.SemanticMap.Kind)
		assert.Empty(t, info.SemanticMap.Lines)
		assert.Empty(t, info.LintIssues)
	}
}

func TestEnrichRepo_SecondRunHitsSemanticCache(t *testing.T) {
	cacheDir := t.TempDir()
	repo := pythonFixtureRepo(t, 5)

	first := newTestEngine(t, repo, Options{EnableSemanticMinimap: true, CacheDir: cacheDir})
	first.EnrichRepo(context.Background())
	assert.Equal(t, int64(0), first.CacheStats().SemanticHits)
	assert.Equal(t, int64(5), first.CacheStats().SemanticMisses)

	// Fresh engine, identical identities: everything should come from
	// the cache without touching file content.
	rescanned := &models.RepoInfo{Root: repo.Root, Name: repo.Name}
	for i, info := range repo.Files {
		rescanned.Files = append(rescanned.Files, &models.FileInfo{
			Path:     info.Path,
			Language: info.Language,
			MtimeNs:  info.MtimeNs,
			Size:     info.Size,
			Index:    i,
		})
	}
	second := newTestEngine(t, rescanned, Options{EnableSemanticMinimap: true, CacheDir: cacheDir})
	second.EnrichRepo(context.Background())

	stats := second.CacheStats()
	assert.Equal(t, int64(5), stats.SemanticHits)
	assert.Equal(t, int64(0), stats.SemanticMisses)
	for i, info := range rescanned.Files {
		assert.Equal(t, repo.Files[i].SemanticMap, info.SemanticMap)
	}
}

func TestEnrichRepo_SingleFileInvalidation(t *testing.T) {
	cacheDir := t.TempDir()
	repo := pythonFixtureRepo(t, 4)

	first := newTestEngine(t, repo, Options{EnableSemanticMinimap: true, CacheDir: cacheDir})
	first.EnrichRepo(context.Background())

	// Bump one file's mtime; only that file should recompute.
	rescanned := &models.RepoInfo{Root: repo.Root, Name: repo.Name}
	for i, info := range repo.Files {
		next := &models.FileInfo{
			Path:     info.Path,
			Language: info.Language,
			MtimeNs:  info.MtimeNs,
			Size:     info.Size,
			Index:    i,
		}
		if i == 2 {
			next.MtimeNs++
			next.SetContent("def changed():\n    pass\n")
		}
		rescanned.Files = append(rescanned.Files, next)
	}

	second := newTestEngine(t, rescanned, Options{EnableSemanticMinimap: true, CacheDir: cacheDir})
	second.EnrichRepo(context.Background())

	stats := second.CacheStats()
	assert.Equal(t, int64(3), stats.SemanticHits)
	assert.Equal(t, int64(1), stats.SemanticMisses)
	assert.Equal(t, 1, rescanned.Files[2].SemanticMap.NodeCount)
}

func TestEnrichRepo_UnreadableFileDegrades(t *testing.T) {
	repo := &models.RepoInfo{
		Root: t.TempDir(),
		Name: "fixture",
		Files: []*models.FileInfo{{
			Path:     "gone.py",
			AbsPath:  "/nonexistent/gone.py",
			Language: "python",
			MtimeNs:  1,
			Size:     1,
		}},
	}
	engine := newTestEngine(t, repo, Options{EnableSemanticMinimap: true})

	engine.EnrichRepo(context.Background())

	assert.Equal(t, []string{"(analysis failed)"}, repo.Files[0].SemanticMap.Lines)
}

func TestEnrichRepo_CancelledContext(t *testing.T) {
	repo := pythonFixtureRepo(t, 20)
	engine := newTestEngine(t, repo, Options{EnableSemanticMinimap: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine.EnrichRepo(ctx)

	// Every file ends with a well-formed map: either a computed one or
	// the degraded sentinel for files never dispatched. None may look
	// like a symbol-free file.
	for _, info := range repo.Files {
		assert.Equal(t, "callgraph", info.SemanticMap.Kind)
		assert.NotEmpty(t, info.SemanticMap.Lines)
		assert.NotEqual(t, "none", info.SemanticMap.Kind)
	}
}

func TestClearCache_RemovesBothNamespaces(t *testing.T) {
	cacheDir := t.TempDir()
	repo := pythonFixtureRepo(t, 3)

	engine := newTestEngine(t, repo, Options{EnableSemanticMinimap: true, CacheDir: cacheDir})
	engine.EnrichRepo(context.Background())
	require.Greater(t, engine.CacheStats().Entries, 0)

	require.NoError(t, engine.ClearCache())
	assert.Equal(t, 0, engine.CacheStats().Entries)
}

func TestNewAnalysisEngine_CacheDisabledStillWorks(t *testing.T) {
	repo := pythonFixtureRepo(t, 2)
	// Point the cache at a path that cannot be created.
	engine, ok := NewAnalysisEngine(repo, Options{
		EnableSemanticMinimap: true,
		CacheDir:              "/dev/null/not-a-dir",
	}).(*AnalysisEngine)
	require.True(t, ok)
	require.Nil(t, engine.semanticCache)

	engine.EnrichRepo(context.Background())

	for _, info := range repo.Files {
		assert.NotEmpty(t, info.SemanticMap.Lines)
	}
	assert.Equal(t, int64(0), engine.CacheStats().SemanticHits)
}
