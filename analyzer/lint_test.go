package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TingjiaInFuture/pixrep/analyzer/models"
)

func TestTargetBatches_ItemBound(t *testing.T) {
	targets := make([]string, 450)
	for i := range targets {
		targets[i] = fmt.Sprintf("file%03d.py", i)
	}

	batches := targetBatches(targets)

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], maxBatchItems)
	assert.Len(t, batches[1], maxBatchItems)
	assert.Len(t, batches[2], 50)

	// Order is preserved across the split.
	assert.Equal(t, "file000.py", batches[0][0])
	assert.Equal(t, "file200.py", batches[1][0])
	assert.Equal(t, "file449.py", batches[2][49])
}

func TestTargetBatches_CharBound(t *testing.T) {
	long := strings.Repeat("d", 25000)
	targets := []string{long + "1", long + "2", long + "3"}

	batches := targetBatches(targets)

	// Three 25 KB paths cannot share one 60000-char batch.
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 1)
}

func TestTargetBatches_Empty(t *testing.T) {
	assert.Nil(t, targetBatches(nil))
	assert.Nil(t, targetBatches([]string{}))
}

func TestRuffSeverity(t *testing.T) {
	assert.Equal(t, "high", ruffSeverity("F401"))
	assert.Equal(t, "high", ruffSeverity("E501"))
	assert.Equal(t, "high", ruffSeverity("B008"))
	assert.Equal(t, "high", ruffSeverity("SIM108"))
	assert.Equal(t, "high", ruffSeverity("PLR2004"))
	assert.Equal(t, "medium", ruffSeverity("W291"))
	assert.Equal(t, "medium", ruffSeverity("RUF100"))
	assert.Equal(t, "medium", ruffSeverity("C901"))
	assert.Equal(t, "medium", ruffSeverity(""))
}

func TestRunJSONCommand_MissingTool(t *testing.T) {
	engine := newTestEngine(t, &models.RepoInfo{Root: t.TempDir(), Name: "repo"}, Options{
		LinterTimeout: time.Second,
	})

	var out []ruffFinding
	ok := engine.runJSONCommand(context.Background(), "definitely-not-a-real-linter-binary", nil, &out)
	assert.False(t, ok)
}

func TestTargetsForLanguages(t *testing.T) {
	engine := newTestEngine(t, &models.RepoInfo{
		Root: t.TempDir(),
		Name: "repo",
		Files: []*models.FileInfo{
			{Path: "a.py", Language: "python"},
			{Path: "b.js", Language: "javascript"},
			{Path: "c.ts", Language: "typescript"},
			{Path: "d.go", Language: "go"},
		},
	}, Options{})

	assert.Equal(t, []string{"a.py"}, engine.targetsForLanguages("python"))
	assert.Equal(t, []string{"b.js", "c.ts"}, engine.targetsForLanguages("javascript", "typescript"))
	assert.Empty(t, engine.targetsForLanguages("rust"))
}

func TestLintCache_RoundTripAndSanitization(t *testing.T) {
	engine := newTestEngine(t, &models.RepoInfo{
		Root:  t.TempDir(),
		Name:  "repo",
		Files: []*models.FileInfo{{Path: "a.py", MtimeNs: 1, Size: 1}},
	}, Options{})
	require.NotNil(t, engine.lintCache)

	issues := map[string][]models.LintIssue{
		"a.py": {{Line: 3, Severity: "high", Tool: "ruff", Code: "F401", Message: "unused import"}},
	}
	key := engine.lintCacheKey("ruff", []string{"a.py"})
	engine.saveLintCache("ruff", key, issues)

	restored, found := engine.loadLintCache("ruff", key)
	require.True(t, found)
	assert.Equal(t, issues, restored)

	// A tampered payload is sanitized rather than trusted.
	tampered := map[string][]models.LintIssue{
		"a.py": {{Line: 0, Severity: "catastrophic", Tool: "", Code: "X", Message: "bad"}},
	}
	payload, err := json.Marshal(tampered)
	require.NoError(t, err)
	require.NoError(t, engine.lintCache.Set("ruff_"+key+".json", payload))

	restored, found = engine.loadLintCache("ruff", key)
	require.True(t, found)
	issue := restored["a.py"][0]
	assert.Equal(t, 1, issue.Line)
	assert.Equal(t, "medium", issue.Severity)
	assert.Equal(t, "ruff", issue.Tool)
}

func TestLintCache_CorruptEntryIsMiss(t *testing.T) {
	engine := newTestEngine(t, &models.RepoInfo{
		Root:  t.TempDir(),
		Name:  "repo",
		Files: []*models.FileInfo{{Path: "a.py", MtimeNs: 1, Size: 1}},
	}, Options{})
	require.NotNil(t, engine.lintCache)

	key := engine.lintCacheKey("ruff", []string{"a.py"})
	require.NoError(t, engine.lintCache.Set("ruff_"+key+".json", []byte("not json{{")))

	_, found := engine.loadLintCache("ruff", key)
	assert.False(t, found)
}

func TestCollectLintIssues_NoToolsInstalled(t *testing.T) {
	t.Setenv("PATH", "")

	engine := newTestEngine(t, &models.RepoInfo{
		Root: t.TempDir(),
		Name: "repo",
		Files: []*models.FileInfo{
			{Path: "a.py", Language: "python", MtimeNs: 1, Size: 1},
			{Path: "b.js", Language: "javascript", MtimeNs: 1, Size: 1},
		},
	}, Options{EnableLintHeatmap: true, LinterTimeout: time.Second})

	issues := engine.collectLintIssues(context.Background())
	assert.Empty(t, issues)
}

func TestMergeIssues(t *testing.T) {
	dst := map[string][]models.LintIssue{
		"a.py": {{Line: 1, Tool: "ruff"}},
	}
	mergeIssues(dst, map[string][]models.LintIssue{
		"a.py": {{Line: 5, Tool: "ruff"}},
		"b.py": {{Line: 2, Tool: "ruff"}},
	})

	assert.Len(t, dst["a.py"], 2)
	assert.Len(t, dst["b.py"], 1)
}
