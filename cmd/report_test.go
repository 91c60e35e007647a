package cmd

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/TingjiaInFuture/pixrep/analyzer/models"
)

func TestTruncatePath_ShortPathsUnchanged(t *testing.T) {
	assert.Equal(t, "pkg/a.py", truncatePath("pkg/a.py", 50))
	assert.Equal(t, "", truncatePath("", 50))
}

func TestTruncatePath_KeepsTail(t *testing.T) {
	long := strings.Repeat("dir/", 20) + "leaf.py"
	got := truncatePath(long, 20)

	assert.Equal(t, 20, len([]rune(got)))
	assert.True(t, strings.HasPrefix(got, "…"))
	assert.True(t, strings.HasSuffix(got, "leaf.py"))
}

func TestTruncatePath_MultibyteRunesStayValid(t *testing.T) {
	long := strings.Repeat("目录/", 30) + "文件.py"
	got := truncatePath(long, 12)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 12, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "文件.py"))
}

func TestSeverityCounts(t *testing.T) {
	high, medium := severityCounts([]models.LintIssue{
		{Severity: "high"},
		{Severity: "medium"},
		{Severity: "medium"},
		{Severity: ""},
	})

	assert.Equal(t, 1, high)
	assert.Equal(t, 3, medium)
}

func TestSortedKeys_CountThenName(t *testing.T) {
	keys := sortedKeys(map[string]int{
		"python":     5,
		"javascript": 5,
		"go":         1,
	})

	assert.Equal(t, []string{"javascript", "python", "go"}, keys)
}
