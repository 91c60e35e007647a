package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenericSemanticMap_FunctionSweep(t *testing.T) {
	source := `package main

func doThing() {
}

func otherThing() {
}
`

	result := buildGenericSemanticMap(source, "go")

	assert.Equal(t, "callgraph", result.Kind)
	assert.Equal(t, 2, result.NodeCount)
	assert.Contains(t, result.Lines, "Functions:")
	assert.Contains(t, result.Lines, "  - doThing()")
	assert.Contains(t, result.Lines, "  - otherThing()")
}

func TestGenericSemanticMap_SymbolFreeLanguages(t *testing.T) {
	for _, language := range []string{"text", "json", "yaml", "toml", "markdown", "ini"} {
		result := buildGenericSemanticMap(`{"def not_code": 1}`, language)
		assert.Equal(t, "none", result.Kind, language)
		assert.Empty(t, result.Lines, language)
	}
}

func TestGenericSemanticMap_NoSymbols(t *testing.T) {
	result := buildGenericSemanticMap("just some text\n", "rust")

	assert.Equal(t, []string{"(no symbols detected)"}, result.Lines)
	assert.Equal(t, 0, result.NodeCount)
}

func TestBuildSemanticMap_Dispatch(t *testing.T) {
	py := buildSemanticMap("def f():\n    pass\n", "python")
	assert.Equal(t, 1, py.NodeCount)

	js := buildSemanticMap("function f() { }\n", "javascript")
	assert.Contains(t, js.Lines, "  - f()")

	ts := buildSemanticMap("function f() { }\n", "typescript")
	assert.Contains(t, ts.Lines, "  - f()")

	none := buildSemanticMap("key: value\n", "yaml")
	assert.Equal(t, "none", none.Kind)
}

func TestLimitSemanticLines(t *testing.T) {
	short := []string{"a", "b"}
	kept, truncated := limitSemanticLines(short)
	assert.Equal(t, short, kept)
	assert.False(t, truncated)

	long := make([]string, maxSemanticLines+5)
	kept, truncated = limitSemanticLines(long)
	assert.Len(t, kept, maxSemanticLines)
	assert.True(t, truncated)
}
