package analyzer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPythonSemanticMap_ClassesAndCallGraph(t *testing.T) {
	source := `class A(Base):
    def m(self):
        self.n()

    def n(self):
        return helper()

def helper():
    pass
`

	result := buildPythonSemanticMap(source)

	assert.Equal(t, "uml+callgraph", result.Kind)
	assert.Equal(t, 3, result.NodeCount) // helper, A.m, A.n
	assert.Equal(t, 2, result.EdgeCount)
	assert.False(t, result.Truncated)

	assert.Contains(t, result.Lines, "UML:")
	assert.Contains(t, result.Lines, "[Class] A")
	assert.Contains(t, result.Lines, "  - m()")
	assert.Contains(t, result.Lines, "  - n()")
	assert.Contains(t, result.Lines, "A <|-- Base")
	assert.Contains(t, result.Lines, "Call Graph:")
	assert.Contains(t, result.Lines, "A.m -> A.n")
	assert.Contains(t, result.Lines, "A.n -> helper")
}

func TestPythonSemanticMap_UnknownCalleesDropped(t *testing.T) {
	source := `import os

def run():
    os.remove("x")
    print("hello")
    local()

def local():
    pass
`

	result := buildPythonSemanticMap(source)

	// Only edges into defined symbols survive; print and os.remove are
	// external and must not appear.
	assert.Equal(t, 1, result.EdgeCount)
	assert.Contains(t, result.Lines, "run -> local")
	for _, line := range result.Lines {
		assert.NotContains(t, line, "print")
		assert.NotContains(t, line, "os.remove")
	}
}

func TestPythonSemanticMap_NestedFunctionsExcludedFromDefined(t *testing.T) {
	source := `def outer():
    def inner():
        pass
    inner()
`

	result := buildPythonSemanticMap(source)

	// inner is scoped but not a defined symbol, so the outer -> inner
	// edge is dropped rather than rendered with an unqualified name.
	assert.Equal(t, 1, result.NodeCount)
	assert.Equal(t, 0, result.EdgeCount)
}

func TestPythonSemanticMap_ClassReceiverCalls(t *testing.T) {
	source := `class Worker:
    def start(self):
        cls_helper = 1
        self.step()

    def step(self):
        pass

def boot():
    Worker.step()
`

	result := buildPythonSemanticMap(source)

	assert.Contains(t, result.Lines, "Worker.start -> Worker.step")
	assert.Contains(t, result.Lines, "boot -> Worker.step")
}

func TestPythonSemanticMap_NoSymbols(t *testing.T) {
	result := buildPythonSemanticMap("x = 1\ny = x + 2\n")

	assert.Equal(t, "callgraph", result.Kind)
	assert.Equal(t, []string{"(no classes/functions detected)"}, result.Lines)
	assert.Equal(t, 0, result.NodeCount)
	assert.Equal(t, 0, result.EdgeCount)
}

func TestPythonSemanticMap_TruncationCaps(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "class C%d:\n", i)
		for j := 0; j < 6; j++ {
			fmt.Fprintf(&b, "    def m%d_%d(self):\n        pass\n", i, j)
		}
	}

	result := buildPythonSemanticMap(b.String())

	require.True(t, result.Truncated)
	assert.Len(t, result.Lines, maxSemanticLines)

	// Class cap is 6, method cap is 4 per class.
	classLines := 0
	for _, line := range result.Lines {
		if strings.HasPrefix(line, "[Class] ") {
			classLines++
		}
	}
	assert.LessOrEqual(t, classLines, 6)
}

func TestPythonSemanticMap_BOMStripped(t *testing.T) {
	source := "\ufeffdef entry():\n    pass\n"

	result := buildPythonSemanticMap(source)

	assert.Equal(t, 1, result.NodeCount)
	assert.Contains(t, result.Lines[0], "(no classes/functions detected)")
}
