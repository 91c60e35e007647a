package analyzer

import (
	"regexp"

	"github.com/TingjiaInFuture/pixrep/analyzer/models"
)

var genericSigPat = regexp.MustCompile(`(?m)^\s*(?:def|fn|func|function)\s+([A-Za-z_]\w*)`)

// symbolFreeLanguages carry no executable symbols; they short-circuit
// to an empty map instead of a pointless regex sweep.
var symbolFreeLanguages = map[string]struct{}{
	"text": {}, "json": {}, "yaml": {}, "toml": {}, "markdown": {}, "ini": {},
}

// buildGenericSemanticMap is the fallback for languages with neither a
// parser nor a heuristic extractor: one sweep for common function
// introducers, capped to 12 entries.
func buildGenericSemanticMap(content, language string) models.SemanticMap {
	if _, ok := symbolFreeLanguages[language]; ok {
		return models.SemanticMap{Kind: "none", Lines: []string{}}
	}

	var names []string
	for _, m := range genericSigPat.FindAllStringSubmatch(content, -1) {
		names = append(names, m[1])
	}

	var lines []string
	if len(names) > 0 {
		lines = append(lines, "Functions:")
		for _, name := range capStrings(names, 12) {
			lines = append(lines, "  - "+name+"()")
		}
	} else {
		lines = []string{"(no symbols detected)"}
	}

	lines, truncated := limitSemanticLines(lines)
	return models.SemanticMap{
		Kind:      "callgraph",
		Lines:     lines,
		NodeCount: len(names),
		Truncated: truncated,
	}
}
