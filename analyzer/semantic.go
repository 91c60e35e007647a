package analyzer

import (
	"encoding/json"

	"github.com/TingjiaInFuture/pixrep/analyzer/models"
)

// maxSemanticLines caps the rendered semantic map; overflow is cut and
// flagged via Truncated rather than dropped silently.
const maxSemanticLines = 24

func limitSemanticLines(lines []string) ([]string, bool) {
	if len(lines) > maxSemanticLines {
		return lines[:maxSemanticLines], true
	}
	return lines, false
}

func parseFailedMap() models.SemanticMap {
	return models.SemanticMap{Kind: "callgraph", Lines: []string{"(parse failed)"}}
}

func analysisFailedMap() models.SemanticMap {
	return models.SemanticMap{Kind: "callgraph", Lines: []string{"(analysis failed)"}}
}

// buildSemanticMap dispatches on language tag: tree-sitter for python,
// the brace-balance heuristic for the JS family, regex sweep otherwise.
func buildSemanticMap(content, language string) models.SemanticMap {
	switch language {
	case "python":
		return buildPythonSemanticMap(content)
	case "javascript", "typescript":
		return buildJSSemanticMap(content)
	default:
		return buildGenericSemanticMap(content, language)
	}
}

// semanticMapCached is the read-through path: identity-keyed lookup,
// recompute on any miss, best-effort write-back.
func (e *AnalysisEngine) semanticMapCached(info *models.FileInfo) models.SemanticMap {
	var key string
	if e.semanticCache != nil {
		key = semanticCacheKey(info.Path, info.MtimeNs, info.Size) + ".json"
		if payload, ok := e.semanticCache.Get(key); ok {
			var cached models.SemanticMap
			if err := json.Unmarshal(payload, &cached); err == nil && cached.Kind != "" {
				return cached
			}
		}
	}

	content, err := info.LoadContent()
	if err != nil {
		e.logger.Debug("failed to load file content", "path", info.Path, "error", err)
		return analysisFailedMap()
	}
	semanticMap := buildSemanticMap(content, info.Language)

	if e.semanticCache != nil {
		if payload, err := json.Marshal(semanticMap); err == nil {
			if err := e.semanticCache.Set(key, payload); err != nil {
				e.logger.Debug("semantic cache write failed", "path", info.Path, "error", err)
			}
		}
	}
	return semanticMap
}
