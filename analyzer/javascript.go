package analyzer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/TingjiaInFuture/pixrep/analyzer/models"
)

var (
	jsClassPat = regexp.MustCompile(`(?m)^\s*class\s+([A-Za-z_]\w*)(?:\s+extends\s+([A-Za-z_]\w*))?`)
	jsFnPats   = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*function\s+([A-Za-z_]\w*)\s*\(`),
		regexp.MustCompile(`(?m)^\s*const\s+([A-Za-z_]\w*)\s*=\s*\([^)]*\)\s*=>`),
		regexp.MustCompile(`(?m)^\s*([A-Za-z_]\w*)\s*:\s*function\s*\(`),
	}
	jsCallPat = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`)
)

// jsKeywords can superficially look like calls and are never edges.
var jsKeywords = map[string]struct{}{
	"if": {}, "for": {}, "while": {}, "switch": {},
	"catch": {}, "function": {}, "return": {}, "new": {},
}

const maxJSCallEdges = 64

// span is a half-open [start, end) interval of non-code content:
// a comment, a string, or the literal-text portion of a template.
type span struct {
	start int
	end   int
}

// spanIndex answers "is offset inside a non-code span" in O(log n) via
// binary search over span start offsets, which are strictly ascending.
type spanIndex struct {
	spans  []span
	starts []int
}

func newSpanIndex(spans []span) spanIndex {
	starts := make([]int, len(spans))
	for i, s := range spans {
		starts[i] = s.start
	}
	return spanIndex{spans: spans, starts: starts}
}

func (idx spanIndex) at(offset int) (span, bool) {
	pos := sort.SearchInts(idx.starts, offset+1) - 1
	if pos < 0 {
		return span{}, false
	}
	s := idx.spans[pos]
	if offset < s.end {
		return s, true
	}
	return span{}, false
}

// scanNonCodeSpans is the single linear pre-pass locating every
// comment and string/template-literal interval. Template interpolation
// bodies are left out of the spans so their braces count as real code;
// the literal text around them is opaque.
func scanNonCodeSpans(content string) []span {
	var spans []span
	i, n := 0, len(content)
	for i < n {
		ch := content[i]
		var next byte
		if i+1 < n {
			next = content[i+1]
		}

		switch {
		case ch == '/' && next == '/':
			end := indexFrom(content, "\n", i+2)
			if end == -1 {
				spans = append(spans, span{i, n})
				return spans
			}
			spans = append(spans, span{i, end})
			i = end
		case ch == '/' && next == '*':
			end := indexFrom(content, "*/", i+2)
			if end == -1 {
				spans = append(spans, span{i, n})
				return spans
			}
			spans = append(spans, span{i, end + 2})
			i = end + 2
		case ch == '"' || ch == '\'':
			i = scanSimpleString(content, i, &spans)
		case ch == '`':
			i = scanTemplate(content, i, &spans)
		default:
			i++
		}
	}
	return spans
}

func indexFrom(content, needle string, from int) int {
	if from >= len(content) {
		return -1
	}
	if pos := strings.Index(content[from:], needle); pos >= 0 {
		return from + pos
	}
	return -1
}

// scanSimpleString consumes a single- or double-quoted string starting
// at the opening quote, honoring backslash escapes, and records it.
func scanSimpleString(content string, start int, spans *[]span) int {
	quote := content[start]
	i := start + 1
	n := len(content)
	for i < n {
		switch content[i] {
		case '\\':
			i += 2
		case quote:
			i++
			*spans = append(*spans, span{start, i})
			return i
		default:
			i++
		}
	}
	*spans = append(*spans, span{start, n})
	return n
}

// scanTemplate consumes a template literal starting at the backtick.
// Literal text segments are recorded as non-code; each ${...}
// interpolation is handed to scanInterpolation so its content stays
// visible to the brace balancer.
func scanTemplate(content string, start int, spans *[]span) int {
	n := len(content)
	segStart := start
	i := start + 1
	for i < n {
		switch {
		case content[i] == '\\':
			i += 2
		case content[i] == '`':
			i++
			*spans = append(*spans, span{segStart, i})
			return i
		case content[i] == '$' && i+1 < n && content[i+1] == '{':
			if segStart < i {
				*spans = append(*spans, span{segStart, i})
			}
			i = scanInterpolation(content, i+1, spans)
			segStart = i
		default:
			i++
		}
	}
	if segStart < n {
		*spans = append(*spans, span{segStart, n})
	}
	return n
}

// scanInterpolation walks an interpolation body from its opening brace
// to the matching close brace, recording any nested comments, strings
// or template literals along the way. The braces themselves stay code:
// they are symmetric and cancel out during balancing.
func scanInterpolation(content string, start int, spans *[]span) int {
	i := start + 1
	n := len(content)
	depth := 0
	for i < n {
		ch := content[i]
		var next byte
		if i+1 < n {
			next = content[i+1]
		}
		switch {
		case ch == '/' && next == '/':
			end := indexFrom(content, "\n", i+2)
			if end == -1 {
				*spans = append(*spans, span{i, n})
				return n
			}
			*spans = append(*spans, span{i, end})
			i = end
		case ch == '/' && next == '*':
			end := indexFrom(content, "*/", i+2)
			if end == -1 {
				*spans = append(*spans, span{i, n})
				return n
			}
			*spans = append(*spans, span{i, end + 2})
			i = end + 2
		case ch == '"' || ch == '\'':
			i = scanSimpleString(content, i, spans)
		case ch == '`':
			i = scanTemplate(content, i, spans)
		case ch == '{':
			depth++
			i++
		case ch == '}':
			if depth == 0 {
				return i + 1
			}
			depth--
			i++
		default:
			i++
		}
	}
	return n
}

// findNextCodeBrace advances from start to the first '{' outside every
// recorded non-code span, jumping straight to a span's end on entry.
func findNextCodeBrace(content string, start int, idx spanIndex) int {
	i := start
	if i < 0 {
		i = 0
	}
	n := len(content)
	for i < n {
		if s, inside := idx.at(i); inside {
			i = s.end
			continue
		}
		if content[i] == '{' {
			return i
		}
		i++
	}
	return -1
}

// balancedBraceEnd walks from the opening brace counting nested braces,
// skipping non-code spans, until depth returns to zero. Returns the
// offset just past the closing brace, or the content length when the
// file ends unbalanced.
func balancedBraceEnd(content string, braceStart int, idx spanIndex) int {
	depth := 0
	i := braceStart
	n := len(content)
	for i < n {
		if s, inside := idx.at(i); inside {
			i = s.end
			continue
		}
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
		i++
	}
	return n
}

type funcSpan struct {
	name  string
	start int
	end   int
}

// maskNonCode blanks every non-code span so downstream regex sweeps
// cannot match inside comments or string literals. Offsets and line
// structure are preserved.
func maskNonCode(content string, spans []span) string {
	if len(spans) == 0 {
		return content
	}
	masked := []byte(content)
	for _, s := range spans {
		for i := s.start; i < s.end && i < len(masked); i++ {
			if masked[i] != '\n' {
				masked[i] = ' '
			}
		}
	}
	return string(masked)
}

// jsFunctionSpans locates candidate function definitions with the three
// surface patterns and resolves each one's exact body span via brace
// balancing over the pre-scanned non-code intervals.
func jsFunctionSpans(content string, idx spanIndex) []funcSpan {
	type hit struct {
		name  string
		start int
	}
	var hits []hit
	for _, pat := range jsFnPats {
		for _, m := range pat.FindAllStringSubmatchIndex(content, -1) {
			hits = append(hits, hit{name: content[m[2]:m[3]], start: m[0]})
		}
	}
	if len(hits) == 0 {
		return nil
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

	spans := make([]funcSpan, 0, len(hits))
	for _, h := range hits {
		braceStart := findNextCodeBrace(content, h.start, idx)
		if braceStart == -1 {
			continue
		}
		end := balancedBraceEnd(content, braceStart, idx)
		if end > len(content) {
			end = len(content)
		}
		spans = append(spans, funcSpan{name: h.name, start: h.start, end: end})
	}
	return spans
}

// buildJSSemanticMap assembles the heuristic semantic map: classes from
// the surface pattern, functions from resolved spans, and call edges
// kept only between the extractor's own detected functions.
func buildJSSemanticMap(content string) models.SemanticMap {
	nonCode := scanNonCodeSpans(content)
	idx := newSpanIndex(nonCode)
	masked := maskNonCode(content, nonCode)

	classes := jsClassPat.FindAllStringSubmatch(masked, -1)
	funcSpans := jsFunctionSpans(masked, idx)

	funcs := make(map[string]struct{}, len(funcSpans))
	for _, fs := range funcSpans {
		funcs[fs.name] = struct{}{}
	}

	edgeSet := make(map[callEdge]struct{})
scanEdges:
	for _, fs := range funcSpans {
		body := masked[fs.start:fs.end]
		for _, m := range jsCallPat.FindAllStringSubmatch(body, 400) {
			callee := m[1]
			if _, kw := jsKeywords[callee]; kw {
				continue
			}
			if _, known := funcs[callee]; known && callee != fs.name {
				edgeSet[callEdge{src: fs.name, dst: callee}] = struct{}{}
				if len(edgeSet) >= maxJSCallEdges {
					break scanEdges
				}
			}
		}
	}

	var lines []string
	if len(classes) > 0 {
		lines = append(lines, "UML:")
		for i, class := range classes {
			if i >= 6 {
				break
			}
			lines = append(lines, "[Class] "+class[1])
			if class[2] != "" {
				lines = append(lines, class[1]+" <|-- "+class[2])
			}
		}
	}
	if len(funcs) > 0 {
		names := make([]string, 0, len(funcs))
		for name := range funcs {
			names = append(names, name)
		}
		sort.Strings(names)
		lines = append(lines, "Functions:")
		for _, name := range capStrings(names, 8) {
			lines = append(lines, "  - "+name+"()")
		}
	}
	if len(edgeSet) > 0 {
		edges := make([]callEdge, 0, len(edgeSet))
		for edge := range edgeSet {
			edges = append(edges, edge)
		}
		sort.Slice(edges, func(i, j int) bool {
			if edges[i].src != edges[j].src {
				return edges[i].src < edges[j].src
			}
			return edges[i].dst < edges[j].dst
		})
		lines = append(lines, "Call Graph:")
		for _, edge := range capEdges(edges, 10) {
			lines = append(lines, edge.src+" -> "+edge.dst)
		}
	}
	if len(lines) == 0 {
		lines = []string{"(no symbols detected)"}
	}

	lines, truncated := limitSemanticLines(lines)
	kind := "callgraph"
	if len(classes) > 0 {
		kind = "uml+callgraph"
	}
	return models.SemanticMap{
		Kind:      kind,
		Lines:     lines,
		NodeCount: len(funcs) + len(classes),
		EdgeCount: len(edgeSet),
		Truncated: truncated,
	}
}

func capEdges(edges []callEdge, limit int) []callEdge {
	if len(edges) > limit {
		return edges[:limit]
	}
	return edges
}
