package analyzer

import (
	"context"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/TingjiaInFuture/pixrep/analyzer/models"
)

const moduleScope = "(module)"

type callEdge struct {
	src string
	dst string
}

// pyCollector accumulates one file's classes, functions and call edges
// in a single pass over the syntax tree. One collector per file; it is
// never shared across workers.
type pyCollector struct {
	src          []byte
	classStack   []string
	funcDepth    int
	classOrder   []string
	classMethods map[string][]string
	moduleFuncs  map[string]struct{}
	qualified    map[string]struct{}
	inherits     []callEdge
	scope        []string
	edges        map[callEdge]struct{}
}

func newPyCollector(src []byte) *pyCollector {
	return &pyCollector{
		src:          src,
		classMethods: make(map[string][]string),
		moduleFuncs:  make(map[string]struct{}),
		qualified:    make(map[string]struct{}),
		scope:        []string{moduleScope},
		edges:        make(map[callEdge]struct{}),
	}
}

// buildPythonSemanticMap parses one Python file with tree-sitter and
// derives a UML block plus a call graph restricted to known symbols.
// A parser failure yields the one-line sentinel, never an error.
func buildPythonSemanticMap(content string) models.SemanticMap {
	src := []byte(strings.TrimPrefix(content, "\ufeff"))

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil || tree == nil {
		return parseFailedMap()
	}
	defer tree.Close()

	collector := newPyCollector(src)
	collector.walk(tree.RootNode())

	defined := make(map[string]struct{}, len(collector.moduleFuncs)+len(collector.qualified))
	for name := range collector.moduleFuncs {
		defined[name] = struct{}{}
	}
	for name := range collector.qualified {
		defined[name] = struct{}{}
	}

	var edges []callEdge
	for edge := range collector.edges {
		if _, ok := defined[edge.dst]; ok {
			edges = append(edges, edge)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].src != edges[j].src {
			return edges[i].src < edges[j].src
		}
		return edges[i].dst < edges[j].dst
	})

	var lines []string
	if len(collector.classOrder) > 0 {
		lines = append(lines, "UML:")
		for _, className := range capStrings(collector.classOrder, 6) {
			lines = append(lines, "[Class] "+className)
			for _, method := range capStrings(collector.classMethods[className], 4) {
				lines = append(lines, "  - "+method+"()")
			}
		}
		for i, rel := range collector.inherits {
			if i >= 6 {
				break
			}
			lines = append(lines, rel.src+" <|-- "+rel.dst)
		}
	}
	if len(edges) > 0 {
		lines = append(lines, "Call Graph:")
		for i, edge := range edges {
			if i >= 10 {
				break
			}
			lines = append(lines, edge.src+" -> "+edge.dst)
		}
	}
	if len(lines) == 0 {
		lines = []string{"(no classes/functions detected)"}
	}

	lines, truncated := limitSemanticLines(lines)
	kind := "callgraph"
	if len(collector.classOrder) > 0 {
		kind = "uml+callgraph"
	}
	return models.SemanticMap{
		Kind:      kind,
		Lines:     lines,
		NodeCount: len(defined),
		EdgeCount: len(edges),
		Truncated: truncated,
	}
}

// walk dispatches on node kind, threading class/scope state through the
// collector rather than sharing visitor instances.
func (c *pyCollector) walk(node *sitter.Node) {
	switch node.Type() {
	case "class_definition":
		name := c.text(node.ChildByFieldName("name"))
		if name != "" {
			if _, seen := c.classMethods[name]; !seen {
				c.classOrder = append(c.classOrder, name)
				c.classMethods[name] = []string{}
			}
			if superclasses := node.ChildByFieldName("superclasses"); superclasses != nil {
				for i := 0; i < int(superclasses.NamedChildCount()); i++ {
					if base := c.astName(superclasses.NamedChild(i)); base != "" {
						c.inherits = append(c.inherits, callEdge{src: name, dst: base})
					}
				}
			}
			c.classStack = append(c.classStack, name)
			c.walkChildren(node)
			c.classStack = c.classStack[:len(c.classStack)-1]
			return
		}
	case "function_definition":
		name := c.text(node.ChildByFieldName("name"))
		if name != "" {
			current := c.recordFunction(name)
			c.scope = append(c.scope, current)
			c.funcDepth++
			c.walkChildren(node)
			c.funcDepth--
			c.scope = c.scope[:len(c.scope)-1]
			return
		}
	case "call":
		if callee := c.callName(node.ChildByFieldName("function")); callee != "" {
			c.edges[callEdge{src: c.scope[len(c.scope)-1], dst: callee}] = struct{}{}
		}
	}
	c.walkChildren(node)
}

func (c *pyCollector) walkChildren(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		c.walk(node.NamedChild(i))
	}
}

// recordFunction classifies a definition as direct method, module
// function, or nested function, and returns its scope name. Nested
// functions get a qualified name for scope tracking but do not join the
// defined-symbol set used to keep call edges.
func (c *pyCollector) recordFunction(name string) string {
	if len(c.classStack) > 0 && c.funcDepth == 0 {
		class := c.classStack[len(c.classStack)-1]
		c.classMethods[class] = append(c.classMethods[class], name)
		qualified := class + "." + name
		c.qualified[qualified] = struct{}{}
		return qualified
	}
	if len(c.classStack) == 0 && c.funcDepth == 0 {
		c.moduleFuncs[name] = struct{}{}
		return name
	}
	parent := c.scope[len(c.scope)-1]
	if parent == moduleScope {
		return name
	}
	return parent + "." + name
}

// callName resolves a call expression to a symbolic callee. Receiver
// attribute calls resolve through the conventional self/cls receiver or
// through a known class-like name; everything else is dropped.
func (c *pyCollector) callName(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case "identifier":
		return c.text(node)
	case "attribute":
		owner := node.ChildByFieldName("object")
		method := c.text(node.ChildByFieldName("attribute"))
		if owner == nil || owner.Type() != "identifier" || method == "" {
			return ""
		}
		ownerName := c.text(owner)
		if (ownerName == "self" || ownerName == "cls") && len(c.classStack) > 0 {
			return c.classStack[len(c.classStack)-1] + "." + method
		}
		if _, ok := c.classMethods[ownerName]; ok {
			return ownerName + "." + method
		}
	}
	return ""
}

// astName reduces a base-class expression to a display name: bare
// identifiers directly, attribute accesses to their final attribute.
func (c *pyCollector) astName(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case "identifier":
		return c.text(node)
	case "attribute":
		return c.text(node.ChildByFieldName("attribute"))
	}
	return ""
}

func (c *pyCollector) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.src[node.StartByte():node.EndByte()])
}

func capStrings(values []string, limit int) []string {
	if len(values) > limit {
		return values[:limit]
	}
	return values
}
