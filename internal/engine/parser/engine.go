package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes a node for the body walker.
// Returns true if the handler has processed children and the walker should stop.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// ExtractionContext carries the state shared by the item extractor and the
// body walker.
type ExtractionContext struct {
	Source []byte
	File   *File
	// Owner is the innermost item or block paths are attached to; Block is
	// the innermost body block, nil outside function bodies.
	Owner NodeID
	Block *Block
}

// ExtractorEngine walks the syntax tree and dispatches node handlers by kind.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}
	if handler, ok := e.handlers[node.Kind()]; ok && handler(ctx, node) {
		return
	}
	e.WalkChildren(ctx, node)
}

// WalkChildren walks the named children of node.
func (e *ExtractorEngine) WalkChildren(ctx *ExtractionContext, node *sitter.Node) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		e.Walk(ctx, node.NamedChild(i))
	}
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

func (c *ExtractionContext) Location(node *sitter.Node) Location {
	return Location{
		File:   c.File.Path,
		Line:   int(node.StartPosition().Row) + 1,
		Column: int(node.StartPosition().Column) + 1,
	}
}

// Field returns the text of a field child, or "".
func (c *ExtractionContext) Field(node *sitter.Node, name string) string {
	if node == nil {
		return ""
	}
	return c.Text(node.ChildByFieldName(name))
}

// HasToken reports whether node has an anonymous child spelled tok.
func HasToken(node *sitter.Node, tok string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); !child.IsNamed() && child.Kind() == tok {
			return true
		}
	}
	return false
}

// collectErrors records the positions of ERROR and MISSING nodes.
func (c *ExtractionContext) collectErrors(node *sitter.Node) {
	if node == nil || !node.HasError() {
		return
	}
	if node.IsError() || node.IsMissing() {
		c.File.Errors = append(c.File.Errors, c.Location(node))
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		c.collectErrors(node.Child(i))
	}
}
