// # internal/engine/parser/parser.go
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"pathres/internal/core/errors"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

// RustLanguage is the tree-sitter grammar all parsing uses.
var RustLanguage = sitter.NewLanguage(tree_sitter_rust.Language())

// Parser turns Rust source files into the syntax model. It is safe for
// concurrent use.
type Parser struct {
	pool      *ParserPool
	extractor *RustExtractor
}

func NewParser() *Parser {
	return &Parser{
		pool:      NewParserPool(RustLanguage),
		extractor: NewRustExtractor(),
	}
}

// ParseFile parses a file whose items get a fresh module node id.
func (p *Parser) ParseFile(path string, content []byte) (*File, error) {
	return p.ParseModule(path, content, NextNodeID())
}

// ParseModule parses the body of a module whose node id is already known,
// such as the file behind `mod name;`.
func (p *Parser) ParseModule(path string, content []byte, module NodeID) (*File, error) {
	if !p.IsSupportedPath(path) {
		return nil, errors.AddContext(
			errors.New(errors.CodeNotSupported, fmt.Sprintf("not a Rust source file: %s", filepath.Base(path))),
			errors.CtxPath, path)
	}

	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeInternal, "parse failed"), errors.CtxPath, path)
	}
	defer tree.Close()

	return p.extractor.Extract(tree.RootNode(), content, path, module), nil
}

func (p *Parser) IsSupportedPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".rs")
}


// ActiveParses returns the number of parses in progress.
func (p *Parser) ActiveParses() int {
	return p.pool.Stats()
}
