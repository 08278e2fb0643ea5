package app

import (
	_ "embed"
	"sync"

	"pathres/internal/core/errors"
	"pathres/internal/engine/parser"
)

// StdCrateName is the name the built-in standard library is loaded under.
const StdCrateName = "std"

// StdPrelude is the prelude module of the built-in standard library.
const StdPrelude = "std::prelude::v1"

//go:embed std/lib.rs
var stdSource []byte

var (
	stdOnce  sync.Once
	stdCrate *parser.Crate
	stdErr   error
)

// StdCrate returns the built-in standard library crate. It is parsed once
// and shared read-only by every snapshot; its references are not reported.
func StdCrate(p *parser.Parser) (*parser.Crate, error) {
	stdOnce.Do(func() {
		file, err := p.ParseFile("<builtin>/std/lib.rs", stdSource)
		if err != nil {
			stdErr = err
			return
		}
		if len(file.Errors) > 0 {
			stdErr = errors.AddContext(errors.New(errors.CodeInternal, "built-in std source has syntax errors"), errors.CtxLocation, file.Errors[0])
			return
		}
		stdCrate = &parser.Crate{
			Name:    StdCrateName,
			Edition: "2021",
			Root: &parser.Item{
				ID:    file.Module,
				Kind:  parser.ItemMod,
				Name:  StdCrateName,
				Vis:   parser.Visibility{Kind: parser.VisPublic},
				Items: file.Items,
			},
		}
	})
	return stdCrate, stdErr
}
