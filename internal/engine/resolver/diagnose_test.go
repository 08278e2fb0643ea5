package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "pathres/internal/core/errors"
	"pathres/internal/engine/parser"
)

func TestDiagnose(t *testing.T) {
	main := fnItem(t, "main", priv)
	root := parser.NewModule("app", pub,
		parser.NewModule("a", pub, structItem(t, "Dup", pub)),
		parser.NewModule("b", pub, structItem(t, "Dup", pub)),
		structItem(t, "W", pub, "T"),
		aliasItem(t, "Loop", "Loop"),
		main,
	)
	useItem(t, root, priv, "a::*", "")
	useItem(t, root, priv, "b::*", "")
	_, r := build(&parser.Crate{Name: "app", Edition: "2021", Root: root})

	tests := []struct {
		src  string
		code coreerrors.ErrorCode
	}{
		{"W<u8>", ""},
		{"Nope", coreerrors.CodeUnresolved},
		{"Dup", coreerrors.CodeAmbiguous},
		{"Loop", coreerrors.CodeCyclicAlias},
		{"W<u8, u16>", coreerrors.CodeMalformedArguments},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p := mustPath(t, tt.src, parser.CtxType, main.ID)
			p.Location = parser.Location{File: "src/lib.rs", Line: 3, Column: 9}
			err := r.Diagnose(p)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.code, coreerrors.CodeOf(err))

			var de *coreerrors.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.src, de.Context[coreerrors.CtxPath])
			assert.Equal(t, "src/lib.rs:3:9", de.Context[coreerrors.CtxLocation])
		})
	}
}

func TestFindUnresolved(t *testing.T) {
	main := fnItem(t, "main", priv)
	root := parser.NewModule("app", pub, structItem(t, "W", pub, "T"), main)

	ref := func(src, file string, line int) *parser.Path {
		p := mustPath(t, src, parser.CtxType, main.ID)
		p.Location = parser.Location{File: file, Line: line, Column: 5}
		return p
	}
	refs := []*parser.Path{
		ref("W<u8>", "src/lib.rs", 1),
		ref("Nope", "src/lib.rs", 2),
		ref("W<u8, u8>", "src/other.rs", 1),
		ref("Vec<i32>", "src/other.rs", 2),
	}
	crate := &parser.Crate{Name: "app", Edition: "2021", Root: root, References: refs}
	_, r := build(crate, stdCrate(t))

	all := r.FindUnresolved()
	require.Len(t, all, 2)
	assert.Same(t, refs[1], all[0].Path)
	assert.Equal(t, coreerrors.CodeUnresolved, all[0].Code)
	assert.Same(t, refs[2], all[1].Path)
	assert.Equal(t, coreerrors.CodeMalformedArguments, all[1].Code)

	other := r.FindUnresolvedForPaths([]string{"src/other.rs"})
	require.Len(t, other, 1)
	assert.Same(t, refs[2], other[0].Path)

	assert.Empty(t, r.FindUnresolvedForPaths(nil))
}
