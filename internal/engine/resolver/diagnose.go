package resolver

import (
	"fmt"

	coreerrors "pathres/internal/core/errors"
	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
)

// Diagnose classifies the outcome of resolving path for diagnostics
// consumers. It returns nil for a clean single resolution. Every failure is
// a *errors.DomainError carrying the path text and location.
func (r *Resolver) Diagnose(path *parser.Path) error {
	res := r.Resolve(path)
	var err error
	switch {
	case len(res) == 0:
		err = coreerrors.New(coreerrors.CodeUnresolved, fmt.Sprintf("unresolved reference `%s`", path.Name))
	case len(res) > 1:
		err = coreerrors.AddContext(
			coreerrors.New(coreerrors.CodeAmbiguous, fmt.Sprintf("`%s` is ambiguous", path.Name)),
			coreerrors.CtxCount, len(res))
	default:
		err = r.diagnoseSingle(res[0].BoundElement, path)
	}
	if err == nil {
		return nil
	}
	err = coreerrors.AddContext(err, coreerrors.CtxPath, path.Text())
	return coreerrors.AddContext(err, coreerrors.CtxLocation, fmt.Sprintf("%s:%d:%d", path.Location.File, path.Location.Line, path.Location.Column))
}

func (r *Resolver) diagnoseSingle(b BoundElement, path *parser.Path) error {
	d := r.graph.Decl(b.Decl)
	if d.Kind == graph.KindTypeAlias {
		if _, ok := r.ChaseAlias(b); !ok {
			return coreerrors.AddContext(
				coreerrors.New(coreerrors.CodeCyclicAlias, fmt.Sprintf("type alias `%s` is cyclic", d.Name)),
				coreerrors.CtxSymbol, r.graph.QualifiedName(d.ID))
		}
	}
	if args := path.TypeArgs; args != nil && d.IsGeneric() && d.Kind != graph.KindImpl {
		if len(args.Types) > len(d.TypeParams) || len(args.Lifetimes) > len(d.LifetimeParams) || len(args.Consts) > len(d.ConstParams) {
			return coreerrors.AddContext(
				coreerrors.New(coreerrors.CodeMalformedArguments, fmt.Sprintf("too many generic arguments for `%s`", d.Name)),
				coreerrors.CtxSymbol, r.graph.QualifiedName(d.ID))
		}
	}
	return nil
}
