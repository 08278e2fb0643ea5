package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pathres/internal/core/errors"
	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
	"pathres/internal/engine/refactor"
	"pathres/internal/engine/resolver"
	"pathres/internal/engine/types"
)

func newSettersCmd(opts *globalOptions) *cobra.Command {
	var (
		fields []string
		substs []string
	)
	cmd := &cobra.Command{
		Use:   "setters <struct>",
		Short: "Generate set_<field> methods for a struct",
		Example: `  pathres setters my_crate::shapes::Circle
  pathres setters my_crate::Wrapper --field inner --subst T=Vec<u8>`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close(context.Background())

			return s.app.Edit(func(_ *graph.Writer, r *resolver.Resolver) error {
				snap := r.Snapshot()
				id, err := singleDecl(snap, args[0])
				if err != nil {
					return err
				}
				d := snap.Decl(id)
				subst, err := parseSubstitution(r, d, substs)
				if err != nil {
					return err
				}
				names := fields
				if len(names) == 0 && d.Item != nil {
					for _, f := range d.Item.Fields {
						names = append(names, f.Name)
					}
				}
				setters, err := refactor.GenerateSetters(s.app.Tracker, r, id, subst, names)
				if err != nil {
					return err
				}
				fmt.Fprintln(opts.out, codeStyle.Render(strings.TrimRight(refactor.ImplBlock(d, setters), "\n")))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&fields, "field", nil, "Field to generate a setter for (repeatable; default: all)")
	cmd.Flags().StringArrayVar(&substs, "subst", nil, "Type parameter binding PARAM=TYPE (repeatable)")
	return cmd
}

// parseSubstitution binds the struct's type parameters from PARAM=TYPE
// pairs. Types are lowered in the struct's module.
func parseSubstitution(r *resolver.Resolver, d *graph.Decl, pairs []string) (types.Substitution, error) {
	if len(pairs) == 0 {
		return types.EmptySubst, nil
	}
	snap := r.Snapshot()
	params := make(map[string]graph.DeclID, len(d.TypeParams))
	for _, p := range d.TypeParams {
		params[snap.Decl(p).Name] = p
	}
	mod := snap.Decl(d.Module)
	if mod == nil || mod.Item == nil {
		return types.EmptySubst, errors.New(errors.CodeInternal, "struct has no enclosing module")
	}
	scope := snap.ModuleScope(d.Module)

	bound := make(map[types.DefID]types.TypeArg, len(pairs))
	for _, pair := range pairs {
		name, text, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return types.EmptySubst, errors.AddContext(errors.New(errors.CodeMalformedArguments, "substitution must be PARAM=TYPE"), errors.CtxOperation, pair)
		}
		param, found := params[name]
		if !found {
			err := errors.New(errors.CodeNotFound, fmt.Sprintf("%s has no type parameter %s", d.Name, name))
			return types.EmptySubst, errors.AddContext(err, errors.CtxSymbol, name)
		}
		ref, err := parser.ParseType(strings.TrimSpace(text), mod.Item.ID)
		if err != nil {
			return types.EmptySubst, errors.AddContext(errors.Wrap(err, errors.CodeMalformedArguments, "parse type"), errors.CtxOperation, pair)
		}
		bound[param] = types.Concrete(r.LowerType(ref, scope))
	}
	return types.NewSubstitution(bound, nil, nil), nil
}
