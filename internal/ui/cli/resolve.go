package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	coreapp "pathres/internal/core/app"
	"pathres/internal/core/errors"
	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
	"pathres/internal/engine/resolver"
)

// referenceFlags select the reference a command works on: a use site in
// the workspace (--at) or path text parsed in a module (--in).
type referenceFlags struct {
	at      string
	module  string
	context string
}

func (f *referenceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.at, "at", "", "Reference at file:line:column")
	cmd.Flags().StringVar(&f.module, "in", "", "Module the path text is written in, e.g. my_crate::shapes (default: first crate root)")
	cmd.Flags().StringVar(&f.context, "context", "type", "Namespace context of the path text: type, expr, bound, use or macro")
}

// reference returns the reference the flags select. text is the
// positional path argument and must be empty with --at.
func (f *referenceFlags) reference(snap *graph.Snapshot, text string, defaultModule string) (*parser.Path, error) {
	if f.at != "" {
		if text != "" {
			return nil, errors.New(errors.CodeValidationError, "--at cannot be combined with path text")
		}
		file, line, col, err := parseLocation(f.at)
		if err != nil {
			return nil, err
		}
		return coreapp.ReferenceAt(snap, file, line, col)
	}
	if text == "" {
		return nil, errors.New(errors.CodeValidationError, "path text or --at is required")
	}
	ctx, err := parsePathContext(f.context)
	if err != nil {
		return nil, err
	}
	module := f.module
	if module == "" {
		module = defaultModule
	}
	return coreapp.ParseReference(snap, text, module, ctx)
}

func parseLocation(raw string) (string, int, int, error) {
	invalid := errors.AddContext(errors.New(errors.CodeValidationError, "location must be file:line:column"), errors.CtxLocation, raw)
	colSep := strings.LastIndex(raw, ":")
	if colSep <= 0 {
		return "", 0, 0, invalid
	}
	lineSep := strings.LastIndex(raw[:colSep], ":")
	if lineSep <= 0 {
		return "", 0, 0, invalid
	}
	line, err := strconv.Atoi(raw[lineSep+1 : colSep])
	if err != nil || line < 1 {
		return "", 0, 0, invalid
	}
	col, err := strconv.Atoi(raw[colSep+1:])
	if err != nil || col < 1 {
		return "", 0, 0, invalid
	}
	file, err := filepath.Abs(raw[:lineSep])
	if err != nil {
		return "", 0, 0, err
	}
	return file, line, col, nil
}

func parsePathContext(raw string) (parser.PathContext, error) {
	for _, c := range []parser.PathContext{parser.CtxType, parser.CtxExpr, parser.CtxTraitBound, parser.CtxUse, parser.CtxMacro} {
		if c.String() == strings.ToLower(strings.TrimSpace(raw)) {
			return c, nil
		}
	}
	return 0, errors.AddContext(errors.New(errors.CodeValidationError, "unknown path context"), errors.CtxOperation, raw)
}

func newResolveCmd(opts *globalOptions) *cobra.Command {
	var (
		ref        referenceFlags
		publicOnly bool
		deep       bool
	)
	cmd := &cobra.Command{
		Use:   "resolve [path]",
		Short: "Resolve a path to its declarations and generic substitution",
		Example: `  pathres resolve 'Vec<i32>'
  pathres resolve --in my_crate::shapes --context expr 'Circle::new'
  pathres resolve --at src/lib.rs:12:9 --deep`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, opts)
			if err != nil {
				return err
			}
			defer s.Close(context.Background())

			text := ""
			if len(args) == 1 {
				text = args[0]
			}
			return s.app.Query(func(r *resolver.Resolver) error {
				snap := r.Snapshot()
				path, err := ref.reference(snap, text, s.app.Paths.Crates[0].Name)
				if err != nil {
					return err
				}
				return printResolution(opts.out, r, path, publicOnly, deep)
			})
		},
	}
	ref.register(cmd)
	cmd.Flags().BoolVar(&publicOnly, "public", false, "Only report candidates reachable through public paths")
	cmd.Flags().BoolVar(&deep, "deep", false, "Expand Self in impls and chase type aliases")
	return cmd
}

func printResolution(w io.Writer, r *resolver.Resolver, path *parser.Path, publicOnly, deep bool) error {
	snap := r.Snapshot()
	fmt.Fprintln(w, titleStyle.Render(path.Text())+" "+statusStyle.Render(describeLocation(path)))

	if deep {
		b, ok := r.DeepResolve(path)
		if !ok {
			return diagnoseFailure(w, r, path)
		}
		fmt.Fprintln(w, "  "+successStyle.Render("=>")+" "+coreapp.Describe(snap, b))
		return nil
	}

	var results []resolver.Resolved
	if publicOnly {
		results = r.ResolvePublicOnly(path)
	} else {
		results = r.Resolve(path)
	}
	if len(results) == 0 {
		return diagnoseFailure(w, r, path)
	}
	for _, res := range results {
		vis := statusStyle.Render("private")
		if res.IsPublic {
			vis = statusStyle.Render("public")
		}
		d := snap.Decl(res.Decl)
		fmt.Fprintf(w, "  %s %s %s %s\n", successStyle.Render("=>"), d.Kind, coreapp.Describe(snap, res.BoundElement), vis)
	}
	if len(results) > 1 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  %d candidates", len(results))))
	}
	return nil
}

func diagnoseFailure(w io.Writer, r *resolver.Resolver, path *parser.Path) error {
	err := r.Diagnose(path)
	if err == nil {
		err = errors.New(errors.CodeUnresolved, "no single resolution")
	}
	fmt.Fprintln(w, "  "+warnStyle.Render("unresolved"))
	return err
}

func describeLocation(path *parser.Path) string {
	loc := path.Location
	if loc.File == "" {
		return path.Context.String()
	}
	return fmt.Sprintf("%s %s:%d:%d", path.Context, loc.File, loc.Line, loc.Column)
}

func newRebindCmd(opts *globalOptions) *cobra.Command {
	var ref referenceFlags
	cmd := &cobra.Command{
		Use:   "rebind <target> [path]",
		Short: "Print replacement text that makes a reference denote target",
		Long: `Rebind computes the text a reference must be rewritten to so that it
resolves to target, a qualified name such as my_crate::shapes::Square.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close(context.Background())

			text := ""
			if len(args) == 2 {
				text = args[1]
			}
			return s.app.Query(func(r *resolver.Resolver) error {
				snap := r.Snapshot()
				path, err := ref.reference(snap, text, s.app.Paths.Crates[0].Name)
				if err != nil {
					return err
				}
				target, err := singleDecl(snap, args[0])
				if err != nil {
					return err
				}
				replacement, ok := r.Rebind(path, target)
				if !ok {
					return errors.AddContext(errors.New(errors.CodeNotSupported, "target cannot be referenced by path"), errors.CtxSymbol, args[0])
				}
				fmt.Fprintf(opts.out, "%s %s %s\n", path.Text(), statusStyle.Render("->"), successStyle.Render(replacement))
				return nil
			})
		},
	}
	ref.register(cmd)
	return cmd
}

func singleDecl(snap *graph.Snapshot, name string) (graph.DeclID, error) {
	ids := coreapp.DeclByQualifiedName(snap, name)
	switch len(ids) {
	case 0:
		return 0, errors.AddContext(errors.New(errors.CodeNotFound, "declaration not found"), errors.CtxSymbol, name)
	case 1:
		return ids[0], nil
	default:
		err := errors.AddContext(errors.New(errors.CodeAmbiguous, "several declarations share this name"), errors.CtxSymbol, name)
		return 0, errors.AddContext(err, errors.CtxCount, len(ids))
	}
}
