package resolver

import (
	"runtime"
	"sync"

	coreerrors "pathres/internal/core/errors"
	"pathres/internal/engine/parser"
)

// UnresolvedReference is a workspace reference that does not denote exactly
// one well-formed declaration.
type UnresolvedReference struct {
	Path *parser.Path
	Code coreerrors.ErrorCode
	Err  error
}

// FindUnresolved diagnoses every reference of the snapshot, in location
// order.
func (r *Resolver) FindUnresolved() []UnresolvedReference {
	return r.diagnoseAll(r.graph.References())
}

// FindUnresolvedForPaths diagnoses the references written in the given
// files.
func (r *Resolver) FindUnresolvedForPaths(paths []string) []UnresolvedReference {
	want := make(map[string]bool, len(paths))
	for _, p := range paths {
		want[p] = true
	}
	var refs []*parser.Path
	for _, ref := range r.graph.References() {
		if want[ref.Location.File] {
			refs = append(refs, ref)
		}
	}
	return r.diagnoseAll(refs)
}

func (r *Resolver) diagnoseAll(refs []*parser.Path) []UnresolvedReference {
	found := make([]error, len(refs))
	workers := min(runtime.GOMAXPROCS(0), len(refs))
	next := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				found[i] = r.Diagnose(refs[i])
			}
		}()
	}
	for i := range refs {
		next <- i
	}
	close(next)
	wg.Wait()

	var out []UnresolvedReference
	for i, err := range found {
		if err != nil {
			out = append(out, UnresolvedReference{Path: refs[i], Code: coreerrors.CodeOf(err), Err: err})
		}
	}
	return out
}
