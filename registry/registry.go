// Package registry maps fully qualified function names to their compiled
// *types.Function values. It is populated once at load time by the parser
// and is read-only for the remainder of the VM's lifetime, per spec §3's
// invariant.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mScule/stall/lang/parser"
	"github.com/mScule/stall/lang/types"
)

// Registry is a read-after-load mapping from registered function name to
// function value.
type Registry struct {
	funcs map[string]*types.Function
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{funcs: make(map[string]*types.Function)}
}

// Register adds fn under name. It fails if name is already registered,
// preserving the "globally unique within the registry" invariant.
func (r *Registry) Register(name string, fn *types.Function) error {
	if _, exists := r.funcs[name]; exists {
		return fmt.Errorf("registry: duplicate function name %q", name)
	}
	r.funcs[name] = fn
	return nil
}

// Lookup returns the function registered under name, or (nil, false).
func (r *Registry) Lookup(name string) (*types.Function, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadSource parses src and registers every top-level function it defines,
// each name prefixed with prefix.
func (r *Registry) LoadSource(src, prefix string) error {
	fns, err := parser.New(src, prefix).ParseAll()
	if err != nil {
		return err
	}
	for _, nf := range fns {
		if err := r.Register(nf.Name, nf.Fn); err != nil {
			return err
		}
	}
	return nil
}

// LoadFiles walks root for *.funcs files and loads each one, namespacing
// its functions with a prefix derived from the file's path relative to
// root: a file "mod.funcs" at root itself gets the prefix "mod.", and a file
// at "sub/dir/mod.funcs" gets the prefix "sub/dir/mod.", matching spec §4.4's
// "used for namespacing by source-file path".
func LoadFiles(root string) (*Registry, error) {
	r := New()
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".funcs") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	for _, path := range files {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, err
		}
		prefix := modulePrefix(rel)

		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := r.LoadSource(string(b), prefix); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return r, nil
}

// modulePrefix turns "sub/dir/mod.funcs" into "sub/dir/mod.", and
// "mod.funcs" at the root into "mod.". It always uses '/' as the separator,
// regardless of host OS path conventions, so registered names are portable.
func modulePrefix(rel string) string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return rel + "."
}
