// Package interp owns the evaluation environment: a process-lifetime
// interpreter namespace with automatic importing. Free names in a code
// fragment are resolved against the known-imports database and imported
// before evaluation; names that cannot be resolved are reported, not
// guessed at.
package interp

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/Carreau/pyflyby/internal/importdb"
	"github.com/Carreau/pyflyby/internal/logging"
	"github.com/Carreau/pyflyby/internal/parse"
	"github.com/Carreau/pyflyby/internal/sig"
)

// UnimportableError reports names that remained unresolved after an
// auto-import attempt.
type UnimportableError struct {
	Names []string
}

func (e *UnimportableError) Error() string {
	quoted := make([]string, len(e.Names))
	for i, n := range e.Names {
		quoted[i] = strconv.Quote(n)
	}
	if len(e.Names) == 1 {
		return fmt.Sprintf("name %s is not defined and not importable", quoted[0])
	}
	return fmt.Sprintf("names %s are not defined and not importable", strings.Join(quoted, ", "))
}

// Namespace is the mutable evaluation environment for one invocation.
// Not safe for concurrent use; each process creates exactly one.
type Namespace struct {
	i            *interp.Interpreter
	db           *importdb.DB
	autoImported map[string]bool
	callables    map[string]sig.Callable
	injected     int
}

// NewNamespace creates the interpreter, loads the standard library symbol
// index into the import database, and performs any mandatory imports.
func NewNamespace(db *importdb.DB) (*Namespace, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading stdlib symbols: %w", err)
	}
	ns := &Namespace{
		i:            i,
		db:           db,
		autoImported: map[string]bool{},
		callables:    map[string]sig.Callable{},
	}
	IndexStdlib(db)
	for _, path := range db.Mandatory() {
		if err := ns.importPath(pkgName(path), path); err != nil {
			return nil, fmt.Errorf("mandatory import %s: %w", path, err)
		}
	}
	return ns, nil
}

// IndexStdlib registers every standard-library package name in db.
// Keys in the interpreter symbol table look like "encoding/json/json";
// the trailing element is the identifier code refers to. Sorted insertion
// with first-wins keeps colliding names (template, rand, ...)
// deterministic.
func IndexStdlib(db *importdb.DB) {
	keys := make([]string, 0, len(stdlib.Symbols))
	for k := range stdlib.Symbols {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		slash := strings.LastIndex(k, "/")
		if slash < 0 {
			continue
		}
		path, name := k[:slash], k[slash+1:]
		if _, exists := db.Lookup(name); !exists {
			db.AddPackage(name, path)
		}
	}
}

func pkgName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// RegisterCallable makes a named callable available both to the apply
// path (with its full signature) and to evaluated code (as its native
// function value).
func (ns *Namespace) RegisterCallable(c sig.Callable, native any) error {
	ns.callables[c.Name()] = c
	if native != nil {
		if err := ns.Define(c.Name(), native); err != nil {
			return err
		}
	}
	return nil
}

// LookupCallable returns a registered callable by name.
func (ns *Namespace) LookupCallable(name string) (sig.Callable, bool) {
	c, ok := ns.callables[name]
	return c, ok
}

// Define binds a compiled-in value to a name in the interpreter's global
// scope.
func (ns *Namespace) Define(name string, v any) error {
	ns.injected++
	pkg := fmt.Sprintf("pyflyby/inject%d", ns.injected)
	alias := fmt.Sprintf("inject%d", ns.injected)
	exports := interp.Exports{
		pkg + "/" + alias: {"Value": reflect.ValueOf(v)},
	}
	if err := ns.i.Use(exports); err != nil {
		return fmt.Errorf("binding %s: %w", name, err)
	}
	src := fmt.Sprintf("import %s %q\nvar %s = %s.Value\n", alias, pkg, name, alias)
	if _, err := ns.i.Eval(src); err != nil {
		return fmt.Errorf("binding %s: %w", name, err)
	}
	return nil
}

// isDefined reports whether name currently evaluates in the namespace.
func (ns *Namespace) isDefined(name string) bool {
	if ns.autoImported[name] {
		return true
	}
	if _, ok := ns.callables[name]; ok {
		return true
	}
	_, err := ns.i.Eval(name)
	return err == nil
}

// Missing returns the free names of b that neither the namespace nor the
// import database can resolve. It never mutates the namespace; this is
// the probe half of auto-evaluation.
func (ns *Namespace) Missing(b *parse.Block) []string {
	var missing []string
	for _, name := range b.FreeIdents() {
		if ns.isDefined(name) {
			continue
		}
		if _, ok := ns.db.Lookup(name); ok {
			continue
		}
		missing = append(missing, name)
	}
	return missing
}

// AutoImport imports every resolvable free name of b that is not already
// defined, and returns the names it could not resolve. Imports performed
// here stay in the namespace for the rest of the process.
func (ns *Namespace) AutoImport(b *parse.Block) ([]string, error) {
	var missing []string
	for _, name := range b.FreeIdents() {
		if ns.isDefined(name) {
			continue
		}
		entry, ok := ns.db.Lookup(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		if err := ns.importPath(name, entry.Path); err != nil {
			return nil, err
		}
	}
	return missing, nil
}

func (ns *Namespace) importPath(name, path string) error {
	var src string
	if pkgName(path) == name {
		src = fmt.Sprintf("import %q", path)
		logging.Info("import %q", path)
	} else {
		src = fmt.Sprintf("import %s %q", name, path)
		logging.Info("import %s %q", name, path)
	}
	if _, err := ns.i.Eval(src); err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}
	ns.autoImported[name] = true
	return nil
}

// Import brings one package into the namespace by explicit request,
// with the same logging and dedup bookkeeping as auto-import.
func (ns *Namespace) Import(name, path string) error {
	if ns.autoImported[name] {
		return nil
	}
	return ns.importPath(name, path)
}

// PackageSymbols returns the exported symbol names of a standard-library
// package known to the interpreter, sorted.
func PackageSymbols(path string) []string {
	exports, ok := stdlib.Symbols[path+"/"+pkgName(path)]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(exports))
	for n := range exports {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AutoImported reports whether name was brought in by auto-import.
func (ns *Namespace) AutoImported(name string) bool {
	return ns.autoImported[name]
}

// AutoEval evaluates b in the namespace with auto-importing. The resolve
// probe runs first, so a doomed evaluation imports nothing.
func (ns *Namespace) AutoEval(b *parse.Block, logInfo bool) (any, error) {
	if !b.Parsable() {
		return nil, &parse.SyntaxError{Source: b.Source}
	}
	if missing := ns.Missing(b); len(missing) > 0 {
		return nil, &UnimportableError{Names: missing}
	}
	if _, err := ns.AutoImport(b); err != nil {
		return nil, err
	}
	if logInfo {
		logging.Info("%s", b.Source)
	}
	return ns.Eval(b.Source)
}

// Eval evaluates src directly, without importing.
func (ns *Namespace) Eval(src string) (any, error) {
	v, err := ns.i.Eval(src)
	if err != nil {
		return nil, err
	}
	if !v.IsValid() {
		return nil, nil
	}
	return v.Interface(), nil
}
