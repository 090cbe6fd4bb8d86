package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/Carreau/pyflyby/internal/builtins"
	"github.com/Carreau/pyflyby/internal/config"
	"github.com/Carreau/pyflyby/internal/importdb"
	"github.com/Carreau/pyflyby/internal/interp"
	"github.com/Carreau/pyflyby/internal/mode"
	"github.com/Carreau/pyflyby/internal/parse"
)

// seemsLikeFilename reports whether arg could plausibly name a source
// file: only shell-safe path characters, and either a recognized source
// extension, an explicit path prefix, or an existing file.
func seemsLikeFilename(arg string) bool {
	if arg == "" || !safePathChars(arg) {
		return false
	}
	for _, ext := range config.SourceFileExtensions {
		if strings.HasSuffix(arg, ext) {
			return true
		}
	}
	if strings.HasPrefix(arg, "/") || strings.HasPrefix(arg, "./") || strings.HasPrefix(arg, "../") {
		return true
	}
	_, err := os.Stat(arg)
	return err == nil
}

func safePathChars(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '.' || r == '/' || r == '~' || r == '+':
		default:
			return false
		}
	}
	return true
}

// resolveModule decides whether arg names an importable package. Both
// dotted and slashed forms are accepted; builtins shadow package names.
func resolveModule(db *importdb.DB, arg string) (importdb.Entry, bool) {
	if !identifierPath(arg) {
		return importdb.Entry{}, false
	}
	if _, ok := builtins.Lookup(arg); ok {
		return importdb.Entry{}, false
	}
	path := strings.ReplaceAll(arg, ".", "/")
	name := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		name = path[i+1:]
	}
	e, ok := db.Lookup(name)
	if !ok {
		return importdb.Entry{}, false
	}
	if path != name && e.Path != path {
		return importdb.Entry{}, false
	}
	return e, true
}

// identifierPath reports whether s is identifiers joined by "." or "/".
func identifierPath(s string) bool {
	for _, seg := range strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == '/' }) {
		if !isIdentifier(seg) {
			return false
		}
	}
	return s != "" && !strings.HasPrefix(s, ".") && !strings.HasPrefix(s, "/") &&
		!strings.HasSuffix(s, ".") && !strings.HasSuffix(s, "/")
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// heuristicCmd interprets arg0 with no explicit action flag. The order
// matters: filename before joined-eval so "script.go arg" never parses
// as arithmetic, joined-eval before module/apply so "3 / 4" never tries
// to treat "3" as a module.
func (s *session) heuristicCmd(arg0 string, rest []string) int {
	if seemsLikeFilename(arg0) {
		return s.runFile(arg0, rest)
	}

	if joined, ok := s.joinedEval(arg0, rest); ok {
		return s.runCode(joined, nil)
	}

	if e, ok := resolveModule(s.db, arg0); ok {
		return s.runModule(e, rest)
	}

	b := parse.NewBlock(arg0)
	if !b.Parsable() {
		fmt.Fprintf(s.stderr, "py: could not interpret %q as a filename, module, or expression\n", arg0)
		return 1
	}
	if c, ok := s.ns.LookupCallable(arg0); ok {
		return s.apply(c, rest)
	}
	v, err := s.ns.AutoEval(b, true)
	if err != nil {
		return s.fail(err)
	}
	if c, ok := interp.AsCallable(arg0, v); ok {
		return s.apply(c, rest)
	}
	code := s.finish(v)
	if len(rest) > 0 {
		fmt.Fprintf(s.stderr, "py: %s is not callable; unexpected arguments: %s\n",
			arg0, strings.Join(rest, " "))
		return 1
	}
	return code
}

// joinedEval checks the calculator heuristic: all tokens concatenated
// form one parsable unit whose free names all resolve, and no residual
// token looks like a flag or is blank.
func (s *session) joinedEval(arg0 string, rest []string) (*parse.Block, bool) {
	if s.argMode == mode.ArgString || len(rest) == 0 {
		return nil, false
	}
	for _, t := range rest {
		if strings.HasPrefix(t, "-") || strings.TrimSpace(t) == "" {
			return nil, false
		}
	}
	b := parse.Join(append([]string{arg0}, rest...))
	if !b.Parsable() || len(s.ns.Missing(b)) > 0 {
		return nil, false
	}
	return b, true
}
