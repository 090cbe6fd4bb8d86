package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/Carreau/pyflyby/internal/config"
	"github.com/Carreau/pyflyby/internal/sig"
)

// Documented is implemented by callables that carry a description.
type Documented interface {
	Doc() string
}

// Sourced is implemented by callables whose definition can be shown.
type Sourced interface {
	SourceText() string
}

// usageString renders the two command-line syntaxes for a callable:
// positional form and keyword form. Defaulted parameters are bracketed.
func usageString(c sig.Callable) string {
	s := c.Signature()
	name := c.Name()
	if s.IsOpaque() {
		return fmt.Sprintf("Usage:\n  py %s [args...]\n", name)
	}

	var pos, kw []string
	for _, p := range s.Params() {
		if _, ok := s.Default(p); ok {
			pos = append(pos, "["+p+"]")
			kw = append(kw, fmt.Sprintf("[--%s=...]", p))
		} else {
			pos = append(pos, p)
			kw = append(kw, fmt.Sprintf("--%s=...", p))
		}
	}
	if s.HasVarArgs() {
		pos = append(pos, s.VarArgsName()+"...")
	}

	var sb strings.Builder
	sb.WriteString("Usage:\n")
	fmt.Fprintf(&sb, "  py %s %s\n", name, strings.Join(pos, " "))
	if len(kw) > 0 {
		fmt.Fprintf(&sb, "  py %s %s\n", name, strings.Join(kw, " "))
	}
	return sb.String()
}

// printHelp writes a callable's documentation. Verbosity 1 is signature,
// doc, and usage; verbosity 2 adds the definition source.
func printHelp(w io.Writer, c sig.Callable, verbosity int) {
	fmt.Fprintln(w, c.Signature().FormatCallSpec(c.Name()))
	if d, ok := c.(Documented); ok && d.Doc() != "" {
		fmt.Fprintf(w, "\n%s\n", d.Doc())
	}
	fmt.Fprintf(w, "\n%s", usageString(c))
	if verbosity >= 2 {
		if src, ok := c.(Sourced); ok && src.SourceText() != "" {
			fmt.Fprintf(w, "\n%s\n", src.SourceText())
		} else {
			fmt.Fprintf(w, "\nsource for %s is not available\n", c.Name())
		}
	}
}

func generalUsage(w io.Writer) {
	fmt.Fprintf(w, `py %s -- run Go snippets from the shell

Usage:
  py EXPRESSION...             evaluate code, auto-importing free names
  py FILE ARGS...              run a source file (argv available to it)
  py FUNCTION ARG...           call a function; --name=value binds keywords
  py -c CODE [ARGS...]         evaluate CODE with ARGS as argv
  py -m PACKAGE                import a package and describe it
  py FUNCTION?                 show help for a function
  py FUNCTION??                show its definition

Global options (before the action):
  --args=string|eval|auto      how argument tokens are interpreted
  --output=MODE                silent, str, repr, pprint, interactive,
                               repr-if-not-none, pprint-if-not-none, exit
  --print --pprint --repr --silent
                               shorthands for --output
  --safe                       ignore the import database environment
  --quiet -q                   errors only
  --verbose                    debug logging
`, config.Version)
}
