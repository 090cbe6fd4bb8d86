// Package bind maps a flat list of shell tokens onto a callable's
// parameter list: positional tokens in order, --name=value options with
// unambiguous prefix abbreviation, "-" for stdin, "--" for literal
// strings. Every consumed token passes through exactly one parse step.
package bind

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/Carreau/pyflyby/internal/interp"
	"github.com/Carreau/pyflyby/internal/mode"
	"github.com/Carreau/pyflyby/internal/sig"
)

// Outcome tags a binder result. Help and source requests abort parsing
// and are consumed by the binder's caller; they are not errors.
type Outcome int

const (
	Bound Outcome = iota
	WantHelp
	WantSource
)

// Result is the binder's tagged result. Args and Kwargs are fully
// resolved values, ready to pass to the callable.
type Result struct {
	Outcome Outcome
	Args    []any
	Kwargs  map[string]any
}

// token is a raw positional token, with literal marking for values that
// bypass the arg mode (stdin content, everything after "--").
type token struct {
	raw     string
	literal bool
}

// Bind parses tokens against signature. stdin backs the "-" token and is
// read at most once, in full.
func Bind(signature *sig.Signature, tokens []string, ns *interp.Namespace, m mode.ArgMode, stdin io.Reader) (*Result, error) {
	defaults := signature
	params := signature.Params()

	// Prefix index: every non-empty prefix of each declared name maps to
	// the names carrying it, enabling unambiguous abbreviation.
	prefixIndex := map[string][]string{}
	declared := map[string]bool{}
	for _, p := range params {
		declared[p] = true
		for i := 1; i <= len(p); i++ {
			prefixIndex[p[:i]] = append(prefixIndex[p[:i]], p)
		}
	}

	var posTokens []token
	kwTokens := map[string]token{}

	rest := append([]string(nil), tokens...)
	for len(rest) > 0 {
		arg := rest[0]
		rest = rest[1:]
		switch arg {
		case "?", "-?", "--?":
			return &Result{Outcome: WantHelp}, nil
		case "??", "-??", "--??":
			return &Result{Outcome: WantSource}, nil
		}
		if !strings.HasPrefix(arg, "-") {
			posTokens = append(posTokens, token{raw: arg})
			continue
		}
		if arg == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("reading stdin: %w", err)
			}
			posTokens = append(posTokens, token{raw: string(data), literal: true})
			continue
		}
		if arg == "--" {
			for _, t := range rest {
				posTokens = append(posTokens, token{raw: t, literal: true})
			}
			rest = nil
			continue
		}

		name := strings.TrimPrefix(arg, "-")
		name = strings.TrimPrefix(name, "-")
		name, eq, value := cutOption(name)
		name = strings.ReplaceAll(name, "-", "_")
		if !isIdentifier(name) {
			return nil, parseErrorf(ErrInvalidOption, "invalid option name %s", name)
		}
		// Exact declared names always win; being a prefix of a longer
		// parameter never makes the full name ambiguous.
		if !declared[name] {
			switch candidates := prefixIndex[name]; len(candidates) {
			case 1:
				name = candidates[0]
			case 0:
				if !eq {
					switch name {
					case "help", "h":
						return &Result{Outcome: WantHelp}, nil
					case "source":
						return &Result{Outcome: WantSource}, nil
					}
				}
				if !signature.AcceptsAnyKeyword() {
					return nil, parseErrorf(ErrUnknownOption, "unknown option name %s", name)
				}
				// Kept verbatim as a new keyword slot.
			default:
				opts := make([]string, len(candidates))
				for i, c := range candidates {
					opts[i] = "--" + c
				}
				return nil, parseErrorf(ErrAmbiguousOption,
					"ambiguous %s: could mean one of: %s", name, strings.Join(opts, ", "))
			}
		}
		if !eq {
			if len(rest) == 0 {
				return nil, parseErrorf(ErrMissingValue, "missing argument to %s", arg)
			}
			value = rest[0]
			rest = rest[1:]
			if strings.HasPrefix(value, "--") {
				return nil, parseErrorf(ErrMissingValue,
					"missing argument to %s.  If you really want to use %q as the argument to %s, then use %s=%s",
					arg, value, arg, arg, value)
			}
		}
		if _, dup := kwTokens[name]; dup {
			return nil, parseErrorf(ErrDuplicateBinding, "option %s specified more than once", name)
		}
		kwTokens[name] = token{raw: value}
	}

	// Reconcile positional tokens against the declared parameter list.
	res := &Result{Outcome: Bound, Kwargs: map[string]any{}}
	for i, name := range params {
		switch {
		case i < len(posTokens):
			if kw, ok := kwTokens[name]; ok {
				return nil, parseErrorf(ErrDuplicateBinding,
					"%s specified both as positional argument (%s) and keyword argument (%s)",
					name, posTokens[i].raw, kw.raw)
			}
			v, err := resolveToken(posTokens[i], ns, m)
			if err != nil {
				return nil, err
			}
			res.Args = append(res.Args, v)
		default:
			if kw, ok := kwTokens[name]; ok {
				delete(kwTokens, name)
				v, err := resolveToken(kw, ns, m)
				if err != nil {
					return nil, err
				}
				res.Args = append(res.Args, v)
				continue
			}
			d, ok := defaults.Default(name)
			if !ok {
				return nil, parseErrorf(ErrMissingArgument, "missing required argument %s", name)
			}
			res.Args = append(res.Args, d)
		}
	}

	// Excess positional tokens feed the variadic slot, if any.
	if len(posTokens) > len(params) {
		if !signature.HasVarArgs() {
			raws := make([]string, 0, len(posTokens))
			for _, t := range posTokens {
				raws = append(raws, t.raw)
			}
			return nil, parseErrorf(ErrTooManyArguments,
				"too many positional arguments.  Expected %s positional argument(s): %s.  Got %d args: %s",
				signature.ExpectedCount(), strings.Join(params, ", "),
				len(posTokens), strings.Join(raws, " "))
		}
		for _, t := range posTokens[len(params):] {
			v, err := resolveToken(t, ns, m)
			if err != nil {
				return nil, err
			}
			res.Args = append(res.Args, v)
		}
	}

	// Remaining keyword tokens are only legal with a variadic-keyword
	// slot; the option scan already rejected them otherwise.
	names := make([]string, 0, len(kwTokens))
	for name := range kwTokens {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := kwTokens[name]
		v, err := resolveToken(t, ns, m)
		if err != nil {
			return nil, parseErrorf(ErrBadValue,
				"error parsing value for --%s=%s: %s", name, t.raw, err)
		}
		res.Kwargs[name] = v
	}
	return res, nil
}

func resolveToken(t token, ns *interp.Namespace, m mode.ArgMode) (any, error) {
	if t.literal {
		return t.raw, nil
	}
	return ParseValueOrString(t.raw, ns, m)
}

// cutOption splits "name=value" and reports whether the "=" was present.
func cutOption(s string) (name string, eq bool, value string) {
	if i := strings.IndexByte(s, '='); i >= 0 {
		return s[:i], true, s[i+1:]
	}
	return s, false, ""
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
