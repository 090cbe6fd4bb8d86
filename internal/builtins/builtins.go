// Package builtins provides the compiled-in callables available by bare
// name on the command line, each carrying a declared signature, a doc
// string, and display source. They cover the conversions and small
// utilities users reach for most from a shell.
package builtins

import (
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/Carreau/pyflyby/internal/interp"
	"github.com/Carreau/pyflyby/internal/sig"
)

// Builtin is a compiled-in callable with presentation metadata.
type Builtin struct {
	name      string
	signature *sig.Signature
	doc       string
	source    string
	fn        func(args []any, kwargs map[string]any) (any, error)
	native    any
}

func (b *Builtin) Name() string              { return b.name }
func (b *Builtin) Signature() *sig.Signature { return b.signature }

// Doc returns the one-paragraph description shown by help.
func (b *Builtin) Doc() string { return b.doc }

// SourceText returns the display source shown by a source request.
func (b *Builtin) SourceText() string { return b.source }

func (b *Builtin) Call(args []any, kwargs map[string]any) (any, error) {
	return b.fn(args, kwargs)
}

var registry = map[string]*Builtin{}

func register(b *Builtin) { registry[b.name] = b }

// Lookup returns the builtin registered under name.
func Lookup(name string) (*Builtin, bool) {
	b, ok := registry[name]
	return b, ok
}

// Names returns every registered builtin name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Install registers every builtin into ns, both as an applyable callable
// and, where a native function exists, as an evaluatable name.
func Install(ns *interp.Namespace) error {
	for _, name := range Names() {
		b := registry[name]
		if err := ns.RegisterCallable(b, b.native); err != nil {
			return fmt.Errorf("installing builtin %s: %w", name, err)
		}
	}
	return nil
}

// positional rejects keyword arguments and enforces the arity window
// before handing resolved positionals to fn.
func positional(name string, min, max int, fn func(args []any) (any, error)) func([]any, map[string]any) (any, error) {
	return func(args []any, kwargs map[string]any) (any, error) {
		if len(kwargs) > 0 {
			return nil, fmt.Errorf("%s() takes no keyword arguments", name)
		}
		if len(args) < min || (max >= 0 && len(args) > max) {
			return nil, fmt.Errorf("%s() takes %d to %d arguments; got %d", name, min, max, len(args))
		}
		return fn(args)
	}
}

func asInt(v any) (int64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == math.Trunc(f) {
			return int64(f), nil
		}
	}
	return 0, fmt.Errorf("expected an integer; got %#v", v)
}

func asFloat(v any) (float64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return 0, fmt.Errorf("expected a number; got %#v", v)
}

func asString(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	if bs, ok := v.([]byte); ok {
		return string(bs), nil
	}
	return "", fmt.Errorf("expected a string; got %#v", v)
}

func init() {
	register(&Builtin{
		name:      "ord",
		signature: sig.New("c"),
		doc:       "Return the integer code point of a one-character string.",
		source: `func ord(c string) (int, error) {
	r := []rune(c)
	if len(r) != 1 {
		return 0, fmt.Errorf("ord() expected a character; got a string of length %d", len(r))
	}
	return int(r[0]), nil
}`,
		fn: positional("ord", 1, 1, func(args []any) (any, error) {
			s, err := asString(args[0])
			if err != nil {
				return nil, err
			}
			r := []rune(s)
			if len(r) != 1 {
				return nil, fmt.Errorf("ord() expected a character; got a string of length %d", len(r))
			}
			return int(r[0]), nil
		}),
		native: func(c string) (int, error) {
			r := []rune(c)
			if len(r) != 1 {
				return 0, fmt.Errorf("ord() expected a character; got a string of length %d", len(r))
			}
			return int(r[0]), nil
		},
	})

	register(&Builtin{
		name:      "chr",
		signature: sig.New("i"),
		doc:       "Return the one-character string for a code point.",
		source:    `func chr(i int) string { return string(rune(i)) }`,
		fn: positional("chr", 1, 1, func(args []any) (any, error) {
			i, err := asInt(args[0])
			if err != nil {
				return nil, err
			}
			return string(rune(i)), nil
		}),
		native: func(i int) string { return string(rune(i)) },
	})

	register(&Builtin{
		name:      "abs",
		signature: sig.New("x"),
		doc:       "Return the absolute value of a number.",
		source:    `func abs(x float64) float64 { return math.Abs(x) }`,
		fn: positional("abs", 1, 1, func(args []any) (any, error) {
			if i, err := asInt(args[0]); err == nil {
				if i < 0 {
					return -i, nil
				}
				return i, nil
			}
			f, err := asFloat(args[0])
			if err != nil {
				return nil, err
			}
			return math.Abs(f), nil
		}),
		native: math.Abs,
	})

	register(&Builtin{
		name:      "hex",
		signature: sig.New("n"),
		doc:       "Format an integer in hexadecimal with a 0x prefix.",
		source:    `func hex(n int64) string { return fmt.Sprintf("%#x", n) }`,
		fn: positional("hex", 1, 1, func(args []any) (any, error) {
			n, err := asInt(args[0])
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("%#x", n), nil
		}),
		native: func(n int64) string { return fmt.Sprintf("%#x", n) },
	})

	register(&Builtin{
		name:      "oct",
		signature: sig.New("n"),
		doc:       "Format an integer in octal with a 0o prefix.",
		source:    `func oct(n int64) string { return fmt.Sprintf("0o%o", n) }`,
		fn: positional("oct", 1, 1, func(args []any) (any, error) {
			n, err := asInt(args[0])
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("0o%o", n), nil
		}),
		native: func(n int64) string { return fmt.Sprintf("0o%o", n) },
	})

	register(&Builtin{
		name:      "bin",
		signature: sig.New("n"),
		doc:       "Format an integer in binary with a 0b prefix.",
		source:    `func bin(n int64) string { return fmt.Sprintf("%#b", n) }`,
		fn: positional("bin", 1, 1, func(args []any) (any, error) {
			n, err := asInt(args[0])
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("%#b", n), nil
		}),
		native: func(n int64) string { return fmt.Sprintf("%#b", n) },
	})

	register(&Builtin{
		name:      "len",
		signature: sig.New("x"),
		doc:       "Return the length of a string, slice, array, or map.",
		source: `func length(x any) (int, error) {
	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return v.Len(), nil
	}
	return 0, fmt.Errorf("object of type %T has no len()", x)
}`,
		fn: positional("len", 1, 1, func(args []any) (any, error) {
			v := reflect.ValueOf(args[0])
			switch v.Kind() {
			case reflect.String, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
				return v.Len(), nil
			}
			return nil, fmt.Errorf("object of type %T has no len()", args[0])
		}),
	})

	register(&Builtin{
		name:      "round",
		signature: sig.New("x", "ndigits").WithDefault("ndigits", 0),
		doc:       "Round a number to ndigits decimal places (default 0).",
		source: `func round(x float64, ndigits int) float64 {
	scale := math.Pow(10, float64(ndigits))
	return math.Round(x*scale) / scale
}`,
		fn: positional("round", 1, 2, func(args []any) (any, error) {
			x, err := asFloat(args[0])
			if err != nil {
				return nil, err
			}
			ndigits := int64(0)
			if len(args) == 2 {
				if ndigits, err = asInt(args[1]); err != nil {
					return nil, err
				}
			}
			scale := math.Pow(10, float64(ndigits))
			return math.Round(x*scale) / scale, nil
		}),
	})

	register(&Builtin{
		name:      "sum",
		signature: sig.New().WithVarArgs("values"),
		doc:       "Return the sum of the arguments. Integers stay integral.",
		source: `func sum(values ...float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}`,
		fn: positional("sum", 0, -1, func(args []any) (any, error) {
			return reduceNumbers("sum", args, func(a, b float64) float64 { return a + b }, 0)
		}),
	})

	register(&Builtin{
		name:      "max",
		signature: sig.New().WithVarArgs("values"),
		doc:       "Return the largest argument.",
		source: `func max(values ...float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.New("max() expected at least 1 argument")
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m, nil
}`,
		fn: positional("max", 1, -1, func(args []any) (any, error) {
			return reduceNumbers("max", args, math.Max, 0)
		}),
	})

	register(&Builtin{
		name:      "min",
		signature: sig.New().WithVarArgs("values"),
		doc:       "Return the smallest argument.",
		source: `func min(values ...float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.New("min() expected at least 1 argument")
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m, nil
}`,
		fn: positional("min", 1, -1, func(args []any) (any, error) {
			return reduceNumbers("min", args, math.Min, 0)
		}),
	})

	register(&Builtin{
		name:      "repr",
		signature: sig.New("x"),
		doc:       "Return the Go-syntax representation of a value.",
		source:    `func repr(x any) string { return fmt.Sprintf("%#v", x) }`,
		fn: positional("repr", 1, 1, func(args []any) (any, error) {
			return fmt.Sprintf("%#v", args[0]), nil
		}),
	})

	register(&Builtin{
		name:      "type",
		signature: sig.New("x"),
		doc:       "Return the dynamic type name of a value.",
		source: `func typeOf(x any) string {
	if x == nil {
		return "nil"
	}
	return reflect.TypeOf(x).String()
}`,
		fn: positional("type", 1, 1, func(args []any) (any, error) {
			if args[0] == nil {
				return "nil", nil
			}
			return reflect.TypeOf(args[0]).String(), nil
		}),
	})

	register(&Builtin{
		name:      "b64encode",
		signature: sig.New("s"),
		doc:       "Encode a string with standard base64.",
		source: `func b64encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}`,
		fn: positional("b64encode", 1, 1, func(args []any) (any, error) {
			s, err := asString(args[0])
			if err != nil {
				return nil, err
			}
			return base64.StdEncoding.EncodeToString([]byte(s)), nil
		}),
		native: func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) },
	})

	register(&Builtin{
		name:      "b64decode",
		signature: sig.New("s", "altchars").WithDefault("altchars", ""),
		doc:       "Decode a base64 string. With altchars, the two characters replace + and /.",
		source: `func b64decode(s, altchars string) (string, error) {
	enc := base64.StdEncoding
	if altchars != "" {
		enc = base64.NewEncoding(
			"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789" + altchars)
	}
	out, err := enc.DecodeString(s)
	return string(out), err
}`,
		fn: positional("b64decode", 1, 2, func(args []any) (any, error) {
			s, err := asString(args[0])
			if err != nil {
				return nil, err
			}
			altchars := ""
			if len(args) == 2 {
				if altchars, err = asString(args[1]); err != nil {
					return nil, err
				}
			}
			enc := base64.StdEncoding
			if altchars != "" {
				if len(altchars) != 2 {
					return nil, fmt.Errorf("b64decode() altchars must be exactly 2 characters; got %q", altchars)
				}
				enc = base64.NewEncoding(
					"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789" + altchars).
					WithPadding(base64.StdPadding)
			}
			out, err := enc.DecodeString(s)
			if err != nil {
				return nil, err
			}
			return string(out), nil
		}),
	})

	register(&Builtin{
		name:      "unhex",
		signature: sig.New("s"),
		doc:       "Parse a hexadecimal string (with or without 0x) as an integer.",
		source: `func unhex(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(s, "0x"), 16, 64)
}`,
		fn: positional("unhex", 1, 1, func(args []any) (any, error) {
			s, err := asString(args[0])
			if err != nil {
				return nil, err
			}
			var n int64
			if _, err := fmt.Sscanf(normalizeHex(s), "%x", &n); err != nil {
				return nil, fmt.Errorf("unhex(): invalid hexadecimal %q", s)
			}
			return n, nil
		}),
	})
}

func normalizeHex(s string) string {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}

// reduceNumbers folds float-coerced arguments, but returns an int when
// every argument was integral so shell output stays clean.
func reduceNumbers(name string, args []any, fold func(a, b float64) float64, zero float64) (any, error) {
	allInt := true
	acc := zero
	for i, a := range args {
		f, err := asFloat(a)
		if err != nil {
			return nil, fmt.Errorf("%s() argument %d: %w", name, i+1, err)
		}
		if _, err := asInt(a); err != nil {
			allInt = false
		}
		if i == 0 && name != "sum" {
			acc = f
			continue
		}
		acc = fold(acc, f)
	}
	if allInt && acc == math.Trunc(acc) {
		return int(acc), nil
	}
	return acc, nil
}
