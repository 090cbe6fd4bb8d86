// Package sig defines the explicit parameter-structure value object for
// callables. Values crossing the callable boundary carry a Signature built
// by the collaborator that produced them; nothing downstream introspects
// callables ad hoc.
package sig

import (
	"fmt"
	"strings"
)

// Signature describes the declared parameter structure of a callable:
// ordered parameter names, defaults for a trailing subset, and optional
// variadic-positional and variadic-keyword slots. Immutable once built.
//
// An opaque signature means the parameter structure is unknown and the
// callable accepts anything, both positionally and by keyword.
type Signature struct {
	params   []string
	defaults map[string]any
	varArgs  string
	varKw    string
	opaque   bool
}

// New returns a fully specified signature with the given parameter names.
func New(params ...string) *Signature {
	return &Signature{params: params}
}

// Opaque returns a signature of unknown structure that accepts any
// combination of positional and keyword arguments.
func Opaque() *Signature {
	return &Signature{opaque: true, varArgs: "args", varKw: "kwargs"}
}

// WithDefault returns a copy with a default value for name. Defaults must
// cover a trailing run of the parameter list; that is the caller's contract
// and is validated lazily by MinArgs.
func (s *Signature) WithDefault(name string, value any) *Signature {
	c := s.clone()
	if c.defaults == nil {
		c.defaults = map[string]any{}
	}
	c.defaults[name] = value
	return c
}

// WithVarArgs returns a copy with a variadic-positional slot.
func (s *Signature) WithVarArgs(name string) *Signature {
	c := s.clone()
	c.varArgs = name
	return c
}

// WithVarKw returns a copy with a variadic-keyword slot.
func (s *Signature) WithVarKw(name string) *Signature {
	c := s.clone()
	c.varKw = name
	return c
}

func (s *Signature) clone() *Signature {
	c := &Signature{
		params:  append([]string(nil), s.params...),
		varArgs: s.varArgs,
		varKw:   s.varKw,
		opaque:  s.opaque,
	}
	if s.defaults != nil {
		c.defaults = make(map[string]any, len(s.defaults))
		for k, v := range s.defaults {
			c.defaults[k] = v
		}
	}
	return c
}

// Params returns the ordered declared parameter names.
func (s *Signature) Params() []string { return s.params }

// Default returns the default value for name, if any.
func (s *Signature) Default(name string) (any, bool) {
	v, ok := s.defaults[name]
	return v, ok
}

// NumDefaults returns how many parameters carry defaults.
func (s *Signature) NumDefaults() int { return len(s.defaults) }

// HasVarArgs reports whether excess positional arguments are accepted.
func (s *Signature) HasVarArgs() bool { return s.varArgs != "" }

// VarArgsName returns the variadic-positional slot name.
func (s *Signature) VarArgsName() string { return s.varArgs }

// AcceptsAnyKeyword reports whether undeclared keyword names are accepted.
func (s *Signature) AcceptsAnyKeyword() bool { return s.varKw != "" }

// IsOpaque reports whether the parameter structure is unknown.
func (s *Signature) IsOpaque() bool { return s.opaque }

// MinArgs returns the number of required positional parameters.
func (s *Signature) MinArgs() int { return len(s.params) - len(s.defaults) }

// MaxArgs returns the declared parameter count.
func (s *Signature) MaxArgs() int { return len(s.params) }

// ExpectedCount renders the accepted positional-argument count for error
// messages: "3" when there are no defaults, "1-3" otherwise.
func (s *Signature) ExpectedCount() string {
	if len(s.defaults) == 0 {
		return fmt.Sprintf("%d", len(s.params))
	}
	return fmt.Sprintf("%d-%d", s.MinArgs(), s.MaxArgs())
}

// FormatCallSpec renders "name(x, y=1, rest...)" for usage text.
func (s *Signature) FormatCallSpec(name string) string {
	if s.opaque {
		return name + "(...)"
	}
	parts := make([]string, 0, len(s.params)+2)
	for _, p := range s.params {
		if d, ok := s.defaults[p]; ok {
			parts = append(parts, fmt.Sprintf("%s=%#v", p, d))
		} else {
			parts = append(parts, p)
		}
	}
	if s.varArgs != "" {
		parts = append(parts, s.varArgs+"...")
	}
	if s.varKw != "" {
		parts = append(parts, "--"+s.varKw+"...")
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

// Callable is the boundary contract for anything the dispatcher can apply.
// Collaborators that expose callables provide the Signature directly.
type Callable interface {
	Name() string
	Signature() *Signature
	// Call invokes the callable with fully resolved positional and keyword
	// argument values.
	Call(args []any, kwargs map[string]any) (any, error)
}
