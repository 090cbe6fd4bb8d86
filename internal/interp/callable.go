package interp

import (
	"fmt"
	"reflect"

	"github.com/Carreau/pyflyby/internal/sig"
)

// NotCallableError reports an apply target that evaluated to a
// non-callable value.
type NotCallableError struct {
	Name  string
	Value any
}

func (e *NotCallableError) Error() string {
	return fmt.Sprintf("%s is not callable", e.Name)
}

// AsCallable wraps a value produced by evaluation as a Callable, if it is
// one. Registered callables pass through with their full signatures;
// plain function values get a reflected signature with synthesized
// parameter names, since compiled Go functions carry no names at runtime.
func AsCallable(name string, v any) (sig.Callable, bool) {
	if c, ok := v.(sig.Callable); ok {
		return c, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Func {
		return nil, false
	}
	return &reflectCallable{name: name, fn: rv, sig: signatureOf(rv.Type())}, true
}

// signatureOf builds a Signature for a reflected function type. Names are
// synthesized as a1..aN; a variadic final parameter becomes the
// variadic-positional slot.
func signatureOf(t reflect.Type) *sig.Signature {
	n := t.NumIn()
	if t.IsVariadic() {
		n--
	}
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("a%d", i+1)
	}
	s := sig.New(names...)
	if t.IsVariadic() {
		s = s.WithVarArgs("args")
	}
	return s
}

type reflectCallable struct {
	name string
	fn   reflect.Value
	sig  *sig.Signature
}

func (c *reflectCallable) Name() string             { return c.name }
func (c *reflectCallable) Signature() *sig.Signature { return c.sig }

var errType = reflect.TypeOf((*error)(nil)).Elem()

func (c *reflectCallable) Call(args []any, kwargs map[string]any) (any, error) {
	if len(kwargs) > 0 {
		// The binder reconciles declared keywords into positional order;
		// anything left over has nowhere to go on a plain function.
		return nil, fmt.Errorf("%s does not accept keyword arguments", c.name)
	}
	t := c.fn.Type()
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var want reflect.Type
		if t.IsVariadic() && i >= t.NumIn()-1 {
			want = t.In(t.NumIn() - 1).Elem()
		} else {
			if i >= t.NumIn() {
				return nil, fmt.Errorf("%s: too many arguments", c.name)
			}
			want = t.In(i)
		}
		v, err := convertArg(a, want)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", c.name, i+1, err)
		}
		in[i] = v
	}
	if !t.IsVariadic() && len(in) < t.NumIn() {
		return nil, fmt.Errorf("%s: not enough arguments", c.name)
	}
	out := c.fn.Call(in)
	return collectResults(out)
}

// collectResults maps a reflect call's results onto (value, error):
// a trailing error return is split off, a single value passes through,
// multiple values become a slice.
func collectResults(out []reflect.Value) (any, error) {
	var callErr error
	if n := len(out); n > 0 && out[n-1].Type().Implements(errType) {
		if e := out[n-1].Interface(); e != nil {
			callErr = e.(error)
		}
		out = out[:n-1]
	}
	switch len(out) {
	case 0:
		return nil, callErr
	case 1:
		return out[0].Interface(), callErr
	default:
		vals := make([]any, len(out))
		for i, v := range out {
			vals[i] = v.Interface()
		}
		return vals, callErr
	}
}

// convertArg adapts an evaluated argument value to the parameter type.
// Numeric kinds convert freely; everything else must be assignable.
// Notably there is no implicit numeric<->string conversion, so a literal
// string bound to an int parameter is a type error, not a parse.
func convertArg(a any, want reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(want), nil
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(want) {
		return v, nil
	}
	if want.Kind() == reflect.Interface && v.Type().Implements(want) {
		return v, nil
	}
	if isNumeric(v.Kind()) && isNumeric(want.Kind()) && v.Type().ConvertibleTo(want) {
		return v.Convert(want), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %v (%T) as %s", a, a, want)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
