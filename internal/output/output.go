// Package output turns an evaluation result into terminal output under
// one of the eight output modes. Every result takes exactly one branch:
// printed one way, swallowed, or converted into an exit request.
package output

import (
	"fmt"
	"io"
	"math"
	"reflect"

	"github.com/kr/pretty"

	"github.com/Carreau/pyflyby/internal/mode"
)

// InteractiveDisplayer lets a value take over its own rendering when the
// output mode is interactive. Values without it fall back to
// pretty-print-if-not-nil.
type InteractiveDisplayer interface {
	DisplayInteractive(w io.Writer) error
}

// ExitRequest is returned by Print in exit mode; the caller terminates
// the process with Code instead of printing.
type ExitRequest struct {
	Code int
}

func (e *ExitRequest) Error() string { return fmt.Sprintf("exit %d", e.Code) }

// Printer renders results to one writer under one output mode.
type Printer struct {
	w io.Writer
	m mode.OutputMode
}

func New(w io.Writer, m mode.OutputMode) *Printer {
	return &Printer{w: w, m: m}
}

// Mode returns the printer's output mode.
func (p *Printer) Mode() mode.OutputMode { return p.m }

// Print dispatches result to the single branch its mode selects. In exit
// mode it returns an ExitRequest rather than writing anything.
func (p *Printer) Print(result any) error {
	switch p.m {
	case mode.OutSilent:
		return nil
	case mode.OutStr:
		_, err := fmt.Fprintf(p.w, "%v\n", result)
		return err
	case mode.OutRepr:
		_, err := fmt.Fprintf(p.w, "%#v\n", result)
		return err
	case mode.OutPPrint:
		return pprintValue(p.w, result)
	case mode.OutReprIfNotNil:
		if isNil(result) {
			return nil
		}
		_, err := fmt.Fprintf(p.w, "%#v\n", result)
		return err
	case mode.OutPPrintIfNotNil:
		if isNil(result) {
			return nil
		}
		return pprintValue(p.w, result)
	case mode.OutInteractive:
		if isNil(result) {
			return nil
		}
		if d, ok := result.(InteractiveDisplayer); ok {
			return d.DisplayInteractive(p.w)
		}
		return pprintValue(p.w, result)
	case mode.OutExit:
		return exitRequest(result)
	}
	return fmt.Errorf("invalid output mode %v", p.m)
}

// pprintValue pretty-prints composite values. Scalars take the plain
// path: pretty's "%# v" wraps them in their type name, so 5 would come
// out as int(5). Strings keep their quotes.
func pprintValue(w io.Writer, v any) error {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		_, err := fmt.Fprintf(w, "%v\n", v)
		return err
	case reflect.String:
		_, err := fmt.Fprintf(w, "%q\n", v)
		return err
	}
	_, err := pretty.Fprintf(w, "%# v\n", v)
	return err
}

// exitRequest converts a result into an exit code. nil exits 0; integral
// numbers exit with their value; anything else is an error.
func exitRequest(result any) error {
	if isNil(result) {
		return &ExitRequest{Code: 0}
	}
	rv := reflect.ValueOf(result)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &ExitRequest{Code: int(rv.Int())}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &ExitRequest{Code: int(rv.Uint())}
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == math.Trunc(f) {
			return &ExitRequest{Code: int(f)}
		}
	case reflect.Bool:
		if rv.Bool() {
			return &ExitRequest{Code: 1}
		}
		return &ExitRequest{Code: 0}
	}
	return fmt.Errorf("exit mode requires an integer result; got %#v", result)
}

// isNil covers both a nil interface and a typed nil inside one.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}
