package bind

import "fmt"

// ErrKind discriminates the ParseError family.
type ErrKind int

const (
	ErrInvalidOption ErrKind = iota
	ErrUnknownOption
	ErrAmbiguousOption
	ErrDuplicateBinding
	ErrMissingValue
	ErrMissingArgument
	ErrTooManyArguments
	ErrBadValue
	ErrUnexpectedArgument
)

// ParseError is the error family for malformed command-line argument
// lists. The dispatcher reports it with usage text and exits 1.
type ParseError struct {
	Kind ErrKind
	Msg  string
}

func (e *ParseError) Error() string { return e.Msg }

func parseErrorf(kind ErrKind, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
