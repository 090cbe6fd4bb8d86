package bind

import (
	"errors"

	"github.com/Carreau/pyflyby/internal/interp"
	"github.com/Carreau/pyflyby/internal/mode"
	"github.com/Carreau/pyflyby/internal/parse"
)

// ParseValueOrString interprets one raw argument token under the given
// arg mode: keep it as a string, evaluate it, or heuristically pick.
//
// In auto mode a token that does not parse as a single expression, or
// whose free names cannot be resolved, degrades to the literal string;
// any other evaluation failure propagates. The resolve probe runs before
// evaluation, so a token that falls back to a string imports nothing.
func ParseValueOrString(token string, ns *interp.Namespace, m mode.ArgMode) (any, error) {
	switch m {
	case mode.ArgString:
		return token, nil
	case mode.ArgEval:
		b := parse.NewBlock(token)
		if !b.ParsableAsExpression() {
			return nil, &parse.SyntaxError{Source: token}
		}
		return ns.AutoEval(b, false)
	case mode.ArgAuto:
		b := parse.NewBlock(token)
		if !b.ParsableAsExpression() {
			return token, nil
		}
		if len(ns.Missing(b)) > 0 {
			return token, nil
		}
		v, err := ns.AutoEval(b, false)
		if err != nil {
			// The probe can miss names that only surface during
			// evaluation; those still degrade to a string.
			var ue *interp.UnimportableError
			if errors.As(err, &ue) {
				return token, nil
			}
			return nil, err
		}
		return v, nil
	case mode.ArgError:
		return nil, parseErrorf(ErrUnexpectedArgument, "expected no arguments; got %q", token)
	}
	return nil, parseErrorf(ErrBadValue, "invalid arg mode %v", m)
}
