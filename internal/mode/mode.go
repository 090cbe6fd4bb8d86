// Package mode normalizes user-supplied --args and --output mode strings
// into canonical values.
package mode

import (
	"fmt"
	"strings"
)

// ArgMode governs how a raw command-line token is interpreted.
type ArgMode int

const (
	// ArgAuto heuristically evaluates tokens that parse and resolve,
	// falling back to literal strings otherwise.
	ArgAuto ArgMode = iota
	// ArgString keeps every token as a literal string.
	ArgString
	// ArgEval evaluates every token as an expression.
	ArgEval
	// ArgError rejects any token. Used internally to assert that a code
	// path expects zero arguments. Intentionally undocumented.
	ArgError
)

func (m ArgMode) String() string {
	switch m {
	case ArgAuto:
		return "auto"
	case ArgString:
		return "string"
	case ArgEval:
		return "eval"
	case ArgError:
		return "error"
	}
	return fmt.Sprintf("ArgMode(%d)", int(m))
}

// OutputMode governs how an evaluation result is rendered.
type OutputMode int

const (
	OutInteractive OutputMode = iota
	OutSilent
	OutStr
	OutRepr
	OutPPrint
	OutReprIfNotNil
	OutPPrintIfNotNil
	OutExit
)

func (m OutputMode) String() string {
	switch m {
	case OutInteractive:
		return "interactive"
	case OutSilent:
		return "silent"
	case OutStr:
		return "str"
	case OutRepr:
		return "repr"
	case OutPPrint:
		return "pprint"
	case OutReprIfNotNil:
		return "repr-if-not-none"
	case OutPPrintIfNotNil:
		return "pprint-if-not-none"
	case OutExit:
		return "exit"
	}
	return fmt.Sprintf("OutputMode(%d)", int(m))
}

// InvalidModeError reports a mode string that matched no alias.
type InvalidModeError struct {
	Kind  string // "arg_mode" or "output"
	Value string
	Legal string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid %s=%q; expected one of %s", e.Kind, e.Value, e.Legal)
}

var argModeAliases = map[string]ArgMode{
	"eval": ArgEval, "evaluate": ArgEval, "exprs": ArgEval, "expr": ArgEval,
	"expressions": ArgEval, "expression": ArgEval, "e": ArgEval,
	"strings": ArgString, "string": ArgString, "str": ArgString, "strs": ArgString,
	"literal": ArgString, "literals": ArgString, "s": ArgString,
	"auto": ArgAuto, "automatic": ArgAuto, "a": ArgAuto,
	"error": ArgError,
}

// ResolveArgMode matches raw against the arg-mode alias table. Matching is
// case-insensitive and separator-insensitive, like ResolveOutputMode.
// Empty raw returns def.
func ResolveArgMode(raw string, def ArgMode) (ArgMode, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	if s == "" {
		return def, nil
	}
	if m, ok := argModeAliases[s]; ok {
		return m, nil
	}
	return def, &InvalidModeError{
		Kind:  "arg_mode",
		Value: raw,
		Legal: "eval/string/auto",
	}
}

var outputModeAliases = map[string]OutputMode{
	"none": OutSilent, "no": OutSilent, "n": OutSilent, "silent": OutSilent,
	"interactive": OutInteractive, "i": OutInteractive,
	"print": OutStr, "p": OutStr, "string": OutStr, "str": OutStr,
	"repr": OutRepr, "r": OutRepr,
	"pprint": OutPPrint, "pp": OutPPrint,
	"reprifnotnone": OutReprIfNotNil, "reprunlessnone": OutReprIfNotNil, "rn": OutReprIfNotNil,
	"pprintifnotnone": OutPPrintIfNotNil, "pprintunlessnone": OutPPrintIfNotNil, "ppn": OutPPrintIfNotNil,
	"systemexit": OutExit, "exit": OutExit, "raise": OutExit,
}

// ResolveOutputMode matches raw against the output-mode alias table.
// Matching is case-insensitive and separator-insensitive: "Repr_If_Not_None"
// and "reprifnotnone" resolve identically. Empty raw returns def.
func ResolveOutputMode(raw string, def OutputMode) (OutputMode, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	if s == "" {
		return def, nil
	}
	if m, ok := outputModeAliases[s]; ok {
		return m, nil
	}
	return def, &InvalidModeError{
		Kind:  "output",
		Value: raw,
		Legal: "silent/interactive/str/repr/pprint/repr-if-not-none/pprint-if-not-none/exit",
	}
}
