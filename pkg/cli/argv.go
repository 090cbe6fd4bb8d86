package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// Argv is the argument vector handed to evaluated code as "argv". Reads
// are tracked so leftover arguments the code never looked at can be
// reported instead of silently ignored.
type Argv struct {
	items    []string
	accessed []bool
}

func NewArgv(items []string) *Argv {
	return &Argv{
		items:    append([]string(nil), items...),
		accessed: make([]bool, len(items)),
	}
}

// Len returns the argument count without marking anything accessed.
func (a *Argv) Len() int { return len(a.items) }

// Arg returns argument i and marks it accessed.
func (a *Argv) Arg(i int) string {
	a.accessed[i] = true
	return a.items[i]
}

// Args returns all arguments and marks every one accessed.
func (a *Argv) Args() []string {
	for i := range a.accessed {
		a.accessed[i] = true
	}
	return append([]string(nil), a.items...)
}

func (a *Argv) String() string {
	return fmt.Sprintf("%v", a.items)
}

// Unaccessed returns the arguments never read through Arg or Args.
func (a *Argv) Unaccessed() []string {
	var out []string
	for i, ok := range a.accessed {
		if !ok {
			out = append(out, a.items[i])
		}
	}
	return out
}

// complaint renders the unused-argument report, scaled to one, some, or
// all arguments unused. Empty when everything was read.
func (a *Argv) complaint() string {
	unused := a.Unaccessed()
	if len(unused) == 0 {
		return ""
	}
	quoted := make([]string, len(unused))
	for i, u := range unused {
		quoted[i] = strconv.Quote(u)
	}
	switch {
	case len(unused) == len(a.items) && len(a.items) > 1:
		return fmt.Sprintf("none of the arguments were used: %s", strings.Join(quoted, " "))
	case len(unused) == 1:
		return fmt.Sprintf("unused argument %s", quoted[0])
	default:
		return fmt.Sprintf("unused arguments: %s", strings.Join(quoted, " "))
	}
}
