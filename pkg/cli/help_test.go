package cli

import (
	"strings"
	"testing"

	"github.com/Carreau/pyflyby/internal/builtins"
	"github.com/Carreau/pyflyby/internal/sig"
)

type stubCallable struct {
	name string
	s    *sig.Signature
}

func (c *stubCallable) Name() string              { return c.name }
func (c *stubCallable) Signature() *sig.Signature { return c.s }
func (c *stubCallable) Call([]any, map[string]any) (any, error) {
	return nil, nil
}

func TestUsageStringBracketsDefaults(t *testing.T) {
	c := &stubCallable{
		name: "parse",
		s:    sig.New("src", "strict").WithDefault("strict", false).WithVarArgs("extra"),
	}
	got := usageString(c)
	for _, want := range []string{
		"py parse src [strict] extra...",
		"py parse --src=... [--strict=...]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("usage missing %q:\n%s", want, got)
		}
	}
}

func TestUsageStringOpaque(t *testing.T) {
	c := &stubCallable{name: "anything", s: sig.Opaque()}
	if got := usageString(c); !strings.Contains(got, "py anything [args...]") {
		t.Errorf("opaque usage = %q", got)
	}
}

func TestPrintHelpVerbosity(t *testing.T) {
	b, _ := builtins.Lookup("round")

	var v1 strings.Builder
	printHelp(&v1, b, 1)
	if !strings.Contains(v1.String(), "round(x, ndigits=0)") {
		t.Errorf("verbosity 1 missing call spec: %s", v1.String())
	}
	if !strings.Contains(v1.String(), b.Doc()) {
		t.Error("verbosity 1 should include the doc line")
	}
	if strings.Contains(v1.String(), "func round") {
		t.Error("verbosity 1 must not include source")
	}

	var v2 strings.Builder
	printHelp(&v2, b, 2)
	if !strings.Contains(v2.String(), "func round") {
		t.Errorf("verbosity 2 missing source: %s", v2.String())
	}
}

func TestPrintHelpWithoutSource(t *testing.T) {
	c := &stubCallable{name: "mystery", s: sig.New("x")}
	var sb strings.Builder
	printHelp(&sb, c, 2)
	if !strings.Contains(sb.String(), "source for mystery is not available") {
		t.Errorf("missing source notice: %s", sb.String())
	}
}
