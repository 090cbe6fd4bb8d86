package output

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Carreau/pyflyby/internal/mode"
)

func render(t *testing.T, m mode.OutputMode, result any) (string, error) {
	t.Helper()
	var sb strings.Builder
	err := New(&sb, m).Print(result)
	return sb.String(), err
}

func TestSilentPrintsNothing(t *testing.T) {
	out, err := render(t, mode.OutSilent, 42)
	if err != nil || out != "" {
		t.Errorf("silent mode produced %q, %v", out, err)
	}
}

func TestStrPrintsEvenNil(t *testing.T) {
	out, _ := render(t, mode.OutStr, "hello")
	if out != "hello\n" {
		t.Errorf("str output = %q", out)
	}
	out, _ = render(t, mode.OutStr, nil)
	if out != "<nil>\n" {
		t.Errorf("str of nil = %q", out)
	}
}

func TestReprQuotesStrings(t *testing.T) {
	out, _ := render(t, mode.OutRepr, "hello")
	if out != "\"hello\"\n" {
		t.Errorf("repr output = %q", out)
	}
}

func TestIfNotNilVariantsSwallowNil(t *testing.T) {
	for _, m := range []mode.OutputMode{mode.OutReprIfNotNil, mode.OutPPrintIfNotNil, mode.OutInteractive} {
		out, err := render(t, m, nil)
		if err != nil || out != "" {
			t.Errorf("mode %v: nil produced %q, %v", m, out, err)
		}
	}
	out, _ := render(t, mode.OutReprIfNotNil, 7)
	if out != "7\n" {
		t.Errorf("repr-if-not-nil of 7 = %q", out)
	}
}

func TestTypedNilSwallowedToo(t *testing.T) {
	var p *int
	out, err := render(t, mode.OutReprIfNotNil, p)
	if err != nil || out != "" {
		t.Errorf("typed nil produced %q, %v", out, err)
	}
}

func TestScalarsPrintWithoutTypeWrappers(t *testing.T) {
	cases := []struct {
		result any
		want   string
	}{
		{5, "5\n"},
		{0.75, "0.75\n"},
		{true, "true\n"},
		{"hi", "\"hi\"\n"},
	}
	for _, c := range cases {
		for _, m := range []mode.OutputMode{mode.OutInteractive, mode.OutPPrint, mode.OutPPrintIfNotNil} {
			out, err := render(t, m, c.result)
			if err != nil {
				t.Fatalf("mode %v, %v: %v", m, c.result, err)
			}
			if out != c.want {
				t.Errorf("mode %v of %v = %q, want %q", m, c.result, out, c.want)
			}
		}
	}
}

type banner struct{ text string }

func (b banner) DisplayInteractive(w io.Writer) error {
	_, err := io.WriteString(w, "<<"+b.text+">>\n")
	return err
}

func TestInteractivePrefersDisplayer(t *testing.T) {
	out, err := render(t, mode.OutInteractive, banner{"hi"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "<<hi>>\n" {
		t.Errorf("interactive output = %q", out)
	}
	out, _ = render(t, mode.OutInteractive, map[string]int{"a": 1})
	if out == "" {
		t.Error("non-displayer values should still print")
	}
}

func TestExitMode(t *testing.T) {
	cases := []struct {
		result any
		code   int
	}{
		{nil, 0},
		{3, 3},
		{4.0, 4},
		{true, 1},
		{false, 0},
	}
	for _, c := range cases {
		_, err := render(t, mode.OutExit, c.result)
		var req *ExitRequest
		if !errors.As(err, &req) {
			t.Fatalf("exit(%v): expected ExitRequest, got %v", c.result, err)
		}
		if req.Code != c.code {
			t.Errorf("exit(%v) code = %d, want %d", c.result, req.Code, c.code)
		}
	}
	if _, err := render(t, mode.OutExit, "nope"); err == nil {
		t.Error("exit with a string result should fail")
	} else if errors.As(err, new(*ExitRequest)) {
		t.Error("a string result must not produce an exit request")
	}
}

func TestExitModeWritesNothing(t *testing.T) {
	out, _ := render(t, mode.OutExit, 3)
	if out != "" {
		t.Errorf("exit mode wrote %q", out)
	}
}
