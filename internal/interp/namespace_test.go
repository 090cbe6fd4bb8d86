package interp

import (
	"errors"
	"strings"
	"testing"

	"github.com/Carreau/pyflyby/internal/importdb"
	"github.com/Carreau/pyflyby/internal/parse"
)

func newTestNamespace(t *testing.T) *Namespace {
	t.Helper()
	ns, err := NewNamespace(importdb.New())
	if err != nil {
		t.Fatalf("NewNamespace: %v", err)
	}
	return ns
}

func TestEval_Arithmetic(t *testing.T) {
	ns := newTestNamespace(t)
	v, err := ns.Eval("2 + 3")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v != 5 {
		t.Errorf("Eval(2 + 3) = %v, want 5", v)
	}
}

func TestAutoEval_ImportsFreePackage(t *testing.T) {
	ns := newTestNamespace(t)
	b := parse.NewBlock(`strings.ToUpper("hi")`)
	v, err := ns.AutoEval(b, false)
	if err != nil {
		t.Fatalf("AutoEval: %v", err)
	}
	if v != "HI" {
		t.Errorf("AutoEval = %v, want HI", v)
	}
	if !ns.AutoImported("strings") {
		t.Error("strings should be recorded as auto-imported")
	}
}

func TestAutoEval_SecondUseDoesNotReimport(t *testing.T) {
	ns := newTestNamespace(t)
	if _, err := ns.AutoEval(parse.NewBlock(`strings.ToLower("A")`), false); err != nil {
		t.Fatalf("first AutoEval: %v", err)
	}
	// A second fragment using the same package must not choke on the
	// already-imported name.
	v, err := ns.AutoEval(parse.NewBlock(`strings.Repeat("ab", 2)`), false)
	if err != nil {
		t.Fatalf("second AutoEval: %v", err)
	}
	if v != "abab" {
		t.Errorf("AutoEval = %v, want abab", v)
	}
}

func TestAutoEval_UnimportableName(t *testing.T) {
	ns := newTestNamespace(t)
	_, err := ns.AutoEval(parse.NewBlock("frobnicate(1)"), false)
	var ue *UnimportableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnimportableError, got %v", err)
	}
	if len(ue.Names) != 1 || ue.Names[0] != "frobnicate" {
		t.Errorf("UnimportableError names = %v", ue.Names)
	}
	if !strings.Contains(ue.Error(), "not defined and not importable") {
		t.Errorf("error wording: %v", ue)
	}
}

func TestAutoEval_ProbeImportsNothingWhenDoomed(t *testing.T) {
	ns := newTestNamespace(t)
	// strings is resolvable but nonexistentname is not; the probe must
	// reject the fragment before importing anything.
	_, err := ns.AutoEval(parse.NewBlock(`strings.ToUpper(nonexistentname)`), false)
	var ue *UnimportableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnimportableError, got %v", err)
	}
	if ns.AutoImported("strings") {
		t.Error("a doomed evaluation must not leave partial imports behind")
	}
}

func TestAutoEval_SyntaxError(t *testing.T) {
	ns := newTestNamespace(t)
	_, err := ns.AutoEval(parse.NewBlock("5foo+2"), false)
	var se *parse.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
}

func TestMissing_NonMutating(t *testing.T) {
	ns := newTestNamespace(t)
	b := parse.NewBlock(`strconv.Itoa(7)`)
	if missing := ns.Missing(b); len(missing) != 0 {
		t.Errorf("Missing = %v, want none (strconv is in the database)", missing)
	}
	if ns.AutoImported("strconv") {
		t.Error("Missing must not import")
	}
}

func TestDefine_BindsValue(t *testing.T) {
	ns := newTestNamespace(t)
	if err := ns.Define("answer", 42); err != nil {
		t.Fatalf("Define: %v", err)
	}
	v, err := ns.Eval("answer + 1")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v != 43 {
		t.Errorf("Eval(answer + 1) = %v, want 43", v)
	}
}

func TestNamespaceStateCarriesAcrossEvals(t *testing.T) {
	ns := newTestNamespace(t)
	if _, err := ns.Eval("x := 10"); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	v, err := ns.Eval("x * 2")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v != 20 {
		t.Errorf("Eval(x * 2) = %v, want 20", v)
	}
}
