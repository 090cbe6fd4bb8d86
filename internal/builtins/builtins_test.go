package builtins

import (
	"strings"
	"testing"
)

func call(t *testing.T, name string, args ...any) any {
	t.Helper()
	b, ok := Lookup(name)
	if !ok {
		t.Fatalf("builtin %s not registered", name)
	}
	v, err := b.Call(args, nil)
	if err != nil {
		t.Fatalf("%s(%v): %v", name, args, err)
	}
	return v
}

func TestOrdChrRoundTrip(t *testing.T) {
	if got := call(t, "ord", "A"); got != 65 {
		t.Errorf("ord(A) = %v", got)
	}
	if got := call(t, "chr", 65); got != "A" {
		t.Errorf("chr(65) = %v", got)
	}
	b, _ := Lookup("ord")
	if _, err := b.Call([]any{"ab"}, nil); err == nil {
		t.Error("ord of a two-character string should fail")
	}
}

func TestNumericFormatting(t *testing.T) {
	cases := []struct {
		name string
		arg  any
		want any
	}{
		{"hex", 255, "0xff"},
		{"oct", 8, "0o10"},
		{"bin", 5, "0b101"},
		{"abs", -3, int64(3)},
		{"abs", -2.5, 2.5},
	}
	for _, c := range cases {
		if got := call(t, c.name, c.arg); got != c.want {
			t.Errorf("%s(%v) = %v, want %v", c.name, c.arg, got, c.want)
		}
	}
}

func TestRoundDefaultAndNdigits(t *testing.T) {
	if got := call(t, "round", 2.675); got != 3.0 {
		t.Errorf("round(2.675) = %v", got)
	}
	if got := call(t, "round", 3.14159, 2); got != 3.14 {
		t.Errorf("round(3.14159, 2) = %v", got)
	}
}

func TestReductions(t *testing.T) {
	if got := call(t, "sum", 1, 2, 3); got != 6 {
		t.Errorf("sum = %v (%T)", got, got)
	}
	if got := call(t, "sum", 1, 2.5); got != 3.5 {
		t.Errorf("mixed sum = %v", got)
	}
	if got := call(t, "max", 3, 9, 4); got != 9 {
		t.Errorf("max = %v", got)
	}
	if got := call(t, "min", 3, 9, 4); got != 3 {
		t.Errorf("min = %v", got)
	}
	b, _ := Lookup("max")
	if _, err := b.Call(nil, nil); err == nil {
		t.Error("max() with no arguments should fail")
	}
}

func TestLen(t *testing.T) {
	if got := call(t, "len", "hello"); got != 5 {
		t.Errorf("len(hello) = %v", got)
	}
	if got := call(t, "len", []any{1, 2}); got != 2 {
		t.Errorf("len(slice) = %v", got)
	}
	b, _ := Lookup("len")
	if _, err := b.Call([]any{42}, nil); err == nil {
		t.Error("len of an int should fail")
	}
}

func TestBase64(t *testing.T) {
	if got := call(t, "b64encode", "hello"); got != "aGVsbG8=" {
		t.Errorf("b64encode = %v", got)
	}
	if got := call(t, "b64decode", "aGVsbG8="); got != "hello" {
		t.Errorf("b64decode = %v", got)
	}
	if got := call(t, "b64decode", "aGVsbG8=", "-_"); got != "hello" {
		t.Errorf("b64decode with altchars = %v", got)
	}
	b, _ := Lookup("b64decode")
	if _, err := b.Call([]any{"x", "toolong"}, nil); err == nil {
		t.Error("altchars longer than 2 should fail")
	}
}

func TestUnhex(t *testing.T) {
	if got := call(t, "unhex", "0xff"); got != int64(255) {
		t.Errorf("unhex(0xff) = %v (%T)", got, got)
	}
	if got := call(t, "unhex", "1A"); got != int64(26) {
		t.Errorf("unhex(1A) = %v", got)
	}
}

func TestSignatureMetadata(t *testing.T) {
	b, _ := Lookup("b64decode")
	s := b.Signature()
	if got := s.Params(); len(got) != 2 || got[1] != "altchars" {
		t.Errorf("b64decode params = %v", got)
	}
	if _, ok := s.Default("altchars"); !ok {
		t.Error("altchars should carry a default")
	}
	if b.Doc() == "" || b.SourceText() == "" {
		t.Error("builtins carry doc and source text")
	}
	if !strings.Contains(b.SourceText(), "func b64decode") {
		t.Errorf("source text should show the definition: %s", b.SourceText())
	}
}

func TestRejectsKeywords(t *testing.T) {
	b, _ := Lookup("ord")
	if _, err := b.Call([]any{"A"}, map[string]any{"x": 1}); err == nil {
		t.Error("keyword arguments should be rejected")
	}
}

func TestNamesSortedAndComplete(t *testing.T) {
	names := Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("Names() not sorted: %v", names)
		}
	}
	for _, want := range []string{"ord", "chr", "abs", "len", "b64decode"} {
		if _, ok := Lookup(want); !ok {
			t.Errorf("missing builtin %s", want)
		}
	}
}
