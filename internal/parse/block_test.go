package parse

import (
	"reflect"
	"testing"
)

func TestNewBlock_Expression(t *testing.T) {
	b := NewBlock("3.0 / 4")
	if !b.ParsableAsExpression() {
		t.Fatalf("expected %q to classify as expression, got kind %v", b.Source, b.Kind())
	}
}

func TestNewBlock_Statements(t *testing.T) {
	b := NewBlock(`x := 5; fmt.Println(x)`)
	if b.ParsableAsExpression() {
		t.Error("statement list should not classify as a single expression")
	}
	if !b.Parsable() {
		t.Error("statement list should still be parsable")
	}
	if b.Kind() != KindStatements {
		t.Errorf("got kind %v, want KindStatements", b.Kind())
	}
}

func TestNewBlock_Unparsable(t *testing.T) {
	for _, src := range []string{"5foo+2", "foo(", "", "   "} {
		b := NewBlock(src)
		if b.Parsable() {
			t.Errorf("expected %q to be unparsable", src)
		}
	}
}

func TestNewBlock_TopLevelDecl(t *testing.T) {
	b := NewBlock("func double(x int) int { return x * 2 }")
	if !b.Parsable() {
		t.Fatal("top-level func declaration should be parsable")
	}
}

func TestFreeIdents_SelectorRoot(t *testing.T) {
	b := NewBlock(`strings.ToUpper("hi")`)
	got := b.FreeIdents()
	want := []string{"strings"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FreeIdents = %v, want %v", got, want)
	}
}

func TestFreeIdents_ExcludesDeclaredAndUniverse(t *testing.T) {
	b := NewBlock(`x := len(parts); y := x + n`)
	got := b.FreeIdents()
	// x and y are declared; len is predeclared; parts and n are free.
	want := []string{"n", "parts"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FreeIdents = %v, want %v", got, want)
	}
}

func TestFreeIdents_StatementFormHasNoPhantomNames(t *testing.T) {
	// Statement blocks are parsed inside a synthetic package clause; its
	// name must never surface as a free identifier.
	b := NewBlock("x := 6\nx * 7")
	if got := b.FreeIdents(); len(got) != 0 {
		t.Errorf("FreeIdents = %v, want none", got)
	}
}

func TestFreeIdents_ExcludesSelectorTailAndKeys(t *testing.T) {
	b := NewBlock(`bytes.NewBuffer(nil)`)
	for _, name := range b.FreeIdents() {
		if name == "NewBuffer" {
			t.Error("selector tail should not count as a free identifier")
		}
	}
}

func TestFreeIdents_FuncLitParams(t *testing.T) {
	b := NewBlock(`func(x int) int { return x * k }`)
	got := b.FreeIdents()
	want := []string{"k"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FreeIdents = %v, want %v", got, want)
	}
}

func TestJoin(t *testing.T) {
	b := Join([]string{"3.0", "/", "4"})
	if !b.ParsableAsExpression() {
		t.Errorf("joined tokens should form one expression, got kind %v", b.Kind())
	}
	if b.Source != "3.0 / 4" {
		t.Errorf("Join source = %q", b.Source)
	}
}

func TestBlockNamesAreUnique(t *testing.T) {
	a := NewBlock("1")
	b := NewBlock("2")
	if a.Name == b.Name {
		t.Errorf("synthetic block names should be unique, both %q", a.Name)
	}
}
