// Package parse classifies a fragment of source text as an expression,
// a sequence of statements, or unparsable, and reports the free identifiers
// the fragment references. Classification is computed once and cached.
package parse

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Kind is the classification of a block.
type Kind int

const (
	KindUnparsable Kind = iota
	KindExpression
	KindStatements
)

// SyntaxError reports a fragment that was required to parse but did not.
type SyntaxError struct {
	Source string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s", e.Source)
}

// Block is a fragment of user-supplied source text with its classification.
type Block struct {
	Source string
	Name   string // synthetic name for logs and error positions

	kind     Kind
	exprAST  ast.Expr
	stmtsAST *ast.File
}

// NewBlock parses src and records its classification.
func NewBlock(src string) *Block {
	b := &Block{
		Source: src,
		Name:   "<eval-" + uuid.NewString()[:8] + ">",
	}
	b.classify()
	return b
}

func (b *Block) classify() {
	if strings.TrimSpace(b.Source) == "" {
		b.kind = KindUnparsable
		return
	}
	if expr, err := parser.ParseExpr(b.Source); err == nil {
		b.kind = KindExpression
		b.exprAST = expr
		return
	}
	// Not a single expression. Try as a statement list inside a function
	// body, which is how the interpreter will execute it.
	wrapped := "package p\nfunc _() {\n" + b.Source + "\n}"
	fset := token.NewFileSet()
	if f, err := parser.ParseFile(fset, b.Name, wrapped, 0); err == nil {
		b.kind = KindStatements
		b.stmtsAST = f
		return
	}
	// Top-level declarations (func, type, var blocks) are also acceptable.
	wrapped = "package p\n" + b.Source
	if f, err := parser.ParseFile(fset, b.Name, wrapped, 0); err == nil {
		b.kind = KindStatements
		b.stmtsAST = f
		return
	}
	b.kind = KindUnparsable
}

// Kind returns the cached classification.
func (b *Block) Kind() Kind { return b.kind }

// ParsableAsExpression reports whether the whole fragment is one expression.
func (b *Block) ParsableAsExpression() bool { return b.kind == KindExpression }

// Parsable reports whether the fragment parses as an expression or as
// statements.
func (b *Block) Parsable() bool { return b.kind != KindUnparsable }

// universe holds predeclared identifiers that are never free.
var universe = map[string]bool{
	"append": true, "cap": true, "clear": true, "close": true, "complex": true,
	"copy": true, "delete": true, "imag": true, "len": true, "make": true,
	"max": true, "min": true, "new": true, "panic": true, "print": true,
	"println": true, "real": true, "recover": true,
	"bool": true, "byte": true, "complex64": true, "complex128": true,
	"error": true, "float32": true, "float64": true, "int": true, "int8": true,
	"int16": true, "int32": true, "int64": true, "rune": true, "string": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"uintptr": true, "any": true,
	"true": true, "false": true, "iota": true, "nil": true,
	"_": true,
}

// FreeIdents returns the sorted set of identifiers the fragment references
// but does not itself declare. Selector tails (the x in pkg.x) and
// predeclared names are excluded. The caller decides which of these are
// actually unresolved in its namespace.
func (b *Block) FreeIdents() []string {
	if b.kind == KindUnparsable {
		return nil
	}
	declared := map[string]bool{}
	used := map[string]bool{}

	var root ast.Node
	if b.exprAST != nil {
		root = b.exprAST
	} else {
		root = b.stmtsAST
	}

	// First pass: names the fragment declares.
	ast.Inspect(root, func(n ast.Node) bool {
		switch d := n.(type) {
		case *ast.AssignStmt:
			if d.Tok == token.DEFINE {
				for _, lhs := range d.Lhs {
					if id, ok := lhs.(*ast.Ident); ok {
						declared[id.Name] = true
					}
				}
			}
		case *ast.ValueSpec:
			for _, id := range d.Names {
				declared[id.Name] = true
			}
		case *ast.TypeSpec:
			declared[d.Name.Name] = true
		case *ast.FuncDecl:
			declared[d.Name.Name] = true
			collectFieldNames(d.Type, declared)
		case *ast.FuncLit:
			collectFieldNames(d.Type, declared)
		case *ast.RangeStmt:
			if d.Tok == token.DEFINE {
				if id, ok := d.Key.(*ast.Ident); ok {
					declared[id.Name] = true
				}
				if id, ok := d.Value.(*ast.Ident); ok {
					declared[id.Name] = true
				}
			}
		case *ast.ImportSpec:
			// An explicit import declares its package name.
			name := ""
			if d.Name != nil {
				name = d.Name.Name
			} else {
				path := strings.Trim(d.Path.Value, `"`)
				if i := strings.LastIndex(path, "/"); i >= 0 {
					path = path[i+1:]
				}
				name = path
			}
			declared[name] = true
		}
		return true
	})

	// Second pass: identifiers in use positions.
	visitUses(root, func(id *ast.Ident) {
		if !declared[id.Name] && !universe[id.Name] {
			used[id.Name] = true
		}
	})

	names := make([]string, 0, len(used))
	for name := range used {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectFieldNames(ft *ast.FuncType, into map[string]bool) {
	if ft == nil {
		return
	}
	for _, list := range []*ast.FieldList{ft.Params, ft.Results} {
		if list == nil {
			continue
		}
		for _, f := range list.List {
			for _, id := range f.Names {
				into[id.Name] = true
			}
		}
	}
}

// visitUses walks root and calls fn for every identifier in a value-use
// position, skipping selector tails, declaration names and composite
// literal field keys.
func visitUses(root ast.Node, fn func(*ast.Ident)) {
	skip := map[*ast.Ident]bool{}
	ast.Inspect(root, func(n ast.Node) bool {
		switch e := n.(type) {
		case *ast.File:
			// The package clause of the wrapping applied in classify.
			skip[e.Name] = true
		case *ast.SelectorExpr:
			skip[e.Sel] = true
		case *ast.KeyValueExpr:
			if id, ok := e.Key.(*ast.Ident); ok {
				skip[id] = true
			}
		case *ast.FuncDecl:
			skip[e.Name] = true
		case *ast.TypeSpec:
			skip[e.Name] = true
		case *ast.ValueSpec:
			for _, id := range e.Names {
				skip[id] = true
			}
		case *ast.Field:
			for _, id := range e.Names {
				skip[id] = true
			}
		case *ast.LabeledStmt:
			skip[e.Label] = true
		case *ast.BranchStmt:
			if e.Label != nil {
				skip[e.Label] = true
			}
		case *ast.ImportSpec:
			if e.Name != nil {
				skip[e.Name] = true
			}
		}
		return true
	})
	ast.Inspect(root, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && !skip[id] {
			fn(id)
		}
		return true
	})
}

// Join concatenates shell tokens with spaces and parses the result as one
// block, the way `py 3.0 / 4` becomes a single expression.
func Join(tokens []string) *Block {
	return NewBlock(strings.Join(tokens, " "))
}
