package ast_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"esplang.dev/compiler/internal/ast"
	"esplang.dev/compiler/internal/parser"
)

func TestInspectVisitsEveryDeclaration(t *testing.T) {
	f, diags := parser.Parse("t.esp", []byte(`
DEF
VAR a int 1
OBJECT o1
name string "svc"
OBJECT_END
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`))
	qt.Assert(t, qt.IsFalse(diags.HasErrors()))

	var varDecls, objectDecls, criteria int
	ast.Inspect(f, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.VarDecl:
			varDecls++
		case *ast.ObjectDecl:
			objectDecls++
		case *ast.Block:
			criteria++
		}
		return true
	})

	qt.Assert(t, qt.Equals(varDecls, 1))
	qt.Assert(t, qt.Equals(objectDecls, 1))
	qt.Assert(t, qt.Equals(criteria, 1))
}

func TestInspectStoppingAtANodeSkipsItsChildren(t *testing.T) {
	f, diags := parser.Parse("t.esp", []byte(`
DEF
OBJECT o1
name string "svc"
port int 8080
OBJECT_END
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`))
	qt.Assert(t, qt.IsFalse(diags.HasErrors()))

	var fields int
	ast.Inspect(f, func(n ast.Node) bool {
		if _, ok := n.(*ast.ObjectDecl); ok {
			return false // don't descend into its fields
		}
		if _, ok := n.(*ast.ObjectField); ok {
			fields++
		}
		return true
	})

	qt.Assert(t, qt.Equals(fields, 0))
}

func TestBaseSpanRoundTrips(t *testing.T) {
	f, diags := parser.Parse("t.esp", []byte(`
DEF
VAR a int 1
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`))
	qt.Assert(t, qt.IsFalse(diags.HasErrors()))
	qt.Assert(t, qt.IsTrue(f.Def.Vars[0].Span().IsValid()))
}
