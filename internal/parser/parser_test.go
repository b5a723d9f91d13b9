package parser_test

import (
	"strings"
	"testing"

	"github.com/go-quicktest/qt"

	"esplang.dev/compiler/internal/ast"
	"esplang.dev/compiler/internal/errors"
	"esplang.dev/compiler/internal/parser"
)

func TestParseMinimalDefinition(t *testing.T) {
	f, diags := parser.Parse("t.esp", []byte(`
DEF
VAR a int 1
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`))
	qt.Assert(t, qt.IsNil(diags))
	qt.Assert(t, qt.IsNotNil(f))
	qt.Assert(t, qt.IsNotNil(f.Def))
	qt.Assert(t, qt.HasLen(f.Def.Vars, 1))
	qt.Assert(t, qt.IsNil(f.Metadata))
}

func TestParseMetadata(t *testing.T) {
	f, diags := parser.Parse("t.esp", []byte(`
META
module_name "svc"
module_version "1.0"
META_END
DEF
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`))
	qt.Assert(t, qt.IsNil(diags))
	qt.Assert(t, qt.IsNotNil(f.Metadata))
	qt.Assert(t, qt.HasLen(f.Metadata.Fields, 2))
}

func TestParseMissingDefEndIsParseError(t *testing.T) {
	_, diags := parser.Parse("t.esp", []byte(`
DEF
VAR a int 1
CRI AND
CTN check TEST any all
CTN_END
CRI_END
`))
	qt.Assert(t, qt.IsTrue(diags.HasErrors()))
	qt.Assert(t, qt.Equals(diags[0].Code, errors.ParseError))
}

func TestParseUnexpectedTokenInsteadOfIdentifier(t *testing.T) {
	_, diags := parser.Parse("t.esp", []byte(`
DEF
VAR 123 int 1
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`))
	qt.Assert(t, qt.IsTrue(diags.HasErrors()))
	qt.Assert(t, qt.Equals(diags[0].Code, errors.ParseError))
}

func TestParseRunOpFieldExtractParameter(t *testing.T) {
	f, diags := parser.Parse("t.esp", []byte(`
DEF
OBJECT o1
name string "svc"
OBJECT_END
RUN c EXTRACT
parameters
OBJ o1 name
parameters_end
RUN_END
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`))
	qt.Assert(t, qt.IsNil(diags))
	qt.Assert(t, qt.HasLen(f.Def.RunOps, 1))
	qt.Assert(t, qt.HasLen(f.Def.RunOps[0].Parameters, 1))
}

func TestParseSetOpInlineAnonymousObject(t *testing.T) {
	f, diags := parser.Parse("t.esp", []byte(`
DEF
SET s union
OBJECT
name string "a"
OBJECT_END
OBJECT
name string "b"
OBJECT_END
SET_END
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`))
	qt.Assert(t, qt.IsNil(diags))
	qt.Assert(t, qt.HasLen(f.Def.SetOps, 1))
	qt.Assert(t, qt.HasLen(f.Def.SetOps[0].Operands, 2))
}

func TestParseCriteriaNegation(t *testing.T) {
	f, diags := parser.Parse("t.esp", []byte(`
DEF
CRI AND true
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`))
	qt.Assert(t, qt.IsNil(diags))
	qt.Assert(t, qt.HasLen(f.Def.Criteria, 1))
	block, ok := f.Def.Criteria[0].(*ast.Block)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.IsTrue(block.Negate))
}

func TestParseExceedingMaxBlockDepthRecoversRatherThanHanging(t *testing.T) {
	var b strings.Builder
	b.WriteString("DEF\n")
	const n = 300
	for i := 0; i < n; i++ {
		b.WriteString("CRI AND\n")
	}
	b.WriteString("CTN check TEST any all\nCTN_END\n")
	for i := 0; i < n; i++ {
		b.WriteString("CRI_END\n")
	}
	b.WriteString("DEF_END\n")

	_, diags := parser.Parse("t.esp", []byte(b.String()))
	qt.Assert(t, qt.IsTrue(diags.HasErrors()))
	found := false
	for _, d := range diags {
		if d.Code == errors.IncompleteDefinitionStructure {
			found = true
		}
	}
	qt.Assert(t, qt.IsTrue(found))
}
