package semantic_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"esplang.dev/compiler/internal/errors"
	"esplang.dev/compiler/internal/parser"
	"esplang.dev/compiler/internal/semantic"
	"esplang.dev/compiler/internal/symbols"
)

func analyze(t *testing.T, src string) errors.List {
	t.Helper()
	f, diags := parser.Parse("t.esp", []byte(src))
	qt.Assert(t, qt.IsFalse(diags.HasErrors()), qt.Commentf("parse: %v", diags))
	tbl, diags := symbols.Discover(f)
	qt.Assert(t, qt.IsFalse(diags.HasErrors()), qt.Commentf("discover: %v", diags))
	return semantic.Analyze(f, tbl)
}

func TestAnalyzeOK(t *testing.T) {
	diags := analyze(t, `
DEF
VAR a string "hi"
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	qt.Assert(t, qt.IsNil(diags))
}

func TestAnalyzeTypeIncompatibleOperator(t *testing.T) {
	diags := analyze(t, `
DEF
CRI AND
CTN check TEST any all
STATE local1
name string contains "x"
flag boolean > false
STATE_END
CTN_END
CRI_END
DEF_END
`)
	qt.Assert(t, qt.IsTrue(diags.HasErrors()))
	found := false
	for _, d := range diags {
		if d.Code == errors.TypeIncompatibility {
			found = true
		}
	}
	qt.Assert(t, qt.IsTrue(found))
}

func TestAnalyzeRunOpArity(t *testing.T) {
	diags := analyze(t, `
DEF
VAR a string "x"
RUN b COUNT
parameters
VAR a
VAR a
parameters_end
RUN_END
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	qt.Assert(t, qt.IsTrue(diags.HasErrors()))
	qt.Assert(t, qt.Equals(diags[0].Code, errors.RuntimeOperationError))
}

func TestAnalyzeRunOpTypeMismatch(t *testing.T) {
	diags := analyze(t, `
DEF
VAR a string "x"
VAR n int 1
RUN c CONCAT
parameters
VAR a
VAR n
parameters_end
RUN_END
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	qt.Assert(t, qt.IsTrue(diags.HasErrors()))
	qt.Assert(t, qt.Equals(diags[0].Code, errors.RuntimeOperationError))
}

func TestAnalyzeSetArityUnionRequiresTwo(t *testing.T) {
	diags := analyze(t, `
DEF
OBJECT o1
OBJECT_END
SET s union
OBJECT_REF o1
SET_END
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	qt.Assert(t, qt.IsTrue(diags.HasErrors()))
	qt.Assert(t, qt.Equals(diags[0].Code, errors.SetConstraintViolation))
}

func TestAnalyzeSetArityComplementRequiresExactlyTwo(t *testing.T) {
	diags := analyze(t, `
DEF
OBJECT o1
OBJECT_END
OBJECT o2
OBJECT_END
OBJECT o3
OBJECT_END
SET s complement
OBJECT_REF o1
OBJECT_REF o2
OBJECT_REF o3
SET_END
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	qt.Assert(t, qt.IsTrue(diags.HasErrors()))
	qt.Assert(t, qt.Equals(diags[0].Code, errors.SetConstraintViolation))
}
