package validate_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"esplang.dev/compiler/internal/errors"
	"esplang.dev/compiler/internal/parser"
	"esplang.dev/compiler/internal/symbols"
	"esplang.dev/compiler/internal/validate"
)

func discover(t *testing.T, src string) *symbols.Table {
	t.Helper()
	f, diags := parser.Parse("t.esp", []byte(src))
	qt.Assert(t, qt.IsFalse(diags.HasErrors()), qt.Commentf("parse: %v", diags))
	tbl, diags := symbols.Discover(f)
	qt.Assert(t, qt.IsFalse(diags.HasErrors()), qt.Commentf("discover: %v", diags))
	return tbl
}

func TestValidateOK(t *testing.T) {
	tbl := discover(t, `
DEF
VAR a int 1
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	diags := validate.Validate(tbl, validate.DefaultOptions())
	qt.Assert(t, qt.IsNil(diags))
}

func TestValidateUndefinedReference(t *testing.T) {
	tbl := discover(t, `
DEF
CRI AND
CTN check TEST any all
STATE_REF missing
CTN_END
CRI_END
DEF_END
`)
	diags := validate.Validate(tbl, validate.DefaultOptions())
	qt.Assert(t, qt.IsTrue(diags.HasErrors()))
	qt.Assert(t, qt.Equals(diags[0].Code, errors.UndefinedReference))
}

func TestValidateCircularDependency(t *testing.T) {
	tbl := discover(t, `
DEF
VAR a int VAR b
VAR b int VAR a
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	diags := validate.Validate(tbl, validate.DefaultOptions())
	qt.Assert(t, qt.IsTrue(diags.HasErrors()))
	found := false
	for _, d := range diags {
		if d.Code == errors.CircularDependency {
			found = true
		}
	}
	qt.Assert(t, qt.IsTrue(found))
}

func TestValidateCycleDetectionDisabled(t *testing.T) {
	tbl := discover(t, `
DEF
VAR a int VAR b
VAR b int VAR a
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	opts := validate.DefaultOptions()
	opts.EnableCycleDetection = false
	diags := validate.Validate(tbl, opts)
	qt.Assert(t, qt.IsNil(diags))
}

func TestValidateLocalStateRefResolvesWithinItsOwnCTN(t *testing.T) {
	tbl := discover(t, `
DEF
CRI AND
CTN check TEST any all
STATE local1
flag boolean = true
STATE_END
STATE_REF local1
CTN_END
CRI_END
DEF_END
`)
	diags := validate.Validate(tbl, validate.DefaultOptions())
	qt.Assert(t, qt.IsNil(diags))
}
