package compile_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"esplang.dev/compiler/internal/compile"
	"esplang.dev/compiler/internal/config"
)

const okSource = `
DEF
VAR x int 42
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`

const badSource = `
DEF
CRI AND
CTN check TEST any all
STATE_REF missing
CTN_END
CRI_END
DEF_END
`

func TestCompileSuccess(t *testing.T) {
	res := compile.Compile("ok.esp", []byte(okSource), config.Default(), nil)
	qt.Assert(t, qt.IsFalse(res.Diagnostics.HasErrors()))
	qt.Assert(t, qt.IsNotNil(res.Plan))
	qt.Assert(t, qt.Equals(res.Plan.Values["x"].String(), "42"))
	qt.Assert(t, qt.Not(qt.Equals(res.JobID, "")))
	qt.Assert(t, qt.Not(qt.Equals(res.Digest.String(), "")))
}

func TestCompileFailureStopsBeforePlan(t *testing.T) {
	res := compile.Compile("bad.esp", []byte(badSource), config.Default(), nil)
	qt.Assert(t, qt.IsTrue(res.Diagnostics.HasErrors()))
	qt.Assert(t, qt.IsNil(res.Plan))
}

func TestCompileIsDeterministicForSameInput(t *testing.T) {
	r1 := compile.Compile("same.esp", []byte(okSource), config.Default(), nil)
	r2 := compile.Compile("same.esp", []byte(okSource), config.Default(), nil)
	qt.Assert(t, qt.Equals(r1.Digest, r2.Digest))
	qt.Assert(t, qt.Not(qt.Equals(r1.JobID, r2.JobID)))
}
