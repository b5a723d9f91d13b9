package runtimeops

import (
	"testing"

	"github.com/go-quicktest/qt"

	"esplang.dev/compiler/internal/values"
)

func TestConcat(t *testing.T) {
	got, err := Eval("CONCAT", []values.Value{values.Str("foo"), values.Str("bar")})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got.String(), "foobar"))

	_, err = Eval("CONCAT", []values.Value{values.Str("foo"), values.Int(1)})
	qt.Assert(t, qt.IsNotNil(err))
}

func TestSplit(t *testing.T) {
	got, err := Eval("SPLIT", []values.Value{values.Str("a,b,c"), values.Str(","), values.Int(1)})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got.String(), "b"))

	_, err = Eval("SPLIT", []values.Value{values.Str("a,b,c"), values.Str(","), values.Int(9)})
	qt.Assert(t, qt.IsNotNil(err))
}

func TestSubstring(t *testing.T) {
	got, err := Eval("SUBSTRING", []values.Value{values.Str("hello world"), values.Int(6)})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got.String(), "world"))

	got, err = Eval("SUBSTRING", []values.Value{values.Str("hello world"), values.Int(0), values.Int(5)})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got.String(), "hello"))
}

func TestRegexCapture(t *testing.T) {
	got, err := Eval("REGEX_CAPTURE", []values.Value{values.Str("build-42"), values.Str(`build-(\d+)`), values.Int(1)})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got.String(), "42"))

	got, err = Eval("REGEX_CAPTURE", []values.Value{values.Str("nomatch"), values.Str(`\d+`)})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got.String(), ""))

	_, err = Eval("REGEX_CAPTURE", []values.Value{values.Str("x"), values.Str("(")})
	qt.Assert(t, qt.IsNotNil(err))
}

func TestArithmeticChain(t *testing.T) {
	// 2 + 3 * 4 evaluated strictly left-to-right (no operator precedence,
	// mirroring a flat RUN parameter list): (2 + 3) * 4 = 20.
	got, err := Eval("ARITHMETIC", []values.Value{
		values.Int(2), values.Str("+"), values.Int(3), values.Str("*"), values.Int(4),
	})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got.String(), "20"))
}

func TestCount(t *testing.T) {
	got, err := Eval("COUNT", []values.Value{values.Str("hello")})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got.String(), "5"))

	got, err = Eval("COUNT", []values.Value{values.RecordOf(map[string]values.Value{"a": values.Int(1), "b": values.Int(2)})})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got.String(), "2"))
}

func TestUnique(t *testing.T) {
	got, err := Eval("UNIQUE", []values.Value{values.Str("b,a,b,c,a")})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got.String(), "a,b,c"))
}

func TestEnd(t *testing.T) {
	got, err := Eval("END", nil)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got.String(), ""))

	got, err = Eval("END", []values.Value{values.Str("last")})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got.String(), "last"))

	_, err = Eval("END", []values.Value{values.Str("a"), values.Str("b")})
	qt.Assert(t, qt.IsNotNil(err))
}

func TestMerge(t *testing.T) {
	got, err := Eval("MERGE", []values.Value{
		values.RecordOf(map[string]values.Value{"a": values.Int(1)}),
		values.RecordOf(map[string]values.Value{"b": values.Int(2)}),
	})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got.Kind, values.RecordData))
	qt.Assert(t, qt.HasLen(got.Record, 2))

	_, err = Eval("MERGE", []values.Value{values.Str("a"), values.Int(1)})
	qt.Assert(t, qt.IsNotNil(err))
}

func TestExtract(t *testing.T) {
	rec := values.RecordOf(map[string]values.Value{"name": values.Str("svc")})
	got, err := Eval("EXTRACT", []values.Value{rec, values.Str("name")})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got.String(), "svc"))

	_, err = Eval("EXTRACT", []values.Value{rec, values.Str("missing")})
	qt.Assert(t, qt.IsNotNil(err))

	got, err = Eval("EXTRACT", []values.Value{values.Str("passthrough")})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got.String(), "passthrough"))
}

func TestUnknownKind(t *testing.T) {
	_, err := Eval("NOT_A_KIND", nil)
	qt.Assert(t, qt.IsNotNil(err))
}
