package token

import (
	"testing"

	"github.com/go-quicktest/qt"
)

func TestNoPosIsInvalid(t *testing.T) {
	qt.Assert(t, qt.IsFalse(NoPos.IsValid()))
	qt.Assert(t, qt.IsFalse(NoSpan.IsValid()))
}

func TestFilePositionTracksLinesAndColumns(t *testing.T) {
	src := "abc\nde\nf"
	f := NewFile("t.esp", len(src))
	for i, b := range src {
		if b == '\n' {
			f.AddLine(i + 1)
		}
	}
	qt.Assert(t, qt.Equals(f.LineCount(), 3))

	pos := f.Pos(5) // 'e' in "de"
	got := pos.Position()
	qt.Assert(t, qt.Equals(got.Filename, "t.esp"))
	qt.Assert(t, qt.Equals(got.Line, 2))
	qt.Assert(t, qt.Equals(got.Column, 2))
}

func TestSpanMergeExpandsToCoverBoth(t *testing.T) {
	f := NewFile("t.esp", 20)
	a := Span{Start: f.Pos(0), End: f.Pos(3)}
	b := Span{Start: f.Pos(5), End: f.Pos(10)}

	merged := a.Merge(b)
	qt.Assert(t, qt.Equals(merged.Start, a.Start))
	qt.Assert(t, qt.Equals(merged.End, b.End))
}

func TestSpanMergeWithInvalidReturnsOther(t *testing.T) {
	f := NewFile("t.esp", 20)
	valid := Span{Start: f.Pos(0), End: f.Pos(3)}

	qt.Assert(t, qt.Equals(NoSpan.Merge(valid), valid))
	qt.Assert(t, qt.Equals(valid.Merge(NoSpan), valid))
}

func TestLookupKeywordsAndIdent(t *testing.T) {
	qt.Assert(t, qt.Equals(Lookup("DEF"), DEF))
	qt.Assert(t, qt.Equals(Lookup("contains"), CONTAINS))
	qt.Assert(t, qt.Equals(Lookup("not_a_keyword"), IDENT))
}

func TestIsReservedWord(t *testing.T) {
	qt.Assert(t, qt.IsTrue(IsReservedWord("VAR")))
	qt.Assert(t, qt.IsFalse(IsReservedWord("my_var")))
}

func TestCorrespondingEnd(t *testing.T) {
	end, ok := CorrespondingEnd(DEF)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(end, DEF_END))

	_, ok = CorrespondingEnd(IDENT)
	qt.Assert(t, qt.IsFalse(ok))
}
