package scanner

import (
	"esplang.dev/compiler/internal/errors"
	"esplang.dev/compiler/internal/limits"
	"esplang.dev/compiler/internal/token"
)

// Entry is one scanned token together with its span.
type Entry struct {
	Tok  token.Token
	Lit  string
	Span token.Span
}

// Stream holds every scanned token (for accurate span recovery) plus an
// index over just the significant ones, so the parser never sees
// whitespace, newlines, or comments but can still recover the exact span
// of any token by index (spec.md §4.2).
type Stream struct {
	all         []Entry
	significant []int // indices into all

	pos int // index into significant
}

// Scan tokenizes src in full and builds a Stream over it. The returned
// error list contains one LEX_ERROR diagnostic per lexical problem and a
// FileTooLarge/critical diagnostic if a compile-time cap is exceeded; in
// the latter case the returned Stream is nil, matching "no stage ever
// returns both a partial artifact and errors" (spec.md §7).
func Scan(file *token.File, src []byte) (*Stream, errors.List) {
	var diags errors.List
	if len(src) > limits.MaxSourceBytes {
		diags.Add(errors.New(errors.FileTooLarge, errors.CategoryFileProcessing, token.NoSpan,
			"source exceeds maximum size of %d bytes", limits.MaxSourceBytes))
		return nil, diags
	}

	handler := func(pos token.Position, msg string) {
		diags.Add(errors.New(errors.LexError, errors.CategoryLexical,
			token.Span{Start: token.Pos{}, End: token.Pos{}}, "%s", msg).
			WithContext("position", pos.String()))
	}

	var sc Scanner
	sc.Init(file, src, handler, ScanComments)

	st := &Stream{}
	lastEnd := file.Pos(0)
	for {
		if len(st.all) > limits.MaxTokens {
			diags.Add(errors.New(errors.FileTooLarge, errors.CategoryFileProcessing, token.NoSpan,
				"token count exceeds maximum of %d", limits.MaxTokens))
			return nil, diags
		}
		if file.LineCount() > limits.MaxLines {
			diags.Add(errors.New(errors.FileTooLarge, errors.CategoryFileProcessing, token.NoSpan,
				"line count exceeds maximum of %d", limits.MaxLines))
			return nil, diags
		}

		startPos, tok, lit := sc.Scan()
		endPos := file.Pos(startPos.Offset() + len(lit))
		span := token.Span{Start: startPos, End: endPos}
		entry := Entry{Tok: tok, Lit: lit, Span: span}
		st.all = append(st.all, entry)
		if tok.IsSignificant() {
			st.significant = append(st.significant, len(st.all)-1)
		}
		lastEnd = endPos
		if tok == token.EOF {
			break
		}
	}
	_ = lastEnd

	if diags.HasErrors() {
		return nil, diags
	}
	return st, nil
}

// Checkpoint is an opaque saved position for speculative matching.
type Checkpoint int

// Save returns a checkpoint that Restore can later return to.
func (s *Stream) Save() Checkpoint { return Checkpoint(s.pos) }

// Restore rewinds the stream to a previously saved checkpoint.
func (s *Stream) Restore(c Checkpoint) { s.pos = int(c) }

// Peek returns the significant token n positions ahead of the current
// one (Peek(0) is the current token).
func (s *Stream) Peek(n int) Entry {
	i := s.pos + n
	if i < 0 || i >= len(s.significant) {
		return s.all[s.significant[len(s.significant)-1]] // EOF is always last
	}
	return s.all[s.significant[i]]
}

// Current returns the current significant token.
func (s *Stream) Current() Entry { return s.Peek(0) }

// Advance moves to the next significant token and returns it.
func (s *Stream) Advance() Entry {
	if s.pos < len(s.significant)-1 {
		s.pos++
	}
	return s.Current()
}

// AtEnd reports whether the stream is positioned at EOF.
func (s *Stream) AtEnd() bool { return s.Current().Tok == token.EOF }

// Expect advances past the current token if it matches kind, returning
// its Entry and true; otherwise it returns the current Entry unchanged
// and false.
func (s *Stream) Expect(kind token.Token) (Entry, bool) {
	cur := s.Current()
	if cur.Tok != kind {
		return cur, false
	}
	s.Advance()
	return cur, true
}

// SpanFrom merges the span of the token at the saved checkpoint with the
// current token's span, reconstructing an accurate range across a
// filtered parse even though whitespace/comments were skipped in
// between (spec.md §4.2, P2).
func (s *Stream) SpanFrom(c Checkpoint) token.Span {
	start := s.all[s.significant[int(c)]].Span
	end := s.Current().Span
	return start.Merge(end)
}
