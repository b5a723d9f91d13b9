// Package scanner implements the lexer for the endpoint-state policy
// language: a single forward pass over UTF-8 source bytes producing
// span-accurate tokens (spec.md §4.1).
package scanner

import (
	"unicode"
	"unicode/utf8"

	"esplang.dev/compiler/internal/errors"
	"esplang.dev/compiler/internal/limits"
	"esplang.dev/compiler/internal/token"
)

// Mode is a set of flags controlling scanner behavior.
type Mode uint

const (
	// ScanComments is stored by Init but not consulted by Scan: comments
	// are returned as COMMENT tokens whether or not it is set.
	ScanComments Mode = 1 << iota
)

// Scanner holds the lexer's state while processing one source file. It
// must be initialized via Init before use, and is not safe for
// concurrent use from multiple goroutines (a compile job is
// single-threaded; spec.md §5).
type Scanner struct {
	file *token.File
	src  []byte
	err  errors.Handler
	mode Mode

	ch       rune
	offset   int
	rdOffset int

	ErrorCount int
}

// Init prepares s to scan src, which must be exactly file.Size() bytes.
func (s *Scanner) Init(file *token.File, src []byte, err errors.Handler, mode Mode) {
	s.file = file
	s.src = src
	s.err = err
	s.mode = mode

	s.ch = ' '
	s.offset = 0
	s.rdOffset = 0
	s.ErrorCount = 0

	s.next()
}

func (s *Scanner) error(offs int, msg string) {
	if s.err != nil {
		s.err(s.file.Pos(offs).Position(), msg)
	}
	s.ErrorCount++
}

const eof = -1

func (s *Scanner) next() {
	if s.rdOffset < len(s.src) {
		s.offset = s.rdOffset
		if s.ch == '\n' {
			s.file.AddLine(s.offset)
		}
		r, w := rune(s.src[s.rdOffset]), 1
		switch {
		case r == 0:
			s.error(s.offset, "illegal character NUL")
		case r >= utf8.RuneSelf:
			r, w = utf8.DecodeRune(s.src[s.rdOffset:])
			if r == utf8.RuneError && w == 1 {
				s.error(s.offset, "illegal UTF-8 encoding")
			}
		}
		s.rdOffset += w
		s.ch = r
	} else {
		s.offset = len(s.src)
		if s.ch == '\n' {
			s.file.AddLine(s.offset)
		}
		s.ch = eof
	}
}

func (s *Scanner) peekByte() byte {
	if s.rdOffset < len(s.src) {
		return s.src[s.rdOffset]
	}
	return 0
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

// Scan returns the position, kind, and literal text of the next token.
// Non-significant tokens (WHITESPACE, NEWLINE, and COMMENT, regardless of
// the mode) are still returned, not skipped: the caller (the
// token stream, §4.2) decides what to filter while preserving spans.
func (s *Scanner) Scan() (pos token.Pos, tok token.Token, lit string) {
	offs := s.offset
	pos = s.file.Pos(offs)

	switch ch := s.ch; {
	case ch == eof:
		return pos, token.EOF, ""
	case ch == '\n':
		s.next()
		return pos, token.NEWLINE, "\n"
	case ch == ' ' || ch == '\t' || ch == '\r':
		for s.ch == ' ' || s.ch == '\t' || s.ch == '\r' {
			s.next()
		}
		return pos, token.WHITESPACE, string(s.src[offs:s.offset])
	case isLetter(ch):
		return pos, s.scanWord(offs)
	case isDigit(ch):
		return s.scanNumber(offs)
	case ch == '"':
		lit, ok := s.scanString(offs)
		if !ok {
			return pos, token.ILLEGAL, lit
		}
		return pos, token.STRING, lit
	case ch == '`':
		lit, ok := s.scanRawString(offs)
		if !ok {
			return pos, token.ILLEGAL, lit
		}
		return pos, token.STRING, lit
	default:
		return s.scanOperator(offs)
	}
}

func (s *Scanner) scanWord(offs int) (token.Token, string) {
	for isLetter(s.ch) || isDigit(s.ch) {
		s.next()
	}
	lit := string(s.src[offs:s.offset])
	if len(lit) > limits.MaxIdentifierLength {
		s.error(offs, "identifier exceeds maximum length")
	}
	switch lit {
	case "true":
		return token.TRUE, lit
	case "false":
		return token.FALSE, lit
	}
	return token.Lookup(lit), lit
}

func (s *Scanner) scanNumber(offs int) (token.Pos, token.Token, string) {
	pos := s.file.Pos(offs)
	isFloat := false
	for isDigit(s.ch) {
		s.next()
	}
	if s.ch == '.' && isDigit(rune(s.peekByte())) {
		isFloat = true
		s.next()
		for isDigit(s.ch) {
			s.next()
		}
	}
	if s.ch == 'e' || s.ch == 'E' {
		save, saveOff, saveRd := s.ch, s.offset, s.rdOffset
		s.next()
		if s.ch == '+' || s.ch == '-' {
			s.next()
		}
		if isDigit(s.ch) {
			isFloat = true
			for isDigit(s.ch) {
				s.next()
			}
		} else {
			// not an exponent after all; rewind
			s.ch, s.offset, s.rdOffset = save, saveOff, saveRd
		}
	}
	lit := string(s.src[offs:s.offset])
	if isFloat {
		return pos, token.FLOAT, lit
	}
	return pos, token.INT, lit
}

var escapes = map[byte]byte{
	'n': '\n', 't': '\t', '"': '"', '\\': '\\',
}

func (s *Scanner) scanString(offs int) (string, bool) {
	s.next() // consume opening quote
	ok := true
	for {
		ch := s.ch
		if ch == '\n' || ch < 0 {
			s.error(offs, "unterminated string literal")
			ok = false
			break
		}
		s.next()
		if ch == '"' {
			break
		}
		if ch == '\\' {
			if _, valid := escapes[byte(s.ch)]; !valid {
				s.error(s.offset, "invalid escape sequence")
				ok = false
			}
			s.next()
		}
	}
	return string(s.src[offs:s.offset]), ok
}

func (s *Scanner) scanRawString(offs int) (string, bool) {
	s.next() // consume opening backtick
	ok := true
	for {
		ch := s.ch
		if ch < 0 {
			s.error(offs, "unterminated raw string literal")
			ok = false
			break
		}
		s.next()
		if ch == '`' {
			break
		}
	}
	return string(s.src[offs:s.offset]), ok
}

func (s *Scanner) scanLineComment(offs int) string {
	for s.ch != '\n' && s.ch != eof {
		s.next()
	}
	return string(s.src[offs:s.offset])
}

// scanOperator matches symbol operators longest-first so two-character
// operators (!=, >=, <=) always beat their one-character prefixes
// (spec.md §4.1, rule 4).
func (s *Scanner) scanOperator(offs int) (token.Pos, token.Token, string) {
	pos := s.file.Pos(offs)
	ch := s.ch
	s.next()
	switch ch {
	case '/':
		if s.ch == '/' {
			s.next()
			lit := s.scanLineComment(offs)
			return pos, token.COMMENT, lit
		}
		return pos, token.QUO, "/"
	case '=':
		return pos, token.EQ, "="
	case '!':
		if s.ch == '=' {
			s.next()
			return pos, token.NEQ, "!="
		}
	case '>':
		if s.ch == '=' {
			s.next()
			return pos, token.GE, ">="
		}
		return pos, token.GT, ">"
	case '<':
		if s.ch == '=' {
			s.next()
			return pos, token.LE, "<="
		}
		return pos, token.LT, "<"
	case '+':
		return pos, token.ADD, "+"
	case '-':
		return pos, token.SUB, "-"
	case '*':
		return pos, token.MUL, "*"
	case '%':
		return pos, token.REM, "%"
	}
	s.error(offs, "illegal character "+string(ch))
	return pos, token.ILLEGAL, string(ch)
}
