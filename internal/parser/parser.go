// Package parser implements a recursive-descent parser building the AST
// defined in internal/ast over the token stream produced by
// internal/scanner (spec.md §4.3).
package parser

import (
	"fmt"
	"strconv"

	"esplang.dev/compiler/internal/ast"
	"esplang.dev/compiler/internal/errors"
	"esplang.dev/compiler/internal/limits"
	"esplang.dev/compiler/internal/scanner"
	"esplang.dev/compiler/internal/token"
)

// parser holds the state for one parse over a Stream. Every decision is
// made on the current token alone; the parser never backtracks and does
// not use the Stream's checkpoints.
type parser struct {
	s       *scanner.Stream
	diags   errors.List
	ctnSeq  int // monotonically increasing CTN node-id counter
	depth   int
}

// Parse tokenizes and parses src, returning the File AST or a
// diagnostic list. No stage ever returns both (spec.md §7).
func Parse(filename string, src []byte) (*ast.File, errors.List) {
	file := token.NewFile(filename, len(src))
	stream, diags := scanner.Scan(file, src)
	if diags != nil {
		return nil, diags
	}

	p := &parser{s: stream}
	f := p.parseFile()
	if p.diags.HasErrors() {
		return nil, p.diags
	}
	return f, nil
}

func (p *parser) errorf(span token.Span, code errors.Code, format string, args ...interface{}) {
	p.diags.Add(errors.New(code, errors.CategoryStructural, span, format, args...))
}

func (p *parser) expectKeyword(tok token.Token) (token.Span, bool) {
	cur := p.s.Current()
	if cur.Tok != tok {
		p.errorf(cur.Span, errors.ParseError, "expected %s, found %s %q", tok, cur.Tok, cur.Lit)
		return cur.Span, false
	}
	p.s.Advance()
	return cur.Span, true
}

func (p *parser) expectIdent() (string, token.Span, bool) {
	cur := p.s.Current()
	if cur.Tok != token.IDENT {
		p.errorf(cur.Span, errors.ParseError, "expected identifier, found %s %q", cur.Tok, cur.Lit)
		return "", cur.Span, false
	}
	p.s.Advance()
	return cur.Lit, cur.Span, true
}

// enterBlock consumes an opening block keyword and returns its matching
// end keyword, verifying the caller's own close call consumes exactly
// that token (spec.md §4.3 "the parser enforces, for every open block,
// that the matching end token is consumed on exit").
func (p *parser) enterBlock(open token.Token) (endKw token.Token, start token.Span, ok bool) {
	endKw, hasEnd := token.CorrespondingEnd(open)
	if !hasEnd {
		panic(fmt.Sprintf("parser: %s is not a block-opening keyword", open))
	}
	p.depth++
	if p.depth > limits.MaxBlockDepth {
		p.errorf(p.s.Current().Span, errors.IncompleteDefinitionStructure,
			"block nesting exceeds maximum depth of %d", limits.MaxBlockDepth)
		p.depth--
		start, _ = p.expectKeyword(open) // consume so the caller's body loop makes progress
		return endKw, start, false
	}
	start, ok = p.expectKeyword(open)
	return endKw, start, ok
}

func (p *parser) exitBlock(endKw token.Token) (token.Span, bool) {
	p.depth--
	return p.expectKeyword(endKw)
}

// parseFile parses `file := metadata? definition`.
func (p *parser) parseFile() *ast.File {
	start := p.s.Current().Span
	var meta *ast.Metadata
	if p.s.Current().Tok == token.META {
		meta = p.parseMetadata()
	}
	def := p.parseDefinition()
	end := p.s.Current().Span
	return &ast.File{Base: ast.NewBase(start.Merge(end)), Metadata: meta, Def: def}
}

// parseMetadata parses `metadata := "META" field* "META_END"`.
func (p *parser) parseMetadata() *ast.Metadata {
	_, start, ok := p.enterBlock(token.META)
	if !ok {
		return nil
	}
	var fields []*ast.MetadataField
	for {
		cur := p.s.Current()
		if cur.Tok == token.META_END || cur.Tok == token.EOF {
			break
		}
		fields = append(fields, p.parseMetadataField())
	}
	end, _ := p.exitBlock(token.META_END)
	return &ast.Metadata{Base: ast.NewBase(start.Merge(end)), Fields: fields}
}

// parseMetadataField parses `field := identifier value`. Field names may
// be one of the reserved lowercase metadata keywords (module_name, verb,
// noun, module_id, module_version) or a plain identifier, per the "(name,
// value) fields" shape in spec.md §3.
func (p *parser) parseMetadataField() *ast.MetadataField {
	cur := p.s.Current()
	var name string
	switch cur.Tok {
	case token.MODULE_NAME, token.VERB, token.NOUN, token.MODULE_ID, token.MODULE_VERSION:
		name = cur.Lit
		p.s.Advance()
	default:
		name, _, _ = p.expectIdent()
	}
	val := p.parseValue()
	span := cur.Span
	if val != nil {
		span = span.Merge(val.Span())
	}
	return &ast.MetadataField{Base: ast.NewBase(span), Name: name, Value: val}
}

// parseDefinition parses the fixed-order-of-kinds DEF block (spec.md
// §4.3 "Definition body ordering").
func (p *parser) parseDefinition() *ast.Definition {
	_, start, ok := p.enterBlock(token.DEF)
	if !ok {
		return nil
	}
	def := &ast.Definition{}
	for {
		cur := p.s.Current()
		switch cur.Tok {
		case token.DEF_END, token.EOF:
			goto done
		case token.VAR:
			def.Vars = append(def.Vars, p.parseVarDecl())
		case token.STATE:
			def.States = append(def.States, p.parseStateDecl())
		case token.OBJECT:
			def.Objects = append(def.Objects, p.parseObjectDecl())
		case token.RUN:
			def.RunOps = append(def.RunOps, p.parseRunOp())
		case token.SET:
			def.SetOps = append(def.SetOps, p.parseSetOp())
		case token.CRI:
			def.Criteria = append(def.Criteria, p.parseCriteriaTree())
		default:
			p.errorf(cur.Span, errors.ParseError, "unexpected token %s %q in definition", cur.Tok, cur.Lit)
			p.s.Advance()
		}
	}
done:
	end, _ := p.exitBlock(token.DEF_END)
	if len(def.Criteria) == 0 {
		p.errorf(start.Merge(end), errors.IncompleteDefinitionStructure,
			"definition must contain at least one criteria block")
	}
	def.Base = ast.NewBase(start.Merge(end))
	return def
}

// -----------------------------------------------------------------------
// Values

// parseValue parses `value_spec := direct_value | "VAR" identifier`.
func (p *parser) parseValue() ast.Value {
	cur := p.s.Current()
	switch cur.Tok {
	case token.VAR:
		p.s.Advance()
		name, span, _ := p.expectIdent()
		return &ast.VarRef{Base: ast.NewBase(cur.Span.Merge(span)), Name: name}
	case token.SUB:
		// signed numeric literal: only accepted directly at a value site.
		p.s.Advance()
		return p.parseSignedNumber(cur.Span)
	case token.STRING:
		p.s.Advance()
		return p.parseStringLit(cur)
	case token.INT:
		p.s.Advance()
		return p.parseIntLit(cur, false)
	case token.FLOAT:
		p.s.Advance()
		return p.parseFloatLit(cur, false)
	case token.TRUE:
		p.s.Advance()
		return &ast.BoolLit{Base: ast.NewBase(cur.Span), Value: true}
	case token.FALSE:
		p.s.Advance()
		return &ast.BoolLit{Base: ast.NewBase(cur.Span), Value: false}
	default:
		p.errorf(cur.Span, errors.ParseError, "expected a value, found %s %q", cur.Tok, cur.Lit)
		return nil
	}
}

func (p *parser) parseSignedNumber(minusSpan token.Span) ast.Value {
	cur := p.s.Current()
	switch cur.Tok {
	case token.INT:
		p.s.Advance()
		return p.parseIntLit(cur, true)
	case token.FLOAT:
		p.s.Advance()
		return p.parseFloatLit(cur, true)
	default:
		p.errorf(minusSpan.Merge(cur.Span), errors.ParseError, "expected a number after '-', found %s %q", cur.Tok, cur.Lit)
		return nil
	}
}

func (p *parser) parseStringLit(cur scanner.Entry) *ast.StringLit {
	unescaped, ok := Unquote(cur.Lit)
	if !ok {
		p.errorf(cur.Span, errors.ParseError, "invalid string literal %q", cur.Lit)
	}
	return &ast.StringLit{Base: ast.NewBase(cur.Span), Value: unescaped, Raw: cur.Lit}
}

func (p *parser) parseIntLit(cur scanner.Entry, signed bool) *ast.IntLit {
	lit := cur.Lit
	if signed {
		lit = "-" + lit
	}
	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		p.errorf(cur.Span, errors.ParseError, "integer literal %q overflows", lit)
	}
	return &ast.IntLit{Base: ast.NewBase(cur.Span), Value: v, Raw: lit}
}

func (p *parser) parseFloatLit(cur scanner.Entry, signed bool) *ast.FloatLit {
	lit := cur.Lit
	if signed {
		lit = "-" + lit
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		p.errorf(cur.Span, errors.ParseError, "float literal %q is invalid", lit)
	}
	return &ast.FloatLit{Base: ast.NewBase(cur.Span), Value: v, Raw: lit}
}
