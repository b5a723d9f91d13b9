package parser

import (
	"esplang.dev/compiler/internal/ast"
	"esplang.dev/compiler/internal/errors"
	"esplang.dev/compiler/internal/token"
)

// parseVarDecl parses `var_decl := "VAR" identifier type value?`.
func (p *parser) parseVarDecl() *ast.VarDecl {
	start, _ := p.expectKeyword(token.VAR)
	name, _, _ := p.expectIdent()
	dtype, dtSpan, _ := p.expectIdent()
	end := dtSpan

	var init ast.Value
	if p.canStartValue() {
		init = p.parseValue()
		if init != nil {
			end = init.Span()
		}
	}
	return &ast.VarDecl{Base: ast.NewBase(start.Merge(end)), Name: name, DataType: dtype, Init: init}
}

func (p *parser) canStartValue() bool {
	switch p.s.Current().Tok {
	case token.VAR, token.SUB, token.STRING, token.INT, token.FLOAT, token.TRUE, token.FALSE:
		return true
	default:
		return false
	}
}

// isTestComponent reports whether t is one of the closed vocabulary of
// test-component tokens that may fill the optional entity_check slot
// (spec.md §3, §6.1).
func isTestComponent(t token.Token) bool {
	switch t {
	case token.ANY, token.ALL, token.AT_LEAST_ONE, token.ONLY_ONE, token.NONE, token.NONE_SATISFY:
		return true
	default:
		return false
	}
}

// parseStateDecl parses `state_decl := "STATE" identifier state_body "STATE_END"`
// where `state_body := (state_field | record_block)*`.
func (p *parser) parseStateDecl() *ast.StateDecl {
	_, start, ok := p.enterBlock(token.STATE)
	if !ok {
		return nil
	}
	name, _, _ := p.expectIdent()
	decl := &ast.StateDecl{Name: name}
	for {
		cur := p.s.Current()
		switch cur.Tok {
		case token.STATE_END, token.EOF:
			goto done
		case token.RECORD:
			decl.Records = append(decl.Records, p.parseRecordBlock())
		case token.IDENT:
			decl.Fields = append(decl.Fields, p.parseStateField())
		default:
			p.errorf(cur.Span, errors.ParseError, "unexpected token %s in STATE body", cur.Tok)
			p.s.Advance()
		}
	}
done:
	end, _ := p.exitBlock(token.STATE_END)
	decl.Base = ast.NewBase(start.Merge(end))
	return decl
}

func (p *parser) parseRecordBlock() *ast.RecordBlock {
	start, _ := p.expectKeyword(token.RECORD)
	var fields []*ast.StateField
	for {
		cur := p.s.Current()
		if cur.Tok == token.RECORD_END || cur.Tok == token.EOF {
			break
		}
		fields = append(fields, p.parseStateField())
	}
	end, _ := p.expectKeyword(token.RECORD_END)
	return &ast.RecordBlock{Base: ast.NewBase(start.Merge(end)), Fields: fields}
}

// parseStateField parses `state_field := identifier type op value
// entity_check?`.
func (p *parser) parseStateField() *ast.StateField {
	name, start, _ := p.expectIdent()
	dtype, _, _ := p.expectIdent()
	opTok := p.s.Current()
	if !opTok.Tok.IsOperator() {
		p.errorf(opTok.Span, errors.ParseError, "expected a comparison operator, found %s %q", opTok.Tok, opTok.Lit)
	} else {
		p.s.Advance()
	}
	val := p.parseValue()
	end := opTok.Span
	if val != nil {
		end = val.Span()
	}
	var entityCheck string
	if isTestComponent(p.s.Current().Tok) {
		cur := p.s.Current()
		entityCheck = cur.Lit
		end = cur.Span
		p.s.Advance()
	}
	return &ast.StateField{
		Base: ast.NewBase(start.Merge(end)), Name: name, DataType: dtype,
		Operator: opTok.Tok, Value: val, EntityCheck: entityCheck,
	}
}

// parseObjectDecl parses `object_decl := "OBJECT" identifier obj_element*
// "OBJECT_END"`.
func (p *parser) parseObjectDecl() *ast.ObjectDecl {
	_, start, ok := p.enterBlock(token.OBJECT)
	if !ok {
		return nil
	}
	name, _, _ := p.expectIdent()
	decl := &ast.ObjectDecl{Name: name}
	p.parseObjectElements(decl, token.OBJECT_END)
	end, _ := p.exitBlock(token.OBJECT_END)
	decl.Base = ast.NewBase(start.Merge(end))
	return decl
}

// parseObjectElements appends obj_element* to decl.Elements up to (not
// including) the terminator token.
func (p *parser) parseObjectElements(decl *ast.ObjectDecl, terminator token.Token) {
	for {
		cur := p.s.Current()
		switch cur.Tok {
		case terminator, token.EOF:
			return
		case token.BEHAVIOR:
			decl.Elements = append(decl.Elements, p.parseObjectBehavior())
		case token.SET_REF:
			decl.Elements = append(decl.Elements, p.parseObjectSetRef())
		case token.SELECT:
			decl.Elements = append(decl.Elements, p.parseObjectSelect())
		case token.IDENT:
			decl.Elements = append(decl.Elements, p.parseObjectField())
		default:
			p.errorf(cur.Span, errors.ParseError, "unexpected token %s in OBJECT body", cur.Tok)
			p.s.Advance()
		}
	}
}

func (p *parser) parseObjectField() *ast.ObjectField {
	name, start, _ := p.expectIdent()
	dtype, _, _ := p.expectIdent()
	val := p.parseValue()
	end := start
	if val != nil {
		end = val.Span()
	}
	return &ast.ObjectField{Base: ast.NewBase(start.Merge(end)), Name: name, DataType: dtype, Value: val}
}

func (p *parser) parseObjectBehavior() *ast.ObjectBehavior {
	start, _ := p.expectKeyword(token.BEHAVIOR)
	name, _, _ := p.expectIdent()
	val := p.parseValue()
	end := start
	if val != nil {
		end = val.Span()
	}
	return &ast.ObjectBehavior{Base: ast.NewBase(start.Merge(end)), Name: name, Value: val}
}

func (p *parser) parseObjectSetRef() *ast.ObjectSetRef {
	start, _ := p.expectKeyword(token.SET_REF)
	id, idSpan, _ := p.expectIdent()
	return &ast.ObjectSetRef{Base: ast.NewBase(start.Merge(idSpan)), SetID: id}
}

func (p *parser) parseObjectSelect() *ast.ObjectSelect {
	start, _ := p.expectKeyword(token.SELECT)
	var paths []string
	for {
		cur := p.s.Current()
		if cur.Tok == token.SELECT_END || cur.Tok == token.EOF {
			break
		}
		name, _, _ := p.expectIdent()
		paths = append(paths, name)
	}
	endSpan, _ := p.expectKeyword(token.SELECT_END)
	return &ast.ObjectSelect{Base: ast.NewBase(start.Merge(endSpan)), FieldPaths: paths}
}
