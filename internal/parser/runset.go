package parser

import (
	"esplang.dev/compiler/internal/ast"
	"esplang.dev/compiler/internal/errors"
	"esplang.dev/compiler/internal/token"
)

func isRunKind(t token.Token) bool {
	switch t {
	case token.CONCAT, token.SPLIT, token.SUBSTRING, token.REGEX_CAPTURE,
		token.ARITHMETIC, token.COUNT, token.UNIQUE, token.END, token.MERGE, token.EXTRACT:
		return true
	default:
		return false
	}
}

func isSetKind(t token.Token) bool {
	switch t {
	case token.UNION, token.INTERSECTION, token.COMPLEMENT:
		return true
	default:
		return false
	}
}

// parseRunOp parses `run_op := "RUN" identifier run_kind "parameters"
// run_param* "parameters_end" "RUN_END"`.
func (p *parser) parseRunOp() *ast.RunOp {
	_, start, ok := p.enterBlock(token.RUN)
	if !ok {
		return nil
	}
	target, _, _ := p.expectIdent()

	kindTok := p.s.Current()
	if !isRunKind(kindTok.Tok) {
		p.errorf(kindTok.Span, errors.ParseError, "expected a runtime operation kind, found %s %q", kindTok.Tok, kindTok.Lit)
	} else {
		p.s.Advance()
	}

	var params []ast.RunParameter
	if _, _, ok := p.enterBlock(token.PARAMETERS); ok {
		for {
			cur := p.s.Current()
			if cur.Tok == token.PARAMETERS_END || cur.Tok == token.EOF {
				break
			}
			params = append(params, p.parseRunParameter())
		}
		p.exitBlock(token.PARAMETERS_END)
	}

	end, _ := p.exitBlock(token.RUN_END)
	return &ast.RunOp{
		Base: ast.NewBase(start.Merge(end)), Target: target,
		Kind: kindTok.Tok, Parameters: params,
	}
}

// parseRunParameter parses `run_param := value_spec | object_field_extract`,
// where object_field_extract is `"OBJ" identifier identifier`.
func (p *parser) parseRunParameter() ast.RunParameter {
	cur := p.s.Current()
	switch cur.Tok {
	case token.OBJ:
		p.s.Advance()
		obj, _, _ := p.expectIdent()
		field, fieldSpan, _ := p.expectIdent()
		return &ast.RunParamFieldExtract{Base: ast.NewBase(cur.Span.Merge(fieldSpan)), Object: obj, Field: field}
	case token.VAR:
		p.s.Advance()
		name, span, _ := p.expectIdent()
		return &ast.RunParamVar{Base: ast.NewBase(cur.Span.Merge(span)), Name: name}
	default:
		val := p.parseValue()
		span := cur.Span
		if val != nil {
			span = span.Merge(val.Span())
		}
		return &ast.RunParamLiteral{Base: ast.NewBase(span), Value: val}
	}
}

func isOperandStart(t token.Token) bool {
	switch t {
	case token.OBJECT_REF, token.SET_REF, token.OBJECT:
		return true
	default:
		return false
	}
}

// parseSetOp parses `set_op := "SET" identifier set_kind operand+ filter?
// "SET_END"`.
func (p *parser) parseSetOp() *ast.SetOp {
	_, start, ok := p.enterBlock(token.SET)
	if !ok {
		return nil
	}
	id, _, _ := p.expectIdent()

	kindTok := p.s.Current()
	if !isSetKind(kindTok.Tok) {
		p.errorf(kindTok.Span, errors.ParseError, "expected a set operation kind, found %s %q", kindTok.Tok, kindTok.Lit)
	} else {
		p.s.Advance()
	}

	var operands []ast.SetOperand
	for isOperandStart(p.s.Current().Tok) {
		if op := p.parseSetOperand(); op != nil {
			operands = append(operands, op)
		}
	}
	if len(operands) == 0 {
		p.errorf(p.s.Current().Span, errors.IncompleteDefinitionStructure, "SET %s requires at least one operand", id)
	}

	var filter *ast.FilterSpec
	if p.s.Current().Tok == token.FILTER {
		filter = p.parseFilterSpec()
	}

	end, _ := p.exitBlock(token.SET_END)
	return &ast.SetOp{
		Base: ast.NewBase(start.Merge(end)), SetID: id,
		Operation: kindTok.Tok, Operands: operands, Filter: filter,
	}
}

// parseSetOperand parses `operand := "OBJECT_REF" identifier | "SET_REF"
// identifier | "OBJECT" obj_element* "OBJECT_END"`. The third form is an
// anonymous inline object: unlike a top-level object_decl it carries no
// name, which is what disambiguates it from OBJECT's declaration form —
// the two never appear in the same grammar position.
func (p *parser) parseSetOperand() ast.SetOperand {
	cur := p.s.Current()
	switch cur.Tok {
	case token.OBJECT_REF:
		p.s.Advance()
		id, span, _ := p.expectIdent()
		return &ast.SetOperandObjectRef{Base: ast.NewBase(cur.Span.Merge(span)), ObjectID: id}
	case token.SET_REF:
		p.s.Advance()
		id, span, _ := p.expectIdent()
		return &ast.SetOperandSetRef{Base: ast.NewBase(cur.Span.Merge(span)), SetID: id}
	case token.OBJECT:
		_, start, ok := p.enterBlock(token.OBJECT)
		if !ok {
			return nil
		}
		inline := &ast.ObjectDecl{}
		p.parseObjectElements(inline, token.OBJECT_END)
		end, _ := p.exitBlock(token.OBJECT_END)
		return &ast.SetOperandInline{Base: ast.NewBase(start.Merge(end)), Elements: inline.Elements}
	default:
		p.errorf(cur.Span, errors.ParseError, "expected an operand, found %s %q", cur.Tok, cur.Lit)
		p.s.Advance()
		return nil
	}
}

// parseFilterSpec parses `filter := "FILTER" action state_ref+
// "FILTER_END"` where action is INCLUDE or EXCLUDE.
func (p *parser) parseFilterSpec() *ast.FilterSpec {
	_, start, ok := p.enterBlock(token.FILTER)
	if !ok {
		return nil
	}
	actionTok := p.s.Current()
	if actionTok.Tok != token.INCLUDE && actionTok.Tok != token.EXCLUDE {
		p.errorf(actionTok.Span, errors.ParseError, "expected %s or %s, found %s %q", token.INCLUDE, token.EXCLUDE, actionTok.Tok, actionTok.Lit)
	} else {
		p.s.Advance()
	}

	var refs []string
	for p.s.Current().Tok == token.STATE_REF {
		p.s.Advance()
		name, _, _ := p.expectIdent()
		refs = append(refs, name)
	}
	if len(refs) == 0 {
		p.errorf(p.s.Current().Span, errors.IncompleteDefinitionStructure, "FILTER requires at least one STATE_REF")
	}

	end, _ := p.exitBlock(token.FILTER_END)
	return &ast.FilterSpec{Base: ast.NewBase(start.Merge(end)), Action: actionTok.Tok, StateRefs: refs}
}
