package parser

import (
	"esplang.dev/compiler/internal/ast"
	"esplang.dev/compiler/internal/errors"
	"esplang.dev/compiler/internal/token"
)

func isBlockOperator(t token.Token) bool {
	switch t {
	case token.AND, token.OR, token.ONE:
		return true
	default:
		return false
	}
}

// parseCriteriaTree parses one `criteria := "CRI" logical_op negate?
// cri_body "CRI_END"` node, where negate is an optional boolean literal
// and cri_body is a non-empty mix of nested criteria (CRI) and criterion
// (CTN) children.
func (p *parser) parseCriteriaTree() ast.CriteriaTree {
	_, start, ok := p.enterBlock(token.CRI)
	if !ok {
		return nil
	}
	block := &ast.Block{}

	opTok := p.s.Current()
	if !isBlockOperator(opTok.Tok) {
		p.errorf(opTok.Span, errors.ParseError, "expected AND, OR, or ONE, found %s %q", opTok.Tok, opTok.Lit)
	} else {
		p.s.Advance()
	}
	block.Operator = opTok.Tok

	if lit := p.s.Current(); lit.Tok == token.TRUE || lit.Tok == token.FALSE {
		block.Negate = lit.Tok == token.TRUE
		p.s.Advance()
	}

	for {
		cur := p.s.Current()
		switch cur.Tok {
		case token.CRI:
			block.Children = append(block.Children, p.parseCriteriaTree())
		case token.CTN:
			block.Children = append(block.Children, p.parseCriterion())
		case token.CRI_END, token.EOF:
			goto done
		default:
			p.errorf(cur.Span, errors.ParseError, "unexpected token %s in CRI body", cur.Tok)
			p.s.Advance()
		}
	}
done:
	if len(block.Children) == 0 {
		p.errorf(p.s.Current().Span, errors.IncompleteDefinitionStructure, "CRI block requires at least one child")
	}
	end, _ := p.exitBlock(token.CRI_END)
	block.Base = ast.NewBase(start.Merge(end))
	return block
}

// parseCriterion parses `criterion := "CTN" identifier test (state_ref |
// object_ref | state_decl | object_decl)* "CTN_END"`. The node-id is
// assigned from the parser's monotonic ctnSeq counter in source order
// (spec.md §3's "unique node-id assigned during tree construction").
func (p *parser) parseCriterion() *ast.Criterion {
	_, start, ok := p.enterBlock(token.CTN)
	if !ok {
		return nil
	}
	p.ctnSeq++
	c := &ast.Criterion{ID: p.ctnSeq}
	c.CriterionType, _, _ = p.expectIdent()
	c.Test = p.parseTestSpec()

	for {
		cur := p.s.Current()
		switch cur.Tok {
		case token.STATE_REF:
			p.s.Advance()
			name, _, _ := p.expectIdent()
			c.StateRefs = append(c.StateRefs, name)
		case token.OBJECT_REF:
			p.s.Advance()
			name, _, _ := p.expectIdent()
			c.ObjectRefs = append(c.ObjectRefs, name)
		case token.STATE:
			c.LocalStates = append(c.LocalStates, p.parseStateDecl())
		case token.OBJECT:
			if c.LocalObject != nil {
				p.errorf(cur.Span, errors.IncompleteDefinitionStructure, "CTN %s declares more than one local object", c.CriterionType)
			}
			obj := p.parseObjectDecl()
			if c.LocalObject == nil {
				c.LocalObject = obj
			}
		case token.CTN_END, token.EOF:
			goto done
		default:
			p.errorf(cur.Span, errors.ParseError, "unexpected token %s in CTN body", cur.Tok)
			p.s.Advance()
		}
	}
done:
	end, _ := p.exitBlock(token.CTN_END)
	c.Base = ast.NewBase(start.Merge(end))
	return c
}

// parseTestSpec parses `test := "TEST" existence_check item_check
// state_operator? entity_check?`, where existence_check/item_check/
// entity_check are drawn from the {any, all, at_least_one, only_one,
// none, none_satisfy} vocabulary and state_operator is AND or OR.
func (p *parser) parseTestSpec() ast.TestSpec {
	start, _ := p.expectKeyword(token.TEST)
	ts := ast.TestSpec{}
	end := start

	if cur := p.s.Current(); isTestComponent(cur.Tok) {
		ts.ExistenceCheck = cur.Lit
		end = cur.Span
		p.s.Advance()
	} else {
		p.errorf(cur.Span, errors.ParseError, "expected an existence-check keyword, found %s %q", cur.Tok, cur.Lit)
	}

	if cur := p.s.Current(); isTestComponent(cur.Tok) {
		ts.ItemCheck = cur.Lit
		end = cur.Span
		p.s.Advance()
	} else {
		p.errorf(cur.Span, errors.ParseError, "expected an item-check keyword, found %s %q", cur.Tok, cur.Lit)
	}

	if cur := p.s.Current(); cur.Tok == token.AND || cur.Tok == token.OR {
		ts.StateOperator = cur.Lit
		end = cur.Span
		p.s.Advance()
	}

	if cur := p.s.Current(); isTestComponent(cur.Tok) {
		ts.EntityCheck = cur.Lit
		end = cur.Span
		p.s.Advance()
	}

	ts.Base = ast.NewBase(start.Merge(end))
	return ts
}
