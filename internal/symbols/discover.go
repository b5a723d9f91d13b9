package symbols

import (
	"fmt"

	"esplang.dev/compiler/internal/ast"
	"esplang.dev/compiler/internal/errors"
	"esplang.dev/compiler/internal/limits"
	"esplang.dev/compiler/internal/token"
)

// discoverer carries the mutable state of one discovery pass. It is not
// reused across files.
type discoverer struct {
	table   Table
	diags   errors.List
	fanIn   map[string]int // target identifier -> reference count, for MaxReferencesPerSymbol
	ctnSeen map[int]bool
}

// Discover runs the one-pass algorithm of spec.md §4.4 over f, producing
// a Table or a diagnostic list. It never returns both.
func Discover(f *ast.File) (*Table, errors.List) {
	d := &discoverer{
		table: Table{
			Globals: newGlobalSymbols(),
			Locals:  make(map[int]*LocalSymbolTable),
		},
		fanIn:   make(map[string]int),
		ctnSeen: make(map[int]bool),
	}
	if f == nil || f.Def == nil {
		return &d.table, nil
	}
	d.discoverDefinition(f.Def)
	if d.diags.HasErrors() {
		return nil, d.diags
	}
	return &d.table, nil
}

func (d *discoverer) fail(code errors.Code, span token.Span, format string, args ...interface{}) {
	d.diags.Add(errors.New(code, errors.CategorySymbols, span, format, args...))
}

// checkIdent enforces the structural identifier rules shared by every
// declaration: non-empty, within the length cap, and not a reserved
// structural keyword (spec.md §4.4 "Structural rules enforced here").
func (d *discoverer) checkIdent(name string, span token.Span) bool {
	if name == "" {
		d.fail(errors.SymbolTableConstructionError, span, "identifier must not be empty")
		return false
	}
	if len(name) > limits.MaxIdentifierLength {
		d.fail(errors.SymbolTableConstructionError, span, "identifier %q exceeds maximum length of %d", name, limits.MaxIdentifierLength)
		return false
	}
	if token.IsReservedWord(name) {
		d.fail(errors.SymbolTableConstructionError, span, "identifier %q collides with a reserved keyword", name)
		return false
	}
	return true
}

func (d *discoverer) emit(rel SymbolRelationship) {
	if len(d.table.Relationships) >= limits.MaxRelationships {
		d.fail(errors.SymbolTableConstructionError, token.NoSpan, "relationship count exceeds maximum of %d", limits.MaxRelationships)
		return
	}
	d.fanIn[rel.Target]++
	if d.fanIn[rel.Target] > limits.MaxReferencesPerSymbol {
		d.fail(errors.SymbolTableConstructionError, token.NoSpan, "symbol %q exceeds maximum fan-in of %d", rel.Target, limits.MaxReferencesPerSymbol)
		return
	}
	d.table.Relationships = append(d.table.Relationships, rel)
}

func (d *discoverer) checkGlobalBudget(span token.Span) bool {
	if d.table.Globals.Total() >= limits.MaxGlobalSymbols {
		d.fail(errors.SymbolTableConstructionError, span, "global symbol count exceeds maximum of %d", limits.MaxGlobalSymbols)
		return false
	}
	return true
}

// -----------------------------------------------------------------------
// Definition-level declarations

func (d *discoverer) discoverDefinition(def *ast.Definition) {
	for _, v := range def.Vars {
		d.discoverVar(v)
	}
	for _, s := range def.States {
		if d.checkIdent(s.Name, s.Span()) {
			if _, dup := d.table.Globals.States[s.Name]; dup {
				d.fail(errors.SymbolTableConstructionError, s.Span(), "duplicate global state %q", s.Name)
			} else if d.checkGlobalBudget(s.Span()) {
				if len(d.table.Globals.States) >= limits.MaxSymbolsPerKind {
					d.fail(errors.SymbolTableConstructionError, s.Span(), "too many global states (max %d)", limits.MaxSymbolsPerKind)
				} else {
					d.table.Globals.States[s.Name] = s
				}
			}
		}
		d.discoverStateBody(s.Name, s.Fields, s.Records, 0)
	}
	for _, o := range def.Objects {
		d.discoverGlobalObject(o)
	}
	for _, r := range def.RunOps {
		d.discoverRunOp(r)
	}
	for _, s := range def.SetOps {
		d.discoverSetOp(s)
	}
	for _, c := range def.Criteria {
		d.discoverCriteria(c, 0)
	}
}

func (d *discoverer) discoverVar(v *ast.VarDecl) {
	if d.checkIdent(v.Name, v.Span()) {
		if _, dup := d.table.Globals.Variables[v.Name]; dup {
			d.fail(errors.SymbolTableConstructionError, v.Span(), "duplicate variable %q", v.Name)
		} else if d.checkGlobalBudget(v.Span()) {
			if len(d.table.Globals.Variables) >= limits.MaxSymbolsPerKind {
				d.fail(errors.SymbolTableConstructionError, v.Span(), "too many variables (max %d)", limits.MaxSymbolsPerKind)
			} else {
				d.table.Globals.Variables[v.Name] = v
			}
		}
	}
	if ref, ok := v.Init.(*ast.VarRef); ok {
		if ref.Name == v.Name {
			d.fail(errors.SymbolTableConstructionError, v.Span(), "variable %q cannot initialize itself", v.Name)
		} else {
			d.emit(SymbolRelationship{Source: v.Name, Target: ref.Name, Kind: VariableInit})
		}
	}
}

func (d *discoverer) discoverStateBody(owner string, fields []*ast.StateField, records []*ast.RecordBlock, ctn int) {
	for _, f := range fields {
		d.discoverFieldValue(owner, f.Value, ctn)
	}
	for _, r := range records {
		for _, f := range r.Fields {
			d.discoverFieldValue(owner, f.Value, ctn)
		}
	}
}

func (d *discoverer) discoverFieldValue(owner string, v ast.Value, ctn int) {
	if ref, ok := v.(*ast.VarRef); ok {
		d.emit(SymbolRelationship{Source: owner, Target: ref.Name, Kind: VariableUse, CTNContext: ctn})
	}
}

func (d *discoverer) discoverGlobalObject(o *ast.ObjectDecl) {
	if d.checkIdent(o.Name, o.Span()) {
		if _, dup := d.table.Globals.Objects[o.Name]; dup {
			d.fail(errors.SymbolTableConstructionError, o.Span(), "duplicate global object %q", o.Name)
		} else if d.checkGlobalBudget(o.Span()) {
			if len(d.table.Globals.Objects) >= limits.MaxSymbolsPerKind {
				d.fail(errors.SymbolTableConstructionError, o.Span(), "too many global objects (max %d)", limits.MaxSymbolsPerKind)
			} else {
				d.table.Globals.Objects[o.Name] = o
			}
		}
	}
	d.discoverObjectElements(o.Name, o.Elements, 0)
}

func (d *discoverer) discoverObjectElements(owner string, elems []ast.ObjectElement, ctn int) {
	for _, e := range elems {
		switch el := e.(type) {
		case *ast.ObjectField:
			d.discoverFieldValue(owner, el.Value, ctn)
		case *ast.ObjectBehavior:
			d.discoverFieldValue(owner, el.Value, ctn)
		case *ast.ObjectSetRef:
			d.emit(SymbolRelationship{Source: owner, Target: el.SetID, Kind: SetRef, CTNContext: ctn})
		case *ast.ObjectSelect:
			// field paths name record fields, not symbols; nothing to emit
		}
	}
}

func (d *discoverer) discoverRunOp(r *ast.RunOp) {
	if d.checkIdent(r.Target, r.Span()) {
		if _, dup := d.table.Globals.RunTargets[r.Target]; dup {
			d.fail(errors.SymbolTableConstructionError, r.Span(), "duplicate runtime-op target %q", r.Target)
		} else if d.checkGlobalBudget(r.Span()) {
			d.table.Globals.RunTargets[r.Target] = r
			d.emit(SymbolRelationship{Source: r.Target, Target: r.Target, Kind: RunTarget})
		}
	}
	if len(r.Parameters) > limits.MaxRuntimeOpParameters {
		d.fail(errors.SymbolTableConstructionError, r.Span(), "RUN %s has %d parameters, exceeding the maximum of %d", r.Target, len(r.Parameters), limits.MaxRuntimeOpParameters)
	}
	for _, p := range r.Parameters {
		switch param := p.(type) {
		case *ast.RunParamVar:
			if param.Name == r.Target {
				d.fail(errors.SymbolTableConstructionError, param.Span(), "runtime operation %q may not appear as its own parameter", r.Target)
				continue
			}
			d.emit(SymbolRelationship{Source: r.Target, Target: param.Name, Kind: RunInput})
		case *ast.RunParamFieldExtract:
			d.emit(SymbolRelationship{Source: r.Target, Target: param.Object, Kind: ObjectFieldExtract})
		case *ast.RunParamLiteral:
			// literal values carry no symbol reference
		}
	}
}

func (d *discoverer) discoverSetOp(s *ast.SetOp) {
	if d.checkIdent(s.SetID, s.Span()) {
		if _, dup := d.table.Globals.Sets[s.SetID]; dup {
			d.fail(errors.SymbolTableConstructionError, s.Span(), "duplicate set %q", s.SetID)
		} else if d.checkGlobalBudget(s.Span()) {
			if len(d.table.Globals.Sets) >= limits.MaxSymbolsPerKind {
				d.fail(errors.SymbolTableConstructionError, s.Span(), "too many sets (max %d)", limits.MaxSymbolsPerKind)
			} else {
				d.table.Globals.Sets[s.SetID] = s
			}
		}
	}
	for _, op := range s.Operands {
		switch operand := op.(type) {
		case *ast.SetOperandObjectRef:
			d.emit(SymbolRelationship{Source: s.SetID, Target: operand.ObjectID, Kind: ObjectRef})
		case *ast.SetOperandSetRef:
			if operand.SetID == s.SetID {
				d.fail(errors.SymbolTableConstructionError, operand.Span(), "set %q may not list itself as an operand", s.SetID)
				continue
			}
			d.emit(SymbolRelationship{Source: s.SetID, Target: operand.SetID, Kind: SetRef})
		case *ast.SetOperandInline:
			d.discoverObjectElements(s.SetID, operand.Elements, 0)
		}
	}
	if s.Filter != nil {
		for _, ref := range s.Filter.StateRefs {
			d.emit(SymbolRelationship{Source: s.SetID, Target: ref, Kind: FilterDep})
		}
	}
}

// -----------------------------------------------------------------------
// Criteria tree

func (d *discoverer) discoverCriteria(tree ast.CriteriaTree, ctn int) {
	switch n := tree.(type) {
	case *ast.Block:
		for _, c := range n.Children {
			d.discoverCriteria(c, ctn)
		}
	case *ast.Criterion:
		d.discoverCriterion(n)
	}
}

func (d *discoverer) discoverCriterion(c *ast.Criterion) {
	if d.ctnSeen[c.ID] {
		d.fail(errors.SymbolTableConstructionError, c.Span(), "duplicate CTN node-id %d", c.ID)
		return
	}
	d.ctnSeen[c.ID] = true
	if len(d.ctnSeen) > limits.MaxCTNScopes {
		d.fail(errors.SymbolTableConstructionError, c.Span(), "CTN scope count exceeds maximum of %d", limits.MaxCTNScopes)
		return
	}
	local := newLocalSymbolTable(c.ID)
	d.table.Locals[c.ID] = local
	source := ctnSource(c.ID)

	for _, ref := range c.StateRefs {
		d.emit(SymbolRelationship{Source: source, Target: ref, Kind: StateRef, CTNContext: c.ID})
	}
	for _, ref := range c.ObjectRefs {
		d.emit(SymbolRelationship{Source: source, Target: ref, Kind: ObjectRef, CTNContext: c.ID})
	}

	for _, ls := range c.LocalStates {
		if d.checkIdent(ls.Name, ls.Span()) {
			if _, dup := local.States[ls.Name]; dup {
				d.fail(errors.SymbolTableConstructionError, ls.Span(), "duplicate local state %q in CTN %d", ls.Name, c.ID)
			} else if len(local.States) >= limits.MaxSymbolsPerKind {
				d.fail(errors.SymbolTableConstructionError, ls.Span(), "too many local states in CTN %d (max %d)", c.ID, limits.MaxSymbolsPerKind)
			} else {
				local.States[ls.Name] = ls
			}
		}
		d.emit(SymbolRelationship{Source: source, Target: ls.Name, Kind: LocalStateDep, CTNContext: c.ID})
		d.discoverStateBody(ls.Name, ls.Fields, ls.Records, c.ID)
	}

	if c.LocalObject != nil {
		lo := c.LocalObject
		if d.checkIdent(lo.Name, lo.Span()) {
			local.Object = lo
		}
		d.emit(SymbolRelationship{Source: source, Target: lo.Name, Kind: LocalObjectDep, CTNContext: c.ID})
		d.discoverObjectElements(lo.Name, lo.Elements, c.ID)
	}
}

func ctnSource(id int) string {
	return fmt.Sprintf("ctn#%d", id)
}
