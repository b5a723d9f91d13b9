// Package resolve implements the resolution engine (spec.md §4.7): a
// dependency graph over the broader GraphEdge relationship subset,
// Kahn's-algorithm topological ordering, per-symbol evaluation, set
// execution, and set-reference expansion inside criteria. Host-data
// evaluation (the "scan phase") is out of scope; this package only
// carries scan-time runtime ops and set filters forward, unevaluated,
// into the execution plan.
package resolve

import (
	"fmt"
	"sort"

	"esplang.dev/compiler/internal/ast"
	"esplang.dev/compiler/internal/errors"
	"esplang.dev/compiler/internal/limits"
	"esplang.dev/compiler/internal/runtimeops"
	"esplang.dev/compiler/internal/symbols"
	"esplang.dev/compiler/internal/token"
	"esplang.dev/compiler/internal/values"
)

// ResolvedSet is a set's materialized member-object-id list plus the
// filter spec carried forward unevaluated (spec.md §4.7.4 step 3).
type ResolvedSet struct {
	Members []string
	Filter  *ast.FilterSpec
}

// Plan is the resolution engine's output (spec.md §4.7.6): metadata,
// resolved variables, resolved global states, resolved objects and sets,
// the expanded criteria tree, per-CTN local symbol tables, and whatever
// runtime ops and set filters could not be evaluated before the scan
// phase.
type Plan struct {
	Metadata       *ast.Metadata
	Order          []string
	Values         map[string]values.Value
	Computed       map[string]bool // variables with no resolution-time value yet
	States         map[string]*ast.StateDecl
	Objects        map[string]map[string]values.Value
	Sets           map[string]ResolvedSet
	Criteria       []ResolvedBlock
	Locals         map[int]*symbols.LocalSymbolTable
	ScanTimeRunOps []*ast.RunOp
}

// ResolvedBlock mirrors ast.CriteriaTree with every set-ref eliminated
// from its reachable object positions (invariant I5, spec.md §4.7.5).
type ResolvedBlock struct {
	Operator token.Token
	Negate   bool
	Children []ResolvedBlock
	Leaf     *ResolvedCriterion
}

// ResolvedCriterion carries forward everything the scan engine needs to
// execute a single CTN check: its test specification and state
// references unchanged (spec.md §3), plus its object references fully
// expanded through any set-ref indirection (spec.md §4.7.5).
type ResolvedCriterion struct {
	ID            int
	CriterionType string
	Test          ast.TestSpec
	StateRefs     []string
	ObjectRefs    []string
	LocalStates   map[string]*ast.StateDecl
}

// Resolve runs the full resolution pipeline over f and tbl. It returns a
// Plan or diagnostics, never both (spec.md §7).
func Resolve(f *ast.File, tbl *symbols.Table) (*Plan, errors.List) {
	r := &resolver{
		f:        f,
		tbl:      tbl,
		values:   make(map[string]values.Value),
		computed: make(map[string]bool),
		objects:  make(map[string]map[string]values.Value),
		sets:     make(map[string]ResolvedSet),
	}

	order, ok := r.topoSort()
	if !ok {
		return nil, r.diags
	}

	for _, id := range order {
		r.evalSymbol(id)
		if len(r.diags) >= limits.MaxSemanticErrors {
			break
		}
	}
	if r.diags.HasErrors() {
		return nil, r.diags
	}
	r.evalObjects()

	criteria := make([]ResolvedBlock, 0, len(f.Def.Criteria))
	for _, c := range f.Def.Criteria {
		criteria = append(criteria, r.expandTree(c))
	}
	if r.diags.HasErrors() {
		return nil, r.diags
	}

	return &Plan{
		Metadata:       f.Metadata,
		Order:          order,
		Values:         r.values,
		Computed:       r.computed,
		States:         r.tbl.Globals.States,
		Objects:        r.objects,
		Sets:           r.sets,
		Criteria:       criteria,
		Locals:         r.tbl.Locals,
		ScanTimeRunOps: r.scanTimeOps,
	}, nil
}

type resolver struct {
	f           *ast.File
	tbl         *symbols.Table
	diags       errors.List
	values      map[string]values.Value
	computed    map[string]bool
	objects     map[string]map[string]values.Value
	sets        map[string]ResolvedSet
	scanTimeOps []*ast.RunOp
}

// evalObjects resolves every global object's plain-field values (literal
// pass-through or variable substitution, spec.md §4.7.3); set-ref
// elements are left for §4.7.5's expansion pass and so are skipped here.
func (r *resolver) evalObjects() {
	for name, o := range r.tbl.Globals.Objects {
		fields := make(map[string]values.Value)
		for _, e := range o.Elements {
			f, ok := e.(*ast.ObjectField)
			if !ok {
				continue
			}
			v, err := r.evalValue(f.Value)
			if err != nil {
				continue
			}
			fields[f.Name] = v
		}
		r.objects[name] = fields
	}
}

func (r *resolver) fail(span token.Span, format string, args ...interface{}) {
	r.diags.Add(errors.New(errors.ResolutionError, errors.CategoryResolution, span, format, args...))
}

// -----------------------------------------------------------------------
// Dependency graph + topological order (§4.7.1, §4.7.2)

// topoSort builds adjacency over the GraphEdge relationship subset and
// returns a deterministic (sorted-ties) topological order of every
// global variable, runtime-op target and set, plus any other global
// symbol that a global GraphEdge relationship touches. A variable, target
// or set with no incoming or outgoing GraphEdge relationship (e.g. a
// literal-only variable) still appears, as a singleton.
func (r *resolver) topoSort() ([]string, bool) {
	indeg := make(map[string]int)
	adj := make(map[string][]string) // node -> nodes that depend on it
	nodes := make(map[string]bool)

	for name := range r.tbl.Globals.Variables {
		nodes[name] = true
	}
	for name := range r.tbl.Globals.RunTargets {
		nodes[name] = true
	}
	for name := range r.tbl.Globals.Sets {
		nodes[name] = true
	}

	for _, rel := range r.tbl.Relationships {
		if !rel.Kind.GraphEdge() || rel.CTNContext != 0 {
			continue // local-scope edges play no part in the global evaluation order
		}
		if !isGlobalNode(r.tbl, rel.Source) || !isGlobalNode(r.tbl, rel.Target) {
			continue
		}
		adj[rel.Target] = append(adj[rel.Target], rel.Source)
		nodes[rel.Source] = true
		nodes[rel.Target] = true
	}

	if len(nodes) > limits.MaxGraphNodes {
		r.fail(token.NoSpan, "dependency graph has %d nodes, exceeding the maximum of %d", len(nodes), limits.MaxGraphNodes)
		return nil, false
	}

	names := make([]string, 0, len(nodes))
	for n := range nodes {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		indeg[n] = 0
	}
	for n := range adj {
		for _, dependent := range adj[n] {
			indeg[dependent]++
		}
	}

	var ready []string
	for _, n := range names {
		if indeg[n] == 0 {
			ready = append(ready, n)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)

		var next []string
		for _, m := range adj[n] {
			indeg[m]--
			if indeg[m] == 0 {
				next = append(next, m)
			}
		}
		sort.Strings(next)
		ready = append(ready, next...)
		sort.Strings(ready)
	}

	if len(order) != len(names) {
		r.fail(token.NoSpan, "dependency graph contains a cycle not caught during reference validation")
		return nil, false
	}
	return order, true
}

func isGlobalNode(tbl *symbols.Table, name string) bool {
	if _, ok := tbl.Globals.Variables[name]; ok {
		return true
	}
	if _, ok := tbl.Globals.RunTargets[name]; ok {
		return true
	}
	if _, ok := tbl.Globals.Objects[name]; ok {
		return true
	}
	if _, ok := tbl.Globals.Sets[name]; ok {
		return true
	}
	return false
}

// -----------------------------------------------------------------------
// Symbol evaluation (§4.7.3)

func (r *resolver) evalSymbol(id string) {
	if v, ok := r.tbl.Globals.Variables[id]; ok {
		r.evalVariable(v)
		return
	}
	if op, ok := r.tbl.Globals.RunTargets[id]; ok {
		r.evalRunOp(op)
		return
	}
	if s, ok := r.tbl.Globals.Sets[id]; ok {
		r.evalSetOp(s)
		return
	}
	// global objects carry no resolved scalar value of their own; their
	// fields are consulted directly wherever a field-extract or set
	// operand needs them.
}

func (r *resolver) evalVariable(v *ast.VarDecl) {
	if v.Init == nil {
		r.computed[v.Name] = true
		return
	}
	val, err := r.evalValue(v.Init)
	if err != nil {
		r.fail(v.Span(), "variable %q: %v", v.Name, err)
		return
	}
	r.values[v.Name] = val
}

func (r *resolver) evalValue(v ast.Value) (values.Value, error) {
	switch n := v.(type) {
	case *ast.StringLit:
		return values.Str(n.Value), nil
	case *ast.IntLit:
		return values.Int(n.Value), nil
	case *ast.FloatLit:
		return values.Float(n.Value)
	case *ast.BoolLit:
		return values.Bool(n.Value), nil
	case *ast.VarRef:
		val, ok := r.values[n.Name]
		if !ok {
			return values.Value{}, fmt.Errorf("variable %q has no resolution-time value", n.Name)
		}
		return val, nil
	default:
		return values.Value{}, fmt.Errorf("unsupported value node")
	}
}

// evalRunOp classifies op as resolution-time (every parameter is a
// literal or an already-resolved variable) or scan-time (at least one
// object-field-extract parameter) and acts accordingly (spec.md §4.7.3).
func (r *resolver) evalRunOp(op *ast.RunOp) {
	for _, p := range op.Parameters {
		if _, ok := p.(*ast.RunParamFieldExtract); ok {
			r.scanTimeOps = append(r.scanTimeOps, op)
			r.computed[op.Target] = true
			return
		}
	}

	params := make([]values.Value, 0, len(op.Parameters))
	for _, p := range op.Parameters {
		switch param := p.(type) {
		case *ast.RunParamLiteral:
			v, err := r.evalValue(param.Value)
			if err != nil {
				r.fail(op.Span(), "RUN %s: %v", op.Target, err)
				return
			}
			params = append(params, v)
		case *ast.RunParamVar:
			v, ok := r.values[param.Name]
			if !ok {
				r.scanTimeOps = append(r.scanTimeOps, op)
				r.computed[op.Target] = true
				return
			}
			params = append(params, v)
		}
	}
	result, err := runtimeops.Eval(op.Kind.String(), params)
	if err != nil {
		r.fail(op.Span(), "RUN %s: %v", op.Target, err)
		return
	}
	r.values[op.Target] = result
}

// -----------------------------------------------------------------------
// Set-operation execution (§4.7.4)

func (r *resolver) evalSetOp(s *ast.SetOp) {
	operandSets := make([][]string, 0, len(s.Operands))
	for _, op := range s.Operands {
		members, err := r.operandMembers(op)
		if err != nil {
			r.fail(s.Span(), "SET %s: %v", s.SetID, err)
			return
		}
		operandSets = append(operandSets, members)
	}

	var result []string
	switch s.Operation {
	case token.UNION:
		result = unionAll(operandSets)
	case token.INTERSECTION:
		result = intersectAll(operandSets)
	case token.COMPLEMENT:
		if len(operandSets) != 2 {
			r.fail(s.Span(), "SET %s: complement requires exactly 2 operands", s.SetID)
			return
		}
		result = complement(operandSets[0], operandSets[1])
	default:
		r.fail(s.Span(), "SET %s: unknown set operation", s.SetID)
		return
	}

	r.sets[s.SetID] = ResolvedSet{Members: result, Filter: s.Filter}
}

func (r *resolver) operandMembers(op ast.SetOperand) ([]string, error) {
	switch n := op.(type) {
	case *ast.SetOperandObjectRef:
		if _, ok := r.tbl.Globals.Objects[n.ObjectID]; !ok {
			return nil, fmt.Errorf("object %q is not defined", n.ObjectID)
		}
		return []string{n.ObjectID}, nil
	case *ast.SetOperandSetRef:
		resolved, ok := r.sets[n.SetID]
		if !ok {
			return nil, fmt.Errorf("set %q has not been resolved yet", n.SetID)
		}
		return append([]string{}, resolved.Members...), nil
	case *ast.SetOperandInline:
		// an anonymous object literal stands for itself; it carries no
		// declared identifier, so it contributes nothing to an
		// identifier-keyed member list.
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown set operand kind")
	}
}

// unionAll concatenates operand lists, deduplicating by identifier while
// preserving first appearance (spec.md §4.7.4 step 2).
func unionAll(sets [][]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range sets {
		for _, m := range s {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

func intersectAll(sets [][]string) []string {
	if len(sets) == 0 {
		return nil
	}
	counts := make(map[string]int)
	var firstOrder []string
	seenFirst := make(map[string]bool)
	for _, m := range sets[0] {
		if !seenFirst[m] {
			seenFirst[m] = true
			firstOrder = append(firstOrder, m)
		}
	}
	for _, s := range sets {
		present := make(map[string]bool)
		for _, m := range s {
			present[m] = true
		}
		for m := range present {
			counts[m]++
		}
	}
	var out []string
	for _, m := range firstOrder {
		if counts[m] == len(sets) {
			out = append(out, m)
		}
	}
	return out
}

func complement(a, b []string) []string {
	exclude := make(map[string]bool)
	for _, m := range b {
		exclude[m] = true
	}
	var out []string
	for _, m := range a {
		if !exclude[m] {
			out = append(out, m)
		}
	}
	return out
}

// -----------------------------------------------------------------------
// Set-reference expansion inside criteria (§4.7.5)

func (r *resolver) expandTree(t ast.CriteriaTree) ResolvedBlock {
	switch n := t.(type) {
	case *ast.Block:
		children := make([]ResolvedBlock, 0, len(n.Children))
		for _, c := range n.Children {
			children = append(children, r.expandTree(c))
		}
		return ResolvedBlock{Operator: n.Operator, Negate: n.Negate, Children: children}
	case *ast.Criterion:
		return ResolvedBlock{Leaf: r.expandCriterion(n)}
	default:
		return ResolvedBlock{}
	}
}

func (r *resolver) expandCriterion(c *ast.Criterion) *ResolvedCriterion {
	var refs []string
	refs = append(refs, c.ObjectRefs...)

	if c.LocalObject != nil {
		if setID, ok := embeddedSetRef(c.LocalObject); ok {
			refs = append(refs, setID)
		} else {
			refs = append(refs, c.LocalObject.Name)
		}
	}

	seen := make(map[string]bool)
	var expanded []string
	for _, ref := range refs {
		for _, id := range r.expandObjectRef(ref, make(map[string]bool)) {
			if !seen[id] {
				seen[id] = true
				expanded = append(expanded, id)
			}
		}
	}

	var locals map[string]*ast.StateDecl
	if len(c.LocalStates) > 0 {
		locals = make(map[string]*ast.StateDecl, len(c.LocalStates))
		for _, ls := range c.LocalStates {
			locals[ls.Name] = ls
		}
	}

	return &ResolvedCriterion{
		ID:            c.ID,
		CriterionType: c.CriterionType,
		Test:          c.Test,
		StateRefs:     c.StateRefs,
		ObjectRefs:    expanded,
		LocalStates:   locals,
	}
}

// expandObjectRef resolves name to its final list of concrete object
// ids: if name is a set, its resolved member list (recursively
// expanded); if name is an object embedding a set-ref element, that
// set's member list; otherwise name itself. chain guards against a
// set-ref cycle surviving reference validation (defense-in-depth per
// spec.md §4.7.5's "validate the absence of circular set-ref chains").
func (r *resolver) expandObjectRef(name string, chain map[string]bool) []string {
	if chain[name] {
		r.fail(token.NoSpan, "circular set-ref chain detected at %q", name)
		return nil
	}
	chain[name] = true
	defer delete(chain, name)

	if resolved, ok := r.sets[name]; ok {
		var out []string
		for _, m := range resolved.Members {
			out = append(out, r.expandObjectRef(m, chain)...)
		}
		return out
	}
	if o, ok := r.tbl.Globals.Objects[name]; ok {
		if setID, ok := embeddedSetRef(o); ok {
			return r.expandObjectRef(setID, chain)
		}
	}
	return []string{name}
}

// embeddedSetRef reports the set id of obj's ObjectSetRef element, if it
// has exactly one.
func embeddedSetRef(obj *ast.ObjectDecl) (string, bool) {
	for _, e := range obj.Elements {
		if sr, ok := e.(*ast.ObjectSetRef); ok {
			return sr.SetID, true
		}
	}
	return "", false
}
