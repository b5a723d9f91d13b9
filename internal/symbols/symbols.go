// Package symbols implements symbol discovery (spec.md §4.4): a single
// AST traversal that produces the global symbol tables, one local symbol
// table per CTN node-id, and the raw relationship list consumed by the
// reference validator and, later, the dependency-graph builder.
package symbols

import (
	"esplang.dev/compiler/internal/ast"
)

// Kind distinguishes the four disjoint global symbol spaces.
type Kind int

const (
	KindVariable Kind = iota
	KindState
	KindObject
	KindSet
)

func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindState:
		return "state"
	case KindObject:
		return "object"
	case KindSet:
		return "set"
	default:
		return "unknown"
	}
}

// RelationshipKind is the tagged union over every edge-producing AST
// reference position (spec.md §3 "SymbolRelationship").
type RelationshipKind int

const (
	VariableInit RelationshipKind = iota
	VariableUse
	RunInput
	RunTarget
	StateRef
	ObjectRef
	SetRef
	FilterDep
	ObjectFieldExtract
	LocalStateDep
	LocalObjectDep
)

func (k RelationshipKind) String() string {
	switch k {
	case VariableInit:
		return "variable-init"
	case VariableUse:
		return "variable-use"
	case RunInput:
		return "run-input"
	case RunTarget:
		return "run-target"
	case StateRef:
		return "state-ref"
	case ObjectRef:
		return "object-ref"
	case SetRef:
		return "set-ref"
	case FilterDep:
		return "filter-dep"
	case ObjectFieldExtract:
		return "object-field-extract"
	case LocalStateDep:
		return "local-state-dep"
	case LocalObjectDep:
		return "local-object-dep"
	default:
		return "unknown"
	}
}

// DependencyCreating reports whether k is one of the three edge kinds
// the reference validator's cycle pass considers (spec.md §4.5):
// variable-init, run-input, set-ref.
func (k RelationshipKind) DependencyCreating() bool {
	switch k {
	case VariableInit, RunInput, SetRef:
		return true
	default:
		return false
	}
}

// GraphEdge reports whether k participates in the resolution engine's
// dependency graph (spec.md §4.7.1): the §4.5 base set plus
// object-field-extract, filter-dep, local-state-dep, and local-object-dep.
func (k RelationshipKind) GraphEdge() bool {
	switch k {
	case ObjectFieldExtract, FilterDep, LocalStateDep, LocalObjectDep:
		return true
	default:
		return k.DependencyCreating()
	}
}

// SymbolRelationship is one raw edge discovered during the AST
// traversal: source_id depends on (or otherwise references) target_id.
// CTNContext is 0 for global-scope relationships and the owning CTN's
// node-id otherwise.
type SymbolRelationship struct {
	Source     string
	Target     string
	Kind       RelationshipKind
	CTNContext int
}

// GlobalSymbols holds the four disjoint global maps plus the implicit
// fifth space of runtime-op targets, which reuse variable identifiers
// (spec.md §3).
type GlobalSymbols struct {
	Variables  map[string]*ast.VarDecl
	States     map[string]*ast.StateDecl
	Objects    map[string]*ast.ObjectDecl
	Sets       map[string]*ast.SetOp
	RunTargets map[string]*ast.RunOp
}

func newGlobalSymbols() GlobalSymbols {
	return GlobalSymbols{
		Variables:  make(map[string]*ast.VarDecl),
		States:     make(map[string]*ast.StateDecl),
		Objects:    make(map[string]*ast.ObjectDecl),
		Sets:       make(map[string]*ast.SetOp),
		RunTargets: make(map[string]*ast.RunOp),
	}
}

// Total returns the combined symbol count across all five spaces,
// against which MaxGlobalSymbols is enforced.
func (g GlobalSymbols) Total() int {
	return len(g.Variables) + len(g.States) + len(g.Objects) + len(g.Sets) + len(g.RunTargets)
}

// LocalSymbolTable is the per-CTN scope: local states by identifier,
// plus at most one local object (spec.md §3).
type LocalSymbolTable struct {
	CTNID  int
	States map[string]*ast.StateDecl
	Object *ast.ObjectDecl
}

func newLocalSymbolTable(id int) *LocalSymbolTable {
	return &LocalSymbolTable{CTNID: id, States: make(map[string]*ast.StateDecl)}
}

// Table is the complete output of symbol discovery.
type Table struct {
	Globals       GlobalSymbols
	Locals        map[int]*LocalSymbolTable
	Relationships []SymbolRelationship
}
