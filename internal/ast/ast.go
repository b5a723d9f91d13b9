// Package ast declares the abstract syntax tree produced by the parser
// for the endpoint-state policy language (spec.md §3).
package ast

import "esplang.dev/compiler/internal/token"

// Node is implemented by every AST node. Every node carries a Span
// (invariant I1); spans are monotonic over the source (P1).
type Node interface {
	Span() token.Span
}

type Base struct{ span token.Span }

func (b Base) Span() token.Span { return b.span }

// NewBase is used by the parser to attach a span to a node being built.
func NewBase(span token.Span) Base { return Base{span: span} }

// -----------------------------------------------------------------------
// Values

// Value is the tagged union over direct literal values and variable
// references (value_spec := direct_value | "VAR" identifier).
type Value interface {
	Node
	valueNode()
}

// StringLit, IntLit, FloatLit, BoolLit hold a literal's already-unescaped
// Go value alongside the original lexeme (kept for diagnostics).
type StringLit struct {
	Base
	Value string
	Raw   string
}

type IntLit struct {
	Base
	Value int64
	Raw   string
}

type FloatLit struct {
	Base
	Value float64
	Raw   string
}

type BoolLit struct {
	Base
	Value bool
}

// VarRef is "VAR identifier": a reference to a previously (or later, for
// forward references resolved via the DAG) declared variable.
type VarRef struct {
	Base
	Name string
}

func (*StringLit) valueNode() {}
func (*IntLit) valueNode()    {}
func (*FloatLit) valueNode()  {}
func (*BoolLit) valueNode()   {}
func (*VarRef) valueNode()    {}

// -----------------------------------------------------------------------
// Metadata

type MetadataField struct {
	Base
	Name  string
	Value Value
}

type Metadata struct {
	Base
	Fields []*MetadataField
}

// -----------------------------------------------------------------------
// Top-level file and definition

type File struct {
	Base
	Metadata *Metadata // nil if absent
	Def      *Definition
}

// Definition holds the six declaration kinds in fixed, typed-vector
// order; within each vector, elements preserve their appearance order in
// source (spec.md §4.3 "Definition body ordering").
type Definition struct {
	Base
	Vars     []*VarDecl
	States   []*StateDecl
	Objects  []*ObjectDecl
	RunOps   []*RunOp
	SetOps   []*SetOp
	Criteria []CriteriaTree
}

// -----------------------------------------------------------------------
// Variable declaration

type VarDecl struct {
	Base
	Name     string
	DataType string // identifier, disambiguated semantically (spec.md §4.1)
	Init     Value  // nil if no initial value
}

// -----------------------------------------------------------------------
// State declaration

// StateField is one field test within a STATE block or a nested record
// block: identifier, data-type, operator, value, and an optional
// entity-check qualifier (spec.md grammar: state_field).
type StateField struct {
	Base
	Name        string
	DataType    string
	Operator    token.Token
	Value       Value
	EntityCheck string // "" if absent; drawn from the test-component vocabulary
}

// RecordBlock is a "record ... record_end" sub-block nested under a
// STATE declaration, supplementing record_data fields (SPEC_FULL.md §12).
type RecordBlock struct {
	Base
	Fields []*StateField
}

type StateDecl struct {
	Base
	Name    string
	Fields  []*StateField
	Records []*RecordBlock
}

// -----------------------------------------------------------------------
// Object declaration

// ObjectElement is the tagged union over the contents of an OBJECT
// block.
type ObjectElement interface {
	Node
	objectElementNode()
}

// ObjectField is a plain "name type value" field inside an OBJECT block.
type ObjectField struct {
	Base
	Name     string
	DataType string
	Value    Value
}

// ObjectBehavior is a "behavior name value" element: a secondary
// attribute of the object distinct from its identifying fields (e.g. an
// OVAL-style "behavior" modifier on a collection strategy).
type ObjectBehavior struct {
	Base
	Name  string
	Value Value
}

// ObjectSetRef is a "SET_REF id" element embedded directly inside an
// OBJECT's element list; expanded away during resolution (§4.7.5).
type ObjectSetRef struct {
	Base
	SetID string
}

// ObjectSelect is a "select ... select_end" sub-block naming the record
// field paths this object extracts from matched record_data instances.
type ObjectSelect struct {
	Base
	FieldPaths []string
}

func (*ObjectField) objectElementNode()  {}
func (*ObjectBehavior) objectElementNode() {}
func (*ObjectSetRef) objectElementNode()  {}
func (*ObjectSelect) objectElementNode()  {}

type ObjectDecl struct {
	Base
	Name     string
	Elements []ObjectElement
}

// -----------------------------------------------------------------------
// Runtime operations

// RunParameter is the tagged union over a runtime operation's parameter
// list entries.
type RunParameter interface {
	Node
	runParameterNode()
}

type RunParamLiteral struct {
	Base
	Value Value
}

type RunParamVar struct {
	Base
	Name string
}

// RunParamFieldExtract names a field extracted from an object, the
// object-field-extract relationship kind of spec.md §4.7.1: the op
// depends on the named object and cannot resolve before it does.
type RunParamFieldExtract struct {
	Base
	Object string
	Field  string
}

func (*RunParamLiteral) runParameterNode()     {}
func (*RunParamVar) runParameterNode()         {}
func (*RunParamFieldExtract) runParameterNode() {}

type RunOp struct {
	Base
	Target     string // variable the result is written into
	Kind       token.Token
	Parameters []RunParameter
}

// -----------------------------------------------------------------------
// Set operations

type SetOperand interface {
	Node
	setOperandNode()
}

type SetOperandObjectRef struct {
	Base
	ObjectID string
}

type SetOperandSetRef struct {
	Base
	SetID string
}

// SetOperandInline is an object literal given directly as a set operand
// rather than via OBJECT_REF.
type SetOperandInline struct {
	Base
	Elements []ObjectElement
}

func (*SetOperandObjectRef) setOperandNode() {}
func (*SetOperandSetRef) setOperandNode()    {}
func (*SetOperandInline) setOperandNode()    {}

type FilterSpec struct {
	Base
	Action    token.Token // INCLUDE or EXCLUDE
	StateRefs []string
}

type SetOp struct {
	Base
	SetID     string
	Operation token.Token // UNION, INTERSECTION, or COMPLEMENT
	Operands  []SetOperand
	Filter    *FilterSpec // nil if absent
}

// -----------------------------------------------------------------------
// Criteria tree

// CriteriaTree is the tagged union over Block and Criterion (CTN) nodes.
type CriteriaTree interface {
	Node
	criteriaNode()
}

type Block struct {
	Base
	Operator token.Token // AND or OR
	Negate   bool
	Children []CriteriaTree
}

// TestSpec is a CTN's "(existence_check, item_check, optional
// state_operator, optional entity_check)" tuple (spec.md §3).
type TestSpec struct {
	Base
	ExistenceCheck string
	ItemCheck      string
	StateOperator  string // "" if absent
	EntityCheck    string // "" if absent
}

// Criterion is a CTN leaf node: a criterion-type identifier, a test
// specification, reference lists, local declarations, and a unique
// node-id assigned during tree construction (spec.md §3).
type Criterion struct {
	Base
	ID            int
	CriterionType string
	Test          TestSpec
	StateRefs     []string
	ObjectRefs    []string
	LocalStates   []*StateDecl
	LocalObject   *ObjectDecl // nil if absent
}

func (*Block) criteriaNode()     {}
func (*Criterion) criteriaNode() {}
