package ast

// Visitor is called once per node during Walk. If Before returns nil,
// the node's children are not visited and After is not called for it.
type Visitor interface {
	Before(n Node) (w Visitor)
	After(n Node)
}

// Walk traverses the tree rooted at n, visiting every node reachable
// through the variant-heavy AST (spec.md §9: "use tagged unions for
// every X-of-N-variants position ... visitors pattern-match
// exhaustively").
func Walk(v Visitor, n Node) {
	if n == nil {
		return
	}
	w := v.Before(n)
	if w == nil {
		return
	}
	switch x := n.(type) {
	case *File:
		if x.Metadata != nil {
			Walk(w, x.Metadata)
		}
		if x.Def != nil {
			Walk(w, x.Def)
		}
	case *Metadata:
		for _, f := range x.Fields {
			Walk(w, f)
		}
	case *MetadataField:
		Walk(w, x.Value)
	case *Definition:
		for _, d := range x.Vars {
			Walk(w, d)
		}
		for _, d := range x.States {
			Walk(w, d)
		}
		for _, d := range x.Objects {
			Walk(w, d)
		}
		for _, d := range x.RunOps {
			Walk(w, d)
		}
		for _, d := range x.SetOps {
			Walk(w, d)
		}
		for _, d := range x.Criteria {
			Walk(w, d)
		}
	case *VarDecl:
		if x.Init != nil {
			Walk(w, x.Init)
		}
	case *StateDecl:
		for _, f := range x.Fields {
			Walk(w, f)
		}
		for _, r := range x.Records {
			Walk(w, r)
		}
	case *RecordBlock:
		for _, f := range x.Fields {
			Walk(w, f)
		}
	case *StateField:
		Walk(w, x.Value)
	case *ObjectDecl:
		for _, e := range x.Elements {
			Walk(w, e)
		}
	case *ObjectField:
		Walk(w, x.Value)
	case *ObjectBehavior:
		Walk(w, x.Value)
	case *ObjectSetRef, *ObjectSelect:
		// leaves
	case *RunOp:
		for _, p := range x.Parameters {
			Walk(w, p)
		}
	case *RunParamLiteral:
		Walk(w, x.Value)
	case *RunParamVar, *RunParamFieldExtract:
		// leaves
	case *SetOp:
		for _, o := range x.Operands {
			Walk(w, o)
		}
		if x.Filter != nil {
			Walk(w, x.Filter)
		}
	case *SetOperandObjectRef, *SetOperandSetRef:
		// leaves
	case *SetOperandInline:
		for _, e := range x.Elements {
			Walk(w, e)
		}
	case *FilterSpec:
		// leaf
	case *Block:
		for _, c := range x.Children {
			Walk(w, c)
		}
	case *Criterion:
		for _, s := range x.LocalStates {
			Walk(w, s)
		}
		if x.LocalObject != nil {
			Walk(w, x.LocalObject)
		}
	case *StringLit, *IntLit, *FloatLit, *BoolLit, *VarRef:
		// leaves
	}
	v.After(n)
}

// Inspect calls f on every node reachable from n, continuing into a
// node's children only if f returns true for it.
func Inspect(n Node, f func(Node) bool) {
	Walk(inspector(f), n)
}

type inspector func(Node) bool

func (f inspector) Before(n Node) Visitor {
	if f(n) {
		return f
	}
	return nil
}

func (f inspector) After(Node) {}
