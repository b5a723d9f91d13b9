// Package semantic implements the three semantic sub-checks of spec.md
// §4.6: type/operation compatibility (T1), runtime-op arity and operand
// typing (T2), and set-operation arity (T3). All three run over the
// already symbol-discovered AST; semantic analysis never mutates it.
package semantic

import (
	"strconv"

	"esplang.dev/compiler/internal/ast"
	"esplang.dev/compiler/internal/errors"
	"esplang.dev/compiler/internal/limits"
	"esplang.dev/compiler/internal/symbols"
	"esplang.dev/compiler/internal/token"
)

// dataType is the closed vocabulary of spec.md §6.1's
// "data-type identifiers (recognized semantically, not lexically)".
type dataType string

const (
	typString     dataType = "string"
	typInt        dataType = "int"
	typFloat      dataType = "float"
	typBoolean    dataType = "boolean"
	typBinary     dataType = "binary"
	typRecordData dataType = "record_data"
	typVersion    dataType = "version"
	typEVRString  dataType = "evr_string"
	typUnknown    dataType = ""
)

func isNumeric(t dataType) bool { return t == typInt || t == typFloat }
func isOrdered(t dataType) bool { return isNumeric(t) || t == typVersion || t == typEVRString }

// compatible reports whether op may be applied to a field/operand of
// type t (T1). Unknown types (type could not be inferred, e.g. a
// variable with no declared type reachable at this point) are always
// accepted — semantic analysis does not fabricate false positives from
// incomplete inference.
func compatible(t dataType, op token.Token) bool {
	if t == typUnknown {
		return true
	}
	switch op {
	case token.EQ, token.NEQ:
		return true
	case token.GT, token.LT, token.GE, token.LE:
		return isOrdered(t)
	case token.IEQ, token.INE:
		return t == typString
	case token.CONTAINS, token.STARTS, token.ENDS,
		token.NOT_CONTAINS, token.NOT_STARTS, token.NOT_ENDS:
		return t == typString
	case token.PATTERN_MATCH, token.MATCHES:
		return t == typString
	case token.SUBSET_OF, token.SUPERSET_OF:
		return t == typRecordData || t == typBinary
	case token.ADD, token.SUB, token.MUL, token.QUO, token.REM:
		return isNumeric(t)
	default:
		return false
	}
}

// Analyze runs T1, T2, and T3 over f using tbl for type lookups,
// collecting diagnostics up to MaxSemanticErrors (spec.md §4.6 "Error
// collection is bounded; reaching the cap halts further semantic
// checking but does not retroactively invalidate already-collected
// diagnostics").
func Analyze(f *ast.File, tbl *symbols.Table) errors.List {
	a := &analyzer{tbl: tbl}
	if f == nil || f.Def == nil {
		return nil
	}
	a.checkStates(f.Def.States)
	a.checkCriteriaLocalStates(f.Def.Criteria)
	a.checkRunOps(f.Def.RunOps)
	a.checkSetOps(f.Def.SetOps)
	if a.diags.HasErrors() {
		return a.diags
	}
	return nil
}

type analyzer struct {
	tbl   *symbols.Table
	diags errors.List
}

func (a *analyzer) fail(code errors.Code, span token.Span, format string, args ...interface{}) bool {
	a.diags.Add(errors.New(code, errors.CategorySemantic, span, format, args...))
	return len(a.diags) < limits.MaxSemanticErrors
}

// -----------------------------------------------------------------------
// T1 — type/operation compatibility

func (a *analyzer) checkStates(states []*ast.StateDecl) {
	for _, s := range states {
		if !a.checkFieldList(s.Fields) {
			return
		}
		for _, r := range s.Records {
			if !a.checkFieldList(r.Fields) {
				return
			}
		}
	}
}

func (a *analyzer) checkCriteriaLocalStates(trees []ast.CriteriaTree) {
	for _, t := range trees {
		if !a.checkCriteriaTreeStates(t) {
			return
		}
	}
}

func (a *analyzer) checkCriteriaTreeStates(t ast.CriteriaTree) bool {
	switch n := t.(type) {
	case *ast.Block:
		for _, c := range n.Children {
			if !a.checkCriteriaTreeStates(c) {
				return false
			}
		}
	case *ast.Criterion:
		for _, ls := range n.LocalStates {
			if !a.checkFieldList(ls.Fields) {
				return false
			}
			for _, r := range ls.Records {
				if !a.checkFieldList(r.Fields) {
					return false
				}
			}
		}
	}
	return true
}

func (a *analyzer) checkFieldList(fields []*ast.StateField) bool {
	for _, f := range fields {
		t := dataType(f.DataType)
		if !compatible(t, f.Operator) {
			if !a.fail(errors.TypeIncompatibility, f.Span(),
				"operator %s is not compatible with data type %q on field %q", f.Operator, f.DataType, f.Name) {
				return false
			}
		}
	}
	return true
}

// -----------------------------------------------------------------------
// T2 — runtime-operation validation

type opRule struct {
	min, max int // max == -1 means unbounded
}

var runOpRules = map[token.Token]opRule{
	token.CONCAT:        {1, -1},
	token.SPLIT:         {2, 3},
	token.SUBSTRING:     {2, 3},
	token.REGEX_CAPTURE: {2, 3},
	token.ARITHMETIC:    {2, -1},
	token.COUNT:         {1, 1},
	token.UNIQUE:        {1, 1},
	token.END:           {0, 1},
	token.MERGE:         {2, -1},
	token.EXTRACT:       {1, -1},
}

func (a *analyzer) checkRunOps(ops []*ast.RunOp) {
	for _, op := range ops {
		if len(op.Parameters) > limits.MaxRuntimeOpParameters {
			if !a.fail(errors.RuntimeOperationError, op.Span(),
				"RUN %s has %d parameters, exceeding the maximum of %d", op.Target, len(op.Parameters), limits.MaxRuntimeOpParameters) {
				return
			}
			continue
		}
		rule, known := runOpRules[op.Kind]
		if !known {
			if !a.fail(errors.RuntimeOperationError, op.Span(), "unknown runtime operation kind %s", op.Kind) {
				return
			}
			continue
		}
		n := len(op.Parameters)
		if n < rule.min || (rule.max != -1 && n > rule.max) {
			if !a.fail(errors.RuntimeOperationError, op.Span(),
				"RUN %s (%s) takes between %d and %s parameters, got %d", op.Target, op.Kind, rule.min, maxLabel(rule.max), n) {
				return
			}
			continue
		}
		if !a.checkRunOpTypes(op) {
			return
		}
	}
}

func maxLabel(max int) string {
	if max == -1 {
		return "unbounded"
	}
	return strconv.Itoa(max)
}

// checkRunOpTypes enforces each op's parameter-type constraint (spec.md
// §4.6): concat requires all-string, arithmetic requires all-numeric,
// split/substring/regex-capture require a string first parameter, and
// merge requires every operand to share one type. Parameters whose type
// cannot be inferred (unresolved variable, unknown field) are treated as
// unknown and never fail a check.
func (a *analyzer) checkRunOpTypes(op *ast.RunOp) bool {
	types := make([]dataType, len(op.Parameters))
	for i, p := range op.Parameters {
		types[i] = a.paramType(p)
	}

	switch op.Kind {
	case token.CONCAT:
		for i, t := range types {
			if t != typUnknown && t != typString {
				if !a.fail(errors.RuntimeOperationError, op.Parameters[i].Span(),
					"RUN %s (concat) requires string parameters, parameter %d has type %q", op.Target, i, t) {
					return false
				}
			}
		}
	case token.ARITHMETIC:
		for i, t := range types {
			if t != typUnknown && !isNumeric(t) {
				if !a.fail(errors.RuntimeOperationError, op.Parameters[i].Span(),
					"RUN %s (arithmetic) requires numeric parameters, parameter %d has type %q", op.Target, i, t) {
					return false
				}
			}
		}
	case token.SPLIT, token.SUBSTRING, token.REGEX_CAPTURE:
		if len(types) > 0 && types[0] != typUnknown && types[0] != typString {
			if !a.fail(errors.RuntimeOperationError, op.Parameters[0].Span(),
				"RUN %s (%s) requires a string first parameter, got %q", op.Target, op.Kind, types[0]) {
				return false
			}
		}
	case token.MERGE:
		var want dataType
		for i, t := range types {
			if t == typUnknown {
				continue
			}
			if want == typUnknown {
				want = t
				continue
			}
			if t != want {
				if !a.fail(errors.RuntimeOperationError, op.Parameters[i].Span(),
					"RUN %s (merge) requires all operands to share one type; saw both %q and %q", op.Target, want, t) {
					return false
				}
			}
		}
	}
	return true
}

// paramType best-effort infers a runtime-op parameter's static type
// from the declaration it is grounded on.
func (a *analyzer) paramType(p ast.RunParameter) dataType {
	switch param := p.(type) {
	case *ast.RunParamLiteral:
		switch param.Value.(type) {
		case *ast.StringLit:
			return typString
		case *ast.IntLit:
			return typInt
		case *ast.FloatLit:
			return typFloat
		case *ast.BoolLit:
			return typBoolean
		}
	case *ast.RunParamVar:
		if v, ok := a.tbl.Globals.Variables[param.Name]; ok {
			return dataType(v.DataType)
		}
	case *ast.RunParamFieldExtract:
		if o, ok := a.tbl.Globals.Objects[param.Object]; ok {
			for _, e := range o.Elements {
				if f, ok := e.(*ast.ObjectField); ok && f.Name == param.Field {
					return dataType(f.DataType)
				}
			}
		}
	}
	return typUnknown
}

// -----------------------------------------------------------------------
// T3 — set-operation arity

func (a *analyzer) checkSetOps(ops []*ast.SetOp) {
	for _, s := range ops {
		n := len(s.Operands)
		var ok bool
		switch s.Operation {
		case token.UNION:
			ok = n >= 2
		case token.INTERSECTION:
			ok = n >= 2
		case token.COMPLEMENT:
			ok = n == 2
		default:
			if !a.fail(errors.SetConstraintViolation, s.Span(), "unknown set operation kind %s on SET %s", s.Operation, s.SetID) {
				return
			}
			continue
		}
		if n == 0 {
			if !a.fail(errors.SetConstraintViolation, s.Span(), "SET %s has no operands", s.SetID) {
				return
			}
			continue
		}
		if !ok {
			if !a.fail(errors.SetConstraintViolation, s.Span(),
				"SET %s (%s) has %d operand(s), violating its arity constraint", s.SetID, s.Operation, n) {
				return
			}
		}
	}
}
