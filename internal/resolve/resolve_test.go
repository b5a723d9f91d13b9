package resolve_test

import (
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp/cmpopts"

	"esplang.dev/compiler/internal/ast"
	"esplang.dev/compiler/internal/parser"
	"esplang.dev/compiler/internal/resolve"
	"esplang.dev/compiler/internal/symbols"
	"esplang.dev/compiler/internal/token"
)

func mustResolve(t *testing.T, src string) *resolve.Plan {
	t.Helper()
	f, diags := parser.Parse("test.esp", []byte(src))
	qt.Assert(t, qt.IsFalse(diags.HasErrors()), qt.Commentf("parse: %v", diags))

	tbl, diags := symbols.Discover(f)
	qt.Assert(t, qt.IsFalse(diags.HasErrors()), qt.Commentf("discover: %v", diags))

	plan, diags := resolve.Resolve(f, tbl)
	qt.Assert(t, qt.IsFalse(diags.HasErrors()), qt.Commentf("resolve: %v", diags))
	qt.Assert(t, qt.IsNotNil(plan))
	return plan
}

func TestResolveLiteralVariable(t *testing.T) {
	plan := mustResolve(t, `
DEF
VAR x int 42
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	qt.Assert(t, qt.Equals(plan.Values["x"].String(), "42"))
	qt.Assert(t, qt.IsFalse(plan.Computed["x"]))
}

func TestResolveVariableChainOrdering(t *testing.T) {
	plan := mustResolve(t, `
DEF
VAR b string VAR a
VAR a string "hi"
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	qt.Assert(t, qt.Equals(plan.Values["a"].String(), "hi"))
	qt.Assert(t, qt.Equals(plan.Values["b"].String(), "hi"))

	posA, posB := indexOf(plan.Order, "a"), indexOf(plan.Order, "b")
	qt.Assert(t, qt.IsTrue(posA >= 0 && posB >= 0))
	qt.Assert(t, qt.IsTrue(posA < posB))
}

func TestResolveUninitializedVariableIsComputed(t *testing.T) {
	plan := mustResolve(t, `
DEF
VAR x int
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	qt.Assert(t, qt.IsTrue(plan.Computed["x"]))
	_, hasValue := plan.Values["x"]
	qt.Assert(t, qt.IsFalse(hasValue))
}

func TestResolveRunOpConcat(t *testing.T) {
	plan := mustResolve(t, `
DEF
VAR a string "foo"
VAR b string "bar"
RUN c CONCAT
parameters
VAR a
VAR b
parameters_end
RUN_END
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	qt.Assert(t, qt.Equals(plan.Values["c"].String(), "foobar"))
}

func TestResolveRunOpWithFieldExtractIsScanTime(t *testing.T) {
	plan := mustResolve(t, `
DEF
OBJECT o1
name string "svc"
OBJECT_END
RUN c EXTRACT
parameters
OBJ o1 name
parameters_end
RUN_END
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	qt.Assert(t, qt.IsTrue(plan.Computed["c"]))
	_, hasValue := plan.Values["c"]
	qt.Assert(t, qt.IsFalse(hasValue))
	qt.Assert(t, qt.HasLen(plan.ScanTimeRunOps, 1))
}

func TestResolveObjectFields(t *testing.T) {
	plan := mustResolve(t, `
DEF
OBJECT o1
name string "svc"
port int 8080
OBJECT_END
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	fields, ok := plan.Objects["o1"]
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(fields["name"].String(), "svc"))
	qt.Assert(t, qt.Equals(fields["port"].String(), "8080"))
}

func TestResolveSetUnionDedupPreservesOrder(t *testing.T) {
	plan := mustResolve(t, `
DEF
OBJECT o1
OBJECT_END
OBJECT o2
OBJECT_END
SET s union
OBJECT_REF o2
OBJECT_REF o1
OBJECT_REF o2
SET_END
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	set, ok := plan.Sets["s"]
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.DeepEquals(set.Members, []string{"o2", "o1"}))
}

func TestResolveSetIntersection(t *testing.T) {
	plan := mustResolve(t, `
DEF
OBJECT o1
OBJECT_END
OBJECT o2
OBJECT_END
SET a union
OBJECT_REF o1
OBJECT_REF o2
SET_END
SET b union
OBJECT_REF o2
OBJECT_REF o2
SET_END
SET c intersection
SET_REF a
SET_REF b
SET_END
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	set, ok := plan.Sets["c"]
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.DeepEquals(set.Members, []string{"o2"}))
}

func TestResolveSetComplement(t *testing.T) {
	plan := mustResolve(t, `
DEF
OBJECT o1
OBJECT_END
OBJECT o2
OBJECT_END
SET a union
OBJECT_REF o1
OBJECT_REF o2
SET_END
SET b union
OBJECT_REF o2
OBJECT_REF o2
SET_END
SET c complement
SET_REF a
SET_REF b
SET_END
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	set, ok := plan.Sets["c"]
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.DeepEquals(set.Members, []string{"o1"}))
}

func TestResolveSetFilterCarriedForwardUnevaluated(t *testing.T) {
	plan := mustResolve(t, `
DEF
STATE st1
status string = "up"
STATE_END
OBJECT o1
OBJECT_END
SET s union
OBJECT_REF o1
OBJECT_REF o1
FILTER include
STATE_REF st1
FILTER_END
SET_END
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	set, ok := plan.Sets["s"]
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.DeepEquals(set.Members, []string{"o1"}))

	want := &ast.FilterSpec{Action: token.INCLUDE, StateRefs: []string{"st1"}}
	qt.Assert(t, qt.CmpEquals(set.Filter, want, cmpopts.IgnoreUnexported(ast.Base{})))
}

func TestResolveSetRefExpansionInCriterion(t *testing.T) {
	plan := mustResolve(t, `
DEF
OBJECT o1
OBJECT_END
OBJECT o2
OBJECT_END
SET s union
OBJECT_REF o1
OBJECT_REF o2
SET_END
CRI AND
CTN check TEST any all
OBJECT grp
SET_REF s
OBJECT_END
CTN_END
CRI_END
DEF_END
`)
	qt.Assert(t, qt.HasLen(plan.Criteria, 1))
	leaf := plan.Criteria[0].Children[0].Leaf
	qt.Assert(t, qt.IsNotNil(leaf))
	qt.Assert(t, qt.DeepEquals(leaf.ObjectRefs, []string{"o1", "o2"}))
}

func TestResolveCriterionCarriesTestAndStateRefs(t *testing.T) {
	plan := mustResolve(t, `
DEF
STATE st1
status string = "up"
STATE_END
CRI AND
CTN check TEST at_least_one all AND none
STATE_REF st1
CTN_END
CRI_END
DEF_END
`)
	leaf := plan.Criteria[0].Children[0].Leaf
	qt.Assert(t, qt.IsNotNil(leaf))
	qt.Assert(t, qt.Equals(leaf.Test.ExistenceCheck, "at_least_one"))
	qt.Assert(t, qt.Equals(leaf.Test.ItemCheck, "all"))
	qt.Assert(t, qt.Equals(leaf.Test.StateOperator, "AND"))
	qt.Assert(t, qt.Equals(leaf.Test.EntityCheck, "none"))
	qt.Assert(t, qt.DeepEquals(leaf.StateRefs, []string{"st1"}))
}

func TestResolveCriterionLocalStatesAreKeyedByName(t *testing.T) {
	plan := mustResolve(t, `
DEF
CRI AND
CTN check TEST any all
STATE local1
flag boolean = true
STATE_END
CTN_END
CRI_END
DEF_END
`)
	leaf := plan.Criteria[0].Children[0].Leaf
	qt.Assert(t, qt.IsNotNil(leaf))
	decl, ok := leaf.LocalStates["local1"]
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(decl.Name, "local1"))
}

func TestResolvePlanCarriesMetadataAndGlobalStates(t *testing.T) {
	plan := mustResolve(t, `
META
module_name "svc"
META_END
DEF
STATE st1
status string = "up"
STATE_END
CRI AND
CTN check TEST any all
CTN_END
CRI_END
DEF_END
`)
	qt.Assert(t, qt.IsNotNil(plan.Metadata))
	qt.Assert(t, qt.HasLen(plan.Metadata.Fields, 1))

	decl, ok := plan.States["st1"]
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(decl.Name, "st1"))
}

func TestResolvePlanCarriesPerCTNLocalTables(t *testing.T) {
	plan := mustResolve(t, `
DEF
CRI AND
CTN check TEST any all
STATE local1
flag boolean = true
STATE_END
CTN_END
CRI_END
DEF_END
`)
	leaf := plan.Criteria[0].Children[0].Leaf
	qt.Assert(t, qt.IsNotNil(leaf))
	local, ok := plan.Locals[leaf.ID]
	qt.Assert(t, qt.IsTrue(ok))
	_, ok = local.States["local1"]
	qt.Assert(t, qt.IsTrue(ok))
}

func indexOf(ss []string, v string) int {
	for i, s := range ss {
		if s == v {
			return i
		}
	}
	return -1
}
