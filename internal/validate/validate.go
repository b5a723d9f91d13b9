// Package validate implements the reference validator (spec.md §4.5):
// existence checking over the raw relationship list, followed by cycle
// detection over the dependency-creating subset of those relationships.
package validate

import (
	"fmt"
	"sort"

	"esplang.dev/compiler/internal/errors"
	"esplang.dev/compiler/internal/limits"
	"esplang.dev/compiler/internal/symbols"
	"esplang.dev/compiler/internal/token"
)

// Options mirrors the runtime preferences that affect this stage
// (spec.md §6.4): whether cycle detection runs at all, whether the
// first undefined reference aborts the pass, and whether the first
// detected cycle aborts the pass.
type Options struct {
	EnableCycleDetection bool
	ContinueOnErrors     bool
	ContinueAfterCycles  bool
}

// DefaultOptions matches the preferences' documented defaults.
func DefaultOptions() Options {
	return Options{EnableCycleDetection: true, ContinueOnErrors: true, ContinueAfterCycles: false}
}

// Validate runs both passes over tbl and returns nil on success or the
// collected diagnostics on failure; it never returns both (spec.md §7).
func Validate(tbl *symbols.Table, opts Options) errors.List {
	var diags errors.List

	if !existencePass(tbl, opts, &diags) {
		return diags
	}
	if opts.EnableCycleDetection {
		cyclePass(tbl, opts, &diags)
	}
	if diags.HasErrors() {
		return diags
	}
	return nil
}

// existencePass implements §4.5 Pass 1. It returns false if the pass was
// aborted before completion (preference-disabled continuation, or a cap
// violation).
func existencePass(tbl *symbols.Table, opts Options, diags *errors.List) bool {
	for _, rel := range tbl.Relationships {
		if rel.Kind == symbols.RunTarget {
			continue // bookkeeping self-edge, not a reference to validate
		}
		if targetExists(tbl, rel) {
			continue
		}
		d := errors.New(errors.UndefinedReference, errors.CategoryReferences, token.NoSpan,
			"undefined reference to %q via a %s relationship", rel.Target, rel.Kind)
		d.WithContext("source", rel.Source)
		diags.Add(d)

		if diags.Count(errors.Error) >= limits.MaxSemanticErrors {
			return false
		}
		if !opts.ContinueOnErrors {
			return false
		}
	}
	return true
}

// targetExists resolves a relationship's target against the symbol
// space its kind denotes, consulting the referrer's CTN-local table
// first when the relationship carries one.
func targetExists(tbl *symbols.Table, rel symbols.SymbolRelationship) bool {
	switch rel.Kind {
	case symbols.VariableInit, symbols.VariableUse, symbols.RunInput:
		if _, ok := tbl.Globals.Variables[rel.Target]; ok {
			return true
		}
		_, ok := tbl.Globals.RunTargets[rel.Target]
		return ok
	case symbols.StateRef:
		if _, ok := tbl.Globals.States[rel.Target]; ok {
			return true
		}
		return localStateExists(tbl, rel.CTNContext, rel.Target)
	case symbols.ObjectRef, symbols.ObjectFieldExtract:
		_, ok := tbl.Globals.Objects[rel.Target]
		return ok
	case symbols.SetRef:
		_, ok := tbl.Globals.Sets[rel.Target]
		return ok
	case symbols.FilterDep:
		_, ok := tbl.Globals.States[rel.Target]
		return ok
	case symbols.LocalStateDep:
		return localStateExists(tbl, rel.CTNContext, rel.Target)
	case symbols.LocalObjectDep:
		loc, ok := tbl.Locals[rel.CTNContext]
		return ok && loc.Object != nil && loc.Object.Name == rel.Target
	default:
		return true
	}
}

func localStateExists(tbl *symbols.Table, ctn int, name string) bool {
	loc, ok := tbl.Locals[ctn]
	if !ok {
		return false
	}
	_, ok = loc.States[name]
	return ok
}

// -----------------------------------------------------------------------
// Cycle detection (§4.5 Pass 2)

const (
	white = 0
	gray  = 1
	black = 2
)

// cyclePass builds adjacency restricted to the dependency-creating
// relationship kinds and runs bounded DFS from every node, in
// deterministic (sorted) order, recording each back edge found as a
// reported cycle. It stops after the first cycle unless
// opts.ContinueAfterCycles is set, and always after
// limits.MaxReportedCycles cycles.
func cyclePass(tbl *symbols.Table, opts Options, diags *errors.List) {
	adj := make(map[string][]string)
	nodeSet := make(map[string]bool)
	for _, rel := range tbl.Relationships {
		if !rel.Kind.DependencyCreating() {
			continue
		}
		adj[rel.Source] = append(adj[rel.Source], rel.Target)
		nodeSet[rel.Source] = true
		nodeSet[rel.Target] = true
	}
	if len(nodeSet) > limits.MaxGraphNodes {
		diags.Add(errors.New(errors.InternalError, errors.CategorySystem, token.NoSpan,
			"dependency graph has %d nodes, exceeding the maximum of %d", len(nodeSet), limits.MaxGraphNodes))
		return
	}

	nodes := make([]string, 0, len(nodeSet))
	for n := range nodeSet {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	color := make(map[string]int, len(nodes))
	var path []string
	reported := 0
	aborted := false

	var dfs func(n string, depth int) bool
	dfs = func(n string, depth int) bool {
		if depth > limits.MaxReferenceChainDepth {
			diags.Add(errors.New(errors.InternalError, errors.CategorySystem, token.NoSpan,
				"reference chain exceeds maximum depth of %d", limits.MaxReferenceChainDepth))
			return true
		}
		color[n] = gray
		path = append(path, n)
		for _, m := range adj[n] {
			switch color[m] {
			case white:
				if dfs(m, depth+1) {
					return true
				}
			case gray:
				reportCycle(diags, path, m)
				reported++
				if reported >= limits.MaxReportedCycles {
					return true
				}
				if !opts.ContinueAfterCycles {
					return true
				}
			case black:
				// already fully explored; no cycle reachable through it
			}
		}
		path = path[:len(path)-1]
		color[n] = black
		return false
	}

	for _, n := range nodes {
		if aborted {
			break
		}
		if color[n] == white {
			aborted = dfs(n, 0)
		}
	}
}

// reportCycle renders the back edge (path ending at back) as a
// CIRCULAR_DEPENDENCY diagnostic whose context lists the cycle in
// traversal order, truncated to MaxCyclePathLength entries.
func reportCycle(diags *errors.List, path []string, back string) {
	start := 0
	for i, n := range path {
		if n == back {
			start = i
			break
		}
	}
	cycle := append(append([]string{}, path[start:]...), back)
	if len(cycle) > limits.MaxCyclePathLength {
		cycle = cycle[:limits.MaxCyclePathLength]
	}
	d := errors.New(errors.CircularDependency, errors.CategoryReferences, token.NoSpan,
		"circular dependency detected involving %d symbol(s)", len(cycle)-1)
	for i, n := range cycle {
		d.WithContext(fmt.Sprintf("path_%d", i), n)
	}
	diags.Add(d)
}
