// Package testscript drives the end-to-end pipeline scenarios of
// spec.md §8 from txtar golden fixtures: each archive holds one source
// file and an expectation block, and the harness runs the full pipeline
// and compares its outcome.
package testscript

import (
	"fmt"
	"strings"

	"github.com/rogpeppe/go-internal/txtar"

	"esplang.dev/compiler/internal/compile"
	"esplang.dev/compiler/internal/config"
	"esplang.dev/compiler/internal/resolve"
)

// Expect is the parsed contents of a fixture's "expect" file: either a
// successful plan (want == "OK", optionally with resolved-value
// assertions) or a specific diagnostic code.
type Expect struct {
	OK           bool
	Code         string
	ResolvedVars map[string]string // variable -> expected rendered value, when OK
	CTNObjects   map[string]string // criterion-type -> comma-joined expected resolved object-ref list, when OK
	CTNTest      map[string]string // criterion-type -> comma-joined "existence,item,operator,entity" test spec, when OK
	CTNStateRefs map[string]string // criterion-type -> comma-joined expected resolved state-ref list, when OK
	GlobalStates []string          // state names the plan must resolve at the top level, when OK
}

// Case is one parsed scenario, ready to run.
type Case struct {
	Name   string
	Source []byte
	Expect Expect
}

// Load parses a txtar archive into a Case. The archive must contain a
// "input.esp" file and an "expect.txt" file.
func Load(name string, data []byte) (Case, error) {
	a := txtar.Parse(data)
	c := Case{Name: name}
	hasExpect := false
	for _, f := range a.Files {
		switch f.Name {
		case "input.esp":
			c.Source = f.Data
		case "expect.txt":
			exp, err := parseExpect(f.Data)
			if err != nil {
				return c, fmt.Errorf("%s: %w", name, err)
			}
			c.Expect = exp
			hasExpect = true
		}
	}
	if c.Source == nil {
		return c, fmt.Errorf("%s: missing input.esp", name)
	}
	if !hasExpect {
		return c, fmt.Errorf("%s: missing expect.txt", name)
	}
	return c, nil
}

func parseExpect(data []byte) (Expect, error) {
	var e Expect
	e.ResolvedVars = make(map[string]string)
	e.CTNObjects = make(map[string]string)
	e.CTNTest = make(map[string]string)
	e.CTNStateRefs = make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "OK" {
			e.OK = true
			continue
		}
		if strings.HasPrefix(line, "code ") {
			e.Code = strings.TrimSpace(strings.TrimPrefix(line, "code "))
			continue
		}
		if strings.HasPrefix(line, "objects ") {
			rest := strings.TrimSpace(strings.TrimPrefix(line, "objects "))
			name, val, ok := strings.Cut(rest, "=")
			if !ok {
				return e, fmt.Errorf("malformed objects line %q", line)
			}
			e.CTNObjects[strings.TrimSpace(name)] = strings.TrimSpace(val)
			continue
		}
		if strings.HasPrefix(line, "test ") {
			rest := strings.TrimSpace(strings.TrimPrefix(line, "test "))
			name, val, ok := strings.Cut(rest, "=")
			if !ok {
				return e, fmt.Errorf("malformed test line %q", line)
			}
			e.CTNTest[strings.TrimSpace(name)] = strings.TrimSpace(val)
			continue
		}
		if strings.HasPrefix(line, "staterefs ") {
			rest := strings.TrimSpace(strings.TrimPrefix(line, "staterefs "))
			name, val, ok := strings.Cut(rest, "=")
			if !ok {
				return e, fmt.Errorf("malformed staterefs line %q", line)
			}
			e.CTNStateRefs[strings.TrimSpace(name)] = strings.TrimSpace(val)
			continue
		}
		if strings.HasPrefix(line, "states ") {
			rest := strings.TrimSpace(strings.TrimPrefix(line, "states "))
			for _, name := range strings.Split(rest, ",") {
				e.GlobalStates = append(e.GlobalStates, strings.TrimSpace(name))
			}
			continue
		}
		if name, val, ok := strings.Cut(line, "="); ok {
			e.ResolvedVars[strings.TrimSpace(name)] = strings.TrimSpace(val)
			continue
		}
		return e, fmt.Errorf("unrecognized expect line %q", line)
	}
	return e, nil
}

// Run executes c's source through the compile pipeline and reports
// whether the outcome matched c.Expect.
func Run(c Case) error {
	res := compile.Compile(c.Name, c.Source, config.Default(), nil)

	if c.Expect.Code != "" {
		if !res.Diagnostics.HasErrors() {
			return fmt.Errorf("%s: expected diagnostic code %s, got a successful plan", c.Name, c.Expect.Code)
		}
		for _, d := range res.Diagnostics {
			if string(d.Code) == c.Expect.Code {
				return nil
			}
		}
		return fmt.Errorf("%s: expected diagnostic code %s, got %v", c.Name, c.Expect.Code, res.Diagnostics)
	}

	if c.Expect.OK {
		if res.Diagnostics.HasErrors() {
			return fmt.Errorf("%s: expected success, got diagnostics %v", c.Name, res.Diagnostics)
		}
		if res.Plan == nil {
			return fmt.Errorf("%s: expected a plan, got none", c.Name)
		}
		for name, want := range c.Expect.ResolvedVars {
			got, ok := res.Plan.Values[name]
			if !ok {
				return fmt.Errorf("%s: variable %q was not resolved", c.Name, name)
			}
			if got.String() != want {
				return fmt.Errorf("%s: variable %q = %q, want %q", c.Name, name, got.String(), want)
			}
		}
		for ctnType, want := range c.Expect.CTNObjects {
			leaf := findLeaf(res.Plan.Criteria, ctnType)
			if leaf == nil {
				return fmt.Errorf("%s: no resolved criterion of type %q", c.Name, ctnType)
			}
			got := strings.Join(leaf.ObjectRefs, ",")
			if got != want {
				return fmt.Errorf("%s: criterion %q object refs = %q, want %q", c.Name, ctnType, got, want)
			}
		}
		for ctnType, want := range c.Expect.CTNTest {
			leaf := findLeaf(res.Plan.Criteria, ctnType)
			if leaf == nil {
				return fmt.Errorf("%s: no resolved criterion of type %q", c.Name, ctnType)
			}
			got := strings.Join([]string{
				leaf.Test.ExistenceCheck,
				leaf.Test.ItemCheck,
				leaf.Test.StateOperator,
				leaf.Test.EntityCheck,
			}, ",")
			if got != want {
				return fmt.Errorf("%s: criterion %q test spec = %q, want %q", c.Name, ctnType, got, want)
			}
		}
		for ctnType, want := range c.Expect.CTNStateRefs {
			leaf := findLeaf(res.Plan.Criteria, ctnType)
			if leaf == nil {
				return fmt.Errorf("%s: no resolved criterion of type %q", c.Name, ctnType)
			}
			got := strings.Join(leaf.StateRefs, ",")
			if got != want {
				return fmt.Errorf("%s: criterion %q state refs = %q, want %q", c.Name, ctnType, got, want)
			}
		}
		for _, name := range c.Expect.GlobalStates {
			if _, ok := res.Plan.States[name]; !ok {
				return fmt.Errorf("%s: global state %q was not resolved", c.Name, name)
			}
		}
	}
	return nil
}

// findLeaf searches a resolved criteria forest depth-first for the first
// leaf criterion of the given type.
func findLeaf(blocks []resolve.ResolvedBlock, ctnType string) *resolve.ResolvedCriterion {
	for _, b := range blocks {
		if l := findLeafInBlock(b, ctnType); l != nil {
			return l
		}
	}
	return nil
}

func findLeafInBlock(b resolve.ResolvedBlock, ctnType string) *resolve.ResolvedCriterion {
	if b.Leaf != nil && b.Leaf.CriterionType == ctnType {
		return b.Leaf
	}
	for _, child := range b.Children {
		if l := findLeafInBlock(child, ctnType); l != nil {
			return l
		}
	}
	return nil
}
