// Package runtimeops evaluates the resolution-time runtime operations
// (spec.md §4.7.3): concat, split, substring, regex-capture, arithmetic,
// count, unique, end, merge, extract. A runtime op is resolution-time
// only when every parameter is already a concrete values.Value; the
// resolution engine is responsible for that classification and for
// deferring scan-time ops unchanged into the execution plan.
package runtimeops

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mpvl/unique"

	"esplang.dev/compiler/internal/values"
)

// Eval executes kind over params and returns the resulting value.
func Eval(kind string, params []values.Value) (values.Value, error) {
	switch kind {
	case "CONCAT":
		return concat(params)
	case "SPLIT":
		return split(params)
	case "SUBSTRING":
		return substring(params)
	case "REGEX_CAPTURE":
		return regexCapture(params)
	case "ARITHMETIC":
		return arithmetic(params)
	case "COUNT":
		return count(params)
	case "UNIQUE":
		return uniqueOp(params)
	case "END":
		return end(params)
	case "MERGE":
		return merge(params)
	case "EXTRACT":
		return extract(params)
	default:
		return values.Value{}, fmt.Errorf("unknown runtime operation %q", kind)
	}
}

func concat(params []values.Value) (values.Value, error) {
	var b strings.Builder
	for _, p := range params {
		if p.Kind != values.String {
			return values.Value{}, fmt.Errorf("concat requires string parameters, got %s", p.Kind)
		}
		b.WriteString(p.Str)
	}
	return values.Str(b.String()), nil
}

func split(params []values.Value) (values.Value, error) {
	if len(params) < 2 {
		return values.Value{}, fmt.Errorf("split requires at least 2 parameters")
	}
	sep := params[1].Str
	parts := strings.Split(params[0].Str, sep)
	index := 0
	if len(params) == 3 {
		idx, ok := intParam(params[2])
		if !ok {
			return values.Value{}, fmt.Errorf("split's third parameter must be numeric")
		}
		index = idx
	}
	if index < 0 || index >= len(parts) {
		return values.Value{}, fmt.Errorf("split index %d out of range (%d parts)", index, len(parts))
	}
	return values.Str(parts[index]), nil
}

func substring(params []values.Value) (values.Value, error) {
	if len(params) < 2 {
		return values.Value{}, fmt.Errorf("substring requires at least 2 parameters")
	}
	s := params[0].Str
	start, ok := intParam(params[1])
	if !ok || start < 0 || start > len(s) {
		return values.Value{}, fmt.Errorf("substring start %v out of range", params[1])
	}
	end := len(s)
	if len(params) == 3 {
		e, ok := intParam(params[2])
		if !ok || e < start || e > len(s) {
			return values.Value{}, fmt.Errorf("substring end %v out of range", params[2])
		}
		end = e
	}
	return values.Str(s[start:end]), nil
}

func regexCapture(params []values.Value) (values.Value, error) {
	if len(params) < 2 {
		return values.Value{}, fmt.Errorf("regex-capture requires at least 2 parameters")
	}
	re, err := regexp.Compile(params[1].Str)
	if err != nil {
		return values.Value{}, fmt.Errorf("invalid regex %q: %w", params[1].Str, err)
	}
	group := 0
	if len(params) == 3 {
		g, ok := intParam(params[2])
		if !ok {
			return values.Value{}, fmt.Errorf("regex-capture's third parameter must be numeric")
		}
		group = g
	}
	m := re.FindStringSubmatch(params[0].Str)
	if m == nil || group >= len(m) {
		return values.Str(""), nil
	}
	return values.Str(m[group]), nil
}

func arithmetic(params []values.Value) (values.Value, error) {
	if len(params) < 2 {
		return values.Value{}, fmt.Errorf("arithmetic requires at least 2 parameters")
	}
	// arithmetic's parameter list is operand, operator, operand, operator,
	// operand, ... evaluated left-to-right, mirroring how a RUN block's
	// flat parameter list encodes a simple binary-op chain without any
	// punctuation for grouping.
	acc := params[0]
	i := 1
	for i < len(params) {
		if params[i].Kind != values.String {
			return values.Value{}, fmt.Errorf("arithmetic expects an operator string at position %d", i)
		}
		op := params[i].Str
		if i+1 >= len(params) {
			return values.Value{}, fmt.Errorf("arithmetic operator %q missing right-hand operand", op)
		}
		res, err := values.Arithmetic(op, acc, params[i+1])
		if err != nil {
			return values.Value{}, err
		}
		acc = res
		i += 2
	}
	return acc, nil
}

func count(params []values.Value) (values.Value, error) {
	if len(params) != 1 {
		return values.Value{}, fmt.Errorf("count takes exactly 1 parameter")
	}
	if params[0].Kind == values.RecordData {
		return values.Int(int64(len(params[0].Record))), nil
	}
	return values.Int(int64(len(params[0].Str))), nil
}

func uniqueOp(params []values.Value) (values.Value, error) {
	if len(params) != 1 {
		return values.Value{}, fmt.Errorf("unique takes exactly 1 parameter")
	}
	parts := strings.Split(params[0].Str, ",")
	unique.Strings(&parts)
	return values.Str(strings.Join(parts, ",")), nil
}

// end implements the "zero is a no-op terminator, one is a last-value
// passthrough" semantics this repository has adopted for an
// underspecified corner of the runtime-op vocabulary.
func end(params []values.Value) (values.Value, error) {
	switch len(params) {
	case 0:
		return values.Str(""), nil
	case 1:
		return params[0], nil
	default:
		return values.Value{}, fmt.Errorf("end takes 0 or 1 parameters, got %d", len(params))
	}
}

func merge(params []values.Value) (values.Value, error) {
	if len(params) < 2 {
		return values.Value{}, fmt.Errorf("merge requires at least 2 parameters")
	}
	kind := params[0].Kind
	switch kind {
	case values.RecordData:
		merged := make(map[string]values.Value)
		for _, p := range params {
			if p.Kind != kind {
				return values.Value{}, fmt.Errorf("merge requires all operands to share one type")
			}
			for k, v := range p.Record {
				merged[k] = v
			}
		}
		return values.RecordOf(merged), nil
	case values.String:
		var b strings.Builder
		for _, p := range params {
			if p.Kind != kind {
				return values.Value{}, fmt.Errorf("merge requires all operands to share one type")
			}
			b.WriteString(p.Str)
		}
		return values.Str(b.String()), nil
	default:
		return values.Value{}, fmt.Errorf("merge does not support operand type %s", kind)
	}
}

func extract(params []values.Value) (values.Value, error) {
	if len(params) == 0 {
		return values.Value{}, fmt.Errorf("extract requires at least 1 parameter")
	}
	if params[0].Kind != values.RecordData {
		return params[0], nil
	}
	if len(params) < 2 {
		return values.Value{}, fmt.Errorf("extract from record_data requires a field-name parameter")
	}
	field := params[1].Str
	v, ok := params[0].Record[field]
	if !ok {
		return values.Value{}, fmt.Errorf("record has no field %q", field)
	}
	return v, nil
}

func intParam(v values.Value) (int, bool) {
	if v.Kind != values.Number {
		return 0, false
	}
	i64, err := v.Num.Int64()
	if err != nil {
		return 0, false
	}
	return int(i64), true
}
