// Package values implements the typed runtime value representation
// produced by symbol evaluation (spec.md §4.7.3) and consumed by the
// operator-compatibility checks and runtime-op evaluators. Numeric
// values are held as arbitrary-precision decimals (github.com/cockroachdb/apd/v3)
// so that chained arithmetic runtime ops do not accumulate float64
// rounding error; version and evr_string values get dedicated ordered
// comparisons (the former backed by golang.org/x/mod/semver where the
// input is well-formed, the latter by a component-wise comparator);
// string equality ops fold case via golang.org/x/text/cases rather than
// strings.EqualFold, which only handles simple (non-Unicode-aware) folding.
package values

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"golang.org/x/mod/semver"
	"golang.org/x/text/cases"
)

// Kind is the closed set of data-type identifiers recognized
// semantically (spec.md §6.1).
type Kind int

const (
	String Kind = iota
	Number // backs both int and float source literals; an integral float (2.0) is stored as the same Decimal as the int (2)
	Boolean
	Binary
	RecordData
	Version
	EVRString
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	case Binary:
		return "binary"
	case RecordData:
		return "record_data"
	case Version:
		return "version"
	case EVRString:
		return "evr_string"
	default:
		return "unknown"
	}
}

// Value is the tagged union over a resolved runtime value. Exactly the
// field matching Kind is meaningful.
type Value struct {
	Kind    Kind
	Str     string
	Num     apd.Decimal
	Bool    bool
	Bin     []byte
	Record  map[string]Value
	Version string
	EVR     string
}

var foldCaser = cases.Fold()

func Str(s string) Value { return Value{Kind: String, Str: s} }
func Bool(b bool) Value  { return Value{Kind: Boolean, Bool: b} }

func Int(n int64) Value {
	var v Value
	v.Kind = Number
	v.Num.SetInt64(n)
	return v
}

func Float(f float64) (Value, error) {
	var v Value
	v.Kind = Number
	_, _, err := v.Num.SetString(strconv.FormatFloat(f, 'g', -1, 64))
	return v, err
}

func VersionOf(s string) Value   { return Value{Kind: Version, Version: s} }
func EVROf(s string) Value       { return Value{Kind: EVRString, EVR: s} }
func RecordOf(m map[string]Value) Value { return Value{Kind: RecordData, Record: m} }
func BinaryOf(b []byte) Value    { return Value{Kind: Binary, Bin: b} }

// Equal reports ordinary (case-sensitive, exact) equality.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case String:
		return v.Str == o.Str
	case Number:
		return v.Num.Cmp(&o.Num) == 0
	case Boolean:
		return v.Bool == o.Bool
	case Binary:
		return string(v.Bin) == string(o.Bin)
	case Version:
		return v.Version == o.Version
	case EVRString:
		return v.EVR == o.EVR
	case RecordData:
		return recordEqual(v.Record, o.Record)
	default:
		return false
	}
}

func recordEqual(a, b map[string]Value) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !av.Equal(bv) {
			return false
		}
	}
	return true
}

// CaseInsensitiveEqual implements the ieq operator: Unicode-aware case
// folding via x/text/cases rather than byte-wise ASCII folding.
func (v Value) CaseInsensitiveEqual(o Value) bool {
	return foldCaser.String(v.Str) == foldCaser.String(o.Str)
}

// Compare implements ordering for numeric, version, and evr_string
// values; it is undefined (0) for any other kind, which callers must
// have already rejected via T1 compatibility checking.
func (v Value) Compare(o Value) int {
	switch v.Kind {
	case Number:
		return v.Num.Cmp(&o.Num)
	case Version:
		return compareVersions(v.Version, o.Version)
	case EVRString:
		return compareEVR(v.EVR, o.EVR)
	default:
		return 0
	}
}

// compareVersions orders two dotted version strings. Where both
// normalize to a well-formed "vMAJOR[.MINOR[.PATCH]]" string,
// semver.Compare is authoritative; otherwise this falls back to a
// numeric-segment comparison, since the policy language's version
// strings are not guaranteed to be full semver (pre-release/build
// metadata is not part of this type).
func compareVersions(a, b string) int {
	va, vb := normalizeSemver(a), normalizeSemver(b)
	if semver.IsValid(va) && semver.IsValid(vb) {
		return semver.Compare(va, vb)
	}
	return compareNumericSegments(a, b)
}

func normalizeSemver(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	segs := strings.Split(v, ".")
	for len(segs) < 3 {
		segs = append(segs, "0")
	}
	return "v" + strings.Join(segs[:3], ".")
}

func compareNumericSegments(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var an, bn int
		if i < len(as) {
			an, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bn, _ = strconv.Atoi(bs[i])
		}
		if an != bn {
			if an < bn {
				return -1
			}
			return 1
		}
	}
	return 0
}

// compareEVR orders two epoch:version-release strings component-wise
// (epoch numeric, version and release by numeric-segment comparison),
// the scheme RPM-style package managers use for evr_string.
func compareEVR(a, b string) int {
	ea, va, ra := splitEVR(a)
	eb, vb, rb := splitEVR(b)
	if ea != eb {
		if ea < eb {
			return -1
		}
		return 1
	}
	if c := compareNumericSegments(va, vb); c != 0 {
		return c
	}
	return compareNumericSegments(ra, rb)
}

func splitEVR(s string) (epoch int, version, release string) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		epoch, _ = strconv.Atoi(s[:i])
		s = s[i+1:]
	}
	if i := strings.IndexByte(s, '-'); i >= 0 {
		return epoch, s[:i], s[i+1:]
	}
	return epoch, s, ""
}

// Contains/StartsWith/EndsWith/PatternMatch implement the string
// membership and regex operators (spec.md §6.1); they operate only on
// String-kind values, per T1's compatibility gate.

func (v Value) Contains(o Value) bool   { return strings.Contains(v.Str, o.Str) }
func (v Value) StartsWith(o Value) bool { return strings.HasPrefix(v.Str, o.Str) }
func (v Value) EndsWith(o Value) bool   { return strings.HasSuffix(v.Str, o.Str) }

func (v Value) PatternMatch(pattern string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re.MatchString(v.Str), nil
}

// SubsetOf/SupersetOf implement the subset_of/superset_of operators
// over record_data (key-wise containment) and binary (bitwise
// containment) values.

func (v Value) SubsetOf(o Value) bool {
	switch v.Kind {
	case RecordData:
		for k, vv := range v.Record {
			ov, ok := o.Record[k]
			if !ok || !vv.Equal(ov) {
				return false
			}
		}
		return true
	case Binary:
		return bitwiseSubset(v.Bin, o.Bin)
	default:
		return false
	}
}

func (v Value) SupersetOf(o Value) bool { return o.SubsetOf(v) }

func bitwiseSubset(a, b []byte) bool {
	if len(a) > len(b) {
		return false
	}
	for i, ab := range a {
		if ab&b[i] != ab {
			return false
		}
	}
	return true
}

// Arithmetic applies a binary arithmetic operator over two Number
// values using a fixed decimal precision, returning a new resolved
// value. Division by zero is reported as an error rather than
// propagated as a sentinel (there is no NaN/Inf in the resolved-value
// model).
func Arithmetic(op string, a, b Value) (Value, error) {
	if a.Kind != Number || b.Kind != Number {
		return Value{}, fmt.Errorf("arithmetic requires numeric operands, got %s and %s", a.Kind, b.Kind)
	}
	ctx := apd.BaseContext.WithPrecision(50)
	var res Value
	res.Kind = Number
	var err error
	switch op {
	case "+":
		_, err = ctx.Add(&res.Num, &a.Num, &b.Num)
	case "-":
		_, err = ctx.Sub(&res.Num, &a.Num, &b.Num)
	case "*":
		_, err = ctx.Mul(&res.Num, &a.Num, &b.Num)
	case "/":
		if b.Num.IsZero() {
			return Value{}, fmt.Errorf("division by zero")
		}
		_, err = ctx.Quo(&res.Num, &a.Num, &b.Num)
	case "%":
		if b.Num.IsZero() {
			return Value{}, fmt.Errorf("modulo by zero")
		}
		_, err = ctx.Rem(&res.Num, &a.Num, &b.Num)
	default:
		return Value{}, fmt.Errorf("unknown arithmetic operator %q", op)
	}
	if err != nil {
		return Value{}, err
	}
	return res, nil
}

// String renders v for diagnostics and plan serialization.
func (v Value) String() string {
	switch v.Kind {
	case String:
		return v.Str
	case Number:
		return v.Num.String()
	case Boolean:
		return strconv.FormatBool(v.Bool)
	case Binary:
		return fmt.Sprintf("%x", v.Bin)
	case Version:
		return v.Version
	case EVRString:
		return v.EVR
	case RecordData:
		return fmt.Sprintf("record_data(%d fields)", len(v.Record))
	default:
		return "<unknown>"
	}
}
