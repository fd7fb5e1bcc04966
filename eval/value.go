// Package eval implements spec.md §4.F's host-language expression
// evaluator: a small recursive-descent compiler and tree-walking
// interpreter over a Value sum type, operating on the current row's a/b
// fields plus the query's NR/NF specials.
package eval

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates Value's sum type: spec.md's Design Notes call for
// { Null, Int, Float, Str, List }; Bool is added because comparisons and
// WHERE clauses need a truth value distinct from "the string true".
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindStr
	KindBool
	KindList
)

// Value is the dynamically-typed runtime value RBQL expressions produce
// and consume.
type Value struct {
	Kind Kind
	I    int64
	F    float64
	S    string
	B    bool
	L    []Value
}

func Null() Value           { return Value{Kind: KindNull} }
func Int(i int64) Value     { return Value{Kind: KindInt, I: i} }
func Float(f float64) Value { return Value{Kind: KindFloat, F: f} }
func Str(s string) Value    { return Value{Kind: KindStr, S: s} }
func Bool(b bool) Value     { return Value{Kind: KindBool, B: b} }
func List(l []Value) Value  { return Value{Kind: KindList, L: l} }

// FromField converts a raw CSV field into a Value, the way a/b variables
// are bound: numeric-looking fields become Int or Float so arithmetic and
// ordering work as expected, everything else stays a Str.
func FromField(field string) Value {
	if field == "" {
		return Str("")
	}
	if i, err := strconv.ParseInt(field, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(field, 64); err == nil {
		return Float(f)
	}
	return Str(field)
}

// IsNumeric reports whether v holds an Int or Float.
func (v Value) IsNumeric() bool {
	return v.Kind == KindInt || v.Kind == KindFloat
}

// AsFloat widens an Int or Float value to float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.I), true
	case KindFloat:
		return v.F, true
	default:
		return 0, false
	}
}

// Truthy implements RBQL's notion of truthiness for WHERE/AND/OR/NOT: an
// empty string, zero, false, null, and an empty list are falsy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		return v.B
	case KindInt:
		return v.I != 0
	case KindFloat:
		return v.F != 0
	case KindStr:
		return v.S != ""
	case KindList:
		return len(v.L) > 0
	default:
		return false
	}
}

// String renders v the way it is written to an output field.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindBool:
		if v.B {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(v.I, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case KindStr:
		return v.S
	case KindList:
		parts := make([]string, len(v.L))
		for i, item := range v.L {
			parts[i] = item.String()
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// Compare orders two values for ORDER BY and comparison operators.
// Numeric values compare numerically regardless of Int/Float mix;
// otherwise both sides are compared as their string representation. It
// returns -1, 0, or 1.
func Compare(a, b Value) (int, error) {
	if a.IsNumeric() && b.IsNumeric() {
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if a.Kind == KindList || b.Kind == KindList {
		return 0, fmt.Errorf("rbql: list values are not comparable")
	}
	as, bs := a.String(), b.String()
	switch {
	case as < bs:
		return -1, nil
	case as > bs:
		return 1, nil
	default:
		return 0, nil
	}
}
