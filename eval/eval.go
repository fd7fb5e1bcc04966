package eval

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// AggregateNames lists the built-in function names the compiler treats as
// aggregates rather than ordinary scalar calls, per spec.md's Design
// Notes §9(b). Keys are upper-case; lookups are case-insensitive.
var AggregateNames = map[string]bool{
	"MIN": true, "MAX": true, "SUM": true, "AVG": true, "COUNT": true,
	"MEDIAN": true, "VARIANCE": true, "ARRAY_AGG": true,
}

func isAggregateName(name string) bool {
	return AggregateNames[strings.ToUpper(name)]
}

func unknownOp(op string) error {
	return fmt.Errorf("rbql: unsupported operation %q", op)
}

func indexOutOfRange(i, n int) error {
	return fmt.Errorf("rbql: list index %d out of range (length %d)", i, n)
}

func negate(v Value) (Value, error) {
	switch v.Kind {
	case KindInt:
		return Int(-v.I), nil
	case KindFloat:
		return Float(-v.F), nil
	default:
		return Value{}, fmt.Errorf("rbql: cannot negate a %s value", kindName(v.Kind))
	}
}

func kindName(k Kind) string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "string"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	default:
		return "?"
	}
}

// evalBinary implements arithmetic, comparison, and string concatenation
// for the non-short-circuit binary operators. "+" doubles as numeric
// addition and string concatenation depending on the operand types,
// matching RBQL's host-language-expression heritage.
func evalBinary(op string, l, r Value) (Value, error) {
	switch op {
	case "+":
		if l.Kind == KindStr || r.Kind == KindStr {
			return Str(l.String() + r.String()), nil
		}
		return arith(op, l, r)
	case "-", "*", "/", "//", "%":
		return arith(op, l, r)
	case "==", "!=", "<", "<=", ">", ">=":
		cmp, err := Compare(l, r)
		if err != nil {
			return Value{}, err
		}
		return Bool(compareResult(op, cmp)), nil
	default:
		return Value{}, unknownOp(op)
	}
}

func compareResult(op string, cmp int) bool {
	switch op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	default:
		return false
	}
}

func arith(op string, l, r Value) (Value, error) {
	if !l.IsNumeric() || !r.IsNumeric() {
		return Value{}, fmt.Errorf("rbql: %q requires numeric operands, got %s and %s", op, kindName(l.Kind), kindName(r.Kind))
	}
	if op == "/" {
		lf, _ := l.AsFloat()
		rf, _ := r.AsFloat()
		if rf == 0 {
			return Value{}, fmt.Errorf("rbql: division by zero")
		}
		return Float(lf / rf), nil
	}
	if l.Kind == KindInt && r.Kind == KindInt {
		switch op {
		case "-":
			return Int(l.I - r.I), nil
		case "*":
			return Int(l.I * r.I), nil
		case "//":
			if r.I == 0 {
				return Value{}, fmt.Errorf("rbql: division by zero")
			}
			return Int(l.I / r.I), nil
		case "%":
			if r.I == 0 {
				return Value{}, fmt.Errorf("rbql: division by zero")
			}
			return Int(l.I % r.I), nil
		case "+":
			return Int(l.I + r.I), nil
		}
	}
	lf, _ := l.AsFloat()
	rf, _ := r.AsFloat()
	switch op {
	case "+":
		return Float(lf + rf), nil
	case "-":
		return Float(lf - rf), nil
	case "*":
		return Float(lf * rf), nil
	case "//":
		if rf == 0 {
			return Value{}, fmt.Errorf("rbql: division by zero")
		}
		return Float(float64(int64(lf / rf))), nil
	case "%":
		if rf == 0 {
			return Value{}, fmt.Errorf("rbql: division by zero")
		}
		return Float(lf - rf*float64(int64(lf/rf))), nil
	}
	return Value{}, unknownOp(op)
}

// CallScalarBuiltin implements the non-aggregate built-in functions: the
// INT/FLOAT/STR conversions, LIKE (SQL-style pattern match with % and _ wildcards) and UNNEST (flattens a
// list value for use as a SELECT projection that fans a row out to many
// output rows — package plan detects UNNEST syntactically just like an
// aggregate and drives the fan-out itself, but evaluating the inner list
// expression still goes through here).
func CallScalarBuiltin(name string, args []Value) (Value, error) {
	switch strings.ToUpper(name) {
	case "INT":
		if len(args) != 1 {
			return Value{}, fmt.Errorf("rbql: int() expects exactly one argument")
		}
		switch args[0].Kind {
		case KindInt:
			return args[0], nil
		case KindFloat:
			return Int(int64(args[0].F)), nil
		case KindStr:
			i, err := strconv.ParseInt(strings.TrimSpace(args[0].S), 10, 64)
			if err != nil {
				return Value{}, fmt.Errorf("rbql: int(%q): %w", args[0].S, err)
			}
			return Int(i), nil
		default:
			return Value{}, fmt.Errorf("rbql: int() cannot convert %v", args[0])
		}
	case "FLOAT":
		if len(args) != 1 {
			return Value{}, fmt.Errorf("rbql: float() expects exactly one argument")
		}
		switch args[0].Kind {
		case KindFloat:
			return args[0], nil
		case KindInt:
			return Float(float64(args[0].I)), nil
		case KindStr:
			f, err := strconv.ParseFloat(strings.TrimSpace(args[0].S), 64)
			if err != nil {
				return Value{}, fmt.Errorf("rbql: float(%q): %w", args[0].S, err)
			}
			return Float(f), nil
		default:
			return Value{}, fmt.Errorf("rbql: float() cannot convert %v", args[0])
		}
	case "STR":
		if len(args) != 1 {
			return Value{}, fmt.Errorf("rbql: str() expects exactly one argument")
		}
		return Str(args[0].String()), nil
	case "LIKE":
		if len(args) != 2 || args[0].Kind != KindStr || args[1].Kind != KindStr {
			return Value{}, fmt.Errorf("rbql: LIKE expects (string, pattern)")
		}
		ok, err := likeMatch(args[0].S, args[1].S)
		if err != nil {
			return Value{}, err
		}
		return Bool(ok), nil
	case "UNNEST":
		if len(args) != 1 {
			return Value{}, fmt.Errorf("rbql: UNNEST expects exactly one argument")
		}
		return args[0], nil
	default:
		return Value{}, fmt.Errorf("rbql: unknown function %q", name)
	}
}

// likeMatch implements SQL LIKE semantics (% = any run of characters, _ =
// exactly one character) by translating the pattern into an anchored
// regular expression, rather than a filepath.Match glob: a glob's '*'
// refuses to cross a path separator, so a literal '/' in a field value
// would silently break patterns like 'a%b'.
func likeMatch(s, pattern string) (bool, error) {
	re, err := regexp.Compile(translateLikePattern(pattern))
	if err != nil {
		return false, fmt.Errorf("rbql: invalid LIKE pattern %q: %w", pattern, err)
	}
	return re.MatchString(s), nil
}

func translateLikePattern(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	start := 0
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '_':
			b.WriteString(regexp.QuoteMeta(pattern[start:i]))
			b.WriteString(".")
			start = i + 1
		case '%':
			b.WriteString(regexp.QuoteMeta(pattern[start:i]))
			b.WriteString(".*")
			start = i + 1
		}
	}
	b.WriteString(regexp.QuoteMeta(pattern[start:]))
	b.WriteString("$")
	return b.String()
}
