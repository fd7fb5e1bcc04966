package eval

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv is a minimal Env for exercising Compile/Eval directly, binding
// variable names straight to Values rather than through a resolved row.
type testEnv struct {
	vars map[string]Value
}

func (e testEnv) Variable(name string) (Value, error) {
	v, ok := e.vars[name]
	if !ok {
		return Value{}, fmt.Errorf("no such variable %q", name)
	}
	return v, nil
}

func (e testEnv) CallBuiltin(name string, args []Value) (Value, error) {
	return CallScalarBuiltin(name, args)
}

func eval(t *testing.T, src string, env testEnv) Value {
	t.Helper()
	node, err := Compile(src)
	require.NoError(t, err)
	v, err := node.Eval(env)
	require.NoError(t, err)
	return v
}

func TestArithmetic(t *testing.T) {
	v := eval(t, "2 + 3 * 4", testEnv{})
	assert.Equal(t, Int(14), v)
}

func TestFloatDivision(t *testing.T) {
	v := eval(t, "7 / 2", testEnv{})
	assert.Equal(t, Float(3.5), v)
}

func TestIntegerFloorDivision(t *testing.T) {
	v := eval(t, "7 // 2", testEnv{})
	assert.Equal(t, Int(3), v)
}

func TestStringConcat(t *testing.T) {
	v := eval(t, `"foo" + "bar"`, testEnv{})
	assert.Equal(t, Str("foobar"), v)
}

func TestComparisonAndLogical(t *testing.T) {
	v := eval(t, "1 < 2 and 3 == 3", testEnv{})
	assert.Equal(t, Bool(true), v)
}

func TestShortCircuitOr(t *testing.T) {
	v := eval(t, "1 == 1 or undefined_var_should_not_be_touched", testEnv{})
	assert.Equal(t, Bool(true), v)
}

func TestNotOperator(t *testing.T) {
	v := eval(t, "not (1 == 2)", testEnv{})
	assert.Equal(t, Bool(true), v)
}

func TestVariableReference(t *testing.T) {
	v := eval(t, "a1 + 1", testEnv{vars: map[string]Value{"a1": Int(41)}})
	assert.Equal(t, Int(42), v)
}

func TestCompoundVariableAttribute(t *testing.T) {
	v := eval(t, "a.amount * 2", testEnv{vars: map[string]Value{"a.amount": Int(10)}})
	assert.Equal(t, Int(20), v)
}

func TestCompoundVariableDictionary(t *testing.T) {
	v := eval(t, `a["customer id"]`, testEnv{vars: map[string]Value{`a["customer id"]`: Str("c-1")}})
	assert.Equal(t, Str("c-1"), v)
}

func TestListLiteralAndIndex(t *testing.T) {
	v := eval(t, "[1, 2, 3][1]", testEnv{})
	assert.Equal(t, Int(2), v)
}

func TestLikeBuiltin(t *testing.T) {
	v := eval(t, `LIKE("hello world", "hello%")`, testEnv{})
	assert.Equal(t, Bool(true), v)
	v = eval(t, `LIKE("hello world", "bye%")`, testEnv{})
	assert.Equal(t, Bool(false), v)
}

// LIKE must match '%' across a literal '/' in the value, since it is SQL
// wildcard matching, not filesystem glob matching.
func TestLikeBuiltinMatchesAcrossSlash(t *testing.T) {
	v := eval(t, `LIKE("a/b", "a%b")`, testEnv{})
	assert.Equal(t, Bool(true), v)
}

func TestCastBuiltins(t *testing.T) {
	assert.Equal(t, Int(42), eval(t, `int("42")`, testEnv{}))
	assert.Equal(t, Int(3), eval(t, `int(3.9)`, testEnv{}))
	assert.Equal(t, Float(3.5), eval(t, `float("3.5")`, testEnv{}))
	assert.Equal(t, Str("7"), eval(t, `str(7)`, testEnv{}))
}

func TestDivisionByZeroErrors(t *testing.T) {
	node, err := Compile("1 / 0")
	require.NoError(t, err)
	_, err = node.Eval(testEnv{})
	assert.Error(t, err)
}

func TestAggregateCallRecognizedSyntactically(t *testing.T) {
	node, err := Compile("SUM(a1)")
	require.NoError(t, err)
	call, ok := node.(callNode)
	require.True(t, ok)
	assert.True(t, call.isAggregate)
}

func TestFromFieldTypeInference(t *testing.T) {
	assert.Equal(t, Int(42), FromField("42"))
	assert.Equal(t, Float(3.5), FromField("3.5"))
	assert.Equal(t, Str("hello"), FromField("hello"))
	assert.Equal(t, Str(""), FromField(""))
}

func TestCompareNumericMix(t *testing.T) {
	cmp, err := Compare(Int(3), Float(3.0))
	require.NoError(t, err)
	assert.Equal(t, 0, cmp)
}
