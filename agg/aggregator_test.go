package agg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbql-go/rbql/eval"
)

func addAll(t *testing.T, a Aggregator, values ...eval.Value) {
	t.Helper()
	for _, v := range values {
		require.NoError(t, a.Add(v))
	}
}

func TestCountAggregate(t *testing.T) {
	a, err := New("count")
	require.NoError(t, err)
	addAll(t, a, eval.Str("x"), eval.Str("y"), eval.Null())
	v, err := a.Result()
	require.NoError(t, err)
	assert.Equal(t, eval.Int(3), v)
}

func TestCountZeroByDefault(t *testing.T) {
	a, _ := New("COUNT")
	v, err := a.Result()
	require.NoError(t, err)
	assert.Equal(t, eval.Int(0), v)
}

func TestSumAggregate(t *testing.T) {
	a, _ := New("SUM")
	addAll(t, a, eval.Int(1), eval.Int(2), eval.Int(3))
	v, err := a.Result()
	require.NoError(t, err)
	assert.Equal(t, eval.Int(6), v)
}

func TestSumZeroByDefault(t *testing.T) {
	a, _ := New("SUM")
	v, err := a.Result()
	require.NoError(t, err)
	assert.Equal(t, eval.Int(0), v)
}

func TestAvgAggregateIsFloat(t *testing.T) {
	a, _ := New("AVG")
	addAll(t, a, eval.Int(1), eval.Int(2))
	v, err := a.Result()
	require.NoError(t, err)
	assert.Equal(t, eval.Float(1.5), v)
}

func TestMinMax(t *testing.T) {
	minAgg, _ := New("MIN")
	addAll(t, minAgg, eval.Int(5), eval.Int(1), eval.Int(3))
	v, _ := minAgg.Result()
	assert.Equal(t, eval.Int(1), v)

	maxAgg, _ := New("MAX")
	addAll(t, maxAgg, eval.Int(5), eval.Int(1), eval.Int(3))
	v, _ = maxAgg.Result()
	assert.Equal(t, eval.Int(5), v)
}

func TestMinMaxMixedStringNumericErrors(t *testing.T) {
	a, _ := New("MAX")
	require.NoError(t, a.Add(eval.Int(1)))
	assert.Error(t, a.Add(eval.Str("x")))
}

func TestMedianOdd(t *testing.T) {
	a, _ := New("MEDIAN")
	addAll(t, a, eval.Int(3), eval.Int(1), eval.Int(2))
	v, err := a.Result()
	require.NoError(t, err)
	assert.Equal(t, eval.Float(2), v)
}

func TestMedianEven(t *testing.T) {
	a, _ := New("MEDIAN")
	addAll(t, a, eval.Int(1), eval.Int(2), eval.Int(3), eval.Int(4))
	v, err := a.Result()
	require.NoError(t, err)
	assert.Equal(t, eval.Float(2.5), v)
}

func TestVariancePopulation(t *testing.T) {
	a, _ := New("VARIANCE")
	addAll(t, a, eval.Int(2), eval.Int(4), eval.Int(4), eval.Int(4), eval.Int(5), eval.Int(5), eval.Int(7), eval.Int(9))
	v, err := a.Result()
	require.NoError(t, err)
	assert.InDelta(t, 4.0, v.F, 0.0001)
}

func TestArrayAgg(t *testing.T) {
	a, _ := New("ARRAY_AGG")
	addAll(t, a, eval.Str("x"), eval.Str("y"))
	v, err := a.Result()
	require.NoError(t, err)
	require.Equal(t, eval.KindList, v.Kind)
	assert.Len(t, v.L, 2)
}

func TestUnknownAggregateErrors(t *testing.T) {
	_, err := New("BOGUS")
	assert.Error(t, err)
}
