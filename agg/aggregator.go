// Package agg implements spec.md §4.G: the aggregate accumulators
// (MIN/MAX/SUM/AVG/COUNT/MEDIAN/VARIANCE/ARRAY_AGG) a GROUP BY query
// compiles its aggregate calls into, and the hash-join machinery a JOIN
// clause uses to pair a-rows with b-rows.
//
// Numeric accumulation goes through github.com/shopspring/decimal rather
// than float64: SUM/AVG/VARIANCE/MEDIAN over a long column of float
// fields would otherwise accumulate rounding error row by row.
package agg

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rbql-go/rbql/eval"
)

// Aggregator accumulates one aggregate call's argument across every row
// in a GROUP BY group (or, with no GROUP BY, across the whole table).
type Aggregator interface {
	Add(v eval.Value) error
	Result() (eval.Value, error)
}

// New constructs the accumulator for the named built-in. Name lookup is
// case-insensitive.
func New(name string) (Aggregator, error) {
	switch strings.ToUpper(name) {
	case "COUNT":
		return &countAgg{}, nil
	case "SUM":
		return &sumAgg{}, nil
	case "AVG":
		return &avgAgg{}, nil
	case "MIN":
		return &extremeAgg{wantMax: false}, nil
	case "MAX":
		return &extremeAgg{wantMax: true}, nil
	case "MEDIAN":
		return &medianAgg{}, nil
	case "VARIANCE":
		return &varianceAgg{}, nil
	case "ARRAY_AGG":
		return &arrayAgg{}, nil
	default:
		return nil, fmt.Errorf("rbql: unknown aggregate function %q", name)
	}
}

func toDecimal(v eval.Value) (decimal.Decimal, error) {
	switch v.Kind {
	case eval.KindInt:
		return decimal.NewFromInt(v.I), nil
	case eval.KindFloat:
		return decimal.NewFromFloat(v.F), nil
	default:
		return decimal.Decimal{}, fmt.Errorf(`rbql: Unable to convert %q to number`, v.String())
	}
}

// countAgg counts rows regardless of value, including nulls/empties; its
// zero value (per spec.md's tie-break table) is 0.
type countAgg struct{ n int64 }

func (a *countAgg) Add(eval.Value) error    { a.n++; return nil }
func (a *countAgg) Result() (eval.Value, error) { return eval.Int(a.n), nil }

// sumAgg sums numeric values, defaulting to 0 when nothing was added.
type sumAgg struct {
	total   decimal.Decimal
	isFloat bool
}

func (a *sumAgg) Add(v eval.Value) error {
	d, err := toDecimal(v)
	if err != nil {
		return err
	}
	if v.Kind == eval.KindFloat {
		a.isFloat = true
	}
	a.total = a.total.Add(d)
	return nil
}

func (a *sumAgg) Result() (eval.Value, error) {
	if a.isFloat {
		f, _ := a.total.Float64()
		return eval.Float(f), nil
	}
	return eval.Int(a.total.IntPart()), nil
}

// avgAgg computes the arithmetic mean, always as a float, per spec.md's
// tie-break table ("AVG float").
type avgAgg struct {
	total decimal.Decimal
	count int64
}

func (a *avgAgg) Add(v eval.Value) error {
	d, err := toDecimal(v)
	if err != nil {
		return err
	}
	a.total = a.total.Add(d)
	a.count++
	return nil
}

func (a *avgAgg) Result() (eval.Value, error) {
	if a.count == 0 {
		return eval.Float(0), nil
	}
	mean := a.total.Div(decimal.NewFromInt(a.count))
	f, _ := mean.Float64()
	return eval.Float(f), nil
}

// extremeAgg implements MIN/MAX. It switches domain on the first value
// added (numeric or string) and errors if a later value crosses domains,
// per spec.md §4.G's "integer/float/string domain switching" note: MIN/
// MAX compare within one domain, numeric values compare across Int/Float
// freely, but a string can never be compared against a number.
type extremeAgg struct {
	wantMax bool
	set     bool
	isStr   bool
	cur     eval.Value
}

func (a *extremeAgg) Add(v eval.Value) error {
	if !a.set {
		a.cur = v
		a.isStr = v.Kind == eval.KindStr
		a.set = true
		return nil
	}
	if a.isStr != (v.Kind == eval.KindStr) {
		return fmt.Errorf("rbql: MIN/MAX cannot mix string and numeric values")
	}
	cmp, err := eval.Compare(v, a.cur)
	if err != nil {
		return err
	}
	if (a.wantMax && cmp > 0) || (!a.wantMax && cmp < 0) {
		a.cur = v
	}
	return nil
}

func (a *extremeAgg) Result() (eval.Value, error) {
	if !a.set {
		return eval.Null(), nil
	}
	return a.cur, nil
}

// medianAgg collects every value and sorts at Result time: the middle
// element for an odd count, the mean of the two middle elements for an
// even count, per spec.md's tie-break table.
type medianAgg struct {
	values []decimal.Decimal
}

func (a *medianAgg) Add(v eval.Value) error {
	d, err := toDecimal(v)
	if err != nil {
		return err
	}
	a.values = append(a.values, d)
	return nil
}

func (a *medianAgg) Result() (eval.Value, error) {
	n := len(a.values)
	if n == 0 {
		return eval.Float(0), nil
	}
	sorted := append([]decimal.Decimal(nil), a.values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	var median decimal.Decimal
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = sorted[n/2-1].Add(sorted[n/2]).Div(decimal.NewFromInt(2))
	}
	f, _ := median.Float64()
	return eval.Float(f), nil
}

// varianceAgg computes the population variance: mean of squared
// deviations from the mean.
type varianceAgg struct {
	values []decimal.Decimal
}

func (a *varianceAgg) Add(v eval.Value) error {
	d, err := toDecimal(v)
	if err != nil {
		return err
	}
	a.values = append(a.values, d)
	return nil
}

func (a *varianceAgg) Result() (eval.Value, error) {
	n := len(a.values)
	if n == 0 {
		return eval.Float(0), nil
	}
	total := decimal.Zero
	for _, v := range a.values {
		total = total.Add(v)
	}
	mean := total.Div(decimal.NewFromInt(int64(n)))
	sumSq := decimal.Zero
	for _, v := range a.values {
		diff := v.Sub(mean)
		sumSq = sumSq.Add(diff.Mul(diff))
	}
	variance := sumSq.Div(decimal.NewFromInt(int64(n)))
	f, _ := variance.Float64()
	return eval.Float(f), nil
}

// arrayAgg collects every value added, in row order, into a list Value.
type arrayAgg struct {
	values []eval.Value
}

func (a *arrayAgg) Add(v eval.Value) error {
	a.values = append(a.values, v)
	return nil
}

func (a *arrayAgg) Result() (eval.Value, error) {
	return eval.List(a.values), nil
}
