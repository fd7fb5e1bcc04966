package plan

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rbql-go/rbql/agg"
	"github.com/rbql-go/rbql/csv"
	"github.com/rbql-go/rbql/eval"
)

// TopWriter passes through at most n rows before signaling the upstream
// loop to stop, per spec.md's Writer contract ("false ⇒ downstream is
// saturated / TOP reached, stop pulling"). It is the outermost wrapper in
// the chain.
type TopWriter struct {
	n       int
	emitted int
	inner   csv.Writer
}

func NewTopWriter(n int, inner csv.Writer) *TopWriter {
	return &TopWriter{n: n, inner: inner}
}

func (w *TopWriter) Write(rec csv.Record) (bool, error) {
	if w.emitted >= w.n {
		return false, nil
	}
	if _, err := w.inner.Write(rec); err != nil {
		return false, err
	}
	w.emitted++
	return w.emitted < w.n, nil
}

func (w *TopWriter) Finish() error          { return w.inner.Finish() }
func (w *TopWriter) Warnings() *csv.Warnings { return w.inner.Warnings() }

func rowKey(rec csv.Record) string {
	return strings.Join([]string(rec), "\x1f")
}

// UniqWriter drops a row whose full field tuple has already been seen,
// implementing SELECT DISTINCT.
type UniqWriter struct {
	seen  map[string]bool
	inner csv.Writer
}

func NewUniqWriter(inner csv.Writer) *UniqWriter {
	return &UniqWriter{seen: make(map[string]bool), inner: inner}
}

func (w *UniqWriter) Write(rec csv.Record) (bool, error) {
	key := rowKey(rec)
	if w.seen[key] {
		return true, nil
	}
	w.seen[key] = true
	return w.inner.Write(rec)
}

func (w *UniqWriter) Finish() error          { return w.inner.Finish() }
func (w *UniqWriter) Warnings() *csv.Warnings { return w.inner.Warnings() }

// UniqCountWriter implements SELECT DISTINCT COUNT: it buffers the first
// occurrence of each distinct field tuple along with how many times it
// recurs, then at Finish emits each tuple once with its count prepended.
type UniqCountWriter struct {
	counts map[string]int
	rows   map[string]csv.Record
	order  []string
	inner  csv.Writer
}

func NewUniqCountWriter(inner csv.Writer) *UniqCountWriter {
	return &UniqCountWriter{counts: make(map[string]int), rows: make(map[string]csv.Record), inner: inner}
}

func (w *UniqCountWriter) Write(rec csv.Record) (bool, error) {
	key := rowKey(rec)
	if _, ok := w.counts[key]; !ok {
		w.order = append(w.order, key)
		w.rows[key] = rec
	}
	w.counts[key]++
	return true, nil
}

func (w *UniqCountWriter) Finish() error {
	for _, key := range w.order {
		out := make(csv.Record, 0, len(w.rows[key])+1)
		out = append(out, strconv.Itoa(w.counts[key]))
		out = append(out, w.rows[key]...)
		keepGoing, err := w.inner.Write(out)
		if err != nil {
			return err
		}
		if !keepGoing {
			break
		}
	}
	return w.inner.Finish()
}

func (w *UniqCountWriter) Warnings() *csv.Warnings { return w.inner.Warnings() }

// SortedWriter buffers every row and emits them in ORDER BY key order at
// Finish, stable so rows with equal keys retain their input order. Each
// incoming record carries its ORDER BY key pre-evaluated as its last
// field (package plan appends it before the row enters the chain, since
// the key expression may reference fields that never reach the SELECT
// projection); Write strips it back off before forwarding downstream.
type SortedWriter struct {
	rows  []csv.Record
	desc  bool
	inner csv.Writer
}

func NewSortedWriter(desc bool, inner csv.Writer) *SortedWriter {
	return &SortedWriter{desc: desc, inner: inner}
}

func (w *SortedWriter) Write(rec csv.Record) (bool, error) {
	w.rows = append(w.rows, rec)
	return true, nil
}

func (w *SortedWriter) Finish() error {
	idx := make([]int, len(w.rows))
	for i := range idx {
		idx[i] = i
	}
	var sortErr error
	sort.SliceStable(idx, func(i, j int) bool {
		ri, rj := w.rows[idx[i]], w.rows[idx[j]]
		ki := eval.FromField(ri[len(ri)-1])
		kj := eval.FromField(rj[len(rj)-1])
		cmp, err := eval.Compare(ki, kj)
		if err != nil {
			sortErr = err
			return false
		}
		if w.desc {
			return cmp > 0
		}
		return cmp < 0
	})
	if sortErr != nil {
		return sortErr
	}
	for _, i := range idx {
		rec := w.rows[i]
		keepGoing, err := w.inner.Write(rec[:len(rec)-1])
		if err != nil {
			return err
		}
		if !keepGoing {
			break
		}
	}
	return w.inner.Finish()
}

func (w *SortedWriter) Warnings() *csv.Warnings { return w.inner.Warnings() }

// AggSlot is one output column of a GROUP BY query: either an ordinary
// expression (expected to be constant within a group — typically the
// GROUP BY key itself) or an aggregate call, whose argument expression is
// fed to a fresh agg.Aggregator per group.
type AggSlot struct {
	IsAggregate bool
	AggName     string
	// Postproc is the user function name from ARRAY_AGG(val, postproc),
	// run once against the finished aggregate result. Empty when absent.
	Postproc string
	Eval     func(rec csv.Record) (eval.Value, error)
}

type aggGroupState struct {
	aggregators []agg.Aggregator
	constants   []eval.Value
	captured    bool
}

// AggregateWriter implements GROUP BY (including the implicit single
// group of an aggregate SELECT with no GROUP BY clause): it buffers one
// aggGroupState per distinct key, then at Finish emits one row per group,
// sorted by key, per spec.md §4.E's "GROUP BY ... sorted by key before
// emission" ordering guarantee.
type AggregateWriter struct {
	keyFn  func(csv.Record) (string, error)
	slots  []AggSlot
	funcs  map[string]UserFunc
	inner  csv.Writer
	order  []string
	groups map[string]*aggGroupState
}

func NewAggregateWriter(keyFn func(csv.Record) (string, error), slots []AggSlot, funcs map[string]UserFunc, inner csv.Writer) *AggregateWriter {
	return &AggregateWriter{keyFn: keyFn, slots: slots, funcs: funcs, inner: inner, groups: make(map[string]*aggGroupState)}
}

func (w *AggregateWriter) Write(rec csv.Record) (bool, error) {
	key, err := w.keyFn(rec)
	if err != nil {
		return false, err
	}
	state, ok := w.groups[key]
	if !ok {
		state = &aggGroupState{
			aggregators: make([]agg.Aggregator, len(w.slots)),
			constants:   make([]eval.Value, len(w.slots)),
		}
		for i, slot := range w.slots {
			if slot.IsAggregate {
				a, err := agg.New(slot.AggName)
				if err != nil {
					return false, err
				}
				state.aggregators[i] = a
			}
		}
		w.groups[key] = state
		w.order = append(w.order, key)
	}
	for i, slot := range w.slots {
		if slot.IsAggregate {
			v, err := slot.Eval(rec)
			if err != nil {
				return false, err
			}
			if err := state.aggregators[i].Add(v); err != nil {
				return false, err
			}
		} else if !state.captured {
			v, err := slot.Eval(rec)
			if err != nil {
				return false, err
			}
			state.constants[i] = v
		}
	}
	state.captured = true
	return true, nil
}

func (w *AggregateWriter) Finish() error {
	sortedKeys := append([]string(nil), w.order...)
	sort.Strings(sortedKeys)
	for _, key := range sortedKeys {
		state := w.groups[key]
		row := make(csv.Record, len(w.slots))
		for i, slot := range w.slots {
			if slot.IsAggregate {
				v, err := state.aggregators[i].Result()
				if err != nil {
					return err
				}
				if slot.Postproc != "" {
					fn, ok := w.funcs[slot.Postproc]
					if !ok {
						fn, ok = w.funcs[strings.ToUpper(slot.Postproc)]
					}
					if !ok {
						return fmt.Errorf("rbql: unknown ARRAY_AGG postproc function %q", slot.Postproc)
					}
					v, err = fn([]eval.Value{v})
					if err != nil {
						return err
					}
				}
				row[i] = v.String()
			} else {
				row[i] = state.constants[i].String()
			}
		}
		keepGoing, err := w.inner.Write(row)
		if err != nil {
			return err
		}
		if !keepGoing {
			break
		}
	}
	return w.inner.Finish()
}

func (w *AggregateWriter) Warnings() *csv.Warnings { return w.inner.Warnings() }
