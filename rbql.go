// Package rbql is the engine's external entry point: Run compiles and
// executes one query against a streaming input table, optionally joining
// a second table resolved by table id through a caller-supplied
// registry. Grounded on the teacher's Deployable.Upload/EnsureUploaded
// shape — a context-first entry point that wraps a correlation id and a
// logger around a multi-stage operation (parse, compile, execute) and
// returns accumulated warnings alongside any terminal error.
package rbql

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rbql-go/rbql/csv"
	"github.com/rbql-go/rbql/plan"
	"github.com/rbql-go/rbql/rbqlparser"
)

func normalizeFuncName(name string) string {
	return strings.ToUpper(name)
}

// JoinRegistry resolves the table id named in a JOIN clause to a second
// input iterator. Returning an error here surfaces as an IOHandlingError
// ("unreadable table id").
type JoinRegistry func(tableID string) (csv.Iterator, error)

// UserInit lets a caller register extra functions an expression can call
// by name, the Go-native counterpart of RBQL's "user init code". register
// may be called any number of times before UserInit returns; names are
// matched case-insensitively against a query's function calls.
type UserInit func(register func(name string, fn plan.UserFunc))

// RunOptions configures one Run invocation. Logger defaults to
// logrus.StandardLogger() when nil. Header, when true, takes input's
// header record (Run fails with an IOHandlingError if input has none) so
// expressions can name a-table columns by header name (a.name,
// a["name"], or the bare name) as well as by position.
type RunOptions struct {
	Dialect      csv.Dialect
	Header       bool
	JoinRegistry JoinRegistry
	UserInit     UserInit
	Logger       *logrus.Logger
}

// Run parses queryText, compiles it against input's schema, executes it,
// and streams the result to output. The returned *csv.Warnings is always
// non-nil, even on error, so a caller can surface partial diagnostics
// (inconsistent field counts, quoting defects) regardless of outcome.
func Run(ctx context.Context, queryText string, input csv.Iterator, output csv.Writer, opts RunOptions) (*csv.Warnings, error) {
	qctx, err := plan.NewQueryContext(opts.Logger)
	if err != nil {
		return csv.NewWarnings(), &RuntimeError{Msg: fmt.Sprintf("allocating run id: %v", err)}
	}
	if opts.UserInit != nil {
		qctx.Funcs = make(map[string]plan.UserFunc)
		opts.UserInit(func(name string, fn plan.UserFunc) {
			qctx.Funcs[normalizeFuncName(name)] = fn
		})
	}
	qctx.Logger.WithField("query", queryText).Debug("running query")

	q, err := rbqlparser.Parse(queryText)
	if err != nil {
		return input.Warnings(), &ParseError{Msg: err.Error()}
	}

	var aHeader []string
	if opts.Header {
		hdr, ok := input.Header()
		if !ok {
			return input.Warnings(), &IOHandlingError{Msg: "Header requested but input iterator has none"}
		}
		aHeader = []string(hdr)
	}

	p, err := plan.Build(qctx, q, aHeader)
	if err != nil {
		return input.Warnings(), &ParseError{Msg: err.Error()}
	}

	var bIter csv.Iterator
	if q.Join != nil {
		if opts.JoinRegistry == nil {
			return input.Warnings(), &IOHandlingError{Msg: fmt.Sprintf("JOIN against table id %q but no JoinRegistry was configured", q.Join.Table)}
		}
		bIter, err = opts.JoinRegistry(q.Join.Table)
		if err != nil {
			return input.Warnings(), &IOHandlingError{Msg: fmt.Sprintf("resolving JOIN table id %q: %v", q.Join.Table, err)}
		}
	}

	if err := ctx.Err(); err != nil {
		return input.Warnings(), &RuntimeError{Msg: err.Error()}
	}

	if err := p.Execute(input, bIter, output); err != nil {
		if err == io.EOF {
			return input.Warnings(), nil
		}
		return mergedWarnings(input, bIter), &RuntimeError{Msg: err.Error()}
	}

	return mergedWarnings(input, bIter), nil
}

func mergedWarnings(input csv.Iterator, bIter csv.Iterator) *csv.Warnings {
	w := input.Warnings()
	if bIter == nil {
		return w
	}
	bw := bIter.Warnings()
	if bw == nil {
		return w
	}
	if w == nil {
		return bw
	}
	merged := csv.NewWarnings()
	merged.FieldCount = w.FieldCount
	if merged.FieldCount == nil {
		merged.FieldCount = bw.FieldCount
	}
	merged.QuotingDefectNRs = append(merged.QuotingDefectNRs, w.QuotingDefectNRs...)
	merged.QuotingDefectNRs = append(merged.QuotingDefectNRs, bw.QuotingDefectNRs...)
	merged.NullByteNRs = append(merged.NullByteNRs, w.NullByteNRs...)
	merged.NullByteNRs = append(merged.NullByteNRs, bw.NullByteNRs...)
	merged.EncodingFallback = w.EncodingFallback || bw.EncodingFallback
	return merged
}
