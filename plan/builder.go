package plan

import (
	"fmt"
	"io"
	"strings"

	"github.com/rbql-go/rbql/agg"
	"github.com/rbql-go/rbql/csv"
	"github.com/rbql-go/rbql/eval"
	"github.com/rbql-go/rbql/rbqlparser"
	"github.com/rbql-go/rbql/resolve"
)

// projItem is one compiled SELECT projection entry: either a dynamic
// row/side star (expanded against the actual row at evaluation time,
// since a headerless table's width is only known per-row), a recognized
// aggregate call, or a single compiled scalar expression.
type projItem struct {
	starSide    string // "", "*", "a", or "b"
	node        eval.Node
	isAggregate bool
	aggName     string
	// postproc is the registered user function name from ARRAY_AGG's
	// optional second argument, applied once to the finished list rather
	// than per row. Empty when absent.
	postproc string
}

// assignment is one UPDATE "a_field = expr" entry.
type assignment struct {
	targetIndex int
	expr        eval.Node
}

// Plan is a compiled, ready-to-run query: everything rbqlparser.Parse and
// resolve.Resolver produced has been turned into eval.Node trees, and
// Execute drives a writer chain built around the caller's output writer.
type Plan struct {
	ctx      *QueryContext
	resolver *resolve.Resolver

	isUpdate   bool
	projection []projItem
	exceptA    map[int]bool

	assignments []assignment

	where eval.Node

	join      *rbqlparser.JoinClause
	joinKind  rbqlparser.JoinKind
	joinAKeys []eval.Node
	joinBKeys []eval.Node

	groupBy           []eval.Node
	hasGroup          bool
	groupKeyHiddenIdx int

	orderBy   eval.Node
	hasOrder  bool
	orderDesc bool

	distinct      bool
	distinctCount bool
	top           int
	hasTop        bool
}

// Build compiles q against the a-table header (nil if headerless) and, if
// q.Join is set, a headerless b-table schema, producing a Plan ready for
// Execute.
func Build(ctx *QueryContext, q *rbqlparser.Query, aHeader []string) (*Plan, error) {
	aSchema := resolve.NewTableSchema(aHeader)
	var bSchema *resolve.TableSchema
	if q.Join != nil {
		bSchema = resolve.NewTableSchema(nil)
	}
	resolver := resolve.NewResolver(aSchema, bSchema)

	p := &Plan{
		ctx:           ctx,
		resolver:      resolver,
		isUpdate:      q.IsUpdate,
		distinct:      q.Distinct,
		distinctCount: q.DistinctCount,
		join:          q.Join,
	}

	if q.Join != nil {
		p.joinKind = q.Join.Kind
		for _, cond := range q.Join.Conditions {
			aNode, err := eval.Compile(cond.AExpr)
			if err != nil {
				return nil, fmt.Errorf("rbql: JOIN ON: %w", err)
			}
			bNode, err := eval.Compile(cond.BExpr)
			if err != nil {
				return nil, fmt.Errorf("rbql: JOIN ON: %w", err)
			}
			p.joinAKeys = append(p.joinAKeys, aNode)
			p.joinBKeys = append(p.joinBKeys, bNode)
		}
	}

	if len(q.Except) > 0 {
		p.exceptA = make(map[int]bool, len(q.Except))
		for _, name := range q.Except {
			v, err := resolver.Resolve(name)
			if err != nil {
				return nil, fmt.Errorf("rbql: EXCEPT: %w", err)
			}
			p.exceptA[v.Index] = true
		}
	}

	if q.IsSelect {
		if err := p.compileSelect(q); err != nil {
			return nil, err
		}
	} else {
		if err := p.compileUpdate(q); err != nil {
			return nil, err
		}
	}

	if q.HasWhere {
		node, err := eval.Compile(q.Where)
		if err != nil {
			return nil, fmt.Errorf("rbql: WHERE: %w", err)
		}
		p.where = node
	}

	if q.HasGroupBy {
		p.hasGroup = true
		for _, part := range strings.Split(q.GroupBy, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			node, err := eval.Compile(part)
			if err != nil {
				return nil, fmt.Errorf("rbql: GROUP BY: %w", err)
			}
			p.groupBy = append(p.groupBy, node)
		}
	}

	if p.needsAggregate() {
		for _, item := range p.projection {
			if item.starSide != "" {
				return nil, fmt.Errorf("rbql: GROUP BY is incompatible with a '*' projection")
			}
		}
		p.groupKeyHiddenIdx = len(p.projection)
	}

	if q.HasOrderBy {
		node, err := eval.Compile(q.OrderBy)
		if err != nil {
			return nil, fmt.Errorf("rbql: ORDER BY: %w", err)
		}
		p.orderBy = node
		p.hasOrder = true
		p.orderDesc = q.OrderDesc
		if p.needsAggregate() {
			return nil, fmt.Errorf("rbql: ORDER BY cannot be combined with an aggregate function")
		}
	}

	if q.Top > 0 {
		p.top = q.Top
		p.hasTop = true
	}
	if q.HasLimit && (!p.hasTop || q.Limit < p.top) {
		p.top = q.Limit
		p.hasTop = true
	}

	return p, nil
}

func (p *Plan) needsAggregate() bool {
	if p.hasGroup {
		return true
	}
	for _, item := range p.projection {
		if item.isAggregate {
			return true
		}
	}
	return false
}

func (p *Plan) compileSelect(q *rbqlparser.Query) error {
	items := rbqlparser.SplitSelectList(q.Select)
	if len(items) == 0 {
		return fmt.Errorf("rbql: SELECT has no projection items")
	}
	for _, item := range items {
		switch {
		case item.StarSide != "":
			p.projection = append(p.projection, projItem{starSide: item.StarSide})
		case item.IsCountStar:
			p.projection = append(p.projection, projItem{isAggregate: true, aggName: "COUNT", node: countStarArg{}})
		default:
			node, err := eval.Compile(item.Expr)
			if err != nil {
				return fmt.Errorf("rbql: SELECT item %q: %w", item.Expr, err)
			}
			if name, arg, isAgg := eval.AggregateCall(node); isAgg {
				if arg == nil {
					arg = countStarArg{}
				}
				postproc, _ := eval.AggregatePostproc(node)
				p.projection = append(p.projection, projItem{isAggregate: true, aggName: name, node: arg, postproc: postproc})
			} else {
				p.projection = append(p.projection, projItem{node: node})
			}
		}
	}
	return nil
}

// countStarArg is a constant node: COUNT's aggregator only counts rows
// and ignores the value it is handed, so any non-erroring node serves as
// COUNT(*)'s or a zero-arg COUNT()'s argument.
type countStarArg struct{}

func (countStarArg) Eval(eval.Env) (eval.Value, error) { return eval.Int(1), nil }

func (p *Plan) compileUpdate(q *rbqlparser.Query) error {
	for _, item := range rbqlparser.SplitSelectList(q.Update) {
		part := item.Expr
		eq := strings.Index(part, "=")
		if eq < 0 {
			return fmt.Errorf("rbql: UPDATE assignment %q is missing '='", part)
		}
		lhs := strings.TrimSpace(part[:eq])
		rhs := strings.TrimSpace(part[eq+1:])
		v, err := p.resolver.Resolve(lhs)
		if err != nil {
			return fmt.Errorf("rbql: UPDATE target %q: %w", lhs, err)
		}
		if v.Side != "a" {
			return fmt.Errorf("rbql: UPDATE can only assign to a-table fields, got %q", lhs)
		}
		node, err := eval.Compile(rhs)
		if err != nil {
			return fmt.Errorf("rbql: UPDATE assignment to %q: %w", lhs, err)
		}
		p.assignments = append(p.assignments, assignment{targetIndex: v.Index, expr: node})
	}
	return nil
}

// buildChain assembles the writer chain innermost (out) to outermost, per
// spec.md §4.E's fixed composition order: TableWriter -> Sorted? ->
// Aggregate? -> UniqCount?|Uniq? -> Top?. GROUP BY excludes ORDER BY and
// DISTINCT (rbqlparser.Parse already rejects that combination) and Build
// rejects ORDER BY alongside an aggregate call, so Sorted and Aggregate
// never wrap each other.
func (p *Plan) buildChain(out csv.Writer, funcs map[string]UserFunc) csv.Writer {
	chain := out
	if p.hasOrder {
		chain = NewSortedWriter(p.orderDesc, chain)
	}
	if p.needsAggregate() {
		chain = NewAggregateWriter(p.groupKeyFn(), p.aggSlots(), funcs, chain)
	}
	if p.distinctCount {
		chain = NewUniqCountWriter(chain)
	} else if p.distinct {
		chain = NewUniqWriter(chain)
	}
	if p.hasTop {
		chain = NewTopWriter(p.top, chain)
	}
	return chain
}

// groupKeyFn and aggSlots read the hidden trailing columns Plan.Execute
// appends after the visible projection: one joined group-key field, then
// one raw argument value per aggregate projection slot, in projection
// order. Non-aggregate slots are read straight back from their own
// visible output column, since that value is already the per-group
// constant (typically the GROUP BY key expression itself).
func (p *Plan) groupKeyFn() func(csv.Record) (string, error) {
	idx := p.groupKeyHiddenIdx
	return func(rec csv.Record) (string, error) {
		return rec[idx], nil
	}
}

func (p *Plan) aggSlots() []AggSlot {
	slots := make([]AggSlot, len(p.projection))
	hidden := p.groupKeyHiddenIdx + 1
	for i, item := range p.projection {
		i := i
		if item.isAggregate {
			h := hidden
			hidden++
			slots[i] = AggSlot{IsAggregate: true, AggName: item.aggName, Postproc: item.postproc, Eval: func(rec csv.Record) (eval.Value, error) {
				return eval.FromField(rec[h]), nil
			}}
		} else {
			slots[i] = AggSlot{Eval: func(rec csv.Record) (eval.Value, error) {
				return eval.FromField(rec[i]), nil
			}}
		}
	}
	return slots
}

// Execute runs the compiled plan: it reads aIter to completion (hashing
// bIter fully first when a JOIN is present), applies WHERE/JOIN/SELECT or
// UPDATE per row, and drives the rows through the writer chain built
// around out.
func (p *Plan) Execute(aIter csv.Iterator, bIter csv.Iterator, out csv.Writer) error {
	if p.ctx != nil && p.ctx.Logger != nil {
		p.ctx.Logger.WithField("has_join", p.join != nil).Debug("executing plan")
	}
	var funcs map[string]UserFunc
	if p.ctx != nil {
		funcs = p.ctx.Funcs
	}
	chain := p.buildChain(out, funcs)

	var joiner *agg.Joiner
	if p.join != nil {
		jmap, err := agg.BuildHashJoinMap(bIter, p.bJoinKeyFn())
		if err != nil {
			return err
		}
		joiner = &agg.Joiner{Kind: p.joinKind, Map: jmap}
	}

	nr := 0
	for {
		arec, err := aIter.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		nr++

		var matches []agg.MatchedRow
		if joiner != nil {
			keyEnv := &RowEnv{Resolver: p.resolver, ARecord: arec, NR: nr, Funcs: funcs}
			key, kerr := p.evalJoinKey(p.joinAKeys, keyEnv)
			if kerr != nil {
				return kerr
			}
			matches, err = joiner.Join(arec, nr, key)
			if err != nil {
				return err
			}
		} else {
			matches = []agg.MatchedRow{{ARecord: arec, ANR: nr}}
		}

		for _, m := range matches {
			env := &RowEnv{Resolver: p.resolver, ARecord: m.ARecord, BRecord: m.BRecord, NR: m.ANR, BNR: m.BNR, Funcs: funcs}
			if p.where != nil {
				wv, werr := p.where.Eval(env)
				if werr != nil {
					return werr
				}
				if !wv.Truthy() {
					continue
				}
			}

			rows, rerr := p.buildOutputRows(env)
			if rerr != nil {
				return rerr
			}
			for _, row := range rows {
				keepGoing, werr := chain.Write(row)
				if werr != nil {
					return werr
				}
				if !keepGoing {
					return chain.Finish()
				}
			}
		}
	}
	return chain.Finish()
}

func (p *Plan) evalJoinKey(nodes []eval.Node, env eval.Env) (string, error) {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		v, err := n.Eval(env)
		if err != nil {
			return "", err
		}
		parts[i] = v.String()
	}
	return agg.JoinKey(parts...), nil
}

func (p *Plan) bJoinKeyFn() func(rec csv.Record, nr int) (string, error) {
	var funcs map[string]UserFunc
	if p.ctx != nil {
		funcs = p.ctx.Funcs
	}
	return func(rec csv.Record, nr int) (string, error) {
		env := &RowEnv{Resolver: p.resolver, BRecord: rec, BNR: nr, Funcs: funcs}
		return p.evalJoinKey(p.joinBKeys, env)
	}
}

// buildOutputRows evaluates one matched (and WHERE-passed) row into the
// output record(s) that enter the writer chain, appending whichever
// hidden trailing columns the chain needs (an ORDER BY key, or a GROUP BY
// key plus per-aggregate raw argument values — never both, since the two
// clauses are mutually exclusive).
func (p *Plan) buildOutputRows(env *RowEnv) ([]csv.Record, error) {
	var rows []csv.Record
	var err error
	if p.isUpdate {
		row, uerr := p.evalUpdateRow(env)
		if uerr != nil {
			return nil, uerr
		}
		rows = []csv.Record{row}
	} else {
		rows, err = p.evalSelectRows(env)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case p.hasOrder:
		kv, kerr := p.orderBy.Eval(env)
		if kerr != nil {
			return nil, kerr
		}
		for i := range rows {
			rows[i] = append(rows[i], kv.String())
		}
	case p.needsAggregate():
		gparts := make([]string, len(p.groupBy))
		for i, n := range p.groupBy {
			v, gerr := n.Eval(env)
			if gerr != nil {
				return nil, gerr
			}
			gparts[i] = v.String()
		}
		groupKey := strings.Join(gparts, "\x1f")
		for i := range rows {
			extended := append(csv.Record{}, rows[i]...)
			extended = append(extended, groupKey)
			for _, item := range p.projection {
				if !item.isAggregate {
					continue
				}
				v, aerr := item.node.Eval(env)
				if aerr != nil {
					return nil, aerr
				}
				extended = append(extended, v.String())
			}
			rows[i] = extended
		}
	}
	return rows, nil
}

func (p *Plan) evalUpdateRow(env *RowEnv) (csv.Record, error) {
	row := make(csv.Record, len(env.ARecord))
	copy(row, env.ARecord)
	for _, a := range p.assignments {
		v, err := a.expr.Eval(env)
		if err != nil {
			return nil, err
		}
		if a.targetIndex < 0 || a.targetIndex >= len(row) {
			return nil, fmt.Errorf("rbql: No \"a%d\" field at record %d", a.targetIndex+1, env.NR)
		}
		row[a.targetIndex] = v.String()
	}
	return row, nil
}

func (p *Plan) evalSelectRows(env *RowEnv) ([]csv.Record, error) {
	var cols []string
	unnestIdx := -1
	var unnestVals []eval.Value

	for _, item := range p.projection {
		if item.starSide != "" {
			cols = append(cols, p.expandStar(item.starSide, env)...)
			continue
		}
		if item.isAggregate {
			cols = append(cols, "")
			continue
		}
		v, err := item.node.Eval(env)
		if err != nil {
			return nil, err
		}
		if _, isUnnest := eval.UnnestCall(item.node); isUnnest && v.Kind == eval.KindList {
			unnestIdx = len(cols)
			unnestVals = v.L
			cols = append(cols, "")
			continue
		}
		cols = append(cols, v.String())
	}

	if unnestIdx < 0 {
		return []csv.Record{csv.Record(cols)}, nil
	}
	rows := make([]csv.Record, len(unnestVals))
	for i, uv := range unnestVals {
		row := append(csv.Record(nil), cols...)
		row[unnestIdx] = uv.String()
		rows[i] = row
	}
	return rows, nil
}

func (p *Plan) expandStar(side string, env *RowEnv) []string {
	switch side {
	case "a", "*":
		out := make([]string, 0, len(env.ARecord))
		for i, f := range env.ARecord {
			if p.exceptA[i] {
				continue
			}
			out = append(out, f)
		}
		return out
	case "b":
		return append([]string(nil), env.BRecord...)
	}
	return nil
}
