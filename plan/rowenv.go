package plan

import (
	"fmt"
	"strings"

	"github.com/rbql-go/rbql/csv"
	"github.com/rbql-go/rbql/eval"
	"github.com/rbql-go/rbql/resolve"
)

// RowEnv implements eval.Env for one row of execution: it resolves a
// variable name via a resolve.Resolver and reads the value out of the
// current a/b records, per spec.md §4.F step 1 ("inject variable
// bindings derived in §4.D into a fresh scope; set NR, NF, aNR").
type RowEnv struct {
	Resolver *resolve.Resolver
	ARecord  csv.Record
	BRecord  csv.Record // nil when there is no JOIN, or no match under LEFT JOIN
	NR       int        // 1-based a-table record number
	BNR      int        // 1-based matched b-table record number, 0 if none
	Funcs    map[string]UserFunc
}

func (e *RowEnv) Variable(name string) (eval.Value, error) {
	v, err := e.Resolver.Resolve(name)
	if err != nil {
		return eval.Value{}, err
	}
	if v.Kind == resolve.VarSpecial {
		switch v.Name {
		case "NR", "aNR":
			return eval.Int(int64(e.NR)), nil
		case "NF":
			return eval.Int(int64(len(e.ARecord))), nil
		case "bNR":
			return eval.Int(int64(e.BNR)), nil
		case "BNF":
			return eval.Int(int64(len(e.BRecord))), nil
		}
	}

	rec := e.ARecord
	if v.Side == "b" {
		rec = e.BRecord
	}
	if rec == nil {
		// Unmatched LEFT JOIN row: every b-side field reads as empty,
		// per spec.md §4.D ("pad b-side fields with empty strings").
		return eval.Str(""), nil
	}
	if v.Index < 0 || v.Index >= len(rec) {
		return eval.Value{}, fmt.Errorf("rbql: No %q field at record %d", v.Name, e.NR)
	}
	return eval.FromField(rec[v.Index]), nil
}

func (e *RowEnv) CallBuiltin(name string, args []eval.Value) (eval.Value, error) {
	if fn, ok := e.Funcs[strings.ToUpper(name)]; ok {
		return fn(args)
	}
	return eval.CallScalarBuiltin(name, args)
}
