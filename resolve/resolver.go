package resolve

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/smasher164/xid"
)

// VariableKind classifies how a name was resolved, mirroring spec.md
// §4.D's "four flavors" plus the bare/direct form and the NR/NF
// specials.
type VariableKind int

const (
	VarSpecial VariableKind = iota
	VarPositional
	VarBracketIndex
	VarAttribute
	VarDictionary
	VarDirect
)

// Variable is a resolved column reference: {name, side, index}, 0-based,
// per spec.md §4.D's Variable data model. Index is -1 for the NR/NF
// specials, which have no fixed column position.
type Variable struct {
	Name  string
	Side  string // "a", "b", or "" for NR
	Index int
	Kind  VariableKind
}

// Resolver resolves variable names against the a-table's schema and,
// when a JOIN is present, the b-table's schema.
type Resolver struct {
	A *TableSchema
	B *TableSchema
}

// NewResolver builds a resolver. bSchema may be nil when the query has no
// JOIN.
func NewResolver(aSchema, bSchema *TableSchema) *Resolver {
	return &Resolver{A: aSchema, B: bSchema}
}

var (
	rePositional = regexp.MustCompile(`^([ab])([1-9][0-9]*)$`)
	reBracketNum = regexp.MustCompile(`^([ab])\[\s*([0-9]+)\s*\]$`)
	reAttribute  = regexp.MustCompile(`^([ab])\.([A-Za-z_][A-Za-z0-9_]*)$`)
)

// Resolve resolves one identifier-or-bracket-expression name to a
// Variable. It recognizes, in order: the NR/NF/aNR/bNR specials;
// positional (a7), bracket-index (a[7]), attribute (a.colname), and
// dictionary (a["col name"]) forms naming a side explicitly; and finally
// the bare/"direct" form, which searches both table schemas and errors on
// ambiguity.
func (r *Resolver) Resolve(name string) (Variable, error) {
	if v, ok := specialVariable(name, r); ok {
		return v, nil
	}

	if m := rePositional.FindStringSubmatch(name); m != nil {
		side := m[1]
		if err := r.requireSide(side); err != nil {
			return Variable{}, err
		}
		n, _ := strconv.Atoi(m[2])
		return Variable{Name: name, Side: side, Index: n - 1, Kind: VarPositional}, nil
	}

	if m := reBracketNum.FindStringSubmatch(name); m != nil {
		side := m[1]
		if err := r.requireSide(side); err != nil {
			return Variable{}, err
		}
		n, _ := strconv.Atoi(m[2])
		return Variable{Name: name, Side: side, Index: n, Kind: VarBracketIndex}, nil
	}

	if v, matched, err := r.resolveBracketString(name); matched {
		return v, err
	}

	if m := reAttribute.FindStringSubmatch(name); m != nil {
		side, col := m[1], m[2]
		if err := r.requireSide(side); err != nil {
			return Variable{}, err
		}
		schema := r.schemaFor(side)
		if !schema.HasHeader() {
			return Variable{}, fmt.Errorf("rbql: attribute access %q requires a header row on table %q", name, side)
		}
		idx, ok := schema.IndexByName(col)
		if !ok {
			return Variable{}, fmt.Errorf("rbql: No %q field in header", col)
		}
		return Variable{Name: name, Side: side, Index: idx, Kind: VarAttribute}, nil
	}

	return r.resolveDirect(name)
}

func specialVariable(name string, r *Resolver) (Variable, bool) {
	switch name {
	case "NR":
		return Variable{Name: "NR", Index: -1, Kind: VarSpecial}, true
	case "NF":
		return Variable{Name: "NF", Side: "a", Index: -1, Kind: VarSpecial}, true
	case "aNR":
		return Variable{Name: "aNR", Side: "a", Index: -1, Kind: VarSpecial}, true
	case "bNR":
		return Variable{Name: "bNR", Side: "b", Index: -1, Kind: VarSpecial}, true
	case "BNF":
		if r.B != nil {
			return Variable{Name: "BNF", Side: "b", Index: -1, Kind: VarSpecial}, true
		}
	}
	return Variable{}, false
}

// resolveBracketString handles the dictionary form a["col name"] /
// a['col name']. It is written by hand rather than as a regexp: RE2 has
// no backreferences, so it cannot itself require the opening and closing
// quote characters to match.
func (r *Resolver) resolveBracketString(name string) (Variable, bool, error) {
	if len(name) < 5 {
		return Variable{}, false, nil
	}
	side := string(name[0])
	if side != "a" && side != "b" {
		return Variable{}, false, nil
	}
	if name[1] != '[' || name[len(name)-1] != ']' {
		return Variable{}, false, nil
	}
	inner := name[2 : len(name)-1]
	if len(inner) < 2 {
		return Variable{}, false, nil
	}
	quote := inner[0]
	if (quote != '\'' && quote != '"') || inner[len(inner)-1] != quote {
		return Variable{}, false, nil
	}
	col := inner[1 : len(inner)-1]

	if err := r.requireSide(side); err != nil {
		return Variable{}, true, err
	}
	schema := r.schemaFor(side)
	if !schema.HasHeader() {
		return Variable{}, true, fmt.Errorf("rbql: dictionary access %q requires a header row on table %q", name, side)
	}
	idx, ok := schema.IndexByName(col)
	if !ok {
		return Variable{}, true, fmt.Errorf("rbql: No %q field in header", col)
	}
	return Variable{Name: name, Side: side, Index: idx, Kind: VarDictionary}, true, nil
}

// resolveDirect handles a bare column name with no a/b prefix: it must
// name exactly one header column across the table(s) in scope.
func (r *Resolver) resolveDirect(name string) (Variable, error) {
	if !xid.Start(runeAt(name, 0)) {
		return Variable{}, fmt.Errorf("rbql: %q is not a valid variable name", name)
	}
	aIdx, aOK := r.A.IndexByName(name)
	var bOK bool
	var bIdx int
	if r.B != nil {
		bIdx, bOK = r.B.IndexByName(name)
	}
	switch {
	case aOK && bOK:
		return Variable{}, fmt.Errorf(`rbql: Ambiguous variable %q is present both in input and in join tables`, name)
	case aOK:
		return Variable{Name: name, Side: "a", Index: aIdx, Kind: VarDirect}, nil
	case bOK:
		return Variable{Name: name, Side: "b", Index: bIdx, Kind: VarDirect}, nil
	default:
		return Variable{}, fmt.Errorf("rbql: No %q field in header", name)
	}
}

func runeAt(s string, i int) rune {
	if i >= len(s) {
		return 0
	}
	return rune(s[i])
}

func (r *Resolver) requireSide(side string) error {
	if side == "b" && r.B == nil {
		return fmt.Errorf("rbql: variable references join table %q but query has no JOIN", side)
	}
	return nil
}

func (r *Resolver) schemaFor(side string) *TableSchema {
	if side == "b" {
		return r.B
	}
	return r.A
}
