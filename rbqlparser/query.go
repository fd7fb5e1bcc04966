package rbqlparser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// JoinKind identifies a query's join semantics; the JOIN and INNER JOIN
// spellings both map to JoinInner.
type JoinKind int

const (
	// JoinInner is the default JOIN/INNER JOIN: unmatched a-rows are
	// dropped.
	JoinInner JoinKind = iota
	// JoinLeft keeps every a-row, padding b-side fields with empty
	// strings when no match is found.
	JoinLeft
	// JoinStrictLeft requires every a-row to match exactly one b-row,
	// erroring on zero or several matches.
	JoinStrictLeft
)

func (k JoinKind) String() string {
	switch k {
	case JoinLeft:
		return "LEFT JOIN"
	case JoinStrictLeft:
		return "STRICT LEFT JOIN"
	default:
		return "JOIN"
	}
}

// JoinCondition is one equality in a JOIN's ON clause: AExpr == BExpr
// (or the reverse source order — Parse normalizes so AExpr always refers
// to the a-table and BExpr to the b-table).
type JoinCondition struct {
	AExpr string
	BExpr string
}

// JoinClause describes a query's single optional JOIN.
type JoinClause struct {
	Kind       JoinKind
	Table      string
	Conditions []JoinCondition
}

// Query is the parsed form of an RBQL statement: a keyed set of clause
// bodies (string literals restored, modifiers stripped) ready for
// resolution and evaluation by packages resolve/eval/plan.
type Query struct {
	IsSelect bool
	IsUpdate bool

	// Select is the projection expression list (SELECT's body, TOP/
	// DISTINCT modifiers stripped). Only set when IsSelect.
	Select string
	Top    int // 0 means unset
	Distinct      bool
	DistinctCount bool

	// Update is the assignment expression list (UPDATE's body, the
	// optional SET keyword stripped). Only set when IsUpdate.
	Update string

	Join *JoinClause

	Where   string
	HasWhere bool

	GroupBy    string
	HasGroupBy bool

	OrderBy    string
	HasOrderBy bool
	OrderDesc  bool

	Limit    int
	HasLimit bool

	// Except lists the raw a-field expressions named by EXCEPT, in
	// source order. Resolving them to column indices is package
	// resolve/plan's job, since that requires the header.
	Except []string
}

var (
	reTopN       = regexp.MustCompile(`(?i)^\s*top\s+([0-9]+)\s*`)
	reDistinct   = regexp.MustCompile(`(?i)^\s*distinct\s+count\s*`)
	reDistinctNC = regexp.MustCompile(`(?i)^\s*distinct\s*`)
	reSet        = regexp.MustCompile(`(?i)^\s*(?:a\s+)?set\s*`)
	reAscDesc    = regexp.MustCompile(`(?i)\s+(asc|desc)\s*$`)
	reFromSugar  = regexp.MustCompile(`(?i)\bfrom\s+[A-Za-z_][A-Za-z0-9_.]*\s*`)
)

// Parse compiles RBQL query text into a Query. It implements spec.md
// §4.C's pipeline: strip comments and join into one line, protect string
// literals, strip the FROM/UPDATE-table sugar, locate clauses by
// keyword, validate clause combinations, strip per-clause modifiers, and
// parse the JOIN ON clause.
func Parse(queryText string) (*Query, error) {
	joined := stripCommentsAndJoin(queryText)
	protected, literals := protectStringLiterals(joined)
	protected = stripFromSugar(protected)

	positions, err := locateClauses(protected)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("rbqlparser: no recognizable clauses in query")
	}
	bodies := clauseBodies(protected, positions)

	q := &Query{}

	selectBody, hasSelect := bodies[clauseSelect]
	updateBody, hasUpdate := bodies[clauseUpdate]
	if hasSelect == hasUpdate {
		return nil, fmt.Errorf("rbqlparser: query must have exactly one of SELECT or UPDATE")
	}
	for _, p := range positions {
		if (p.kind == clauseSelect || p.kind == clauseUpdate) && p.keywordStart != 0 {
			return nil, fmt.Errorf("rbqlparser: SELECT/UPDATE keyword must be at the beginning of the query")
		}
	}

	var joinPos *clausePosition
	for i := range positions {
		if positions[i].kind == clauseJoin {
			joinPos = &positions[i]
		}
	}

	if hasSelect {
		q.IsSelect = true
		if err := parseSelect(q, selectBody, literals); err != nil {
			return nil, err
		}
	} else {
		q.IsUpdate = true
		body := reSet.ReplaceAllString(updateBody, "")
		q.Update = strings.TrimSpace(reinjectStringLiterals(body, literals))
	}

	if joinPos != nil {
		end := len(protected)
		for _, p := range positions {
			if p.keywordStart > joinPos.keywordStart && p.keywordStart < end {
				end = p.keywordStart
			}
		}
		joinClause, err := parseJoin(*joinPos, protected[joinPos.keywordEnd:end], literals)
		if err != nil {
			return nil, err
		}
		q.Join = joinClause
	}

	if body, ok := bodies[clauseWhere]; ok {
		q.HasWhere = true
		q.Where = strings.TrimSpace(reinjectStringLiterals(body, literals))
		if err := checkNoLooseEquals(q.Where); err != nil {
			return nil, err
		}
	}

	if body, ok := bodies[clauseGroupBy]; ok {
		q.HasGroupBy = true
		q.GroupBy = strings.TrimSpace(reinjectStringLiterals(body, literals))
	}

	if body, ok := bodies[clauseOrderBy]; ok {
		q.HasOrderBy = true
		desc := false
		if m := reAscDesc.FindStringSubmatch(body); m != nil {
			desc = strings.EqualFold(m[1], "desc")
			body = reAscDesc.ReplaceAllString(body, "")
		}
		q.OrderDesc = desc
		q.OrderBy = strings.TrimSpace(reinjectStringLiterals(body, literals))
	}

	if body, ok := bodies[clauseLimit]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(body))
		if err != nil {
			return nil, fmt.Errorf("rbqlparser: LIMIT requires an integer: %w", err)
		}
		q.HasLimit = true
		q.Limit = n
	}

	if body, ok := bodies[clauseExcept]; ok {
		raw := strings.TrimSpace(reinjectStringLiterals(body, literals))
		for _, f := range strings.Split(raw, ",") {
			f = strings.TrimSpace(f)
			if f != "" {
				q.Except = append(q.Except, f)
			}
		}
	}

	if q.HasOrderBy && q.IsUpdate {
		return nil, fmt.Errorf("rbqlparser: ORDER BY cannot be combined with UPDATE")
	}
	if q.HasGroupBy && (q.HasOrderBy || q.IsUpdate || q.Distinct) {
		return nil, fmt.Errorf("rbqlparser: GROUP BY cannot be combined with ORDER BY, UPDATE, or DISTINCT")
	}

	return q, nil
}

func parseSelect(q *Query, body string, literals []string) error {
	if m := reTopN.FindStringSubmatch(body); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return fmt.Errorf("rbqlparser: invalid TOP n: %w", err)
		}
		q.Top = n
		body = reTopN.ReplaceAllString(body, "")
	}
	if reDistinct.MatchString(body) {
		q.Distinct = true
		q.DistinctCount = true
		body = reDistinct.ReplaceAllString(body, "")
	} else if reDistinctNC.MatchString(body) {
		q.Distinct = true
		body = reDistinctNC.ReplaceAllString(body, "")
	}
	q.Select = strings.TrimSpace(reinjectStringLiterals(body, literals))
	if q.Select == "" {
		return fmt.Errorf("rbqlparser: SELECT has no projection list")
	}
	return nil
}

func stripCommentsAndJoin(queryText string) string {
	lines := strings.Split(queryText, "\n")
	var kept []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, " ")
}

// stripFromSugar removes a bare "FROM <table>" fragment: RBQL queries
// name their input table implicitly (it is the file being processed), so
// a SQL-habit "FROM a" is accepted and discarded rather than treated as a
// join.
func stripFromSugar(protected string) string {
	return reFromSugar.ReplaceAllString(protected, "")
}

// checkNoLooseEquals rejects a bare "=" in a WHERE clause, a common typo
// for "==" that RBQL refuses to silently treat as assignment-flavored
// comparison.
func checkNoLooseEquals(where string) error {
	for i := 1; i < len(where); i++ {
		if where[i] != '=' {
			continue
		}
		if i+1 < len(where) && where[i+1] == '=' {
			i++
			continue
		}
		if strings.IndexByte("=!<>", where[i-1]) < 0 {
			return fmt.Errorf(`rbqlparser: WHERE must use "==", not "=", for comparison`)
		}
	}
	return nil
}
