package rbqlparser

import (
	"fmt"
	"regexp"
	"strings"
)

var reOnKeyword = regexp.MustCompile(`(?i)\bon\b`)

// parseJoin parses the text following a located join keyword: a table
// reference, the ON keyword, and one or more equality conditions
// separated by AND. Conditions are normalized so AExpr always names a
// field on the a-side and BExpr the b-side, regardless of which side the
// query wrote first.
func parseJoin(pos clausePosition, body string, literals []string) (*JoinClause, error) {
	loc := reOnKeyword.FindStringIndex(body)
	if loc == nil {
		return nil, fmt.Errorf("rbqlparser: JOIN requires an ON clause")
	}
	table := strings.TrimSpace(reinjectStringLiterals(body[:loc[0]], literals))
	if table == "" {
		return nil, fmt.Errorf("rbqlparser: JOIN requires a table reference")
	}

	kind, err := joinKindFromVariant(pos.joinVariant)
	if err != nil {
		return nil, err
	}

	onBody := body[loc[1]:]
	var conditions []JoinCondition
	for _, part := range splitOnAnd(onBody) {
		cond, err := parseJoinCondition(part, literals)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}
	if len(conditions) == 0 {
		return nil, fmt.Errorf("rbqlparser: JOIN ON clause has no conditions")
	}

	return &JoinClause{Kind: kind, Table: table, Conditions: conditions}, nil
}

func joinKindFromVariant(name string) (JoinKind, error) {
	switch name {
	case "JOIN", "INNER JOIN":
		return JoinInner, nil
	case "LEFT JOIN":
		return JoinLeft, nil
	case "STRICT LEFT JOIN":
		return JoinStrictLeft, nil
	default:
		return JoinInner, fmt.Errorf("rbqlparser: unrecognized join variant %q", name)
	}
}

var reAndSplit = regexp.MustCompile(`(?i)\s+and\s+`)

func splitOnAnd(s string) []string {
	parts := reAndSplit.Split(s, -1)
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseJoinCondition splits one "a.X == b.Y" equality (or its reverse)
// into a normalized JoinCondition. The expressions themselves are left as
// opaque host-language text for package eval to compile; only the a/b
// side is determined here, by which one references the a-table.
func parseJoinCondition(expr string, literals []string) (JoinCondition, error) {
	eqIdx := strings.Index(expr, "==")
	if eqIdx < 0 {
		return JoinCondition{}, fmt.Errorf("rbqlparser: JOIN ON condition %q is not an equality", strings.TrimSpace(expr))
	}
	lhs := strings.TrimSpace(reinjectStringLiterals(expr[:eqIdx], literals))
	rhs := strings.TrimSpace(reinjectStringLiterals(expr[eqIdx+2:], literals))

	lhsIsB := referencesB(lhs)
	rhsIsB := referencesB(rhs)
	switch {
	case !lhsIsB && rhsIsB:
		return JoinCondition{AExpr: lhs, BExpr: rhs}, nil
	case lhsIsB && !rhsIsB:
		return JoinCondition{AExpr: rhs, BExpr: lhs}, nil
	default:
		return JoinCondition{}, fmt.Errorf("rbqlparser: JOIN ON condition %q must compare an a-side expression to a b-side expression", strings.TrimSpace(expr))
	}
}

// reBRef also matches the bNR/BNF specials (spec.md §4.D's aNR/bNR pair,
// plus the b-side field-count analog of NF), which aren't field
// references shaped like b7/b.col/b["col"].
var reBRef = regexp.MustCompile(`(?i)\bb\b|\bb[.\[]|\bb[0-9]+\b|\bbnr\b|\bbnf\b`)

func referencesB(expr string) bool {
	return reBRef.MatchString(expr)
}
