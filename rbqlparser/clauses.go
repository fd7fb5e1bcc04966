package rbqlparser

import "fmt"

// clauseKind enumerates the clause keywords the locator recognizes, in
// the fixed precedence order spec.md §4.C assigns them. JoinVariants are
// tried longest-phrase-first within the join group, since "LEFT JOIN" is
// a sub-phrase of "STRICT LEFT JOIN".
type clauseKind int

const (
	clauseJoin clauseKind = iota
	clauseSelect
	clauseOrderBy
	clauseWhere
	clauseUpdate
	clauseGroupBy
	clauseLimit
	clauseExcept
)

func (k clauseKind) String() string {
	switch k {
	case clauseJoin:
		return "JOIN"
	case clauseSelect:
		return "SELECT"
	case clauseOrderBy:
		return "ORDER BY"
	case clauseWhere:
		return "WHERE"
	case clauseUpdate:
		return "UPDATE"
	case clauseGroupBy:
		return "GROUP BY"
	case clauseLimit:
		return "LIMIT"
	case clauseExcept:
		return "EXCEPT"
	default:
		return "?"
	}
}

// joinVariants lists the four spellings of the join keyword, in
// longest-first precedence order: the locator tries each variant in turn
// and commits to the first one that occurs anywhere in the text.
var joinVariants = []struct {
	words []string
	name  string
}{
	{[]string{"strict", "left", "join"}, "STRICT LEFT JOIN"},
	{[]string{"left", "join"}, "LEFT JOIN"},
	{[]string{"inner", "join"}, "INNER JOIN"},
	{[]string{"join"}, "JOIN"},
}

var plainClauseWords = map[clauseKind][]string{
	clauseSelect:  {"select"},
	clauseOrderBy: {"order", "by"},
	clauseWhere:   {"where"},
	clauseUpdate:  {"update"},
	clauseGroupBy: {"group", "by"},
	clauseLimit:   {"limit"},
	clauseExcept:  {"except"},
}

// clausePosition is a located clause keyword: its kind, the join variant
// name (only meaningful for clauseJoin), and its byte span.
type clausePosition struct {
	kind          clauseKind
	joinVariant   string
	keywordStart  int
	keywordEnd    int
}

// locateClauses finds the position of every clause keyword present in
// protected (a string-literal-protected, comment-stripped, single-line
// query). It enforces "at most one occurrence per clause" and returns the
// located positions sorted by where they start in the text.
func locateClauses(protected string) ([]clausePosition, error) {
	ws := words(protected)

	var positions []clausePosition

	var joinPos *clausePosition
	for _, variant := range joinVariants {
		matches := findPhraseOccurrences(ws, variant.words)
		if len(matches) == 0 {
			continue
		}
		if len(matches) > 1 {
			return nil, fmt.Errorf("rbqlparser: more than one JOIN clause")
		}
		joinPos = &clausePosition{kind: clauseJoin, joinVariant: variant.name, keywordStart: matches[0].start, keywordEnd: matches[0].end}
		break
	}
	if joinPos != nil {
		positions = append(positions, *joinPos)
	}

	for _, kind := range []clauseKind{clauseSelect, clauseOrderBy, clauseWhere, clauseUpdate, clauseGroupBy, clauseLimit, clauseExcept} {
		phrase := plainClauseWords[kind]
		matches := findPhraseOccurrences(ws, phrase)
		if len(matches) == 0 {
			continue
		}
		if len(matches) > 1 {
			return nil, fmt.Errorf("rbqlparser: more than one %s clause", kind)
		}
		positions = append(positions, clausePosition{kind: kind, keywordStart: matches[0].start, keywordEnd: matches[0].end})
	}

	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			if positions[j].keywordStart < positions[i].keywordStart {
				positions[i], positions[j] = positions[j], positions[i]
			}
		}
	}
	return positions, nil
}

// clauseBodies slices protected into the raw text belonging to each
// located clause: everything from the end of its keyword to the start of
// the next located clause (or end of text for the last one).
func clauseBodies(protected string, positions []clausePosition) map[clauseKind]string {
	bodies := make(map[clauseKind]string, len(positions))
	for i, pos := range positions {
		end := len(protected)
		if i+1 < len(positions) {
			end = positions[i+1].keywordStart
		}
		bodies[pos.kind] = protected[pos.keywordEnd:end]
	}
	return bodies
}
