package agg

import (
	"fmt"
	"io"
	"strings"

	"github.com/rbql-go/rbql/csv"
	"github.com/rbql-go/rbql/rbqlparser"
)

// HashJoinMap is the build side of a hash join: every b-table row,
// indexed by its join key. Built once per query by fully draining the
// b-table iterator before the a-table is streamed.
type HashJoinMap struct {
	index map[string][]joinedRow
}

type joinedRow struct {
	record csv.Record
	nr     int
}

// BuildHashJoinMap drains bIter, computing each row's key with keyFn, and
// returns the resulting lookup map. keyFn receives the b-record and its
// 1-based record number (needed so "ON aNR == bNR" can use the running
// counter as a join key per spec.md's Design Notes open-question
// resolution).
func BuildHashJoinMap(bIter csv.Iterator, keyFn func(rec csv.Record, nr int) (string, error)) (*HashJoinMap, error) {
	m := &HashJoinMap{index: make(map[string][]joinedRow)}
	nr := 0
	for {
		rec, err := bIter.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		nr++
		key, err := keyFn(rec, nr)
		if err != nil {
			return nil, err
		}
		m.index[key] = append(m.index[key], joinedRow{record: rec, nr: nr})
	}
	return m, nil
}

// Get returns every b-row matching key, in the order they were built.
func (m *HashJoinMap) Get(key string) ([]csv.Record, []int, bool) {
	rows, ok := m.index[key]
	if !ok {
		return nil, nil, false
	}
	records := make([]csv.Record, len(rows))
	nrs := make([]int, len(rows))
	for i, r := range rows {
		records[i] = r.record
		nrs[i] = r.nr
	}
	return records, nrs, true
}

// JoinKey builds a hash key from one or more field values, the way a
// composite JOIN ON (multiple AND-ed equalities) key is formed: each
// part's string form, joined by a separator that cannot occur in a
// single field's rendering of a scalar value.
func JoinKey(parts ...string) string {
	return strings.Join(parts, "\x1f")
}

// MatchedRow is one row of a JOIN's output: the always-present a-side row
// and, if matched, the b-side row. BRecord is nil for an unmatched row
// under LEFT/STRICT LEFT JOIN.
type MatchedRow struct {
	ARecord csv.Record
	ANR     int
	BRecord csv.Record
	BNR     int
}

// Joiner pairs a-rows with their b-side matches according to the query's
// join kind.
type Joiner struct {
	Kind rbqlparser.JoinKind
	Map  *HashJoinMap
}

// Join returns the output rows for one a-row with the given join key.
// INNER JOIN drops an a-row with no match; LEFT JOIN keeps it with a nil
// BRecord; STRICT LEFT JOIN requires exactly one match and returns an
// error when an a-row has zero or several.
func (j *Joiner) Join(aRec csv.Record, aNR int, key string) ([]MatchedRow, error) {
	bRecords, bNRs, found := j.Map.Get(key)
	if j.Kind == rbqlparser.JoinStrictLeft {
		if len(bRecords) != 1 {
			return nil, fmt.Errorf("rbql: STRICT LEFT JOIN requires exactly one match for record %d, found %d", aNR, len(bRecords))
		}
		return []MatchedRow{{ARecord: aRec, ANR: aNR, BRecord: bRecords[0], BNR: bNRs[0]}}, nil
	}
	if !found {
		switch j.Kind {
		case rbqlparser.JoinInner:
			return nil, nil
		case rbqlparser.JoinLeft:
			return []MatchedRow{{ARecord: aRec, ANR: aNR}}, nil
		}
	}
	out := make([]MatchedRow, len(bRecords))
	for i, bRec := range bRecords {
		out[i] = MatchedRow{ARecord: aRec, ANR: aNR, BRecord: bRec, BNR: bNRs[i]}
	}
	return out, nil
}
