// Package locate implements spec.md §4.H: given an editor buffer (a
// slice of physical lines) and a cursor position, compute which logical
// RFC-4180 field the cursor sits in, even when that field's quoting
// spans several physical lines. Grounded on the teacher's
// sqlparser.Scanner, whose Pos/Start()/Stop()/bumpLine machinery tracks a
// line/column position across a token that may itself span physical
// lines (a quoted identifier or string literal) — the same sub-problem
// this package solves for a quoted CSV field.
package locate

import (
	"strings"

	"github.com/rbql-go/rbql/csv"
)

// Window bounds how many lines the locator searches above and below the
// cursor line for the nearest odd-quote-count boundary, per spec.md's
// "±10 lines" default.
var Window = 10

// Cursor is a 0-based (line, byte-offset-within-line) position in an
// editor buffer.
type Cursor struct {
	Line int
	Col  int
}

// Locate returns the 0-based field index the cursor falls within.
// expectedFieldCount is the table's known field width (e.g. the header's
// length); pass 0 if unknown, which skips the field-count sanity check
// in step 3. It returns ok=false when the cursor cannot be resolved to a
// field at all (out-of-range position, or an unrecoverable parse).
func Locate(lines []string, cursor Cursor, dialect csv.Dialect, expectedFieldCount int) (int, bool) {
	if cursor.Line < 0 || cursor.Line >= len(lines) {
		return 0, false
	}
	line := lines[cursor.Line]
	if cursor.Col < 0 || cursor.Col > len(line) {
		return 0, false
	}

	if strings.Count(line, `"`)%2 == 0 {
		// A clean line: the cursor is not inside a multiline quoted
		// field, so a single-line parse resolves it directly.
		return getColSingleLine(line, cursor.Col, dialect)
	}

	startLine := searchBoundary(lines, cursor.Line, -1)
	endLine := searchBoundary(lines, cursor.Line, 1)
	if startLine < 0 {
		startLine = cursor.Line
	}
	if endLine < 0 {
		endLine = cursor.Line
	}

	fieldIdx, ok := locateInSpan(lines, startLine, endLine, cursor, dialect, expectedFieldCount)
	if ok {
		return fieldIdx, true
	}
	return getColSingleLine(line, cursor.Col, dialect)
}

// searchBoundary walks up to Window lines away from lineIdx (dir = -1
// for upward, +1 for downward) and returns the index of the nearest line
// with an odd double-quote count, or -1 if none is found in range.
func searchBoundary(lines []string, lineIdx, dir int) int {
	for i, steps := lineIdx+dir, 0; steps < Window && i >= 0 && i < len(lines); i, steps = i+dir, steps+1 {
		if strings.Count(lines[i], `"`)%2 == 1 {
			return i
		}
	}
	return -1
}

// locateInSpan concatenates lines[startLine:endLine+1] with embedded
// newlines, re-parses it as one QuotedRFC record with quotes preserved,
// and — if the resulting field count matches expectedFieldCount (when
// known) — walks fields and then characters to find which field covers
// the cursor's absolute offset within the span.
func locateInSpan(lines []string, startLine, endLine int, cursor Cursor, dialect csv.Dialect, expectedFieldCount int) (int, bool) {
	span := strings.Join(lines[startLine:endLine+1], "\n")
	fields, _ := csv.Split(span, dialect.Delim, csv.QuotedRFC, true)
	if len(fields) == 0 {
		return 0, false
	}
	if expectedFieldCount > 0 && len(fields) != expectedFieldCount {
		return 0, false
	}

	targetOffset := 0
	for i := startLine; i < cursor.Line; i++ {
		targetOffset += len(lines[i]) + 1 // +1 for the joining '\n'
	}
	targetOffset += cursor.Col

	fieldStart := 0
	for fi, f := range fields {
		fieldEnd := fieldStart + len(f)
		if targetOffset <= fieldEnd {
			return fi, true
		}
		fieldStart = fieldEnd + len(dialect.Delim)
	}
	return len(fields) - 1, true
}

// getColSingleLine parses line on its own and returns which field's byte
// span covers col.
func getColSingleLine(line string, col int, dialect csv.Dialect) (int, bool) {
	fields, _ := csv.Split(line, dialect.Delim, dialect.Policy, true)
	if len(fields) == 0 {
		return 0, false
	}
	fieldStart := 0
	for fi, f := range fields {
		fieldEnd := fieldStart + len(f)
		if col <= fieldEnd {
			return fi, true
		}
		fieldStart = fieldEnd + len(dialect.Delim)
	}
	return len(fields) - 1, true
}
