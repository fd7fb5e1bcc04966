package locate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rbql-go/rbql/csv"
)

func TestLocateCleanLineDirect(t *testing.T) {
	dialect := csv.Dialect{Delim: ",", Policy: csv.Simple}
	lines := []string{"name,age,city"}
	idx, ok := Locate(lines, Cursor{Line: 0, Col: 6}, dialect, 3)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestLocateMultilineQuotedFieldSpanningTwoLines(t *testing.T) {
	dialect := csv.Dialect{Delim: ",", Policy: csv.QuotedRFC}
	lines := []string{`a,"foo`, `bar",c`}
	idx, ok := Locate(lines, Cursor{Line: 1, Col: 1}, dialect, 3)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestLocateMultilineFieldUnknownExpectedCount(t *testing.T) {
	dialect := csv.Dialect{Delim: ",", Policy: csv.QuotedRFC}
	lines := []string{`a,"foo`, `bar",c`}
	idx, ok := Locate(lines, Cursor{Line: 0, Col: 4}, dialect, 0)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestLocateFallsBackOnFieldCountMismatch(t *testing.T) {
	dialect := csv.Dialect{Delim: ",", Policy: csv.Quoted}
	lines := []string{`a,"b,c`}
	idx, ok := Locate(lines, Cursor{Line: 0, Col: 2}, dialect, 99)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestLocateOutOfRangeCursor(t *testing.T) {
	dialect := csv.Dialect{Delim: ",", Policy: csv.Simple}
	lines := []string{"a,b,c"}
	_, ok := Locate(lines, Cursor{Line: 5, Col: 0}, dialect, 3)
	assert.False(t, ok)

	_, ok = Locate(lines, Cursor{Line: 0, Col: 100}, dialect, 3)
	assert.False(t, ok)
}

// Scenario 6 from spec.md §8: RFC input `"a\nb",1\n"c",2`, cursor on the
// physical line containing "b", expected header width 2, resolves to
// column 0.
func TestLocateSpecScenarioSix(t *testing.T) {
	dialect := csv.Dialect{Delim: ",", Policy: csv.QuotedRFC}
	lines := []string{`"a`, `b",1`, `"c",2`}
	idx, ok := Locate(lines, Cursor{Line: 1, Col: 0}, dialect, 2)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestLocateWindowLimitsSearch(t *testing.T) {
	orig := Window
	defer func() { Window = orig }()
	Window = 1

	dialect := csv.Dialect{Delim: ",", Policy: csv.QuotedRFC}
	lines := []string{`a,"foo`, "x,y", `bar",c`}
	// The opening boundary (line 0) is two lines above the cursor, beyond a
	// Window of 1, so the
	// span search fails to find it and falls back to single-line parsing
	// of the cursor's own (malformed-looking) line.
	idx, ok := Locate(lines, Cursor{Line: 2, Col: 1}, dialect, 3)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, idx, 0)
}
