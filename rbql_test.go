package rbql

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbql-go/rbql/csv"
	"github.com/rbql-go/rbql/eval"
	"github.com/rbql-go/rbql/plan"
)

func splitRecords(out string) [][]string {
	var recs [][]string
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		recs = append(recs, strings.Split(line, ","))
	}
	return recs
}

func run(t *testing.T, query, input string, opts RunOptions) (string, *csv.Warnings, error) {
	t.Helper()
	if opts.Dialect.Delim == "" {
		opts.Dialect = csv.Dialect{Delim: ",", Policy: csv.Simple}
	}
	aIter, err := csv.NewFileIterator(strings.NewReader(input), opts.Dialect, false)
	require.NoError(t, err)

	var buf bytes.Buffer
	out := csv.NewFileWriter(&buf, opts.Dialect)
	warnings, runErr := Run(context.Background(), query, aIter, out, opts)
	return buf.String(), warnings, runErr
}

// Scenario 1 from spec.md §8.
func TestScenarioIntCastInWhere(t *testing.T) {
	out, _, err := run(t, `SELECT a2, a1 WHERE int(a3) > 10`, "x,y,5\nfoo,bar,42\n", RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, "bar,foo\n", out)
}

// Scenario 2.
func TestScenarioTopTwo(t *testing.T) {
	out, _, err := run(t, `SELECT TOP 2 *`, "1\n2\n3\n4\n5\n", RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", out)
}

// Scenario 3.
func TestScenarioGroupByCount(t *testing.T) {
	out, _, err := run(t, `SELECT a1, COUNT(*) GROUP BY a1`, "a\nb\na\na\nb\n", RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, "a,3\nb,2\n", out)
}

// Scenario 4: INNER JOIN, resolving table id "B" through JoinRegistry.
func TestScenarioInnerJoin(t *testing.T) {
	dialect := csv.Dialect{Delim: ",", Policy: csv.Simple}
	registry := func(tableID string) (csv.Iterator, error) {
		assert.Equal(t, "B", tableID)
		return csv.NewFileIterator(strings.NewReader("k1,p\nk1,q\nk3,r\n"), dialect, false)
	}
	out, _, err := run(t, `SELECT a1, b2 INNER JOIN B ON a1 == b1`, "k1,x\nk2,y\n", RunOptions{JoinRegistry: registry})
	require.NoError(t, err)
	assert.Equal(t, "k1,p\nk1,q\n", out)
}

// Scenario 5: TSV input, LIKE.
func TestScenarioLikeOnTSV(t *testing.T) {
	out, _, err := run(t, `SELECT a1 WHERE a2 LIKE 'foo%'`, "id\tfoobar\nid\tbaz\n", RunOptions{Dialect: csv.Dialect{Delim: "\t", Policy: csv.Simple}})
	require.NoError(t, err)
	assert.Equal(t, "id\n", out)
}

// TestScenarioOrderByMultiColumn checks a larger result set structurally
// (record-by-record, field-by-field) rather than as one opaque string, so a
// failure pinpoints which row/column diverged.
func TestScenarioOrderByMultiColumn(t *testing.T) {
	out, _, err := run(t, `SELECT a1, a2 ORDER BY a2`, "c,3\na,1\nb,2\n", RunOptions{})
	require.NoError(t, err)

	want := [][]string{{"a", "1"}, {"b", "2"}, {"c", "3"}}
	got := splitRecords(out)
	if diff := pretty.Compare(want, got); diff != "" {
		t.Errorf("unexpected record set (-want +got):\n%s", diff)
	}
}

func TestRunReportsParseError(t *testing.T) {
	_, _, err := run(t, `SELECT`, "a,b\n", RunOptions{})
	require.Error(t, err)
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestRunReportsIOHandlingErrorForMissingJoinRegistry(t *testing.T) {
	_, _, err := run(t, `SELECT a1 INNER JOIN B ON a1 == b1`, "a\n", RunOptions{})
	require.Error(t, err)
	var ioe *IOHandlingError
	assert.ErrorAs(t, err, &ioe)
}

func TestRunReportsRuntimeErrorForMissingField(t *testing.T) {
	_, _, err := run(t, `SELECT a5`, "a,b\n", RunOptions{})
	require.Error(t, err)
	var re *RuntimeError
	assert.ErrorAs(t, err, &re)
}

func TestRunUserInitRegistersFunction(t *testing.T) {
	opts := RunOptions{
		UserInit: func(register func(name string, fn plan.UserFunc)) {
			register("double", func(args []eval.Value) (eval.Value, error) {
				f, _ := args[0].AsFloat()
				return eval.Float(f * 2), nil
			})
		},
	}
	out, _, err := run(t, `SELECT double(a1)`, "5\n10\n", opts)
	require.NoError(t, err)
	assert.Equal(t, "10\n20\n", out)
}
