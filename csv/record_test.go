package csv

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, it Iterator) []Record {
	t.Helper()
	var records []Record
	for {
		rec, err := it.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		records = append(records, rec)
	}
	return records
}

func TestFileIteratorBasic(t *testing.T) {
	it, err := NewFileIterator(strings.NewReader("x,y,5\nfoo,bar,42\n"), Dialect{Delim: ",", Policy: Simple}, false)
	require.NoError(t, err)
	records := readAll(t, it)
	assert.Equal(t, []Record{{"x", "y", "5"}, {"foo", "bar", "42"}}, records)
	assert.Nil(t, it.Warnings().FieldCount)
}

func TestFileIteratorWithHeader(t *testing.T) {
	it, err := NewFileIterator(strings.NewReader("a,b\n1,2\n3,4\n"), Dialect{Delim: ",", Policy: Simple}, true)
	require.NoError(t, err)
	header, ok := it.Header()
	require.True(t, ok)
	assert.Equal(t, Record{"a", "b"}, header)
	records := readAll(t, it)
	assert.Equal(t, []Record{{"1", "2"}, {"3", "4"}}, records)
}

func TestFileIteratorInconsistentFieldCount(t *testing.T) {
	it, err := NewFileIterator(strings.NewReader("a,b\nc,d,e\nf,g\n"), Dialect{Delim: ",", Policy: Simple}, false)
	require.NoError(t, err)
	readAll(t, it)
	fc := it.Warnings().FieldCount
	require.NotNil(t, fc)
	assert.Equal(t, 2, fc.CountA)
	assert.Equal(t, 1, fc.NRFirstA)
	assert.Equal(t, 3, fc.CountB)
	assert.Equal(t, 2, fc.NRFirstB)
}

func TestFileIteratorQuotedRFCMultilineRecord(t *testing.T) {
	it, err := NewFileIterator(strings.NewReader("\"a\nb\",1\n\"c\",2\n"), Dialect{Delim: ",", Policy: QuotedRFC}, false)
	require.NoError(t, err)
	records := readAll(t, it)
	assert.Equal(t, []Record{{"a\nb", "1"}, {"c", "2"}}, records)
}

func TestFileWriterRoundTrip(t *testing.T) {
	var buf strings.Builder
	w := NewFileWriter(&buf, Dialect{Delim: ",", Policy: Quoted})
	keepGoing, err := w.Write(Record{"hello, world", "plain"})
	require.NoError(t, err)
	assert.True(t, keepGoing)
	require.NoError(t, w.Finish())
	assert.Equal(t, "\"hello, world\",plain\n", buf.String())
}

func TestWarningsMessages(t *testing.T) {
	w := NewWarnings()
	w.observeFieldCount(2, 1)
	w.observeFieldCount(3, 5)
	w.recordQuotingDefect(7)
	w.recordNullByte(9)
	w.EncodingFallback = true
	msgs := w.Messages()
	assert.Len(t, msgs, 4)
}
