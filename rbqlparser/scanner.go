// Package rbqlparser compiles RBQL query text (spec.md §4.C) into a Query
// value: a keyed map of clause → text, with JOIN/SELECT/UPDATE modifiers
// already stripped and string literals protected from keyword matching.
//
// The clause-location pass is grounded on the teacher's
// sqlparser.Batch/TokenHandlers reserved-word dispatch (a cursor over a
// word-token stream, dispatching on whichever reserved word is seen
// next); RBQL clause bodies, unlike T-SQL statements, are opaque
// host-language text until package eval compiles them, so the scanner
// here only needs to recognize keyword words, not a full token grammar.
package rbqlparser

import (
	"strings"
	"unicode/utf8"

	"github.com/smasher164/xid"
)

// word is one identifier-shaped token recognized by wordScanner, with its
// byte offsets in the scanned text.
type word struct {
	text       string
	start, end int
}

// wordScanner walks text and yields identifier-shaped word tokens,
// skipping everything else (punctuation, whitespace, operators). It
// mirrors the cursor-plus-NextToken shape of sqlparser.Scanner, scoped
// down to the one thing RBQL's clause locator needs: where do the
// keyword words fall in the text.
type wordScanner struct {
	input string
	pos   int
}

func newWordScanner(input string) *wordScanner {
	return &wordScanner{input: input}
}

func (s *wordScanner) next() (word, bool) {
	for s.pos < len(s.input) {
		r, size := utf8.DecodeRuneInString(s.input[s.pos:])
		if xid.Start(r) || r == '_' {
			start := s.pos
			s.pos += size
			for s.pos < len(s.input) {
				r2, size2 := utf8.DecodeRuneInString(s.input[s.pos:])
				if !(xid.Continue(r2) || r2 == '_') {
					break
				}
				s.pos += size2
			}
			return word{text: s.input[start:s.pos], start: start, end: s.pos}, true
		}
		s.pos += size
	}
	return word{}, false
}

// words tokenizes the whole input into its word stream.
func words(input string) []word {
	sc := newWordScanner(input)
	var ws []word
	for {
		w, ok := sc.next()
		if !ok {
			break
		}
		ws = append(ws, w)
	}
	return ws
}

type phraseMatch struct {
	startWordIdx, endWordIdx int // inclusive
	start, end               int // byte offsets
}

// findPhraseOccurrences finds every place the given lower-case phrase
// (one or more consecutive words) occurs in ws, case-insensitively.
// Arbitrary whitespace between the phrase's words is always allowed,
// since ws already discards non-word runs between tokens.
func findPhraseOccurrences(ws []word, phrase []string) []phraseMatch {
	var matches []phraseMatch
	for i := 0; i+len(phrase) <= len(ws); i++ {
		ok := true
		for j, p := range phrase {
			if !strings.EqualFold(ws[i+j].text, p) {
				ok = false
				break
			}
		}
		if ok {
			matches = append(matches, phraseMatch{
				startWordIdx: i, endWordIdx: i + len(phrase) - 1,
				start: ws[i].start, end: ws[i+len(phrase)-1].end,
			})
		}
	}
	return matches
}
