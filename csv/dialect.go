// Package csv implements the RBQL delimited-record codec: dialect-aware
// field splitting/joining and the streaming record Iterator/Writer pair
// that sits between raw text and the query executor.
package csv

import "fmt"

// Policy selects how a record line is split into fields.
type Policy int

const (
	// Simple splits on the delimiter with no quote handling at all.
	Simple Policy = iota + 1
	// Quoted understands RFC-4180 quoting but forbids embedded newlines
	// inside a field; a record is always exactly one physical line.
	Quoted
	// QuotedRFC understands RFC-4180 quoting including embedded newlines;
	// a record may span several physical lines.
	QuotedRFC
	// Monocolumn treats the whole line as a single field; splitting never
	// occurs.
	Monocolumn
)

func (p Policy) String() string {
	switch p {
	case Simple:
		return "simple"
	case Quoted:
		return "quoted"
	case QuotedRFC:
		return "quoted_rfc"
	case Monocolumn:
		return "monocolumn"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Dialect is a (delimiter, policy) pair describing how a record line is
// split and joined.
type Dialect struct {
	Delim  string
	Policy Policy
}

// Validate checks the dialect invariants from the data model: the
// delimiter must be non-empty and must never contain the quote character
// or a newline.
func (d Dialect) Validate() error {
	if d.Delim == "" {
		return fmt.Errorf("csv: delimiter cannot be empty")
	}
	for _, r := range d.Delim {
		if r == '"' {
			return fmt.Errorf("csv: delimiter %q cannot contain a double quote", d.Delim)
		}
		if r == '\n' {
			return fmt.Errorf("csv: delimiter %q cannot contain a newline", d.Delim)
		}
	}
	switch d.Policy {
	case Simple, Quoted, QuotedRFC, Monocolumn:
	default:
		return fmt.Errorf("csv: unknown policy %v", d.Policy)
	}
	return nil
}

// ParsePolicy maps the persisted-ledger policy names (spec.md §6) to a
// Policy value. "disabled" has no Policy equivalent; callers that need it
// handle it themselves (it means "do not autodetect this path").
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "simple":
		return Simple, nil
	case "quoted":
		return Quoted, nil
	case "quoted_rfc":
		return QuotedRFC, nil
	default:
		return 0, fmt.Errorf("csv: unknown policy name %q", name)
	}
}
