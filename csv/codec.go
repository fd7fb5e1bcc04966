package csv

import "strings"

// Split divides one already-assembled record line into fields according to
// dialect policy. preserveQuotesAndWhitespace=true returns quoted fields
// with their surrounding quotes (and doubled internal quotes) intact,
// instead of the decoded inner text; this is what the column locator
// (package locate) needs in order to map a raw buffer offset back onto a
// decoded field.
//
// The returned bool is the "quoting warning" flag: true if the line
// contained a quoting defect (unterminated quoted field, a quoted field
// whose closing quote isn't followed by the delimiter or end of line, or a
// bare quote inside an unquoted field).
func Split(line string, delim string, policy Policy, preserveQuotesAndWhitespace bool) ([]string, bool) {
	switch policy {
	case Monocolumn:
		return []string{line}, false
	case Simple:
		return strings.Split(line, delim), false
	case Quoted, QuotedRFC:
		if !strings.Contains(line, `"`) {
			// Fast path: no quote character anywhere in the line, so the
			// two policies degrade to a plain split.
			return strings.Split(line, delim), false
		}
		return splitQuoted(line, delim, preserveQuotesAndWhitespace)
	default:
		return strings.Split(line, delim), false
	}
}

// splitQuoted implements the RFC-4180 state machine: a field starting
// with a quote reads until an unescaped closing quote followed by the
// delimiter or end of input; "" inside a quoted field is a literal quote.
func splitQuoted(line, delim string, preserveQuotes bool) (fields []string, warning bool) {
	i := 0
	n := len(line)
	for {
		if i < n && line[i] == '"' {
			raw, next, unterminated := scanQuotedField(line, i)
			if unterminated {
				warning = true
				if preserveQuotes {
					fields = append(fields, raw)
				} else {
					fields = append(fields, decodeQuoted(raw))
				}
				break
			}
			i = next
			switch {
			case i >= n:
				if preserveQuotes {
					fields = append(fields, raw)
				} else {
					fields = append(fields, decodeQuoted(raw))
				}
				return fields, warning
			case strings.HasPrefix(line[i:], delim):
				if preserveQuotes {
					fields = append(fields, raw)
				} else {
					fields = append(fields, decodeQuoted(raw))
				}
				i += len(delim)
				if i == n {
					fields = append(fields, "")
					return fields, warning
				}
				continue
			default:
				// Closing quote not immediately followed by delimiter or
				// EOL: a defect, but recover by absorbing text up to the
				// next delimiter into the same field.
				warning = true
				restStart := i
				idx := strings.Index(line[i:], delim)
				var tail string
				if idx == -1 {
					tail = line[restStart:]
					i = n
				} else {
					tail = line[restStart : restStart+idx]
					i = restStart + idx + len(delim)
				}
				field := raw
				if !preserveQuotes {
					field = decodeQuoted(raw)
				}
				fields = append(fields, field+tail)
				if idx == -1 {
					return fields, warning
				}
				if i == n {
					fields = append(fields, "")
					return fields, warning
				}
				continue
			}
		}

		idx := strings.Index(line[i:], delim)
		var field string
		if idx == -1 {
			field = line[i:]
			i = n
		} else {
			field = line[i : i+idx]
			i += idx + len(delim)
		}
		if strings.Contains(field, `"`) {
			warning = true
		}
		fields = append(fields, field)
		if idx == -1 {
			return fields, warning
		}
		if i == n {
			fields = append(fields, "")
			return fields, warning
		}
	}
}

// scanQuotedField assumes line[start] == '"'. It returns the raw substring
// including surrounding quotes (doubled quotes kept doubled), the index
// just past the closing quote, and whether the field was unterminated.
func scanQuotedField(line string, start int) (raw string, next int, unterminated bool) {
	var b strings.Builder
	b.WriteByte('"')
	i := start + 1
	n := len(line)
	for i < n {
		c := line[i]
		if c != '"' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 < n && line[i+1] == '"' {
			b.WriteString(`""`)
			i += 2
			continue
		}
		b.WriteByte('"')
		return b.String(), i + 1, false
	}
	return b.String(), n, true
}

// decodeQuoted strips the surrounding quotes (if present) from a raw
// quoted-field substring and unescapes doubled quotes.
func decodeQuoted(raw string) string {
	inner := raw
	if strings.HasPrefix(inner, `"`) {
		inner = inner[1:]
	}
	if strings.HasSuffix(inner, `"`) {
		inner = inner[:len(inner)-1]
	}
	return strings.ReplaceAll(inner, `""`, `"`)
}

// Join serializes fields back into one record line. A field is quoted iff
// it contains the delimiter, a quote character, or (QuotedRFC only) a
// newline; quotes inside a quoted field are doubled.
func Join(fields []string, delim string, policy Policy) string {
	switch policy {
	case Monocolumn:
		if len(fields) == 0 {
			return ""
		}
		return fields[0]
	case Simple:
		return strings.Join(fields, delim)
	case Quoted, QuotedRFC:
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = quoteIfNeeded(f, delim, policy)
		}
		return strings.Join(parts, delim)
	default:
		return strings.Join(fields, delim)
	}
}

func quoteIfNeeded(field, delim string, policy Policy) string {
	needsQuote := strings.Contains(field, delim) || strings.Contains(field, `"`)
	if policy == QuotedRFC {
		needsQuote = needsQuote || strings.Contains(field, "\n")
	}
	if !needsQuote {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
