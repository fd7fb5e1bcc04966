// Package resolve implements spec.md §4.D's variable resolver: turning a
// column reference written in host-language expression text (positional,
// bracketed, attribute, dictionary, or bare/"direct" form) into a 0-based
// field index on the a-table or, when a JOIN is present, the b-table.
package resolve

// TableSchema is the header-derived name→index lookup for one table side.
// A table with no header still supports positional and bracket-index
// access; it just has a nil names map, so attribute/dictionary/direct
// lookups always fail for it.
type TableSchema struct {
	Header []string
	names  map[string]int
}

// NewTableSchema builds a schema from a header row. Pass a nil header for
// a table with no header row.
func NewTableSchema(header []string) *TableSchema {
	if header == nil {
		return &TableSchema{}
	}
	names := make(map[string]int, len(header))
	for i, h := range header {
		if _, exists := names[h]; !exists {
			names[h] = i
		}
	}
	return &TableSchema{Header: header, names: names}
}

// HasHeader reports whether this schema was built from an actual header
// row (as opposed to a headerless table).
func (s *TableSchema) HasHeader() bool {
	return s != nil && s.Header != nil
}

// IndexByName looks up a column by its header name.
func (s *TableSchema) IndexByName(name string) (int, bool) {
	if s == nil || s.names == nil {
		return 0, false
	}
	idx, ok := s.names[name]
	return idx, ok
}
