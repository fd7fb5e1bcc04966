package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rbql-go/rbql/csv"
)

// TableRegistry is an in-memory table id → file path map for JOIN
// resolution, keyed by a file's basename (so `--table data/b.csv` is
// joined against as `JOIN b`). Adapted from the teacher's go/mapfs.MapFS,
// which keyed an in-memory fs.FS by basename the same way; here the
// lookup resolves a CSV iterator instead of an fs.File.
type TableRegistry map[string]string

// Add registers path under its basename (without extension), mirroring
// MapFS.Add's basename-keying.
func (r TableRegistry) Add(path string) {
	base := filepath.Base(path)
	r[base[:len(base)-len(filepath.Ext(base))]] = path
}

// Open resolves tableID to a CSV iterator using that path's own
// ledger-resolved dialect.
func (r TableRegistry) Open(tableID string) (csv.Iterator, error) {
	path, ok := r[tableID]
	if !ok {
		return nil, fmt.Errorf("no table %q registered (use --table to add one)", tableID)
	}
	dialect, err := dialectFromFlags(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return csv.NewFileIterator(f, dialect, flagHeader)
}

// merge layers cfg's table map underneath r's --table entries, so a
// repeated --table flag can override a config-file mapping for a single
// invocation without editing the config file.
func (r TableRegistry) merge(cfg Config) TableRegistry {
	merged := make(TableRegistry, len(cfg.Tables)+len(r))
	for id, path := range cfg.Tables {
		merged[id] = path
	}
	for id, path := range r {
		merged[id] = path
	}
	return merged
}
