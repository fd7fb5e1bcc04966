package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rbql-go/rbql/csv"
	"github.com/rbql-go/rbql/ledger"
)

// defaultLedgerPath is a dotfile in the current working directory, the
// same directory the --config default (rbql.yaml) is read from.
func defaultLedgerPath() string {
	return ".rbql_ledger.tsv"
}

// dialectFromFlags resolves the active Dialect, highest priority first:
// an explicit per-path ledger entry (policy != "disabled"), then an
// explicitly-passed --delim/--policy flag, then the config file's
// default_delim/default_policy, then the flags' own built-in defaults.
func dialectFromFlags(path string) (csv.Dialect, error) {
	policyName := flagPolicyName
	delim := flagDelim

	cfg, err := LoadConfig(flagConfigPath)
	if err != nil {
		return csv.Dialect{}, fmt.Errorf("loading config: %w", err)
	}
	if !rootCmd.PersistentFlags().Changed("delim") && cfg.DefaultDelim != "" {
		delim = cfg.DefaultDelim
	}
	if !rootCmd.PersistentFlags().Changed("policy") && cfg.DefaultPolicy != "" {
		policyName = cfg.DefaultPolicy
	}

	if path != "" {
		l, err := ledger.Load(flagLedgerPath)
		if err != nil {
			return csv.Dialect{}, fmt.Errorf("loading ledger: %w", err)
		}
		if entry, ok := l.Get(path); ok && entry.Policy != ledger.PolicyDisabled {
			delim = entry.Delim
			policyName = entry.Policy
		}
	}

	policy, err := csv.ParsePolicy(policyName)
	if err != nil {
		return csv.Dialect{}, err
	}
	d := csv.Dialect{Delim: delim, Policy: policy}
	return d, d.Validate()
}

// rememberDialect records path's resolved dialect in the ledger for next
// time, unless the ledger already disables autodetection for it.
func rememberDialect(path string, d csv.Dialect) error {
	if path == "" {
		return nil
	}
	l, err := ledger.Load(flagLedgerPath)
	if err != nil {
		return err
	}
	if entry, ok := l.Get(path); ok && entry.Policy == ledger.PolicyDisabled {
		return nil
	}
	if err := l.Put(path, d.Delim, d.Policy.String()); err != nil {
		return err
	}
	return l.Save(flagLedgerPath)
}

// joinRegistry resolves the active table registry for one invocation: the
// config file's table map, overridden entry-by-entry by any --table flags.
func joinRegistry() (func(tableID string) (csv.Iterator, error), error) {
	cfg, err := LoadConfig(flagConfigPath)
	if err != nil {
		return nil, err
	}
	r := make(TableRegistry)
	for _, path := range flagTables {
		r.Add(path)
	}
	merged := r.merge(cfg)
	return merged.Open, nil
}

func openInput(path string) (*os.File, error) {
	if path == "" || path == "-" {
		return os.Stdin, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	return f, nil
}
