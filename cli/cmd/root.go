package cmd

import (
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:          "rbqlcli",
		Short:        "rbqlcli",
		SilenceUsage: true,
		Long:         `Command-line runner for RBQL, the SQL-like query language over CSV/TSV streams. See DESIGN.md.`,
	}

	flagDelim      string
	flagPolicyName string
	flagHeader     bool
	flagJSON       bool
	flagLedgerPath string
	flagConfigPath string
	flagTables     []string
)

// Execute executes the root command.
func Execute() error {
	rootCmd.PersistentFlags().StringVar(&flagDelim, "delim", ",", "field delimiter")
	rootCmd.PersistentFlags().StringVar(&flagPolicyName, "policy", "simple", "quoting policy: simple, quoted, or quoted_rfc")
	rootCmd.PersistentFlags().BoolVar(&flagHeader, "header", false, "treat the first input record as a header, enabling column references by header name (a.name, bare names)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "on error, emit the §6 JSON error taxonomy to stderr instead of a plain message")
	rootCmd.PersistentFlags().StringVar(&flagLedgerPath, "ledger", defaultLedgerPath(), "path to the persisted per-file dialect ledger")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "rbql.yaml", "path to rbqlcli's config file (default dialect, JOIN table registry)")
	rootCmd.PersistentFlags().StringArrayVar(&flagTables, "table", nil, "register a file as a JOIN table id (its basename without extension), repeatable; overrides the config file's table map")
	return rootCmd.Execute()
}
