package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rbql-go/rbql/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect or edit the persisted per-file dialect ledger",
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List every path recorded in the ledger along with its remembered dialect",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := ledger.Load(flagLedgerPath)
		if err != nil {
			return err
		}
		for _, path := range l.Paths() {
			e, _ := l.Get(path)
			fmt.Printf("%s\t%q\t%s\n", e.Path, e.Delim, e.Policy)
		}
		return nil
	},
}

var ledgerForgetCmd = &cobra.Command{
	Use:   "forget <path>",
	Short: "Remove a path's remembered dialect from the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			_ = cmd.Help()
			return errors.New("need to specify argument <path>")
		}
		l, err := ledger.Load(flagLedgerPath)
		if err != nil {
			return err
		}
		l.Forget(args[0])
		return l.Save(flagLedgerPath)
	},
}

var ledgerDisableCmd = &cobra.Command{
	Use:   "disable <path>",
	Short: "Mark a path as disabled, so the ledger never overrides --delim/--policy for it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			_ = cmd.Help()
			return errors.New("need to specify argument <path>")
		}
		l, err := ledger.Load(flagLedgerPath)
		if err != nil {
			return err
		}
		if err := l.Put(args[0], flagDelim, ledger.PolicyDisabled); err != nil {
			return err
		}
		return l.Save(flagLedgerPath)
	},
}

func init() {
	ledgerCmd.AddCommand(ledgerShowCmd)
	ledgerCmd.AddCommand(ledgerForgetCmd)
	ledgerCmd.AddCommand(ledgerDisableCmd)
	rootCmd.AddCommand(ledgerCmd)
}
