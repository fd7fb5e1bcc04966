package cmd

import (
	"errors"
	"fmt"

	"github.com/alecthomas/repr"
	"github.com/spf13/cobra"

	"github.com/rbql-go/rbql/rbqlparser"
)

var explainCmd = &cobra.Command{
	Use:   "explain <query>",
	Short: "Parse a query and dump its AST to stdout, without running it against any input",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			_ = cmd.Help()
			return errors.New("need to specify argument <query>")
		}

		q, err := rbqlparser.Parse(args[0])
		if err != nil {
			return reportAndReturn(err)
		}

		fmt.Println(repr.String(q))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
}
