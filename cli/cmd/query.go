package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rbql-go/rbql"
	"github.com/rbql-go/rbql/csv"
)

var queryCmd = &cobra.Command{
	Use:   "query <query> [input-file]",
	Short: "Run one RBQL query over a CSV/TSV stream, writing the result to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 {
			_ = cmd.Help()
			return errors.New("need to specify argument <query>")
		}
		queryText := args[0]
		inputPath := ""
		if len(args) > 1 {
			inputPath = args[1]
		}

		f, err := openInput(inputPath)
		if err != nil {
			return reportAndReturn(err)
		}
		if f != os.Stdin {
			defer f.Close()
		}

		dialect, err := dialectFromFlags(inputPath)
		if err != nil {
			return reportAndReturn(err)
		}

		aIter, err := csv.NewFileIterator(f, dialect, flagHeader)
		if err != nil {
			return reportAndReturn(&rbql.IOHandlingError{Msg: err.Error()})
		}

		registry, err := joinRegistry()
		if err != nil {
			return reportAndReturn(err)
		}

		out := csv.NewFileWriter(os.Stdout, dialect)
		warnings, runErr := rbql.Run(context.Background(), queryText, aIter, out, rbql.RunOptions{
			Dialect:      dialect,
			Header:       flagHeader,
			JoinRegistry: registry,
		})
		if runErr != nil {
			return reportAndReturn(runErr, warnings.Messages()...)
		}
		for _, msg := range warnings.Messages() {
			fmt.Fprintln(os.Stderr, "warning:", msg)
		}

		return rememberDialect(inputPath, dialect)
	},
}

// reportAndReturn either prints err as --json's JSONError to stderr and
// returns an error carrying the same JSON text, or just returns err for
// cobra's own plain-text reporting.
func reportAndReturn(err error, warnings ...string) error {
	if !flagJSON {
		return err
	}
	je := rbql.NewJSONError(err, warnings)
	data, merr := je.MarshalTo()
	if merr != nil {
		return merr
	}
	fmt.Fprintln(os.Stderr, string(data))
	return errors.New(string(data))
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
