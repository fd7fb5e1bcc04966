package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rbql-go/rbql"
	"github.com/rbql-go/rbql/csv"
)

var flagBatchConcurrency int

var batchCmd = &cobra.Command{
	Use:   "batch <query> <input-file>...",
	Short: "Runs one query against several input files concurrently, writing each result next to its input as <input>.out",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logrus.StandardLogger()

		if len(args) < 2 {
			_ = cmd.Help()
			return errors.New("need to specify <query> and at least one input file")
		}
		queryText := args[0]
		inputs := args[1:]

		registry, err := joinRegistry()
		if err != nil {
			return err
		}

		g, ctx := errgroup.WithContext(context.Background())
		g.SetLimit(flagBatchConcurrency)

		for _, path := range inputs {
			path := path
			g.Go(func() error {
				entry := logger.WithField("input", path)
				if err := runOneBatchFile(ctx, queryText, path, registry); err != nil {
					entry.WithError(err).Error("batch query failed")
					return fmt.Errorf("%s: %w", path, err)
				}
				entry.Info("batch query succeeded")
				return nil
			})
		}

		return g.Wait()
	},
}

func runOneBatchFile(ctx context.Context, queryText, path string, registry func(tableID string) (csv.Iterator, error)) error {
	dialect, err := dialectFromFlags(path)
	if err != nil {
		return err
	}

	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	aIter, err := csv.NewFileIterator(in, dialect, flagHeader)
	if err != nil {
		return err
	}

	outPath := path + ".out"
	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer outFile.Close()

	out := csv.NewFileWriter(outFile, dialect)
	_, runErr := rbql.Run(ctx, queryText, aIter, out, rbql.RunOptions{
		Dialect:      dialect,
		Header:       flagHeader,
		JoinRegistry: registry,
	})
	if runErr != nil {
		return runErr
	}

	return rememberDialect(path, dialect)
}

func init() {
	batchCmd.Flags().IntVar(&flagBatchConcurrency, "concurrency", 4, "maximum number of input files processed at once")
	rootCmd.AddCommand(batchCmd)
}
