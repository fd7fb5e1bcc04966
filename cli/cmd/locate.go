package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rbql-go/rbql/csv"
	"github.com/rbql-go/rbql/locate"
)

var flagLocateExpectedFields int

var locateCmd = &cobra.Command{
	Use:   "locate <file> <line> <col>",
	Short: "Report which field index the given 0-based (line, col) cursor position falls within",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 3 {
			_ = cmd.Help()
			return errors.New("need to specify <file>, <line>, and <col>")
		}
		path := args[0]
		line, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid <line>: %w", err)
		}
		col, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid <col>: %w", err)
		}

		f, err := openInput(path)
		if err != nil {
			return err
		}
		if f != os.Stdin {
			defer f.Close()
		}

		var lines []string
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return err
		}

		dialect, err := dialectFromFlags(path)
		if err != nil {
			return err
		}

		idx, ok := locate.Locate(lines, locate.Cursor{Line: line, Col: col}, dialect, flagLocateExpectedFields)
		if !ok {
			return errors.New("cursor does not resolve to any field")
		}

		fmt.Println(idx)
		return nil
	},
}

func init() {
	locateCmd.Flags().IntVar(&flagLocateExpectedFields, "fields", 0, "expected field count (0 disables the sanity check)")
	rootCmd.AddCommand(locateCmd)
}
