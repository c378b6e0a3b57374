package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/medtra-labs/medquery/internal/compare"
	"github.com/medtra-labs/medquery/internal/worksheet"
)

// NewCompareCommand creates the compare command.
func NewCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <dataset> <worksheet.csv>",
		Short: "Compare a draft tender worksheet against a dataset",
		Long: `Compare every row of a draft worksheet against a target dataset and
fill in the price statistics columns.

The worksheet layout follows the dataset named by the first argument; the
target defaults to the same dataset and can be redirected with --target.
Worksheet headers map onto the target's criteria columns by name, with the
usual aliases (active ingredient vs herbal material name, and so on).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			source, err := parseFamily(args[0])
			if err != nil {
				return err
			}
			target := source
			if t, _ := cmd.Flags().GetString("target"); t != "" {
				if target, err = parseFamily(t); err != nil {
					return err
				}
			}

			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open worksheet: %w", err)
			}
			sheet, err := worksheet.Load(f, source)
			_ = f.Close()
			if err != nil {
				return err
			}

			runner := compare.NewRunner(cc.Aggregator, cc.Logger)
			var applyErr error
			report, err := runner.Run(cmd.Context(), target, sheet.Columns, sheet.Rows,
				func(rr compare.RowResult) {
					if applyErr == nil {
						applyErr = sheet.ApplyResult(rr.Index, rr.Result)
					}
				},
				func(pct int) {
					fmt.Fprintf(cmd.ErrOrStderr(), "\rcomparing... %3d%%", pct)
				})
			if report.Processed > 0 {
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			if err != nil {
				return err
			}
			if applyErr != nil {
				return applyErr
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "compared %d rows against %s (run %s)\n",
				report.Processed, string(target), report.ID)

			out := cmd.OutOrStdout()
			if path, _ := cmd.Flags().GetString("out"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			return sheet.Write(out)
		},
	}
	cmd.Flags().String("target", "", "dataset to search (default: the worksheet's dataset)")
	cmd.Flags().String("out", "", "write the filled worksheet to a file instead of stdout")
	return cmd
}
