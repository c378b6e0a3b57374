package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDistinctCommand creates the distinct command.
func NewDistinctCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "distinct <dataset> <column>",
		Short: "List the distinct values of a column",
		Long: `List the distinct non-empty values of a column, sorted. Useful for
discovering filter values such as dosage forms or procurement groups.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			family, err := parseFamily(args[0])
			if err != nil {
				return err
			}
			values, err := cc.Engine.DistinctValues(cmd.Context(), family, args[1])
			if err != nil {
				return err
			}
			for _, v := range values {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
}
