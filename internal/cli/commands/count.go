package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCountCommand creates the count command.
func NewCountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count <dataset> [keyword]",
		Short: "Count matching rows in a dataset",
		Args:  cobra.RangeArgs(1, 2),
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
			keyword := ""
			if len(args) > 1 {
				keyword = args[1]
			}
			criteria, err := criteriaFromFlags(cmd, keyword)
			if err != nil {
				return err
			}

			total, err := cc.Engine.Count(cmd.Context(), family, criteria)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), total)
			return nil
		},
	}
	addCriteriaFlags(cmd)
	return cmd
}
