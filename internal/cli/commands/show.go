package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/medtra-labs/medquery/internal/compare"
	"github.com/medtra-labs/medquery/internal/schema"
	"github.com/medtra-labs/medquery/internal/worksheet"
)

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <dataset> <id>...",
		Short: "Show records by id",
		Long: `Show specific records of a dataset by their id, as listed in search
results. With --price, print each record's normalized price instead,
the way a manually chosen reference record is priced.`,
		Args: cobra.MinimumNArgs(2),
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
			ids := make([]int64, 0, len(args)-1)
			for _, raw := range args[1:] {
				id, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid id %q", raw)
				}
				ids = append(ids, id)
			}

			rows, err := cc.Engine.FetchByIDs(cmd.Context(), family, ids)
			if err != nil {
				return err
			}

			if priceOnly, _ := cmd.Flags().GetBool("price"); priceOnly {
				for _, row := range rows {
					price, err := compare.PriceOf(family, row.Values)
					if err != nil {
						return fmt.Errorf("record %d: %w", row.ID, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", row.ID, worksheet.FormatCurrency(price))
				}
				return nil
			}

			headers, err := schema.Headers(family)
			if err != nil {
				return err
			}
			return renderRows(cmd.OutOrStdout(), headers, rows, outputFormat(cmd, cc.Cfg))
		},
	}
	cmd.Flags().Bool("price", false, "print only the normalized price of each record")
	cmd.Flags().String("format", "", "output format (table|json|csv)")
	return cmd
}
