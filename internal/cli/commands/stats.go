package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medtra-labs/medquery/internal/stats"
	"github.com/medtra-labs/medquery/internal/worksheet"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <dataset> <column=value>...",
		Short: "Price statistics for exactly matching rows",
		Long: `Compute the count, minimum and maximum of the dataset's price column
over rows matching every criterion exactly (trimmed, case-insensitive).

Example:
  medquery stats thuoc_generic ten_hoat_chat=Paracetamol nong_do_ham_luong=500mg`,
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

			criteria := stats.MatchCriteria{}
			for _, raw := range args[1:] {
				col, val, found := strings.Cut(raw, "=")
				if !found || col == "" {
					return fmt.Errorf("invalid criterion %q, expected column=value", raw)
				}
				criteria[col] = val
			}

			result, err := cc.Aggregator.Aggregate(cmd.Context(), family, criteria)
			if err != nil {
				return err
			}

			if outputFormat(cmd, cc.Cfg) == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"count": result.Count,
					"min":   result.Min,
					"max":   result.Max,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "count: %d\nmin:   %s\nmax:   %s\n",
				result.Count,
				worksheet.FormatCurrency(result.Min),
				worksheet.FormatCurrency(result.Max))
			return nil
		},
	}
	cmd.Flags().String("format", "", "output format (table|json)")
	return cmd
}
