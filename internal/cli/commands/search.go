package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medtra-labs/medquery/internal/predicate"
	"github.com/medtra-labs/medquery/internal/query"
	"github.com/medtra-labs/medquery/internal/schema"
)

// addCriteriaFlags registers the flags shared by search and count.
func addCriteriaFlags(cmd *cobra.Command) {
	cmd.Flags().String("column", "", "restrict the keyword to one column")
	cmd.Flags().StringArray("filter", nil, "column=value substring filter (repeatable)")
	cmd.Flags().String("date-column", "", "date column for --from/--to")
	cmd.Flags().String("from", "", "start date (DD/MM/YYYY, inclusive)")
	cmd.Flags().String("to", "", "end date (DD/MM/YYYY, inclusive)")
}

// criteriaFromFlags assembles search criteria from the shared flags.
func criteriaFromFlags(cmd *cobra.Command, keyword string) (query.Criteria, error) {
	c := query.Criteria{Keyword: keyword}
	c.SearchColumn, _ = cmd.Flags().GetString("column")

	rawFilters, _ := cmd.Flags().GetStringArray("filter")
	for _, raw := range rawFilters {
		col, val, found := strings.Cut(raw, "=")
		if !found || col == "" {
			return query.Criteria{}, fmt.Errorf("invalid --filter %q, expected column=value", raw)
		}
		c.Filters = append(c.Filters, predicate.Filter{Column: col, Value: val})
	}

	dateCol, _ := cmd.Flags().GetString("date-column")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	if dateCol != "" && (from != "" || to != "") {
		c.Dates = &predicate.Dates{Column: dateCol, Start: from, End: to}
	}
	return c, nil
}

// NewSearchCommand creates the search command.
func NewSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <dataset> [keyword]",
		Short: "Search a dataset",
		Long: `Search a dataset by keyword and filters.

The keyword matches case-insensitively with spaces ignored, across all
columns unless --column narrows it. Filters are substring matches with the
same normalization; --from/--to bound a DD/MM/YYYY date column.`,
		Args: cobra.RangeArgs(1, 2),
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
			criteria.SortColumn, _ = cmd.Flags().GetString("sort")
			criteria.SortOrder, _ = cmd.Flags().GetString("order")
			criteria.Limit, _ = cmd.Flags().GetInt("limit")
			criteria.Offset, _ = cmd.Flags().GetInt("offset")
			if !cmd.Flags().Changed("limit") {
				criteria.Limit = cc.Cfg.PageSize
			}

			total, err := cc.Engine.Count(cmd.Context(), family, criteria)
			if err != nil {
				return err
			}
			rows, err := cc.Engine.Fetch(cmd.Context(), family, criteria)
			if err != nil {
				return err
			}

			headers, err := schema.Headers(family)
			if err != nil {
				return err
			}
			if err := renderRows(cmd.OutOrStdout(), headers, rows, outputFormat(cmd, cc.Cfg)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d matching rows\n", len(rows), total)
			return nil
		},
	}

	addCriteriaFlags(cmd)
	cmd.Flags().String("sort", "", "column to sort by")
	cmd.Flags().String("order", "ASC", "sort order (ASC|DESC)")
	cmd.Flags().Int("limit", 0, "maximum rows to return (default: configured page size)")
	cmd.Flags().Int("offset", 0, "rows to skip (requires --limit)")
	cmd.Flags().String("format", "", "output format (table|json|csv)")
	return cmd
}
