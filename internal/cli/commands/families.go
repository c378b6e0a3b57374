package commands

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/medtra-labs/medquery/internal/schema"
)

// NewFamiliesCommand creates the families command.
func NewFamiliesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "families",
		Short: "List the available datasets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"dataset", "name", "price column", "criteria columns"})

			for _, family := range schema.Families() {
				name, err := schema.DisplayName(family)
				if err != nil {
					return err
				}
				priceCol, err := schema.PriceColumn(family)
				if err != nil {
					return err
				}
				criteria, err := schema.CriteriaColumns(family)
				if err != nil {
					return err
				}
				t.AppendRow(table.Row{string(family), name, priceCol, strings.Join(criteria, ", ")})
			}
			t.Render()
			return nil
		},
	}
}
