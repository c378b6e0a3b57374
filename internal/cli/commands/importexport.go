package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/medtra-labs/medquery/internal/importer"
)

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <dataset> <file.csv>",
		Short: "Replace a dataset with rows from a CSV file",
		Long: `Replace a dataset with the rows of a CSV file.

The first line is treated as a header and skipped; data rows map onto the
dataset's columns by position. The previous contents of the dataset are
deleted unless --append keeps them.`,
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
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[1], err)
			}
			defer func() { _ = f.Close() }()

			im := importer.New(cc.Store, cc.Logger)
			var n int
			if appendRows, _ := cmd.Flags().GetBool("append"); appendRows {
				n, err = im.AppendCSV(cmd.Context(), f, family)
			} else {
				n, err = im.ImportCSV(cmd.Context(), f, family)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows into %s\n", n, string(family))
			return nil
		},
	}
	cmd.Flags().Bool("append", false, "keep the existing rows instead of replacing them")
	return cmd
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <dataset>",
		Short: "Export a dataset to CSV with display headers",
		Args:  cobra.ExactArgs(1),
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

			out := cmd.OutOrStdout()
			if path, _ := cmd.Flags().GetString("out"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", path, err)
				}
				defer func() { _ = f.Close() }()
				out = f
			}

			n, err := importer.New(cc.Store, cc.Logger).ExportCSV(cmd.Context(), out, family)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d rows from %s\n", n, string(family))
			return nil
		},
	}
	cmd.Flags().String("out", "", "write to a file instead of stdout")
	return cmd
}
