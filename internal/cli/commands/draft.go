package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/medtra-labs/medquery/internal/worksheet"
)

// NewDraftCommand creates the draft command group.
func NewDraftCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Save and restore worksheet drafts",
		Long: `Save a worksheet CSV as a draft in the drafts directory, or restore a
previously saved draft back to CSV. One draft is kept per dataset.`,
	}
	cmd.AddCommand(newDraftSaveCommand())
	cmd.AddCommand(newDraftLoadCommand())
	return cmd
}

func newDraftSaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save <dataset> <worksheet.csv>",
		Short: "Save a worksheet CSV as the dataset's draft",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd)

			family, err := parseFamily(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open worksheet: %w", err)
			}
			sheet, err := worksheet.Load(f, family)
			_ = f.Close()
			if err != nil {
				return err
			}

			if err := sheet.SaveDraft(cfg.DraftsDir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d rows to %s\n",
				len(sheet.Rows), worksheet.DraftPath(cfg.DraftsDir, family))
			return nil
		},
	}
}

func newDraftLoadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <dataset>",
		Short: "Restore the dataset's draft as a worksheet CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd)

			family, err := parseFamily(args[0])
			if err != nil {
				return err
			}
			sheet, err := worksheet.LoadDraft(cfg.DraftsDir, family)
			if err != nil {
				return err
			}

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
	cmd.Flags().String("out", "", "write the worksheet to a file instead of stdout")
	return cmd
}
