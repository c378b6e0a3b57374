package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/medtra-labs/medquery/internal/remote"
	"github.com/medtra-labs/medquery/internal/schema"
	"github.com/medtra-labs/medquery/internal/store"
)

// NewSyncCommand creates the sync command group.
func NewSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync datasets with the remote endpoint",
	}
	cmd.AddCommand(newSyncPullCommand())
	cmd.AddCommand(newSyncPushCommand())
	cmd.AddCommand(newSyncStatusCommand())
	return cmd
}

// familiesFromArgs resolves dataset arguments, defaulting to all families.
func familiesFromArgs(args []string) ([]schema.Family, error) {
	if len(args) == 0 {
		return schema.Families(), nil
	}
	families := make([]schema.Family, 0, len(args))
	for _, arg := range args {
		f, err := parseFamily(arg)
		if err != nil {
			return nil, err
		}
		families = append(families, f)
	}
	return families, nil
}

func remoteClient(cc *CommandContext) (*remote.Client, error) {
	return remote.NewClient(cc.Cfg.Remote.URL, cc.Cfg.Remote.AnonKey, cc.Cfg.Remote.ServiceKey, cc.Logger)
}

func newSyncPullCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pull [dataset]...",
		Short: "Replace local datasets with the remote contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			client, err := remoteClient(cc)
			if err != nil {
				return err
			}
			families, err := familiesFromArgs(args)
			if err != nil {
				return err
			}

			for _, family := range families {
				rows, err := client.FetchFamily(cmd.Context(), family, func(fetched int) {
					fmt.Fprintf(cmd.ErrOrStderr(), "\r%s: %d rows", string(family), fetched)
				})
				if err != nil {
					return err
				}
				if err := cc.Store.ReplaceAll(cmd.Context(), family, rows); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "\r%s: pulled %d rows\n", string(family), len(rows))
			}
			return nil
		},
	}
}

func newSyncPushCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "push [dataset]...",
		Short: "Replace remote datasets with the local contents",
		Long: `Replace remote datasets with the local contents. Requires the service
role key in the configuration; the anonymous key cannot write.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			client, err := remoteClient(cc)
			if err != nil {
				return err
			}
			families, err := familiesFromArgs(args)
			if err != nil {
				return err
			}

			for _, family := range families {
				rows, err := cc.Store.Select(cmd.Context(), family, nil, store.SelectOptions{})
				if err != nil {
					return err
				}
				values := make([][]string, len(rows))
				for i, row := range rows {
					values[i] = row.Values
				}
				n, err := client.PushFamily(cmd.Context(), family, values, func(pushed, total int) {
					fmt.Fprintf(cmd.ErrOrStderr(), "\r%s: %d/%d rows", string(family), pushed, total)
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "\r%s: pushed %d rows\n", string(family), n)
			}
			return nil
		},
	}
}

func newSyncStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status [dataset]...",
		Short: "Show local and remote row counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			client, err := remoteClient(cc)
			if err != nil {
				return err
			}
			families, err := familiesFromArgs(args)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"dataset", "local", "remote"})

			for _, family := range families {
				local, err := cc.Store.RowCount(cmd.Context(), family)
				if err != nil {
					return err
				}
				remoteCount, err := client.Count(cmd.Context(), family)
				if err != nil {
					return err
				}
				t.AppendRow(table.Row{string(family), local, remoteCount})
			}
			t.Render()
			return nil
		},
	}
}
