package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"SlicerQC/internal/app"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List or delete committed inspection records",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all records in the order they were saved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withReader(cmd, func(a *app.Application) error {
				records, err := a.Lifecycle().History().List(cmd.Context())
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No records.")
					return nil
				}
				printRecords(cmd.OutOrStdout(), records)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Permanently delete one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.Application) error {
				removed, err := a.Lifecycle().Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("record %s not found", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
				return nil
			})
		},
	})

	return cmd
}
