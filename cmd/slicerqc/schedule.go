package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"SlicerQC/internal/app"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Post shift summaries at every shift boundary until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withReader(cmd, func(a *app.Application) error {
				if once {
					if err := a.Report(cmd.Context(), a.Now()); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Summary posted.")
					return nil
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return a.Run(runCtx)
			})
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Post the summary of the last finished shift and exit")
	return cmd
}
