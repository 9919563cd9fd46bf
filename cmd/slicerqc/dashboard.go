package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"SlicerQC/internal/app"
	"SlicerQC/internal/dashboard"
	"SlicerQC/internal/domain"
	"SlicerQC/internal/shift"
)

func newDashboardCommand(ctx *commandContext) *cobra.Command {
	var dateFlag, shiftFlag string
	var summary bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the samples of one shift, per equipment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withReader(cmd, func(a *app.Application) error {
				date, sh, err := resolveInstance(a.Now(), dateFlag, shiftFlag)
				if err != nil {
					return err
				}
				board, err := a.Dashboard().View(cmd.Context(), date, sh)
				if err != nil {
					return err
				}
				if summary {
					fmt.Fprintln(cmd.OutOrStdout(), dashboard.Summarize(board))
					return nil
				}
				printBoard(cmd, board)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&dateFlag, "date", "d", "", "Shift start date YYYY-MM-DD (default: current shift)")
	cmd.Flags().StringVarP(&shiftFlag, "shift", "s", "", "Shift A/B/C or morning/afternoon/night (default: current shift)")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print the plain-text shift summary")

	return cmd
}

// resolveInstance fills missing flags from the shift instance containing now.
func resolveInstance(now time.Time, dateFlag, shiftFlag string) (string, domain.ShiftID, error) {
	date, sh := shift.InstanceAt(now)
	if dateFlag != "" {
		if _, err := time.Parse(shift.DateLayout, dateFlag); err != nil {
			return "", "", fmt.Errorf("invalid --date %q: want YYYY-MM-DD", dateFlag)
		}
		date = dateFlag
	}
	if shiftFlag != "" {
		parsed, err := domain.ParseShift(shiftFlag)
		if err != nil {
			return "", "", err
		}
		sh = parsed
	}
	return date, sh, nil
}

func printBoard(cmd *cobra.Command, board dashboard.Board) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Shift %s (%s) %s: %d samples\n", board.Shift, board.Shift.Name(), board.Date, board.Samples())
	for _, p := range board.Panels {
		fmt.Fprintf(out, "\n%s: %d samples, %d NOT OK\n", p.EquipmentID, len(p.Records), p.NotOK)
		if len(p.Records) == 0 {
			fmt.Fprintln(out, "No data for this shift.")
			continue
		}
		printRecords(out, p.Records)
	}
}
