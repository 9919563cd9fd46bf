package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"SlicerQC/internal/app"
	"SlicerQC/internal/domain"
)

func newSpecsCommand(ctx *commandContext) *cobra.Command {
	var variantFlag string

	cmd := &cobra.Command{
		Use:   "specs",
		Short: "Show the thickness tolerance table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var only domain.Variant
			if variantFlag != "" {
				v, err := domain.ParseVariant(variantFlag)
				if err != nil {
					return err
				}
				only = v
			}

			return ctx.withReader(cmd, func(a *app.Application) error {
				var entries []domain.SpecEntry
				for _, e := range a.Specs().Entries() {
					if only != "" && e.Variant != only {
						continue
					}
					entries = append(entries, e)
				}
				fmt.Fprintln(cmd.OutOrStdout(), specTable(entries))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&variantFlag, "variant", "v", "", "Only show FC or RC")
	return cmd
}
