package main

import (
	"bufio"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"SlicerQC/internal/app"
	"SlicerQC/internal/domain"
)

type inspectOptions struct {
	equipment  string
	variant    string
	solidRange string
	yes        bool
	discard    bool
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var opts inspectOptions

	cmd := &cobra.Command{
		Use:   "inspect IMAGE",
		Short: "Extract, classify and record one thickness report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := readImage(args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(a *app.Application) error {
				return runInspect(cmd, a, img, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.equipment, "equipment", "e", "", "Equipment identifier (default: first configured)")
	cmd.Flags().StringVarP(&opts.variant, "variant", "v", "", "Product variant: FC or RC (default FC)")
	cmd.Flags().StringVarP(&opts.solidRange, "range", "r", "", "Solid range label, e.g. \"19.5 - 20.5\"")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Commit the draft without asking")
	cmd.Flags().BoolVar(&opts.discard, "discard", false, "Show the draft and discard it")
	cmd.MarkFlagsMutuallyExclusive("yes", "discard")

	return cmd
}

func readImage(path string) (domain.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Image{}, fmt.Errorf("read image: %w", err)
	}
	mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mediaType == "" {
		mediaType = http.DetectContentType(data)
	}
	return domain.Image{Name: filepath.Base(path), MediaType: mediaType, Data: data}, nil
}

func runInspect(cmd *cobra.Command, a *app.Application, img domain.Image, opts inspectOptions) error {
	out := cmd.OutOrStdout()
	lc := a.Lifecycle()

	sel := a.DefaultSelection()
	if opts.equipment != "" {
		if !slices.Contains(a.Equipment(), opts.equipment) {
			return fmt.Errorf("unknown equipment %q (configured: %s)", opts.equipment, strings.Join(a.Equipment(), ", "))
		}
		sel.EquipmentID = opts.equipment
	}
	if err := lc.Begin(sel); err != nil {
		return err
	}
	if opts.variant != "" {
		v, err := domain.ParseVariant(opts.variant)
		if err != nil {
			return err
		}
		if err := lc.SetVariant(v); err != nil {
			return err
		}
	}
	if opts.solidRange != "" {
		if err := lc.SetSolidRange(opts.solidRange); err != nil {
			return fmt.Errorf("select solid range: %w", err)
		}
	}

	draft, err := lc.Submit(cmd.Context(), img)
	if err != nil {
		return err
	}
	printRecords(out, []domain.InspectionRecord{draft})

	commit := opts.yes
	if !opts.yes && !opts.discard {
		if !isTerminal(cmd.InOrStdin()) {
			_ = lc.Discard()
			return fmt.Errorf("draft not saved: pass --yes to commit without a terminal")
		}
		commit = confirm(cmd.InOrStdin(), out, "Save this record? [y/N] ")
	}

	if !commit {
		if err := lc.Discard(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Draft discarded.")
		return nil
	}

	res, err := lc.Commit(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %s: %s\n", res.Record.ID, res.Record.Status)
	if res.Alerted {
		fmt.Fprintln(out, "Alert sent.")
	}
	if res.AlertErr != nil {
		fmt.Fprintf(out, "Warning: alert delivery failed: %v\n", res.AlertErr)
	}
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
