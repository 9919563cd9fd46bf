package main

import (
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"SlicerQC/internal/domain"
)

// newTable starts a rounded go-pretty table; rightAligned lists 1-based
// numeric columns.
func newTable(header table.Row, rightAligned ...int) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(header)

	configs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, n := range rightAligned {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw
}

func isTerminal(v any) bool {
	file, ok := v.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func statusText(status domain.ResultStatus, colorize bool) string {
	label := string(status)
	if status != domain.StatusOK {
		label = "NOT OK (" + label + ")"
	}
	if !colorize {
		return label
	}
	if status == domain.StatusOK {
		return text.FgGreen.Sprint(label)
	}
	return text.FgRed.Sprint(label)
}

func formatMM(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'f', 3, 64)
}

func formatBand(lower, upper float64) string {
	return strconv.FormatFloat(lower, 'f', 3, 64) + " - " + strconv.FormatFloat(upper, 'f', 3, 64)
}

func recordTable(records []domain.InspectionRecord, colorize bool) string {
	tw := newTable(table.Row{"ID", "Report time", "Equipment", "Variant", "Solid range", "X-bar (mm)", "Spec (mm)", "Status"}, 6, 7)
	for _, r := range records {
		tw.AppendRow(table.Row{
			r.ID,
			r.ExtractedDate + " " + r.ExtractedTime,
			r.EquipmentID,
			string(r.Variant),
			r.SolidRange,
			formatMM(r.MeasuredXBar),
			formatBand(r.Lower, r.Upper),
			statusText(r.Status, colorize),
		})
	}
	return tw.Render()
}

func specTable(entries []domain.SpecEntry) string {
	tw := newTable(table.Row{"Variant", "Solid range (%)", "Lower (mm)", "Upper (mm)"}, 3, 4)
	for _, e := range entries {
		tw.AppendRow(table.Row{
			string(e.Variant) + " (" + e.Variant.Name() + ")",
			e.SolidRange,
			strconv.FormatFloat(e.Lower, 'f', 3, 64),
			strconv.FormatFloat(e.Upper, 'f', 3, 64),
		})
	}
	return tw.Render()
}

func printRecords(w io.Writer, records []domain.InspectionRecord) {
	_, _ = io.WriteString(w, recordTable(records, isTerminal(w))+"\n")
}
