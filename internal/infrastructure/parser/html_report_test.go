package parser

import (
	"context"
	"testing"

	"SlicerQC/internal/domain"
)

func TestExtractLabelValueRows(t *testing.T) {
	t.Parallel()

	html := `
	<html><body>
	  <h1>Thickness Measurement Report</h1>
	  <table>
	    <tr><th>Date</th><td>2024/03/10</td></tr>
	    <tr><th>Time</th><td>07:05</td></tr>
	    <tr><td>Maximum thickness (mm)</td><td>1.70 mm</td></tr>
	    <tr><td>Minimum thickness (mm)</td><td>1,50</td></tr>
	    <tr><td>X-bar</td><td>1.600</td></tr>
	    <tr><td>Operator</td><td>J. Doe</td></tr>
	  </table>
	</body></html>`

	res, err := NewHTMLReportExtractor().Extract(context.Background(), domain.Image{Name: "report.html", Data: []byte(html)})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	if res.Date == nil || *res.Date != "2024/03/10" {
		t.Fatalf("unexpected date: %v", res.Date)
	}
	if res.Time == nil || *res.Time != "07:05" {
		t.Fatalf("unexpected time: %v", res.Time)
	}
	if res.MaxThickness == nil || *res.MaxThickness != 1.70 {
		t.Fatalf("unexpected max: %v", res.MaxThickness)
	}
	if res.MinThickness == nil || *res.MinThickness != 1.50 {
		t.Fatalf("unexpected min: %v", res.MinThickness)
	}
	if res.XBar == nil || *res.XBar != 1.600 {
		t.Fatalf("unexpected x-bar: %v", res.XBar)
	}
}

func TestExtractColumnarTable(t *testing.T) {
	t.Parallel()

	html := `
	<table>
	  <tr><th>Date / Time</th><th>Max</th><th>Min</th><th>Average thickness</th></tr>
	  <tr><td>2024-03-11 05:45</td><td>1.61</td><td>1.20</td><td>1.402</td></tr>
	  <tr><td>2024-03-11 06:45</td><td>9</td><td>9</td><td>9</td></tr>
	</table>`

	res, err := NewHTMLReportExtractor().Extract(context.Background(), domain.Image{Data: []byte(html)})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	if res.Date == nil || *res.Date != "2024-03-11" {
		t.Fatalf("unexpected date: %v", res.Date)
	}
	if res.Time == nil || *res.Time != "05:45" {
		t.Fatalf("unexpected time: %v", res.Time)
	}
	if res.XBar == nil || *res.XBar != 1.402 {
		t.Fatalf("unexpected x-bar: %v", res.XBar)
	}
	if res.MaxThickness == nil || *res.MaxThickness != 1.61 {
		t.Fatalf("unexpected max: %v", res.MaxThickness)
	}
}

func TestExtractLeavesUnreadableFieldsNil(t *testing.T) {
	t.Parallel()

	html := `<table><tr><td>X-bar</td><td>1.25</td></tr><tr><td>Date</td><td>smudged</td></tr></table>`

	res, err := NewHTMLReportExtractor().Extract(context.Background(), domain.Image{Data: []byte(html)})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if res.Date != nil || res.Time != nil || res.MaxThickness != nil {
		t.Fatalf("expected absent fields, got %+v", res)
	}
	if res.XBar == nil || *res.XBar != 1.25 {
		t.Fatalf("unexpected x-bar: %v", res.XBar)
	}
}

func TestExtractFailsWithoutFields(t *testing.T) {
	t.Parallel()

	_, err := NewHTMLReportExtractor().Extract(context.Background(), domain.Image{Name: "blank.html", Data: []byte("<p>nothing here</p>")})
	if err == nil {
		t.Fatalf("expected error for report without fields")
	}
}

func TestClassifyLabels(t *testing.T) {
	t.Parallel()

	cases := map[string]field{
		"X-Bar":         fieldXBar,
		"x̄ (mm)":       fieldXBar,
		"Mean":          fieldXBar,
		"Max thickness": fieldMax,
		"Minimum":       fieldMin,
		"Date/Time":     fieldDateTime,
		"Report date":   fieldDate,
		"Time":          fieldTime,
		"Operator":      fieldNone,
	}
	for label, want := range cases {
		if got := classify(label); got != want {
			t.Fatalf("classify(%q) = %v, want %v", label, got, want)
		}
	}
}
