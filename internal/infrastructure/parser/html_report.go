package parser

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"SlicerQC/internal/domain"
	"SlicerQC/internal/extraction"
)

var (
	dateExpr   = regexp.MustCompile(`\d{4}[/-]\d{1,2}[/-]\d{1,2}`)
	timeExpr   = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)
	numberExpr = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)
	labelClean = regexp.MustCompile(`[^a-z̄]+`)
)

type field int

const (
	fieldNone field = iota
	fieldDate
	fieldTime
	fieldDateTime
	fieldMax
	fieldMin
	fieldXBar
)

// HTMLReportExtractor reads thickness gauge reports exported as HTML tables.
// Both label/value rows and a header row followed by a data row are understood.
type HTMLReportExtractor struct{}

var _ extraction.Strategy = (*HTMLReportExtractor)(nil)

// NewHTMLReportExtractor builds the parser strategy.
func NewHTMLReportExtractor() *HTMLReportExtractor {
	return &HTMLReportExtractor{}
}

// Name identifies the strategy inside the registry.
func (h *HTMLReportExtractor) Name() string {
	return "html"
}

// Extract parses the report document and returns whatever fields it contains.
func (h *HTMLReportExtractor) Extract(_ context.Context, img domain.Image) (domain.ExtractionResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(img.Data))
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("parse document: %w", err)
	}

	var result domain.ExtractionResult
	found := 0

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() == 0 {
			return
		}

		headers := rows.First().Find("th")
		if headers.Length() > 2 {
			found += extractColumns(headers, rows, &result)
			return
		}

		rows.Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("th, td")
			if cells.Length() < 2 {
				return
			}
			label := classify(cells.Eq(0).Text())
			if assign(&result, label, cells.Eq(1).Text()) {
				found++
			}
		})
	})

	if found == 0 {
		return domain.ExtractionResult{}, fmt.Errorf("no measurement fields found in report %q", img.Name)
	}
	return result, nil
}

func extractColumns(headers, rows *goquery.Selection, result *domain.ExtractionResult) int {
	columns := make([]field, headers.Length())
	headers.Each(func(i int, th *goquery.Selection) {
		columns[i] = classify(th.Text())
	})

	found := 0
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i == 0 {
			return true
		}
		cells := row.Find("td")
		if cells.Length() == 0 {
			return true
		}
		cells.Each(func(j int, cell *goquery.Selection) {
			if j < len(columns) && assign(result, columns[j], cell.Text()) {
				found++
			}
		})
		return false
	})
	return found
}

func classify(label string) field {
	l := labelClean.ReplaceAllString(strings.ToLower(label), "")
	switch {
	case strings.Contains(l, "xbar"), strings.Contains(l, "x̄"), strings.Contains(l, "average"), strings.Contains(l, "mean"):
		return fieldXBar
	case strings.HasPrefix(l, "max"):
		return fieldMax
	case strings.HasPrefix(l, "min"):
		return fieldMin
	case strings.Contains(l, "date") && strings.Contains(l, "time"):
		return fieldDateTime
	case strings.Contains(l, "date"):
		return fieldDate
	case strings.Contains(l, "time"):
		return fieldTime
	default:
		return fieldNone
	}
}

func assign(result *domain.ExtractionResult, f field, raw string) bool {
	raw = strings.TrimSpace(raw)
	switch f {
	case fieldDate, fieldDateTime:
		ok := false
		if d := dateExpr.FindString(raw); d != "" {
			result.Date = &d
			ok = true
		}
		if t := timeExpr.FindString(raw); t != "" && result.Time == nil {
			result.Time = &t
			ok = true
		}
		return ok
	case fieldTime:
		if t := timeExpr.FindString(raw); t != "" {
			result.Time = &t
			return true
		}
	case fieldMax:
		return setNumber(&result.MaxThickness, raw)
	case fieldMin:
		return setNumber(&result.MinThickness, raw)
	case fieldXBar:
		return setNumber(&result.XBar, raw)
	}
	return false
}

func setNumber(dst **float64, raw string) bool {
	m := numberExpr.FindString(raw)
	if m == "" {
		return false
	}
	v, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return false
	}
	*dst = &v
	return true
}
