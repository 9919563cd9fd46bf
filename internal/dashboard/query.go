package dashboard

import (
	"context"
	"fmt"
	"strings"

	"SlicerQC/internal/domain"
	"SlicerQC/internal/shift"
)

// HistoryReader is the read side of the History collection.
type HistoryReader interface {
	ListByDates(ctx context.Context, dates ...string) ([]domain.InspectionRecord, error)
}

// FilterByWindow keeps the records attributable to the (date, shift) instance,
// preserving input order.
func FilterByWindow(records []domain.InspectionRecord, date string, s domain.ShiftID) []domain.InspectionRecord {
	out := make([]domain.InspectionRecord, 0, len(records))
	for _, r := range records {
		if shift.BelongsToWindow(r.ExtractedDate, r.ExtractedTime, date, s) {
			out = append(out, r)
		}
	}
	return out
}

// GroupByEquipment buckets records per known equipment id. Every id gets an
// entry, empty when it has no records. Records of unknown equipment are dropped.
func GroupByEquipment(records []domain.InspectionRecord, equipmentIDs []string) map[string][]domain.InspectionRecord {
	groups := make(map[string][]domain.InspectionRecord, len(equipmentIDs))
	for _, id := range equipmentIDs {
		groups[id] = []domain.InspectionRecord{}
	}
	for _, r := range records {
		if bucket, ok := groups[r.EquipmentID]; ok {
			groups[r.EquipmentID] = append(bucket, r)
		}
	}
	return groups
}

// Panel is one equipment's slice of the board.
type Panel struct {
	EquipmentID string
	Records     []domain.InspectionRecord
	NotOK       int
}

// Board is the per-equipment view of one shift instance.
type Board struct {
	Date   string
	Shift  domain.ShiftID
	Panels []Panel
}

// Samples counts records across all panels.
func (b Board) Samples() int {
	n := 0
	for _, p := range b.Panels {
		n += len(p.Records)
	}
	return n
}

// Engine builds boards from the History collection.
type Engine struct {
	history   HistoryReader
	equipment []string
}

// NewEngine wires the history handle and the known equipment ids.
func NewEngine(history HistoryReader, equipment []string) *Engine {
	return &Engine{history: history, equipment: equipment}
}

// View returns the board of the shift instance that started on date.
func (e *Engine) View(ctx context.Context, date string, s domain.ShiftID) (Board, error) {
	dates := []string{date}
	if s == domain.Night {
		next, err := shift.NextDate(date)
		if err != nil {
			return Board{}, err
		}
		dates = append(dates, next)
	}

	records, err := e.history.ListByDates(ctx, dates...)
	if err != nil {
		return Board{}, fmt.Errorf("list history: %w", err)
	}

	groups := GroupByEquipment(FilterByWindow(records, date, s), e.equipment)
	board := Board{Date: date, Shift: s, Panels: make([]Panel, 0, len(e.equipment))}
	for _, id := range e.equipment {
		p := Panel{EquipmentID: id, Records: groups[id]}
		for _, r := range p.Records {
			if !r.OK() {
				p.NotOK++
			}
		}
		board.Panels = append(board.Panels, p)
	}
	return board, nil
}

// Summarize renders the end-of-shift digest of a board.
func Summarize(b Board) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Shift %s (%s) %s: %d samples\n", b.Shift, b.Shift.Name(), b.Date, b.Samples())
	for _, p := range b.Panels {
		if len(p.Records) == 0 {
			fmt.Fprintf(&sb, "- %s: no data for this shift\n", p.EquipmentID)
			continue
		}
		fmt.Fprintf(&sb, "- %s: %d samples, %d OK, %d NOT OK\n", p.EquipmentID, len(p.Records), len(p.Records)-p.NotOK, p.NotOK)
	}
	return strings.TrimRight(sb.String(), "\n")
}
