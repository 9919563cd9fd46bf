package history

import (
	"context"
	"sync"

	"SlicerQC/internal/domain"
	"SlicerQC/internal/ports"
)

// Memory is the process-local History: append-only except for removal by id.
type Memory struct {
	mu      sync.RWMutex
	records []domain.InspectionRecord
}

var _ ports.HistoryStore = (*Memory)(nil)

// NewMemory returns an empty history.
func NewMemory() *Memory {
	return &Memory{}
}

// Append adds a committed record at the end of the collection.
func (m *Memory) Append(_ context.Context, record domain.InspectionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

// Remove deletes the record with the given id and reports whether it existed.
func (m *Memory) Remove(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records {
		if r.ID == id {
			m.records = append(m.records[:i:i], m.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// List returns a snapshot in insertion order.
func (m *Memory) List(_ context.Context) ([]domain.InspectionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.InspectionRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

// ListByDates returns records whose extracted date is one of dates.
func (m *Memory) ListByDates(_ context.Context, dates ...string) ([]domain.InspectionRecord, error) {
	want := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		want[d] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.InspectionRecord
	for _, r := range m.records {
		if _, ok := want[r.ExtractedDate]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}
