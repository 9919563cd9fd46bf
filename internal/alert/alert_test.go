package alert

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SlicerQC/internal/domain"
)

type stubNotifier struct {
	name string
	err  error

	mu       sync.Mutex
	subjects []string
	bodies   []string
}

func (s *stubNotifier) Name() string { return s.name }

func (s *stubNotifier) Publish(_ context.Context, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects = append(s.subjects, subject)
	s.bodies = append(s.bodies, body)
	return s.err
}

func sampleRecord() domain.InspectionRecord {
	x := 1.6
	return domain.InspectionRecord{
		ID:            "r1",
		EquipmentID:   "Slicer 1",
		Variant:       domain.FlatCut,
		SolidRange:    "19.5 - 20.5",
		ExtractedDate: "2024-03-10",
		ExtractedTime: "07:05",
		MeasuredXBar:  &x,
		Lower:         1.143,
		Upper:         1.549,
		Status:        domain.StatusAboveRange,
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	subject, body := Format(sampleRecord())
	assert.Equal(t, "Slice Thickness Alert – Slicer 1", subject)
	assert.Contains(t, body, "Variant: FC (19.5 - 20.5%)")
	assert.Contains(t, body, "Measured X-bar: 1.600 mm")
	assert.Contains(t, body, "Specification: 1.143 – 1.549 mm")
	assert.Contains(t, body, "Status: OUT_OF_RANGE_HIGH")
	assert.Contains(t, body, "Report Timestamp: 2024-03-10 07:05")

	rec := sampleRecord()
	rec.MeasuredXBar = nil
	rec.Status = domain.StatusUnknown
	_, body = Format(rec)
	assert.Contains(t, body, "Measured X-bar: n/a")
}

func TestDispatcherFansOutAndJoinsErrors(t *testing.T) {
	t.Parallel()

	ok := &stubNotifier{name: "slack"}
	broken := &stubNotifier{name: "email", err: errors.New("connection refused")}
	d := NewDispatcher(nil, ok, nil, broken)

	err := d.SendAlert(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.ErrorContains(t, err, "email: connection refused")
	assert.NotContains(t, err.Error(), "slack")

	assert.Len(t, ok.subjects, 1)
	assert.Len(t, broken.subjects, 1)
}

func TestDispatcherWithoutNotifiersSucceeds(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(nil)
	assert.NoError(t, d.SendAlert(context.Background(), sampleRecord()))
}

func TestDispatcherReportsEveryFailure(t *testing.T) {
	t.Parallel()

	slack := &stubNotifier{name: "slack", err: errors.New("rate limited")}
	email := &stubNotifier{name: "email", err: errors.New("connection refused")}
	telegram := &stubNotifier{name: "telegram"}
	d := NewDispatcher(nil, slack, email, telegram)

	err := d.Publish(context.Background(), "s", "b")
	require.Error(t, err)
	assert.ErrorContains(t, err, "slack: rate limited")
	assert.ErrorContains(t, err, "email: connection refused")
	assert.Len(t, telegram.subjects, 1)

	assert.NoError(t, NewDispatcher(nil, telegram).Publish(context.Background(), "s", "b"))
}
