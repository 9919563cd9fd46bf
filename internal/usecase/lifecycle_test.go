package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SlicerQC/internal/dashboard"
	"SlicerQC/internal/domain"
	"SlicerQC/internal/history"
	"SlicerQC/internal/inspection"
	"SlicerQC/internal/specs"
)

type fakeExtractor struct {
	result domain.ExtractionResult
	err    error
	calls  int
}

func (f *fakeExtractor) Extract(_ context.Context, _ domain.Image) (domain.ExtractionResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeAlerts struct {
	mu      sync.Mutex
	history *history.Memory
	err     error
	release chan struct{}
	calls   []domain.InspectionRecord
	visible []bool
}

func (f *fakeAlerts) SendAlert(ctx context.Context, record domain.InspectionRecord) error {
	if f.release != nil {
		<-f.release
	}
	all, _ := f.history.List(ctx)
	seen := false
	for _, r := range dashboard.FilterByWindow(all, record.ExtractedDate, domain.Morning) {
		if r.ID == record.ID {
			seen = true
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, record)
	f.visible = append(f.visible, seen)
	return f.err
}

func (f *fakeAlerts) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func f64(v float64) *float64 { return &v }
func strp(v string) *string { return &v }

func newLifecycle(t *testing.T, ext *fakeExtractor, alerts *fakeAlerts, store *history.Memory) *Lifecycle {
	t.Helper()
	reg := specs.MustDefault()
	ids := 0
	return NewLifecycle(LifecycleDeps{
		Specs: reg,
		Assembler: inspection.NewAssembler(reg,
			inspection.WithClock(func() time.Time { return time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC) }),
			inspection.WithIDGenerator(func() string { ids++; return fmt.Sprintf("rec-%d", ids) }),
		),
		Extractor: ext,
		Alerts:    alerts,
		History:   store,
	})
}

func morningExtraction(xbar float64) domain.ExtractionResult {
	return domain.ExtractionResult{
		Date:         strp("2024/03/10"),
		Time:         strp("07:05"),
		MaxThickness: f64(1.70),
		MinThickness: f64(1.50),
		XBar:         f64(xbar),
	}
}

var slicer1 = domain.Selection{EquipmentID: "Slicer 1", Variant: domain.FlatCut, SolidRange: "19.5 - 20.5"}

func TestCommitOutOfRangeAlertsOnceBeforeVisible(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := history.NewMemory()
	alerts := &fakeAlerts{history: store}
	lc := newLifecycle(t, &fakeExtractor{result: morningExtraction(1.600)}, alerts, store)

	require.NoError(t, lc.Begin(slicer1))
	draft, err := lc.Submit(ctx, domain.Image{Name: "report.png"})
	require.NoError(t, err)
	assert.Equal(t, StateReviewing, lc.State())
	assert.Equal(t, domain.StatusAboveRange, draft.Status)

	res, err := lc.Commit(ctx)
	require.NoError(t, err)
	assert.True(t, res.Alerted)
	assert.NoError(t, res.AlertErr)

	require.Equal(t, 1, alerts.count())
	assert.False(t, alerts.visible[0], "record must not be visible while alerting")

	all, err := store.List(ctx)
	require.NoError(t, err)
	got := dashboard.FilterByWindow(all, "2024-03-10", domain.Morning)
	require.Len(t, got, 1)
	assert.Equal(t, draft.ID, got[0].ID)

	assert.Equal(t, StateIdle, lc.State())
	_, ok := lc.Draft()
	assert.False(t, ok)
}

func TestCommitOKDoesNotAlert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := history.NewMemory()
	alerts := &fakeAlerts{history: store}
	lc := newLifecycle(t, &fakeExtractor{result: morningExtraction(1.300)}, alerts, store)

	require.NoError(t, lc.Begin(slicer1))
	_, err := lc.Submit(ctx, domain.Image{})
	require.NoError(t, err)
	res, err := lc.Commit(ctx)
	require.NoError(t, err)

	assert.False(t, res.Alerted)
	assert.Equal(t, 0, alerts.count())
	all, _ := store.List(ctx)
	assert.Len(t, all, 1)
}

func TestCommitUnknownStatusAlerts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := history.NewMemory()
	alerts := &fakeAlerts{history: store}
	ext := morningExtraction(0)
	ext.XBar = nil
	lc := newLifecycle(t, &fakeExtractor{result: ext}, alerts, store)

	require.NoError(t, lc.Begin(slicer1))
	_, err := lc.Submit(ctx, domain.Image{})
	require.NoError(t, err)
	_, err = lc.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, alerts.count())
}

func TestAlertFailureStillCommits(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := history.NewMemory()
	alerts := &fakeAlerts{history: store, err: errors.New("smtp down")}
	lc := newLifecycle(t, &fakeExtractor{result: morningExtraction(1.000)}, alerts, store)

	require.NoError(t, lc.Begin(slicer1))
	_, err := lc.Submit(ctx, domain.Image{})
	require.NoError(t, err)

	res, err := lc.Commit(ctx)
	require.NoError(t, err)
	assert.False(t, res.Alerted)
	assert.ErrorContains(t, res.AlertErr, "smtp down")
	assert.Equal(t, domain.StatusBelowRange, res.Record.Status)

	all, _ := store.List(ctx)
	assert.Len(t, all, 1)
	assert.Equal(t, StateIdle, lc.State())
}

func TestExtractionFailureReturnsToCapturing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := history.NewMemory()
	ext := &fakeExtractor{err: errors.New("image unreadable")}
	lc := newLifecycle(t, ext, &fakeAlerts{history: store}, store)

	require.NoError(t, lc.Begin(slicer1))
	_, err := lc.Submit(ctx, domain.Image{})
	require.ErrorIs(t, err, ErrExtractionFailed)

	assert.Equal(t, StateCapturing, lc.State())
	assert.Equal(t, slicer1, lc.Selection())
	assert.Contains(t, lc.LastError(), "image unreadable")

	ext.err = nil
	ext.result = morningExtraction(1.3)
	_, err = lc.Submit(ctx, domain.Image{})
	require.NoError(t, err)
	assert.Empty(t, lc.LastError(), "error clears on the next attempt")

	all, _ := store.List(ctx)
	assert.Empty(t, all)
}

func TestSpecNotFoundReturnsToCapturing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := history.NewMemory()
	reg := specs.MustDefault()
	lc := NewLifecycle(LifecycleDeps{
		Specs:     nil,
		Assembler: inspection.NewAssembler(reg),
		Extractor: &fakeExtractor{result: morningExtraction(1.3)},
		History:   store,
	})

	require.NoError(t, lc.Begin(domain.Selection{EquipmentID: "Slicer 1", Variant: domain.FlatCut, SolidRange: "bogus"}))
	_, err := lc.Submit(ctx, domain.Image{})
	require.ErrorIs(t, err, ErrExtractionFailed)
	assert.ErrorIs(t, err, specs.ErrSpecNotFound)
	assert.Equal(t, StateCapturing, lc.State())
}

func TestDiscardHasNoSideEffects(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := history.NewMemory()
	alerts := &fakeAlerts{history: store}
	lc := newLifecycle(t, &fakeExtractor{result: morningExtraction(1.9)}, alerts, store)

	require.NoError(t, lc.Begin(slicer1))
	_, err := lc.Submit(ctx, domain.Image{})
	require.NoError(t, err)
	require.NoError(t, lc.Discard())

	assert.Equal(t, StateDiscarded, lc.State())
	assert.Equal(t, 0, alerts.count())
	all, _ := store.List(ctx)
	assert.Empty(t, all)

	_, err = lc.Commit(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	require.NoError(t, lc.Begin(slicer1))
}

func TestSecondCommitRejectedWhileAlerting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := history.NewMemory()
	alerts := &fakeAlerts{history: store, release: make(chan struct{})}
	lc := newLifecycle(t, &fakeExtractor{result: morningExtraction(1.9)}, alerts, store)

	require.NoError(t, lc.Begin(slicer1))
	_, err := lc.Submit(ctx, domain.Image{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := lc.Commit(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return lc.State() == StateCommitting }, time.Second, time.Millisecond)
	_, err = lc.Commit(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, lc.Begin(slicer1), ErrInvalidTransition)

	close(alerts.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, alerts.count())

	all, _ := store.List(ctx)
	assert.Len(t, all, 1)
}

func TestSetVariantFallsBackToFirstRange(t *testing.T) {
	t.Parallel()

	store := history.NewMemory()
	lc := newLifecycle(t, &fakeExtractor{}, &fakeAlerts{history: store}, store)

	require.NoError(t, lc.Begin(slicer1))
	require.NoError(t, lc.SetVariant(domain.RidgeCut))
	assert.Equal(t, "19.5 - 20.5", lc.Selection().SolidRange, "label shared by both variants is kept")

	require.NoError(t, lc.SetSolidRange("24.5 - 27"))
	require.Error(t, lc.SetSolidRange("nope"))
	assert.Equal(t, "24.5 - 27", lc.Selection().SolidRange)

	require.NoError(t, lc.SetEquipment("Slicer 3"))
	assert.Equal(t, "Slicer 3", lc.Selection().EquipmentID)
}

func TestBeginNormalizesUnknownRange(t *testing.T) {
	t.Parallel()

	store := history.NewMemory()
	lc := newLifecycle(t, &fakeExtractor{}, &fakeAlerts{history: store}, store)

	require.NoError(t, lc.Begin(domain.Selection{EquipmentID: "Slicer 2", Variant: domain.RidgeCut, SolidRange: "stale"}))
	assert.Equal(t, "17 - 18.5", lc.Selection().SolidRange)
}

func TestInvalidTransitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := history.NewMemory()
	lc := newLifecycle(t, &fakeExtractor{}, &fakeAlerts{history: store}, store)

	_, err := lc.Submit(ctx, domain.Image{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, lc.Discard(), ErrInvalidTransition)
	_, err = lc.Commit(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, lc.SetVariant(domain.RidgeCut), ErrInvalidTransition)
}

func TestDeleteIsPermanent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := history.NewMemory()
	lc := newLifecycle(t, &fakeExtractor{result: morningExtraction(1.3)}, &fakeAlerts{history: store}, store)

	require.NoError(t, lc.Begin(slicer1))
	draft, err := lc.Submit(ctx, domain.Image{})
	require.NoError(t, err)
	_, err = lc.Commit(ctx)
	require.NoError(t, err)

	removed, err := lc.Delete(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	board, err := dashboard.NewEngine(lc.History(), []string{"Slicer 1"}).View(ctx, "2024-03-10", domain.Morning)
	require.NoError(t, err)
	assert.Empty(t, board.Panels[0].Records)

	removed, err = lc.Delete(ctx, draft.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}
