package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"SlicerQC/internal/domain"
	"SlicerQC/internal/ports"
)

// State is a step of the inspection workflow.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateExtracting
	StateReviewing
	StateCommitting
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateExtracting:
		return "extracting"
	case StateReviewing:
		return "reviewing"
	case StateCommitting:
		return "committing"
	case StateDiscarded:
		return "discarded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrInvalidTransition is returned when an operation is not allowed in the current state.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	// ErrExtractionFailed wraps extraction and assembly failures of one attempt.
	ErrExtractionFailed = errors.New("extraction failed")
)

// SpecCatalog resolves and re-validates selections.
type SpecCatalog interface {
	Lookup(variant domain.Variant, solidRange string) (domain.SpecEntry, error)
	Normalize(sel domain.Selection) domain.Selection
}

// RecordAssembler builds a draft record from an extraction.
type RecordAssembler interface {
	Assemble(ext domain.ExtractionResult, sel domain.Selection) (domain.InspectionRecord, error)
}

// LifecycleDeps wires collaborators into the inspection workflow.
type LifecycleDeps struct {
	Specs     SpecCatalog
	Assembler RecordAssembler
	Extractor ports.Extractor
	Alerts    ports.AlertSender
	History   ports.HistoryStore
	Logger    *slog.Logger
}

// CommitResult reports what happened while committing a draft.
type CommitResult struct {
	Record   domain.InspectionRecord
	Alerted  bool
	AlertErr error
}

// Lifecycle runs one inspection attempt at a time:
// capture -> extract -> review -> commit (or discard).
type Lifecycle struct {
	specs     SpecCatalog
	assembler RecordAssembler
	extractor ports.Extractor
	alerts    ports.AlertSender
	history   ports.HistoryStore
	logger    *slog.Logger

	mu        sync.Mutex
	state     State
	selection domain.Selection
	draft     *domain.InspectionRecord
	lastErr   string
}

// NewLifecycle constructs the workflow in the Idle state.
func NewLifecycle(deps LifecycleDeps) *Lifecycle {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Lifecycle{
		specs:     deps.Specs,
		assembler: deps.Assembler,
		extractor: deps.Extractor,
		alerts:    deps.Alerts,
		history:   deps.History,
		logger:    logger,
		state:     StateIdle,
	}
}

// State returns the current workflow state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Selection returns the active equipment/variant/solid-range selection.
func (l *Lifecycle) Selection() domain.Selection {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selection
}

// Draft returns the record under review, if any.
func (l *Lifecycle) Draft() (domain.InspectionRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.draft == nil {
		return domain.InspectionRecord{}, false
	}
	return *l.draft, true
}

// LastError is the operator-facing message of the last failed attempt.
func (l *Lifecycle) LastError() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// History exposes the committed-records handle for dashboard queries.
func (l *Lifecycle) History() ports.HistoryStore {
	return l.history
}

// Begin enters Capturing with a normalized selection.
func (l *Lifecycle) Begin(sel domain.Selection) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case StateIdle, StateCapturing, StateDiscarded:
	default:
		return fmt.Errorf("%w: begin from %s", ErrInvalidTransition, l.state)
	}
	l.selection = l.normalize(sel)
	l.state = StateCapturing
	return nil
}

// SetEquipment changes the selected equipment while capturing.
func (l *Lifecycle) SetEquipment(id string) error {
	return l.mutateSelection(func(sel domain.Selection) (domain.Selection, error) {
		sel.EquipmentID = id
		return sel, nil
	})
}

// SetVariant changes the variant and re-validates the solid range.
func (l *Lifecycle) SetVariant(v domain.Variant) error {
	return l.mutateSelection(func(sel domain.Selection) (domain.Selection, error) {
		sel.Variant = v
		return l.normalize(sel), nil
	})
}

// SetSolidRange picks a solid range; it must exist for the current variant.
func (l *Lifecycle) SetSolidRange(label string) error {
	return l.mutateSelection(func(sel domain.Selection) (domain.Selection, error) {
		if l.specs != nil {
			if _, err := l.specs.Lookup(sel.Variant, label); err != nil {
				return sel, err
			}
		}
		sel.SolidRange = label
		return sel, nil
	})
}

func (l *Lifecycle) mutateSelection(fn func(domain.Selection) (domain.Selection, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateCapturing {
		return fmt.Errorf("%w: change selection while %s", ErrInvalidTransition, l.state)
	}
	next, err := fn(l.selection)
	if err != nil {
		return err
	}
	l.selection = next
	return nil
}

func (l *Lifecycle) normalize(sel domain.Selection) domain.Selection {
	if l.specs == nil {
		return sel
	}
	return l.specs.Normalize(sel)
}

// Submit sends a captured image to the extractor and assembles the draft.
// On failure the workflow returns to Capturing with the selection preserved.
func (l *Lifecycle) Submit(ctx context.Context, img domain.Image) (domain.InspectionRecord, error) {
	l.mu.Lock()
	if l.state != StateCapturing {
		state := l.state
		l.mu.Unlock()
		return domain.InspectionRecord{}, fmt.Errorf("%w: submit while %s", ErrInvalidTransition, state)
	}
	l.state = StateExtracting
	l.lastErr = ""
	sel := l.selection
	l.mu.Unlock()

	record, err := l.extractAndAssemble(ctx, img, sel)
	if err != nil {
		l.mu.Lock()
		l.state = StateCapturing
		l.lastErr = err.Error()
		l.mu.Unlock()

		l.logger.Warn("inspection attempt failed", "equipment", sel.EquipmentID, "image", img.Name, "error", err)
		return domain.InspectionRecord{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	l.mu.Lock()
	l.draft = &record
	l.state = StateReviewing
	l.mu.Unlock()

	l.logger.Debug("draft ready", "id", record.ID, "equipment", record.EquipmentID, "status", record.Status)
	return record, nil
}

func (l *Lifecycle) extractAndAssemble(ctx context.Context, img domain.Image, sel domain.Selection) (domain.InspectionRecord, error) {
	if l.extractor == nil {
		return domain.InspectionRecord{}, fmt.Errorf("extractor is not configured")
	}
	if l.assembler == nil {
		return domain.InspectionRecord{}, fmt.Errorf("assembler is not configured")
	}

	ext, err := l.extractor.Extract(ctx, img)
	if err != nil {
		return domain.InspectionRecord{}, fmt.Errorf("extract report: %w", err)
	}

	record, err := l.assembler.Assemble(ext, sel)
	if err != nil {
		return domain.InspectionRecord{}, fmt.Errorf("assemble record: %w", err)
	}
	return record, nil
}

// Discard drops the draft under review without side effects.
func (l *Lifecycle) Discard() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateReviewing {
		return fmt.Errorf("%w: discard while %s", ErrInvalidTransition, l.state)
	}
	l.draft = nil
	l.state = StateDiscarded
	return nil
}

// Commit accepts the draft. A record that is not OK is alerted first, and the
// alert is awaited before the record is appended to History. Alert failures
// do not block the commit; they are logged and reported in CommitResult.
func (l *Lifecycle) Commit(ctx context.Context) (CommitResult, error) {
	l.mu.Lock()
	if l.state != StateReviewing || l.draft == nil {
		state := l.state
		l.mu.Unlock()
		return CommitResult{}, fmt.Errorf("%w: commit while %s", ErrInvalidTransition, state)
	}
	l.state = StateCommitting
	record := *l.draft
	l.mu.Unlock()

	result := CommitResult{Record: record}
	if !record.OK() {
		result.Alerted, result.AlertErr = l.dispatchAlert(ctx, record)
	}

	if l.history != nil {
		if err := l.history.Append(ctx, record); err != nil {
			l.mu.Lock()
			l.state = StateReviewing
			l.mu.Unlock()
			return result, fmt.Errorf("append history: %w", err)
		}
	}

	l.mu.Lock()
	l.draft = nil
	l.state = StateIdle
	l.mu.Unlock()

	l.logger.Info("inspection committed",
		"id", record.ID,
		"equipment", record.EquipmentID,
		"variant", record.Variant,
		"solid_range", record.SolidRange,
		"status", record.Status,
		"alerted", result.Alerted,
	)
	return result, nil
}

func (l *Lifecycle) dispatchAlert(ctx context.Context, record domain.InspectionRecord) (bool, error) {
	if l.alerts == nil {
		l.logger.Warn("no alert sender configured", "id", record.ID, "status", record.Status)
		return false, nil
	}
	if err := l.alerts.SendAlert(ctx, record); err != nil {
		l.logger.Warn("alert delivery failed", "id", record.ID, "equipment", record.EquipmentID, "error", err)
		return false, fmt.Errorf("send alert: %w", err)
	}
	return true, nil
}

// Delete removes a committed record from History. It is not reversible.
func (l *Lifecycle) Delete(ctx context.Context, id string) (bool, error) {
	if l.history == nil {
		return false, nil
	}
	removed, err := l.history.Remove(ctx, id)
	if err != nil {
		return false, fmt.Errorf("remove record %s: %w", id, err)
	}
	if removed {
		l.logger.Info("inspection deleted", "id", id)
	}
	return removed, nil
}
