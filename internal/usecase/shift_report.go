package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"SlicerQC/internal/dashboard"
	"SlicerQC/internal/domain"
	"SlicerQC/internal/ports"
	"SlicerQC/internal/shift"
)

// BoardViewer builds the per-equipment view of a shift instance.
type BoardViewer interface {
	View(ctx context.Context, date string, s domain.ShiftID) (dashboard.Board, error)
}

// ShiftReportDeps wires the end-of-shift summary job.
type ShiftReportDeps struct {
	Driver    ports.Scheduler
	Boards    BoardViewer
	Publisher ports.Notifier
	Location  *time.Location
	Logger    *slog.Logger
}

// ShiftReporter publishes a summary of each shift once it has ended.
type ShiftReporter struct {
	driver    ports.Scheduler
	boards    BoardViewer
	publisher ports.Notifier
	location  *time.Location
	logger    *slog.Logger
}

// NewShiftReporter returns a helper to start/stop the recurring summary.
func NewShiftReporter(deps ShiftReportDeps) *ShiftReporter {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ShiftReporter{
		driver:    deps.Driver,
		boards:    deps.Boards,
		publisher: deps.Publisher,
		location:  loc,
		logger:    logger,
	}
}

// Start registers the summary job with the scheduler.
func (s *ShiftReporter) Start(ctx context.Context) error {
	if s.driver == nil || s.boards == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if err := s.Report(ctx, trigger); err != nil {
			s.logger.Warn("shift summary failed", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop tears down the underlying scheduler.
func (s *ShiftReporter) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

// Report summarises the shift instance that ended at or before at.
func (s *ShiftReporter) Report(ctx context.Context, at time.Time) error {
	date, sh := shift.Previous(at.In(s.location))
	board, err := s.boards.View(ctx, date, sh)
	if err != nil {
		return fmt.Errorf("build board %s/%s: %w", date, sh, err)
	}

	body := dashboard.Summarize(board)
	s.logger.Info("shift summary", "date", date, "shift", sh, "samples", board.Samples())

	if s.publisher == nil {
		return nil
	}
	subject := fmt.Sprintf("Shift %s summary – %s", sh, date)
	if err := s.publisher.Publish(ctx, subject, body); err != nil {
		return fmt.Errorf("publish summary: %w", err)
	}
	return nil
}
