package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"SlicerQC/internal/domain"
	"SlicerQC/internal/ports"
)

// Dispatcher fans a message out to every configured notifier.
type Dispatcher struct {
	notifiers []ports.Notifier
	logger    *slog.Logger
}

var (
	_ ports.AlertSender = (*Dispatcher)(nil)
	_ ports.Notifier    = (*Dispatcher)(nil)
)

// NewDispatcher wires notifiers; nil entries are skipped.
func NewDispatcher(logger *slog.Logger, notifiers ...ports.Notifier) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &Dispatcher{logger: logger}
	for _, n := range notifiers {
		if n != nil {
			d.notifiers = append(d.notifiers, n)
		}
	}
	return d
}

// Name identifies the dispatcher as a notifier.
func (d *Dispatcher) Name() string {
	return "dispatcher"
}

// SendAlert formats an out-of-specification alert and delivers it.
func (d *Dispatcher) SendAlert(ctx context.Context, record domain.InspectionRecord) error {
	subject, body := Format(record)
	return d.Publish(ctx, subject, body)
}

// Publish delivers to all notifiers concurrently and waits for every one of
// them. Failures are joined; a notifier failing does not cancel the others.
func (d *Dispatcher) Publish(ctx context.Context, subject, body string) error {
	if len(d.notifiers) == 0 {
		d.logger.Info("no notifier configured, message logged only", "subject", subject, "body", body)
		return nil
	}

	// a plain Group so one failing channel does not cancel the others;
	// Wait reports only the first error, errs keeps all of them
	errs := make([]error, len(d.notifiers))
	var g errgroup.Group
	for i, n := range d.notifiers {
		g.Go(func() error {
			d.logger.Debug("sending notification", "notifier", n.Name(), "subject", subject)
			if err := n.Publish(ctx, subject, body); err != nil {
				errs[i] = fmt.Errorf("%s: %w", n.Name(), err)
				return errs[i]
			}
			d.logger.Info("notification sent", "notifier", n.Name(), "subject", subject)
			return nil
		})
	}
	if err := g.Wait(); err == nil {
		return nil
	}

	return errors.Join(errs...)
}

// Format renders the alert subject and body for a record.
func Format(r domain.InspectionRecord) (string, string) {
	subject := fmt.Sprintf("Slice Thickness Alert – %s", r.EquipmentID)

	measured := "n/a"
	if r.MeasuredXBar != nil {
		measured = fmt.Sprintf("%.3f mm", *r.MeasuredXBar)
	}

	lines := []string{
		"ATTENTION: Thickness out of specification.",
		"",
		fmt.Sprintf("Slicer: %s", r.EquipmentID),
		fmt.Sprintf("Variant: %s (%s%%)", r.Variant, r.SolidRange),
		fmt.Sprintf("Measured X-bar: %s", measured),
		fmt.Sprintf("Specification: %.3f – %.3f mm", r.Lower, r.Upper),
		fmt.Sprintf("Status: %s", r.Status),
		fmt.Sprintf("Report Timestamp: %s %s", r.ExtractedDate, r.ExtractedTime),
	}
	return subject, strings.Join(lines, "\n")
}
