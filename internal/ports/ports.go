package ports

import (
	"context"
	"time"

	"SlicerQC/internal/domain"
)

// Extractor reads measurement fields from a captured report.
type Extractor interface {
	Extract(ctx context.Context, img domain.Image) (domain.ExtractionResult, error)
}

// AlertSender delivers an out-of-specification alert for a record.
type AlertSender interface {
	SendAlert(ctx context.Context, record domain.InspectionRecord) error
}

// Notifier posts a message to a fixed, configured recipient (Slack, Telegram, e-mail).
type Notifier interface {
	Name() string
	Publish(ctx context.Context, subject, body string) error
}

// HistoryStore is the ordered collection of committed inspection records.
// List and ListByDates return records in insertion order.
type HistoryStore interface {
	Append(ctx context.Context, record domain.InspectionRecord) error
	Remove(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]domain.InspectionRecord, error)
	ListByDates(ctx context.Context, dates ...string) ([]domain.InspectionRecord, error)
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
