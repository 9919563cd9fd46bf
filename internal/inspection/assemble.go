package inspection

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"SlicerQC/internal/domain"
	"SlicerQC/internal/shift"
)

const defaultTime = "00:00"

// ErrMalformedExtraction marks a present but unparseable date or time.
var ErrMalformedExtraction = errors.New("malformed extraction")

var (
	dateExpr = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})$`)
	timeExpr = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// SpecLookup resolves the tolerance band of a selection.
type SpecLookup interface {
	Lookup(variant domain.Variant, solidRange string) (domain.SpecEntry, error)
}

// Assembler turns extraction output plus the active selection into a record.
type Assembler struct {
	specs SpecLookup
	now   func() time.Time
	newID func() string
}

// Option customises an Assembler.
type Option func(*Assembler)

// WithClock sets the clock used for the missing-date default.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// WithIDGenerator replaces the random UUID generator.
func WithIDGenerator(gen func() string) Option {
	return func(a *Assembler) { a.newID = gen }
}

// NewAssembler builds an assembler backed by a spec lookup.
func NewAssembler(specs SpecLookup, opts ...Option) *Assembler {
	a := &Assembler{
		specs: specs,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds an immutable InspectionRecord. It fails when the selection
// has no specification entry or when the extraction carries a malformed date
// or time.
func (a *Assembler) Assemble(ext domain.ExtractionResult, sel domain.Selection) (domain.InspectionRecord, error) {
	spec, err := a.specs.Lookup(sel.Variant, sel.SolidRange)
	if err != nil {
		return domain.InspectionRecord{}, fmt.Errorf("resolve spec: %w", err)
	}

	date := a.now().Format(shift.DateLayout)
	if ext.Date != nil && strings.TrimSpace(*ext.Date) != "" {
		date, err = NormalizeDate(*ext.Date)
		if err != nil {
			return domain.InspectionRecord{}, err
		}
	}

	clock := defaultTime
	if ext.Time != nil && strings.TrimSpace(*ext.Time) != "" {
		clock, err = NormalizeTime(*ext.Time)
		if err != nil {
			return domain.InspectionRecord{}, err
		}
	}

	return domain.InspectionRecord{
		ID:            a.newID(),
		Timestamp:     date + "T" + clock + ":00",
		EquipmentID:   sel.EquipmentID,
		Variant:       sel.Variant,
		SolidRange:    sel.SolidRange,
		ExtractedDate: date,
		ExtractedTime: clock,
		MeasuredXBar:  copyFloat(ext.XBar),
		MaxMeasured:   copyFloat(ext.MaxThickness),
		MinMeasured:   copyFloat(ext.MinThickness),
		Lower:         spec.Lower,
		Upper:         spec.Upper,
		Status:        Classify(ext.XBar, spec.Lower, spec.Upper),
	}, nil
}

// NormalizeDate converts "YYYY/MM/DD" or "YYYY-MM-DD" to zero-padded "YYYY-MM-DD".
func NormalizeDate(raw string) (string, error) {
	m := dateExpr.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", fmt.Errorf("%w: date %q", ErrMalformedExtraction, raw)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", fmt.Errorf("%w: date %q is not a calendar date", ErrMalformedExtraction, raw)
	}
	return t.Format(shift.DateLayout), nil
}

// NormalizeTime converts "H:MM" or "HH:MM" to "HH:MM", validating hour and minute.
func NormalizeTime(raw string) (string, error) {
	m := timeExpr.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", fmt.Errorf("%w: time %q", ErrMalformedExtraction, raw)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return "", fmt.Errorf("%w: time %q out of range", ErrMalformedExtraction, raw)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
