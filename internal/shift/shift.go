package shift

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"SlicerQC/internal/domain"
)

// DateLayout is the canonical calendar date format of inspection records.
const DateLayout = "2006-01-02"

const (
	morningStart   = 6
	afternoonStart = 14
	nightStart     = 22
)

// Of maps an hour of day to its shift. Night covers [22,24) and [0,6).
func Of(hour int) domain.ShiftID {
	switch {
	case hour >= morningStart && hour < afternoonStart:
		return domain.Morning
	case hour >= afternoonStart && hour < nightStart:
		return domain.Afternoon
	default:
		return domain.Night
	}
}

// Hour extracts and validates the hour component of an "HH:MM" time.
func Hour(clock string) (int, error) {
	head, _, _ := strings.Cut(strings.TrimSpace(clock), ":")
	h, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("parse hour of %q: %w", clock, err)
	}
	if h < 0 || h > 23 {
		return 0, fmt.Errorf("hour %d of %q out of range", h, clock)
	}
	return h, nil
}

// NextDate returns the calendar date following date (YYYY-MM-DD).
func NextDate(date string) (string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", date, err)
	}
	return d.AddDate(0, 0, 1).Format(DateLayout), nil
}

// BelongsToWindow reports whether a record dated recordDate at recordTime is
// part of the queryShift instance that started on queryDate. The Night
// instance of D runs from 22:00 on D to 06:00 on D+1. Inputs that cannot be
// parsed belong to no window.
func BelongsToWindow(recordDate, recordTime, queryDate string, queryShift domain.ShiftID) bool {
	hour, err := Hour(recordTime)
	if err != nil {
		return false
	}

	if queryShift != domain.Night {
		return recordDate == queryDate && Of(hour) == queryShift
	}

	if recordDate == queryDate {
		return hour >= nightStart
	}
	next, err := NextDate(queryDate)
	if err != nil {
		return false
	}
	return recordDate == next && hour < morningStart
}

// InstanceAt returns the shift instance containing t, identified by the date
// the shift started on. Before 06:00 that is the previous day's Night.
func InstanceAt(t time.Time) (string, domain.ShiftID) {
	s := Of(t.Hour())
	if s == domain.Night && t.Hour() < morningStart {
		return t.AddDate(0, 0, -1).Format(DateLayout), s
	}
	return t.Format(DateLayout), s
}

// Previous returns the shift instance that ended most recently at or before t.
func Previous(t time.Time) (string, domain.ShiftID) {
	date, current := InstanceAt(t)
	start, _ := time.ParseInLocation(DateLayout, date, t.Location())
	switch current {
	case domain.Morning:
		return start.AddDate(0, 0, -1).Format(DateLayout), domain.Night
	case domain.Afternoon:
		return date, domain.Morning
	default:
		return date, domain.Afternoon
	}
}
