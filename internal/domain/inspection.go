package domain

import (
	"fmt"
	"strings"
)

// Variant is the product cut type; each variant has its own tolerance table.
type Variant string

const (
	FlatCut  Variant = "FC"
	RidgeCut Variant = "RC"
)

// Variants lists the supported cut types in display order.
var Variants = []Variant{FlatCut, RidgeCut}

// ParseVariant accepts the short code ("FC") or the long name ("FlatCut").
func ParseVariant(value string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "fc", "flatcut", "flat-cut", "flat":
		return FlatCut, nil
	case "rc", "ridgecut", "ridge-cut", "ridge":
		return RidgeCut, nil
	default:
		return "", fmt.Errorf("unknown variant %q", value)
	}
}

// Name returns the long, human readable variant name.
func (v Variant) Name() string {
	switch v {
	case FlatCut:
		return "FlatCut"
	case RidgeCut:
		return "RidgeCut"
	default:
		return string(v)
	}
}

// ResultStatus is the verdict of comparing X-bar against the tolerance band.
type ResultStatus string

const (
	StatusOK         ResultStatus = "OK"
	StatusBelowRange ResultStatus = "OUT_OF_RANGE_LOW"
	StatusAboveRange ResultStatus = "OUT_OF_RANGE_HIGH"
	StatusUnknown    ResultStatus = "UNKNOWN"
)

// ShiftID names one of the three 8-hour production shifts.
type ShiftID string

const (
	Morning   ShiftID = "A"
	Afternoon ShiftID = "B"
	Night     ShiftID = "C"
)

// Shifts lists the shifts in chronological order within a production day.
var Shifts = []ShiftID{Morning, Afternoon, Night}

// ParseShift accepts a shift letter (A/B/C) or name (morning/afternoon/night).
func ParseShift(value string) (ShiftID, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "a", "morning":
		return Morning, nil
	case "b", "afternoon":
		return Afternoon, nil
	case "c", "night":
		return Night, nil
	default:
		return "", fmt.Errorf("unknown shift %q", value)
	}
}

// Name returns the lowercase shift name.
func (s ShiftID) Name() string {
	switch s {
	case Morning:
		return "morning"
	case Afternoon:
		return "afternoon"
	case Night:
		return "night"
	default:
		return string(s)
	}
}

// SpecEntry is one row of the tolerance table.
type SpecEntry struct {
	Variant    Variant
	SolidRange string
	Lower      float64
	Upper      float64
}

// ExtractionResult is what the optical extraction service read from a report.
// Any field may be nil when the source was unreadable.
type ExtractionResult struct {
	Date         *string  `json:"date"`
	Time         *string  `json:"time"`
	MaxThickness *float64 `json:"max_thickness"`
	MinThickness *float64 `json:"min_thickness"`
	XBar         *float64 `json:"x_bar"`
}

// Image is an opaque captured report payload.
type Image struct {
	Name      string
	MediaType string
	Data      []byte
}

// Selection is the operator's active equipment/variant/solid-range choice.
type Selection struct {
	EquipmentID string
	Variant     Variant
	SolidRange  string
}

// InspectionRecord is a classified, shift-attributable measurement.
// Lower and Upper are copied from the SpecEntry at classification time.
type InspectionRecord struct {
	ID            string
	Timestamp     string
	EquipmentID   string
	Variant       Variant
	SolidRange    string
	ExtractedDate string
	ExtractedTime string
	MeasuredXBar  *float64
	MaxMeasured   *float64
	MinMeasured   *float64
	Lower         float64
	Upper         float64
	Status        ResultStatus
}

// OK reports whether the record is within specification.
func (r InspectionRecord) OK() bool {
	return r.Status == StatusOK
}
