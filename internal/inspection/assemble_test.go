package inspection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SlicerQC/internal/domain"
	"SlicerQC/internal/shift"
	"SlicerQC/internal/specs"
)

func str(s string) *string { return &s }

func newTestAssembler() *Assembler {
	fixed := time.Date(2024, time.March, 12, 9, 30, 0, 0, time.UTC)
	return NewAssembler(specs.MustDefault(),
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() string { return "rec-1" }),
	)
}

func TestAssembleAboveRangeExample(t *testing.T) {
	t.Parallel()

	ext := domain.ExtractionResult{
		Date:         str("2024/03/10"),
		Time:         str("07:05"),
		MaxThickness: ptr(1.70),
		MinThickness: ptr(1.50),
		XBar:         ptr(1.600),
	}
	sel := domain.Selection{EquipmentID: "Slicer 1", Variant: domain.FlatCut, SolidRange: "19.5 - 20.5"}

	rec, err := newTestAssembler().Assemble(ext, sel)
	require.NoError(t, err)

	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, domain.StatusAboveRange, rec.Status)
	assert.Equal(t, "2024-03-10", rec.ExtractedDate)
	assert.Equal(t, "07:05", rec.ExtractedTime)
	assert.Equal(t, "2024-03-10T07:05:00", rec.Timestamp)
	assert.Equal(t, 1.143, rec.Lower)
	assert.Equal(t, 1.549, rec.Upper)
	assert.Equal(t, "Slicer 1", rec.EquipmentID)
	require.NotNil(t, rec.MaxMeasured)
	assert.Equal(t, 1.70, *rec.MaxMeasured)

	hour, err := shift.Hour(rec.ExtractedTime)
	require.NoError(t, err)
	assert.Equal(t, domain.Morning, shift.Of(hour))
}

func TestAssembleDefaultsMissingDateAndTime(t *testing.T) {
	t.Parallel()

	sel := domain.Selection{EquipmentID: "Slicer 2", Variant: domain.RidgeCut, SolidRange: "17 - 18.5"}
	rec, err := newTestAssembler().Assemble(domain.ExtractionResult{}, sel)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-12", rec.ExtractedDate)
	assert.Equal(t, "00:00", rec.ExtractedTime)
	assert.Equal(t, domain.StatusUnknown, rec.Status)
	assert.Nil(t, rec.MeasuredXBar)
}

func TestAssembleDoesNotAliasExtraction(t *testing.T) {
	t.Parallel()

	ext := domain.ExtractionResult{XBar: ptr(2.7)}
	sel := domain.Selection{EquipmentID: "Slicer 2", Variant: domain.RidgeCut, SolidRange: "17 - 18.5"}
	rec, err := newTestAssembler().Assemble(ext, sel)
	require.NoError(t, err)

	*ext.XBar = 99
	assert.Equal(t, 2.7, *rec.MeasuredXBar)
	assert.Equal(t, domain.StatusOK, rec.Status)
}

func TestAssembleSpecNotFound(t *testing.T) {
	t.Parallel()

	sel := domain.Selection{EquipmentID: "Slicer 1", Variant: domain.FlatCut, SolidRange: "99 - 100"}
	_, err := newTestAssembler().Assemble(domain.ExtractionResult{XBar: ptr(1.2)}, sel)
	assert.ErrorIs(t, err, specs.ErrSpecNotFound)
}

func TestNormalizeDate(t *testing.T) {
	t.Parallel()

	ok := map[string]string{
		"2024/03/10":   "2024-03-10",
		"2024-03-10":   "2024-03-10",
		"2024/3/5":     "2024-03-05",
		" 2024/12/31 ": "2024-12-31",
	}
	for in, want := range ok {
		got, err := NormalizeDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"10.03.2024", "2024/02/30", "2024/13/01", "March 10"} {
		_, err := NormalizeDate(bad)
		assert.ErrorIs(t, err, ErrMalformedExtraction, bad)
	}
}

func TestNormalizeTime(t *testing.T) {
	t.Parallel()

	got, err := NormalizeTime("7:05")
	require.NoError(t, err)
	assert.Equal(t, "07:05", got)

	for _, bad := range []string{"24:00", "12:60", "noon", "12"} {
		_, err := NormalizeTime(bad)
		assert.ErrorIs(t, err, ErrMalformedExtraction, bad)
	}
}

func TestAssembleRejectsMalformedDate(t *testing.T) {
	t.Parallel()

	sel := domain.Selection{EquipmentID: "Slicer 1", Variant: domain.FlatCut, SolidRange: "17 - 18.5"}
	_, err := newTestAssembler().Assemble(domain.ExtractionResult{Date: str("10.03.2024")}, sel)
	assert.ErrorIs(t, err, ErrMalformedExtraction)
}
