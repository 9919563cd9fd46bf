package specs

import (
	"errors"
	"fmt"

	"SlicerQC/internal/domain"
)

// ErrSpecNotFound is returned when no entry matches a (variant, solid range) pair.
var ErrSpecNotFound = errors.New("specification not found")

// Default is the slice-thickness tolerance table (mm) per variant and solid range (%).
var Default = []domain.SpecEntry{
	{Variant: domain.FlatCut, SolidRange: "17 - 18.5", Lower: 1.194, Upper: 1.600},
	{Variant: domain.FlatCut, SolidRange: "18.5 - 19.5", Lower: 1.168, Upper: 1.575},
	{Variant: domain.FlatCut, SolidRange: "19.5 - 20.5", Lower: 1.143, Upper: 1.549},
	{Variant: domain.FlatCut, SolidRange: "20.5 - 21.5", Lower: 1.118, Upper: 1.524},
	{Variant: domain.FlatCut, SolidRange: "21.5 - 22.5", Lower: 1.092, Upper: 1.499},
	{Variant: domain.FlatCut, SolidRange: "22.5 - 23.5", Lower: 1.067, Upper: 1.473},
	{Variant: domain.FlatCut, SolidRange: "23.5 - 24.5", Lower: 1.041, Upper: 1.448},
	{Variant: domain.FlatCut, SolidRange: "24.5 - 27", Lower: 1.016, Upper: 1.422},

	{Variant: domain.RidgeCut, SolidRange: "17 - 18.5", Lower: 2.616, Upper: 3.023},
	{Variant: domain.RidgeCut, SolidRange: "18.5 - 19.5", Lower: 2.591, Upper: 2.997},
	{Variant: domain.RidgeCut, SolidRange: "19.5 - 20.5", Lower: 2.565, Upper: 2.972},
	{Variant: domain.RidgeCut, SolidRange: "20.5 - 21.5", Lower: 2.540, Upper: 2.946},
	{Variant: domain.RidgeCut, SolidRange: "21.5 - 22.5", Lower: 2.515, Upper: 2.921},
	{Variant: domain.RidgeCut, SolidRange: "22.5 - 23.5", Lower: 2.489, Upper: 2.896},
	{Variant: domain.RidgeCut, SolidRange: "23.5 - 24.5", Lower: 2.464, Upper: 2.870},
	{Variant: domain.RidgeCut, SolidRange: "24.5 - 27", Lower: 2.438, Upper: 2.845},
}

type key struct {
	variant domain.Variant
	label   string
}

// Registry is an immutable lookup table of tolerance bands.
type Registry struct {
	entries []domain.SpecEntry
	index   map[key]domain.SpecEntry
	ranges  map[domain.Variant][]string
}

// New validates entries and builds a registry. Every known variant must have
// at least one entry and every band must satisfy Lower < Upper.
func New(entries []domain.SpecEntry) (*Registry, error) {
	r := &Registry{
		entries: make([]domain.SpecEntry, 0, len(entries)),
		index:   make(map[key]domain.SpecEntry, len(entries)),
		ranges:  make(map[domain.Variant][]string),
	}

	for _, e := range entries {
		if e.SolidRange == "" {
			return nil, fmt.Errorf("spec %s: empty solid range", e.Variant)
		}
		if !(e.Lower < e.Upper) {
			return nil, fmt.Errorf("spec %s/%s: lower limit %.3f is not below upper limit %.3f", e.Variant, e.SolidRange, e.Lower, e.Upper)
		}
		k := key{variant: e.Variant, label: e.SolidRange}
		if _, dup := r.index[k]; dup {
			return nil, fmt.Errorf("spec %s/%s: duplicate entry", e.Variant, e.SolidRange)
		}
		r.index[k] = e
		r.entries = append(r.entries, e)
		r.ranges[e.Variant] = append(r.ranges[e.Variant], e.SolidRange)
	}

	for _, v := range domain.Variants {
		if len(r.ranges[v]) == 0 {
			return nil, fmt.Errorf("variant %s has no specification entries", v)
		}
	}

	return r, nil
}

// MustDefault builds the registry from the built-in table.
func MustDefault() *Registry {
	r, err := New(Default)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the entry for an exact (variant, solid range) match.
func (r *Registry) Lookup(variant domain.Variant, solidRange string) (domain.SpecEntry, error) {
	if e, ok := r.index[key{variant: variant, label: solidRange}]; ok {
		return e, nil
	}
	return domain.SpecEntry{}, fmt.Errorf("%w: variant %s, solid range %q", ErrSpecNotFound, variant, solidRange)
}

// RangesFor lists the solid range labels of a variant in table order.
func (r *Registry) RangesFor(variant domain.Variant) []string {
	labels := r.ranges[variant]
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

// Entries returns a copy of the table in definition order.
func (r *Registry) Entries() []domain.SpecEntry {
	out := make([]domain.SpecEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Normalize re-validates a selection after its variant changed: a solid range
// that the variant does not define is replaced by the variant's first range.
func (r *Registry) Normalize(sel domain.Selection) domain.Selection {
	labels := r.ranges[sel.Variant]
	if len(labels) == 0 {
		return sel
	}
	for _, l := range labels {
		if l == sel.SolidRange {
			return sel
		}
	}
	sel.SolidRange = labels[0]
	return sel
}
