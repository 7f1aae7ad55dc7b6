package uds

import "errors"

// ErrInvalidRange is returned when a requested scan range is malformed,
// e.g. max < min.
var ErrInvalidRange = errors.New("uds: invalid scan range, max must be >= min")

// Range is a closed interval [Min, Max] of identifiers to scan.
type Range struct {
	Min uint32
	Max uint32
}

// Validate checks Min <= Max, the only shape invariant a Range carries.
func (r Range) Validate() error {
	if r.Max < r.Min {
		return ErrInvalidRange
	}
	return nil
}

// RangeSet is an ordered, possibly-overlapping set of sub-ranges,
// iterated lazily so a 16-bit identifier space never needs to be
// materialized.
type RangeSet []Range

// Iterator yields each id in the set in order, sub-range by sub-range.
// It does not deduplicate ids that appear in more than one sub-range —
// callers scanning should expect to see such ids more than once if
// their presets overlap.
func (rs RangeSet) Iterator() *RangeIterator {
	return &RangeIterator{ranges: rs}
}

type RangeIterator struct {
	ranges  RangeSet
	idx     int
	current uint32
	started bool
}

// Next returns the next id and true, or (0, false) once the set is
// exhausted.
func (it *RangeIterator) Next() (uint32, bool) {
	for it.idx < len(it.ranges) {
		r := it.ranges[it.idx]
		if !it.started {
			it.current = r.Min
			it.started = true
		}
		if it.current > r.Max {
			it.idx++
			it.started = false
			continue
		}
		v := it.current
		it.current++
		return v, true
	}
	return 0, false
}

// Data identifier scan presets.
var (
	DataIdentifierOEMPreset = RangeSet{
		{0x0100, 0xA5FF},
		{0xA800, 0xACFF},
		{0xB000, 0xB1FF},
		{0xC200, 0xC2FF},
		{0xCF00, 0xEFFF},
	}
	DataIdentifierSupplierPreset = RangeSet{
		{0xF000, 0xFEFF},
	}
	// DataIdentifierSafetyPreset is safety-only, not safety ∪ supplier:
	// the supplier range is not merged in.
	DataIdentifierSafetyPreset = RangeSet{
		{0xFA00, 0xFA0F},
		{0xFA19, 0xFAFF},
	}
	RoutineIdentifierOEMPreset = RangeSet{
		{0x0200, 0xDFFF},
	}
	RoutineIdentifierSupplierPreset = RangeSet{
		{0xF000, 0xFEFF},
	}
	// DefaultIdentifierRange applies when no preset flag and no
	// explicit bounds were given.
	DefaultIdentifierRange = RangeSet{
		{0x0000, 0xFFFF},
	}
)

// MaxExtendedArbitrationID is the upper bound used for endpoint
// discovery when min_id is already in the 29-bit extended range: the
// full 29-bit space.
const MaxExtendedArbitrationID uint32 = 0x1FFFFFFF

// MaxStandardArbitrationID is the default upper bound for endpoint
// discovery over 11-bit standard arbitration ids.
const MaxStandardArbitrationID uint32 = 0x7FF
