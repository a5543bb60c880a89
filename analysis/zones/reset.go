package zones

import (
	"sort"
	"strings"

	"github.com/parzone/parzone/analysis/defs"
	"github.com/parzone/parzone/analysis/numeric"
	"github.com/parzone/parzone/utils"
)

// ResetEntry assigns a constant value to a clock.
type ResetEntry struct {
	Clock defs.Clock
	Value *numeric.Rational
}

// ResetSet is a set of clock resets applied atomically on a transition.
// Construction rejects resets of the zero clock and resets to negative or
// non-finite values. Values are immutable.
type ResetSet struct {
	entries []ResetEntry
}

// NewResetSet validates and normalises a set of resets. Duplicate clocks
// keep the last value given.
func NewResetSet(entries ...ResetEntry) ResetSet {
	byClock := map[defs.Clock]*numeric.Rational{}
	for _, e := range entries {
		if e.Clock.IsZero() {
			panic(errZeroReset)
		}
		if !e.Value.IsFinite() || e.Value.Sign() < 0 {
			panic(errBadResetTo)
		}
		byClock[e.Clock] = e.Value
	}

	res := make([]ResetEntry, 0, len(byClock))
	for c, v := range byClock {
		res = append(res, ResetEntry{c, v})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Clock.Less(res[j].Clock)
	})
	return ResetSet{res}
}

// ResetToZero builds the common reset c := 0 for each given clock.
func ResetToZero(clocks ...defs.Clock) ResetSet {
	entries := make([]ResetEntry, len(clocks))
	for i, c := range clocks {
		entries[i] = ResetEntry{c, numeric.Zero}
	}
	return NewResetSet(entries...)
}

// Entries returns the resets in clock order. Callers must not mutate the
// slice.
func (rs ResetSet) Entries() []ResetEntry {
	return rs.entries
}

// IsEmpty reports whether no clock is reset.
func (rs ResetSet) IsEmpty() bool {
	return len(rs.entries) == 0
}

func (rs ResetSet) Hash() uint32 {
	hs := []uint32{0x4e5e7}
	for _, e := range rs.entries {
		hs = append(hs, e.Clock.Hash(), e.Value.Hash())
	}
	return utils.HashCombine(hs...)
}

func (rs ResetSet) Equal(o ResetSet) bool {
	if len(rs.entries) != len(o.entries) {
		return false
	}
	for i, e := range rs.entries {
		if !e.Clock.Equal(o.entries[i].Clock) || !e.Value.Equal(o.entries[i].Value) {
			return false
		}
	}
	return true
}

func (rs ResetSet) String() string {
	if rs.IsEmpty() {
		return "{}"
	}
	parts := make([]string, len(rs.entries))
	for i, e := range rs.entries {
		parts[i] = e.Clock.Name() + " := " + e.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
