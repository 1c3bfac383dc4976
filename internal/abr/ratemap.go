package abr

import "sort"

// RateMapEntry is one buffer-fraction -> bitrate mapping, kept in
// increasing-key order.
type RateMapEntry struct {
	Key     float64
	Bitrate int64
}

// RateMap is an ordered association of buffer-fraction keys to bitrates,
// built by BuildRateMap and consumed by the Netflix strategy's RUNNING
// state. Entries are sorted ascending by Key.
type RateMap struct {
	Entries []RateMapEntry
}

// Min returns the bitrate at the lowest key (the reservoir bitrate).
func (m *RateMap) Min() int64 {
	return m.Entries[0].Bitrate
}

// Max returns the bitrate at the highest key (the cushion bitrate).
func (m *RateMap) Max() int64 {
	return m.Entries[len(m.Entries)-1].Bitrate
}

// Floor returns the bitrate at the largest key less than or equal to phi,
// the lookup rule the Netflix RUNNING state uses for interior buffer
// fractions. Equality at an interior key is resolved as the floor: an
// exact match returns that key's own bitrate.
func (m *RateMap) Floor(phi float64) int64 {
	best := m.Entries[0].Bitrate
	for _, e := range m.Entries {
		if e.Key <= phi {
			best = e.Bitrate
		} else {
			break
		}
	}
	return best
}

// BuildRateMap constructs the Netflix rate map for a sorted ascending list
// of bitrates. reservoir maps to the lowest bitrate, cushion to the
// highest, and any intermediate bitrates are placed at equally spaced keys
// dividing [reservoir, cushion] into len(bitrates)-1 equal intervals.
//
// An empty bitrate list is rejected (see the design note on rejecting
// empty catalogs up front with ManifestError rather than mirroring the
// source's post-sort bitrates[0] short-circuit). On any arithmetic
// failure building intermediate keys, BuildRateMap falls back to the
// two-point map {reservoir -> min, cushion -> max}.
func BuildRateMap(sortedBitrates []int64, reservoir, cushion float64) (*RateMap, error) {
	n := len(sortedBitrates)
	if n == 0 {
		return nil, errEmptyBitrates
	}

	if n <= 2 || cushion <= reservoir {
		return twoPointMap(sortedBitrates, reservoir, cushion), nil
	}

	intervals := n - 1
	width := (cushion - reservoir) / float64(intervals)
	if width <= 0 {
		return twoPointMap(sortedBitrates, reservoir, cushion), nil
	}

	entries := make([]RateMapEntry, 0, n)
	entries = append(entries, RateMapEntry{Key: reservoir, Bitrate: sortedBitrates[0]})
	for i := 1; i < n-1; i++ {
		entries = append(entries, RateMapEntry{
			Key:     reservoir + width*float64(i),
			Bitrate: sortedBitrates[i],
		})
	}
	entries = append(entries, RateMapEntry{Key: cushion, Bitrate: sortedBitrates[n-1]})

	return &RateMap{Entries: entries}, nil
}

func twoPointMap(sortedBitrates []int64, reservoir, cushion float64) *RateMap {
	return &RateMap{Entries: []RateMapEntry{
		{Key: reservoir, Bitrate: sortedBitrates[0]},
		{Key: cushion, Bitrate: sortedBitrates[len(sortedBitrates)-1]},
	}}
}

// sortBitrates returns a sorted copy; strategies receive pre-sorted input
// from the scheduler, but this guards callers that build a map directly
// from an unsorted catalog slice.
func sortBitrates(bitrates []int64) []int64 {
	out := make([]int64, len(bitrates))
	copy(out, bitrates)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
