package abr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPick_DispatchesByStrategy(t *testing.T) {
	bitrates := []int64{200_000, 400_000, 800_000}
	params := DefaultNetflixParams(2)

	basicState := NewState(Basic)
	d := Pick(bitrates, Observations{SegmentDuration: 2, RecentDownloadTimes: []float64{0.1}}, 200_000, basicState, params, SARASafetyFactor)
	assert.Contains(t, bitrates, d.Bitrate)

	saraState := NewState(SARA)
	d = Pick(bitrates, Observations{SegmentDuration: 2, BufferDepth: 1}, 200_000, saraState, params, SARASafetyFactor)
	assert.Contains(t, bitrates, d.Bitrate)

	netflixState := NewState(Netflix)
	d = Pick(bitrates, Observations{SegmentDuration: 2, BufferDepth: 1}, 200_000, netflixState, params, SARASafetyFactor)
	assert.Contains(t, bitrates, d.Bitrate)
}

func TestPick_BitrateClosureInvariant(t *testing.T) {
	bitrates := []int64{250_000, 500_000, 1_000_000, 2_000_000, 4_000_000}
	params := DefaultNetflixParams(2)

	for _, strat := range []Strategy{Basic, SARA, Netflix} {
		state := NewState(strat)
		current := bitrates[0]
		for i := 0; i < 20; i++ {
			obs := Observations{
				BufferDepth:         i % 12,
				SegmentDuration:     2,
				RecentDownloadTimes: []float64{1.5},
				ThroughputMean:      5,
				ThroughputValid:     true,
				NextSegmentSizes: map[int64]int64{
					250_000: 60_000, 500_000: 120_000, 1_000_000: 240_000,
					2_000_000: 480_000, 4_000_000: 960_000,
				},
			}
			d := Pick(bitrates, obs, current, state, params, SARASafetyFactor)
			assert.Contains(t, bitrates, d.Bitrate)
			current = d.Bitrate
		}
	}
}
