package abr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightedMean_RecentWeightsMore(t *testing.T) {
	// Two samples: a clearly lower old one, a clearly higher recent one.
	// The weighted mean should land closer to the recent sample than a
	// plain arithmetic mean would.
	samples := []float64{1_000_000, 3_000_000}
	mu := weightedMean(samples)
	arithmetic := 2_000_000.0
	assert.Greater(t, mu, arithmetic)
}

func TestWeightedMean_Empty(t *testing.T) {
	assert.Equal(t, 0.0, weightedMean(nil))
}

func TestPickSARA_SelectsHighestAffordable(t *testing.T) {
	bitrates := []int64{200_000, 400_000, 800_000, 1_600_000}
	state := &SARAState{}
	obs := Observations{
		BufferDepth:     5,
		SegmentDuration: 2,
		ThroughputMean:  10, // 10 Mbps
		ThroughputValid: true,
		NextSegmentSizes: map[int64]int64{
			200_000:   50_000,
			400_000:   100_000,
			800_000:   200_000,
			1_600_000: 400_000,
		},
	}

	d := pickSARA(bitrates, obs, state, SARASafetyFactor)
	assert.Contains(t, bitrates, d.Bitrate)
	assert.Greater(t, d.Bitrate, int64(0))
}

func TestPickSARA_PacingAboveWatermark(t *testing.T) {
	bitrates := []int64{200_000}
	state := &SARAState{}
	obs := Observations{BufferDepth: SARAUpperWatermark + 3, SegmentDuration: 2}
	d := pickSARA(bitrates, obs, state, SARASafetyFactor)
	assert.Equal(t, float64(3), d.PacingDelaySegments)
}

func TestPickSARA_WindowBounded(t *testing.T) {
	state := &SARAState{}
	obs := Observations{ThroughputValid: true, ThroughputMean: 1, BufferDepth: 1, SegmentDuration: 2}
	for i := 0; i < SARASampleCount+5; i++ {
		pickSARA([]int64{200_000}, obs, state, SARASafetyFactor)
	}
	assert.LessOrEqual(t, len(state.Samples), SARASampleCount)
}
