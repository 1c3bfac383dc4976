package abr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickBasic_S3StepUp(t *testing.T) {
	bitrates := []int64{200_000, 400_000, 800_000, 1_600_000}
	obs := Observations{
		BufferDepth:         0,
		SegmentDuration:     4,
		RecentDownloadTimes: []float64{1.0, 1.1, 0.9},
	}

	d := pickBasic(bitrates, obs, 400_000)
	assert.Equal(t, int64(800_000), d.Bitrate)
}

func TestPickBasic_StepDown(t *testing.T) {
	bitrates := []int64{200_000, 400_000, 800_000}
	obs := Observations{
		SegmentDuration:     2,
		RecentDownloadTimes: []float64{3.0, 2.5},
	}
	d := pickBasic(bitrates, obs, 800_000)
	assert.Equal(t, int64(400_000), d.Bitrate)
}

func TestPickBasic_ParallelDwnRateOverride(t *testing.T) {
	bitrates := []int64{200_000, 400_000, 800_000, 1_600_000}
	obs := Observations{
		ParallelDwnRate:     500, // Kbps -> 500_000 bps
		RecentDownloadTimes: []float64{0.1}, // would otherwise step up; must be ignored
		SegmentDuration:     4,
	}
	d := pickBasic(bitrates, obs, 200_000)
	assert.Equal(t, int64(400_000), d.Bitrate)
}

func TestPickBasic_PacingDelay(t *testing.T) {
	bitrates := []int64{200_000}
	obs := Observations{BufferDepth: 5, SegmentDuration: 4, RecentDownloadTimes: []float64{4}}
	d := pickBasic(bitrates, obs, 200_000)
	assert.Equal(t, float64(5-BasicThreshold), d.PacingDelaySegments)
}

func TestPickBasic_SingleBitrateAlwaysHolds(t *testing.T) {
	bitrates := []int64{500_000}
	obs := Observations{SegmentDuration: 2, RecentDownloadTimes: []float64{0.1}}
	d := pickBasic(bitrates, obs, 500_000)
	assert.Equal(t, int64(500_000), d.Bitrate)
}
