package abr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickNetflix_S5BufferFullPacing(t *testing.T) {
	bitrates := []int64{200_000, 400_000, 800_000, 1_600_000}
	state := &NetflixState{Phase: PhaseRunning}
	rm, err := BuildRateMap(bitrates, 0.375, 0.9)
	require.NoError(t, err)
	state.RateMap = rm

	params := NetflixParams{Reservoir: 0.375, Cushion: 0.9, InitialFactor: NetflixInitialFactor, BufferSize: 10, InitialBuffer: 0}
	obs := Observations{BufferDepth: 12, SegmentDuration: 4}

	d := pickNetflix(bitrates, obs, state, 400_000, params)
	assert.Equal(t, float64(12-10+1), d.PacingDelaySegments)
}

func TestPickNetflix_RunningIdempotent(t *testing.T) {
	bitrates := []int64{200_000, 400_000, 800_000, 1_600_000}
	rm, err := BuildRateMap(bitrates, 0.375, 0.9)
	require.NoError(t, err)

	state := &NetflixState{Phase: PhaseRunning, RateMap: rm}
	params := NetflixParams{Reservoir: 0.375, Cushion: 0.9, InitialFactor: NetflixInitialFactor, BufferSize: 10, InitialBuffer: 2}
	obs := Observations{BufferDepth: 7, SegmentDuration: 4} // available=5, phi=0.5

	d1 := pickNetflix(bitrates, obs, state, 400_000, params)
	d2 := pickNetflix(bitrates, obs, state, d1.Bitrate, params)
	assert.Equal(t, d1.Bitrate, d2.Bitrate)
}

func TestPickNetflix_RunningBoundaries(t *testing.T) {
	bitrates := []int64{200_000, 400_000, 800_000, 1_600_000}
	rm, err := BuildRateMap(bitrates, 0.375, 0.9)
	require.NoError(t, err)

	params := NetflixParams{Reservoir: 0.375, Cushion: 0.9, InitialFactor: NetflixInitialFactor, BufferSize: 10, InitialBuffer: 0}

	low := &NetflixState{Phase: PhaseRunning, RateMap: rm}
	dLow := pickNetflix(bitrates, Observations{BufferDepth: 0, SegmentDuration: 4}, low, 400_000, params)
	assert.Equal(t, int64(200_000), dLow.Bitrate)

	high := &NetflixState{Phase: PhaseRunning, RateMap: rm}
	dHigh := pickNetflix(bitrates, Observations{BufferDepth: 10, SegmentDuration: 4}, high, 400_000, params)
	assert.Equal(t, int64(1_600_000), dHigh.Bitrate)
}

func TestPickNetflix_InitialStepsUpAndTransitions(t *testing.T) {
	bitrates := []int64{200_000, 400_000, 800_000, 1_600_000}
	state := &NetflixState{
		Phase:            PhaseInitial,
		AvgSizeByBitrate: map[int64]float64{200_000: 50_000},
	}
	params := NetflixParams{Reservoir: 0.375, Cushion: 0.9, InitialFactor: 0.1, BufferSize: 10, InitialBuffer: 2}
	obs := Observations{
		BufferDepth:     10, // available = 8, phi = 0.8 -> maps high in the cushion range
		SegmentDuration: 4,
		ThroughputMean:  10,
		ThroughputValid: true,
	}

	d := pickNetflix(bitrates, obs, state, 200_000, params)
	assert.Greater(t, d.Bitrate, int64(200_000))
	assert.Equal(t, PhaseRunning, state.Phase)
}

func TestPickNetflix_UnknownCurrentBitrateFallsBackToMin(t *testing.T) {
	bitrates := []int64{200_000, 400_000, 800_000}
	state := &NetflixState{Phase: PhaseRunning}
	rm, err := BuildRateMap(bitrates, 0.375, 0.9)
	require.NoError(t, err)
	state.RateMap = rm

	params := NetflixParams{Reservoir: 0.375, Cushion: 0.9, InitialFactor: NetflixInitialFactor, BufferSize: 10, InitialBuffer: 0}
	d := pickNetflix(bitrates, Observations{BufferDepth: 0, SegmentDuration: 4}, state, 999_999, params)
	assert.Equal(t, int64(200_000), d.Bitrate)
}
