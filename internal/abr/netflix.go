package abr

// NetflixInitialFactor is the default INITIAL-phase step-up threshold:
// step up one bitrate when delta_B exceeds this fraction of
// segment_duration.
const NetflixInitialFactor = 0.875

// NetflixBufferSize is the default BUFFER_SIZE used to compute phi and
// the buffer-full pacing delay.
const NetflixBufferSize = 10

// NetflixReservoir and NetflixCushion are the default rate-map
// boundaries; see BuildRateMap.
const (
	NetflixReservoir = 0.375
	NetflixCushion   = 0.9
)

// NetflixParams bundles the tunables the scheduler threads through each
// Pick call, since they are configuration rather than per-call state.
type NetflixParams struct {
	Reservoir     float64
	Cushion       float64
	InitialFactor float64
	BufferSize    int
	InitialBuffer int
}

func pickNetflix(sortedBitrates []int64, obs Observations, state *NetflixState, currentBitrate int64, params NetflixParams) Decision {
	if state.RateMap == nil {
		rm, err := BuildRateMap(sortedBitrates, params.Reservoir, params.Cushion)
		if err == nil {
			state.RateMap = rm
		}
	}

	if indexOf(sortedBitrates, currentBitrate) < 0 {
		// StateError territory: fall back to minimum, keep phase as-is.
		currentBitrate = sortedBitrates[0]
	}

	available := obs.BufferDepth - params.InitialBuffer
	if available < 0 {
		available = 0
	}
	phi := float64(available) / float64(params.BufferSize)

	var chosen int64
	switch state.Phase {
	case PhaseInitial:
		chosen = netflixInitial(sortedBitrates, obs, state, currentBitrate, params, available, phi)
	default:
		chosen = netflixRunning(state, phi)
	}

	var delay float64
	if obs.BufferDepth >= params.BufferSize {
		delay = float64(obs.BufferDepth - params.BufferSize + 1)
	}

	return Decision{Bitrate: chosen, PacingDelaySegments: delay}
}

func netflixInitial(sortedBitrates []int64, obs Observations, state *NetflixState, currentBitrate int64, params NetflixParams, available int, phi float64) int64 {
	avgSize := state.AvgSizeByBitrate[currentBitrate]
	var deltaB float64
	if obs.ThroughputValid && obs.ThroughputMean > 0 {
		rateBps := obs.ThroughputMean * 1_000_000
		deltaB = obs.SegmentDuration - 8*avgSize/rateBps
	}

	tentative := currentBitrate
	idx := indexOf(sortedBitrates, currentBitrate)
	if deltaB > params.InitialFactor*obs.SegmentDuration && idx >= 0 && idx < len(sortedBitrates)-1 {
		tentative = sortedBitrates[idx+1]
	}

	if available >= params.InitialBuffer && state.RateMap != nil {
		mapped := netflixRunning(state, phi)
		if mapped > tentative {
			state.Phase = PhaseRunning
			return mapped
		}
	}

	return tentative
}

func netflixRunning(state *NetflixState, phi float64) int64 {
	rm := state.RateMap
	if rm == nil {
		return 0
	}
	if phi <= rm.Entries[0].Key {
		return rm.Min()
	}
	if phi >= rm.Entries[len(rm.Entries)-1].Key {
		return rm.Max()
	}
	return rm.Floor(phi)
}
