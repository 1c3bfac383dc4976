package abr

// Pick dispatches to the strategy named in state.Strategy. sortedBitrates
// must be non-empty and ascending; the scheduler guarantees this by
// rejecting an empty catalog up front with ManifestError. The returned
// bitrate is always a member of sortedBitrates.
func Pick(sortedBitrates []int64, obs Observations, currentBitrate int64, state *State, params NetflixParams, saraSafety float64) Decision {
	switch state.Strategy {
	case Basic:
		return pickBasic(sortedBitrates, obs, currentBitrate)
	case SARA:
		return pickSARA(sortedBitrates, obs, &state.SARA, saraSafety)
	case Netflix:
		return pickNetflix(sortedBitrates, obs, &state.Netflix, currentBitrate, params)
	default:
		return pickBasic(sortedBitrates, obs, currentBitrate)
	}
}

// DefaultNetflixParams returns the spec-default Netflix tunables.
func DefaultNetflixParams(initialBuffer int) NetflixParams {
	return NetflixParams{
		Reservoir:     NetflixReservoir,
		Cushion:       NetflixCushion,
		InitialFactor: NetflixInitialFactor,
		BufferSize:    NetflixBufferSize,
		InitialBuffer: initialBuffer,
	}
}
