package abr

// BasicThreshold is the buffer-depth floor below which Basic emits no
// pacing delay.
const BasicThreshold = 2

// basicStepFraction is the "below a fraction of segment_duration" step-up
// threshold: average download time under this fraction of segment
// duration steps the bitrate up.
const basicStepFraction = 0.8

func pickBasic(sortedBitrates []int64, obs Observations, currentBitrate int64) Decision {
	next := currentBitrate
	if obs.ParallelDwnRate > 0 {
		next = highestBitrateBelow(sortedBitrates, obs.ParallelDwnRate*1000)
	} else {
		next = basicMeanDecision(sortedBitrates, obs, currentBitrate)
	}

	delay := float64(obs.BufferDepth - BasicThreshold)
	if delay < 0 {
		delay = 0
	}

	return Decision{Bitrate: next, PacingDelaySegments: delay}
}

// basicMeanDecision compares the arithmetic mean of recent download times
// against segment_duration: below basicStepFraction*segment_duration
// steps up one bitrate level, above segment_duration steps down one, else
// holds.
func basicMeanDecision(sortedBitrates []int64, obs Observations, currentBitrate int64) int64 {
	if len(obs.RecentDownloadTimes) == 0 || obs.SegmentDuration <= 0 {
		return clampToList(sortedBitrates, currentBitrate)
	}

	var sum float64
	for _, t := range obs.RecentDownloadTimes {
		sum += t
	}
	mean := sum / float64(len(obs.RecentDownloadTimes))

	idx := indexOf(sortedBitrates, currentBitrate)
	if idx < 0 {
		// current bitrate not in the sorted list: StateError territory,
		// the scheduler resets to minimum on the next round trip.
		return sortedBitrates[0]
	}

	switch {
	case mean < basicStepFraction*obs.SegmentDuration && idx < len(sortedBitrates)-1:
		return sortedBitrates[idx+1]
	case mean > obs.SegmentDuration && idx > 0:
		return sortedBitrates[idx-1]
	default:
		return sortedBitrates[idx]
	}
}

// highestBitrateBelow picks the largest bitrate that does not exceed
// rateBps (bits/s), falling back to the minimum bitrate if every
// candidate exceeds it.
func highestBitrateBelow(sortedBitrates []int64, rateBps int64) int64 {
	best := sortedBitrates[0]
	for _, b := range sortedBitrates {
		if b <= rateBps {
			best = b
		}
	}
	return best
}

func indexOf(sortedBitrates []int64, bitrate int64) int {
	for i, b := range sortedBitrates {
		if b == bitrate {
			return i
		}
	}
	return -1
}

func clampToList(sortedBitrates []int64, bitrate int64) int64 {
	if indexOf(sortedBitrates, bitrate) >= 0 {
		return bitrate
	}
	return sortedBitrates[0]
}
