// Package abr implements the adaptive-bitrate decision strategies: Basic,
// Weighted/SARA, and Netflix buffer-based. All three share the Pick
// signature and are dispatched through a tagged State rather than an
// interface hierarchy.
package abr

import "errors"

var errEmptyBitrates = errors.New("abr: empty bitrate list")

// Strategy names the ABR decision algorithm in use.
type Strategy string

const (
	Basic   Strategy = "basic"
	SARA    Strategy = "sara"
	Netflix Strategy = "netflix"
)

// NetflixPhase is the Netflix strategy's two-state machine.
type NetflixPhase int

const (
	PhaseInitial NetflixPhase = iota
	PhaseRunning
)

// Observations carries the per-call inputs every strategy reads from,
// owned and mutated only by the scheduler between Pick calls.
type Observations struct {
	// BufferDepth is the current number of queued segments.
	BufferDepth int

	// SegmentDuration is the constant per-segment playback duration.
	SegmentDuration float64

	// RecentDownloadTimes is the Basic strategy's window of recent
	// segment download wall-clock durations, oldest first.
	RecentDownloadTimes []float64

	// RecentSizes pairs with RecentDownloadTimes: byte size of the
	// corresponding segment.
	RecentSizes []int64

	// ParallelDwnRate is an optional externally supplied concurrent-mode
	// throughput override in Kbps for the Basic strategy. 0 means unset.
	ParallelDwnRate int64

	// ThroughputMean is the Throughput Window's current mean in Mbps,
	// used by SARA and Netflix INITIAL. ThroughputValid is false when
	// the window has no samples yet.
	ThroughputMean  float64
	ThroughputValid bool

	// NextSegmentSizes maps each candidate bitrate to the byte size of
	// the next segment at that bitrate, used by SARA's predicted
	// download time.
	NextSegmentSizes map[int64]int64
}

// State is the ABR state carried across Pick calls, a tagged union over
// the three strategies' internal state. The scheduler owns exactly one
// State value for the session's lifetime.
type State struct {
	Strategy Strategy

	Basic   BasicState
	SARA    SARAState
	Netflix NetflixState
}

// NewState creates a State for the given strategy with zeroed internals.
func NewState(strategy Strategy) *State {
	return &State{Strategy: strategy}
}

// BasicState holds the Basic strategy's running history.
type BasicState struct {
	// no cross-call state beyond what Observations carries each call;
	// kept as a named type for symmetry and future extension.
}

// SARAState holds the weighted-mean throughput estimator's samples, most
// recent last.
type SARAState struct {
	Samples []float64 // rate samples in bits/s, insertion order
}

// NetflixState holds the Netflix strategy's rate map and INITIAL/RUNNING
// phase.
type NetflixState struct {
	RateMap       *RateMap
	Phase         NetflixPhase
	AvgSizeByBitrate map[int64]float64
}

// Decision is what a strategy returns from Pick.
type Decision struct {
	Bitrate            int64
	PacingDelaySegments float64
}
