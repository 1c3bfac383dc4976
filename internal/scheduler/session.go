package scheduler

import (
	"sync"

	"github.com/peymanj-dashabr/dashabr/internal/abr"
	"github.com/peymanj-dashabr/dashabr/internal/catalog"
	"github.com/peymanj-dashabr/dashabr/internal/throughput"
)

// basicHistoryLen bounds the Basic strategy's recent-download-times window.
const basicHistoryLen = 5

// SessionContext owns every piece of mutable state a single playback
// session touches: the catalog, ABR state, throughput window, and the
// bookkeeping counters the original source mutated through a module-level
// global. All of it is serialized under one mutex rather than the
// source's ad hoc, inconsistently locked globals (see the redesign note
// on a Scheduler-owned mutex).
type SessionContext struct {
	mu sync.Mutex

	Catalog *catalog.Catalog
	Window  *throughput.Window

	abrState       *abr.State
	netflixParams  abr.NetflixParams
	saraSafety     float64
	currentBitrate int64

	recentDownloadTimes []float64
	recentSizes         []int64

	totalDownloadedBytes int64
	shiftUps             int
	shiftDowns           int
}

// NewSessionContext creates a session pinned to the minimum bitrate in
// cat, using the given ABR strategy and tuning parameters.
func NewSessionContext(cat *catalog.Catalog, strategy abr.Strategy, netflixParams abr.NetflixParams, saraSafety float64, windowSize int) *SessionContext {
	return &SessionContext{
		Catalog:        cat,
		Window:         throughput.NewWindow(windowSize),
		abrState:       abr.NewState(strategy),
		netflixParams:  netflixParams,
		saraSafety:     saraSafety,
		currentBitrate: cat.MinBitrate(),
	}
}

// NextBitrate invokes the configured ABR strategy with the session's
// current observations and returns the decision, updating internal
// shift-count bookkeeping. bufferDepth and nextSegmentSizes are supplied
// by the caller since they vary per call.
func (s *SessionContext) NextBitrate(bufferDepth int, nextSegmentSizes map[int64]int64) abr.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	mean, valid := s.Window.Mean()
	obs := abr.Observations{
		BufferDepth:         bufferDepth,
		SegmentDuration:     s.Catalog.SegmentDuration,
		RecentDownloadTimes: s.recentDownloadTimes,
		RecentSizes:         s.recentSizes,
		ThroughputMean:      mean,
		ThroughputValid:     valid,
		NextSegmentSizes:    nextSegmentSizes,
	}

	decision := abr.Pick(s.Catalog.Bitrates(), obs, s.currentBitrate, s.abrState, s.netflixParams, s.saraSafety)

	switch {
	case decision.Bitrate > s.currentBitrate:
		s.shiftUps++
	case decision.Bitrate < s.currentBitrate:
		s.shiftDowns++
	}
	s.currentBitrate = decision.Bitrate

	return decision
}

// RecordCompletion folds a finished segment's timing/size into the
// session's recent history, used by the Basic strategy's mean comparator.
func (s *SessionContext) RecordCompletion(downloadSeconds float64, sizeBytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recentDownloadTimes = append(s.recentDownloadTimes, downloadSeconds)
	if len(s.recentDownloadTimes) > basicHistoryLen {
		s.recentDownloadTimes = s.recentDownloadTimes[len(s.recentDownloadTimes)-basicHistoryLen:]
	}
	s.recentSizes = append(s.recentSizes, sizeBytes)
	if len(s.recentSizes) > basicHistoryLen {
		s.recentSizes = s.recentSizes[len(s.recentSizes)-basicHistoryLen:]
	}

	s.totalDownloadedBytes += sizeBytes
}

// CurrentBitrate returns the bitrate most recently chosen.
func (s *SessionContext) CurrentBitrate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentBitrate
}

// ResetToMinimum recovers from a StateError: resets the current bitrate
// to the catalog minimum and the ABR state to its zero value (INITIAL for
// Netflix).
func (s *SessionContext) ResetToMinimum() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentBitrate = s.Catalog.MinBitrate()
	s.abrState = abr.NewState(s.abrState.Strategy)
}

// Stats returns the session's shift counters and total bytes downloaded.
func (s *SessionContext) Stats() (shiftUps, shiftDowns int, totalBytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shiftUps, s.shiftDowns, s.totalDownloadedBytes
}
