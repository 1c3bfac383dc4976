// Package report accumulates the per-segment JSON sidecar a session
// writes alongside its download directory. All writes funnel through one
// Report owner rather than a process-wide accumulator.
package report

import (
	"crypto/rand"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SegmentEntry is one row of the report's per-segment log. ID is a ulid so
// entries sort chronologically by construction, letting a downstream tool
// page through a long session's log without re-reading the Timestamp field.
type SegmentEntry struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	Duration  float64   `json:"duration"`
	Mbps      float64   `json:"mbps"`
	MBps      float64   `json:"mbps_bytes"`
	Timestamp time.Time `json:"timestamp"`
}

// Report is the JSON-serializable session summary. Format is not
// semver-stable between dashabr releases.
type Report struct {
	mu      sync.Mutex
	entropy io.Reader

	ManifestURL       string         `json:"manifest_url"`
	PlaybackType      string         `json:"playback_type"` // "basic", "sara", "netflix"
	AvailableBitrates []int64        `json:"available_bitrates"`
	Segments          []SegmentEntry `json:"segments"`
	ShiftUps          int            `json:"shift_ups"`
	ShiftDowns        int            `json:"shift_downs"`
	HostNetwork       *HostSnapshot  `json:"host_network,omitempty"`
}

// New creates an empty Report for the given manifest/strategy/bitrate set.
func New(manifestURL, playbackType string, bitrates []int64) *Report {
	return &Report{
		entropy:           ulid.Monotonic(rand.Reader, 0),
		ManifestURL:       manifestURL,
		PlaybackType:      playbackType,
		AvailableBitrates: bitrates,
	}
}

// AddSegment appends one completed segment's stats. sizeBytes and
// durationSeconds must both be positive to compute a rate; a zero
// duration records zero throughput rather than dividing by zero.
func (r *Report) AddSegment(url string, sizeBytes int64, durationSeconds float64, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var mbps, mbBytes float64
	if durationSeconds > 0 {
		mbps = (float64(sizeBytes) * 8 / 1_000_000) / durationSeconds
		mbBytes = (float64(sizeBytes) / 1_000_000) / durationSeconds
	}

	id := ulid.MustNew(ulid.Timestamp(at), r.entropy)

	r.Segments = append(r.Segments, SegmentEntry{
		ID:        id.String(),
		URL:       url,
		Size:      sizeBytes,
		Duration:  durationSeconds,
		Mbps:      mbps,
		MBps:      mbBytes,
		Timestamp: at,
	})
}

// SetShiftCounts records the session's cumulative up/down bitrate shifts.
func (r *Report) SetShiftCounts(ups, downs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ShiftUps = ups
	r.ShiftDowns = downs
}

// SetHostNetwork attaches a host network snapshot taken at session end.
func (r *Report) SetHostNetwork(snap *HostSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.HostNetwork = snap
}

// WriteJSON serializes the report to w.
func (r *Report) WriteJSON(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
