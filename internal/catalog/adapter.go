// Package catalog defines the playback catalog produced by parsing an MPD
// manifest: the set of representations (bitrate variants) a session can
// adapt between, plus the segment addressing each one offers.
package catalog

import "context"

// Representation is one bitrate/resolution variant of a stream. Segment
// URLs are indexed from Start; SegmentSizes, when present, has the same
// length as Segments and gives the byte size of the corresponding segment.
type Representation struct {
	Bandwidth    int64
	InitURL      string
	Segments     []string
	Start        int
	SegmentSizes []int64 // optional, nil when the manifest does not advertise sizes
}

// SegmentCount returns the number of media segments this representation offers.
func (r *Representation) SegmentCount() int {
	return len(r.Segments)
}

// SegmentSize returns the advertised byte size of segment i, or 0 when the
// manifest carries no size hints for this representation.
func (r *Representation) SegmentSize(i int) int64 {
	idx := i - r.Start
	if r.SegmentSizes == nil || idx < 0 || idx >= len(r.SegmentSizes) {
		return 0
	}
	return r.SegmentSizes[idx]
}

// Catalog is the parsed playback catalog: every video representation keyed
// by its bandwidth, plus the manifest-level timing the scheduler needs.
type Catalog struct {
	Representations map[int64]*Representation
	Bandwidths      []int64 // sorted ascending, the ABR search space
	PlaybackDuration float64
	MinBufferTime    float64
	SegmentDuration  float64
	BaseURL          string
}

// Bitrates returns the sorted bandwidth list, the ABR search space.
func (c *Catalog) Bitrates() []int64 {
	return c.Bandwidths
}

// Representation looks up the variant for a given bandwidth.
func (c *Catalog) Representation(bandwidth int64) (*Representation, bool) {
	r, ok := c.Representations[bandwidth]
	return r, ok
}

// MinBitrate and MaxBitrate report the ends of the sorted bandwidth list.
// Callers must not invoke these on an empty catalog; Adapter implementations
// reject empty manifests before returning a Catalog.
func (c *Catalog) MinBitrate() int64 { return c.Bandwidths[0] }
func (c *Catalog) MaxBitrate() int64 { return c.Bandwidths[len(c.Bandwidths)-1] }

// Adapter produces a Catalog from an MPD manifest. It is the only interface
// this package requires a caller to satisfy; manifest.go ships the concrete
// encoding/xml implementation, but a session may substitute a test double or
// a different manifest format entirely.
type Adapter interface {
	// Fetch retrieves and parses the manifest at url, returning the
	// playback catalog. Implementations should wrap fetch/parse failures
	// in abrerrors.ManifestError.
	Fetch(ctx context.Context, url string) (*Catalog, error)
}
