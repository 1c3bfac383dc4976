package catalog

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/peymanj-dashabr/dashabr/internal/abrerrors"
	"github.com/peymanj-dashabr/dashabr/pkg/httpclient"
)

// mpdDoc mirrors the subset of the MPD schema this adapter cares about: a
// single Period, video AdaptationSets, and SegmentTemplate/SegmentList/
// SegmentBase addressing. encoding/xml matches on local element names, so
// the namespace prefix MPD documents commonly carry (xmlns="urn:mpeg:dash...")
// never needs stripping the way read_mpd.py's get_tag_name does for a
// token-based parser.
type mpdDoc struct {
	XMLName                   xml.Name  `xml:"MPD"`
	MediaPresentationDuration string    `xml:"mediaPresentationDuration,attr"`
	MinBufferTime             string    `xml:"minBufferTime,attr"`
	BaseURL                   string    `xml:"BaseURL"`
	Period                    mpdPeriod `xml:"Period"`
}

type mpdPeriod struct {
	BaseURL        string          `xml:"BaseURL"`
	AdaptationSets []mpdAdaptation `xml:"AdaptationSet"`
}

type mpdAdaptation struct {
	MimeType        string              `xml:"mimeType,attr"`
	ContentType     string              `xml:"contentType,attr"`
	SegmentTemplate *mpdSegTemplate     `xml:"SegmentTemplate"`
	Representations []mpdRepresentation `xml:"Representation"`
}

type mpdRepresentation struct {
	ID              string          `xml:"id,attr"`
	Bandwidth       int64           `xml:"bandwidth,attr"`
	BaseURL         string          `xml:"BaseURL"`
	SegmentTemplate *mpdSegTemplate `xml:"SegmentTemplate"`
	SegmentList     *mpdSegList     `xml:"SegmentList"`
	SegmentBase     *mpdSegBase     `xml:"SegmentBase"`
}

type mpdSegTemplate struct {
	Media          string `xml:"media,attr"`
	Initialization string `xml:"initialization,attr"`
	Duration       int64  `xml:"duration,attr"`
	Timescale      int64  `xml:"timescale,attr"`
	StartNumber    *int   `xml:"startNumber,attr"`
}

type mpdSegList struct {
	Duration       int64    `xml:"duration,attr"`
	Timescale      int64    `xml:"timescale,attr"`
	Initialization mpdURL   `xml:"Initialization"`
	SegmentURLs    []mpdURL `xml:"SegmentURL"`
}

type mpdSegBase struct {
	Timescale      int64  `xml:"timescale,attr"`
	Initialization mpdURL `xml:"Initialization"`
}

type mpdURL struct {
	SourceURL string `xml:"sourceURL,attr"`
	Media     string `xml:"media,attr"`
}

// MPDAdapter fetches a manifest over HTTP and parses it with encoding/xml.
// The traversal below (Period -> video AdaptationSet -> Representation,
// SegmentTemplate/SegmentList/SegmentBase duration extraction, $Number$
// substitution) follows read_mpd.py's process_segment_info/get_url_list.
type MPDAdapter struct {
	client *httpclient.Client
}

// NewMPDAdapter builds an adapter using the given resilient HTTP client.
func NewMPDAdapter(client *httpclient.Client) *MPDAdapter {
	return &MPDAdapter{client: client}
}

// Fetch retrieves the manifest at manifestURL and parses it into a Catalog.
// Any fetch or parse failure is wrapped in abrerrors.ManifestError, matching
// read_mpd.py's behaviour of returning (None, None) on any failure.
func (a *MPDAdapter) Fetch(ctx context.Context, manifestURL string) (*Catalog, error) {
	resp, err := a.client.Get(ctx, manifestURL)
	if err != nil {
		return nil, abrerrors.NewManifestError(manifestURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, abrerrors.NewManifestError(manifestURL, fmt.Errorf("reading manifest body: %w", err))
	}

	var doc mpdDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, abrerrors.NewManifestError(manifestURL, fmt.Errorf("parsing MPD xml: %w", err))
	}

	cat, err := buildCatalog(&doc, manifestURL)
	if err != nil {
		return nil, abrerrors.NewManifestError(manifestURL, err)
	}
	return cat, nil
}

func buildCatalog(doc *mpdDoc, manifestURL string) (*Catalog, error) {
	playbackDuration, err := parsePlaybackTime(doc.MediaPresentationDuration)
	if err != nil {
		return nil, fmt.Errorf("mediaPresentationDuration: %w", err)
	}
	minBufferTime, err := parsePlaybackTime(doc.MinBufferTime)
	if err != nil {
		// min buffer time is advisory; default rather than fail the manifest.
		minBufferTime = 0
	}

	baseURL := resolveBaseURL(manifestURL, doc.BaseURL, doc.Period.BaseURL)

	var videoSet *mpdAdaptation
	for i := range doc.Period.AdaptationSets {
		as := &doc.Period.AdaptationSets[i]
		if strings.HasPrefix(as.MimeType, "video/") || as.ContentType == "video" {
			videoSet = as
			break
		}
	}
	if videoSet == nil {
		return nil, fmt.Errorf("no video AdaptationSet in manifest")
	}
	if len(videoSet.Representations) == 0 {
		return nil, fmt.Errorf("video AdaptationSet has no representations")
	}

	reps := make(map[int64]*Representation, len(videoSet.Representations))
	bandwidths := make([]int64, 0, len(videoSet.Representations))
	var segmentDuration float64

	type pending struct {
		rep    *Representation
		tmpl   *mpdSegTemplate
		repID  string
	}
	var toExpand []pending

	for i := range videoSet.Representations {
		rep := &videoSet.Representations[i]
		tmpl := rep.SegmentTemplate
		if tmpl == nil {
			tmpl = videoSet.SegmentTemplate
		}

		r, dur, err := buildRepresentation(rep, tmpl, baseURL)
		if err != nil {
			return nil, fmt.Errorf("representation bandwidth=%d: %w", rep.Bandwidth, err)
		}
		if segmentDuration == 0 && dur > 0 {
			segmentDuration = dur
		}
		if tmpl != nil && rep.SegmentList == nil && rep.SegmentBase == nil {
			toExpand = append(toExpand, pending{rep: r, tmpl: tmpl, repID: rep.ID})
		}

		reps[rep.Bandwidth] = r
		bandwidths = append(bandwidths, rep.Bandwidth)
	}

	sort.Slice(bandwidths, func(i, j int) bool { return bandwidths[i] < bandwidths[j] })

	if segmentDuration > 0 {
		count := 1
		if playbackDuration > 0 {
			count = int(playbackDuration/segmentDuration + 0.5)
			if count < 1 {
				count = 1
			}
		}
		for _, p := range toExpand {
			p.rep.expandSegmentURLs(p.tmpl, p.repID, baseURL, count)
		}
	}

	return &Catalog{
		Representations:  reps,
		Bandwidths:       bandwidths,
		PlaybackDuration: playbackDuration,
		MinBufferTime:    minBufferTime,
		SegmentDuration:  segmentDuration,
		BaseURL:          baseURL,
	}, nil
}

func buildRepresentation(rep *mpdRepresentation, tmpl *mpdSegTemplate, baseURL string) (*Representation, float64, error) {
	switch {
	case tmpl != nil:
		return representationFromTemplate(rep, tmpl, baseURL)
	case rep.SegmentList != nil:
		return representationFromList(rep, baseURL)
	case rep.SegmentBase != nil:
		return representationFromBase(rep, baseURL)
	default:
		return nil, 0, fmt.Errorf("no SegmentTemplate, SegmentList, or SegmentBase")
	}
}

var numberToken = regexp.MustCompile(`\$Number(%0\d+d)?\$`)
var bandwidthToken = regexp.MustCompile(`\$Bandwidth\$`)
var repIDToken = regexp.MustCompile(`\$RepresentationID\$`)

// representationFromTemplate expands a SegmentTemplate's $Number$/
// $RepresentationID$/$Bandwidth$ tokens across the manifest's declared
// duration, mirroring get_url_list's BITRATE_TO_ID + $Number$ substitution
// but driven off the addressing scheme actually present in the manifest
// rather than a hardcoded fixture table.
func representationFromTemplate(rep *mpdRepresentation, tmpl *mpdSegTemplate, baseURL string) (*Representation, float64, error) {
	if tmpl.Timescale == 0 || tmpl.Duration == 0 {
		return nil, 0, fmt.Errorf("SegmentTemplate missing duration/timescale")
	}
	segDuration := float64(tmpl.Duration) / float64(tmpl.Timescale)

	start := 1
	if tmpl.StartNumber != nil {
		start = *tmpl.StartNumber
	}

	initURL := expandTemplate(tmpl.Initialization, rep.ID, rep.Bandwidth, 0)
	return &Representation{
		Bandwidth: rep.Bandwidth,
		InitURL:   resolveURL(baseURL, initURL),
		Segments:  nil, // populated lazily by expandSegmentURLs once segment count is known
		Start:     start,
	}, segDuration, nil
}

// expandSegmentURLs materializes count segment URLs for a template-based
// representation starting at r.Start. buildCatalog calls it once the
// manifest's total segment count (from playback_duration /
// segment_duration) is known, since an MPD SegmentTemplate carries no
// explicit segment count.
func (r *Representation) expandSegmentURLs(tmpl *mpdSegTemplate, repID string, baseURL string, count int) {
	segs := make([]string, count)
	for i := 0; i < count; i++ {
		number := r.Start + i
		segs[i] = resolveURL(baseURL, expandTemplate(tmpl.Media, repID, r.Bandwidth, number))
	}
	r.Segments = segs
}

func expandTemplate(s, repID string, bandwidth int64, number int) string {
	s = repIDToken.ReplaceAllString(s, repID)
	s = bandwidthToken.ReplaceAllString(s, strconv.FormatInt(bandwidth, 10))
	s = numberToken.ReplaceAllStringFunc(s, func(tok string) string {
		m := numberToken.FindStringSubmatch(tok)
		if len(m) == 2 && m[1] != "" {
			// %0Nd width specifier, e.g. $Number%05d$ -> m[1] == "%05d"
			width := m[1][1 : len(m[1])-1]
			w, _ := strconv.Atoi(width)
			return fmt.Sprintf("%0*d", w, number)
		}
		return strconv.Itoa(number)
	})
	return s
}

func representationFromList(rep *mpdRepresentation, baseURL string) (*Representation, float64, error) {
	sl := rep.SegmentList
	if sl.Timescale == 0 || sl.Duration == 0 {
		return nil, 0, fmt.Errorf("SegmentList missing duration/timescale")
	}
	segDuration := float64(sl.Duration) / float64(sl.Timescale)

	segs := make([]string, 0, len(sl.SegmentURLs))
	for _, u := range sl.SegmentURLs {
		ref := u.SourceURL
		if ref == "" {
			ref = u.Media
		}
		segs = append(segs, resolveURL(baseURL, ref))
	}

	initRef := sl.Initialization.SourceURL
	if initRef == "" {
		initRef = sl.Initialization.Media
	}

	return &Representation{
		Bandwidth: rep.Bandwidth,
		InitURL:   resolveURL(baseURL, initRef),
		Segments:  segs,
		Start:     1,
	}, segDuration, nil
}

func representationFromBase(rep *mpdRepresentation, baseURL string) (*Representation, float64, error) {
	initRef := rep.SegmentBase.Initialization.SourceURL
	if initRef == "" {
		initRef = rep.SegmentBase.Initialization.Media
	}
	// SegmentBase addresses the whole representation as one resource (an
	// sidx-indexed file); model it as a single segment rather than
	// rejecting the representation outright.
	repURL := rep.BaseURL
	if repURL == "" {
		repURL = baseURL
	}
	return &Representation{
		Bandwidth: rep.Bandwidth,
		InitURL:   resolveURL(baseURL, initRef),
		Segments:  []string{resolveURL(baseURL, repURL)},
		Start:     1,
	}, 0, nil
}

// resolveBaseURL composes the manifest's own URL with any BaseURL elements,
// following get_base_url's "strip the last path segment" approach for a
// manifest that carries no explicit BaseURL.
func resolveBaseURL(manifestURL, docBase, periodBase string) string {
	base := manifestURL
	if docBase != "" {
		base = resolveURL(base, docBase)
	}
	if periodBase != "" {
		base = resolveURL(base, periodBase)
	}
	if docBase == "" && periodBase == "" {
		if u, err := url.Parse(manifestURL); err == nil {
			u.Path = path.Dir(u.Path) + "/"
			base = u.String()
		}
	}
	return base
}

func resolveURL(base, ref string) string {
	if ref == "" {
		return base
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

// parsePlaybackTime parses an ISO-8601 duration of the form PT#H#M#S,
// following read_mpd.py's get_playback_time (split on P/T/H/M/S, multiply
// reversed components by 1, 60, 3600).
func parsePlaybackTime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if !strings.HasPrefix(s, "PT") && !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("not an ISO-8601 duration: %q", s)
	}

	parts := durationSplit.FindAllStringSubmatch(s, -1)
	if len(parts) == 0 {
		return 0, fmt.Errorf("unparseable duration: %q", s)
	}

	var total float64
	for _, p := range parts {
		value, err := strconv.ParseFloat(p[1], 64)
		if err != nil {
			return 0, fmt.Errorf("duration component %q: %w", p[1], err)
		}
		switch p[2] {
		case "H":
			total += value * 3600
		case "M":
			total += value * 60
		case "S":
			total += value
		}
	}
	return total, nil
}

var durationSplit = regexp.MustCompile(`(\d+(?:\.\d+)?)([HMS])`)
