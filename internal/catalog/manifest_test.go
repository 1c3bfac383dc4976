package catalog

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTemplateMPD = `<?xml version="1.0"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" mediaPresentationDuration="PT10S" minBufferTime="PT2S">
  <Period>
    <AdaptationSet mimeType="video/mp4" contentType="video">
      <SegmentTemplate media="$RepresentationID$/seg-$Number%03d$.m4s" initialization="$RepresentationID$/init.mp4" duration="2" timescale="1" startNumber="1"/>
      <Representation id="200k" bandwidth="200000"/>
      <Representation id="400k" bandwidth="400000"/>
      <Representation id="800k" bandwidth="800000"/>
    </AdaptationSet>
  </Period>
</MPD>`

const sampleSegmentListMPD = `<?xml version="1.0"?>
<MPD mediaPresentationDuration="PT4S" minBufferTime="PT1S">
  <Period>
    <AdaptationSet contentType="video">
      <Representation id="lo" bandwidth="150000">
        <SegmentList duration="2" timescale="1">
          <Initialization sourceURL="lo/init.mp4"/>
          <SegmentURL media="lo/seg-1.m4s"/>
          <SegmentURL media="lo/seg-2.m4s"/>
        </SegmentList>
      </Representation>
    </AdaptationSet>
  </Period>
</MPD>`

func TestBuildCatalog_SegmentTemplate(t *testing.T) {
	var doc mpdDoc
	require.NoError(t, xml.Unmarshal([]byte(sampleTemplateMPD), &doc))

	cat, err := buildCatalog(&doc, "https://cdn.example/streams/movie/manifest.mpd")
	require.NoError(t, err)

	assert.Equal(t, []int64{200000, 400000, 800000}, cat.Bandwidths)
	assert.Equal(t, 10.0, cat.PlaybackDuration)
	assert.Equal(t, 2.0, cat.MinBufferTime)
	assert.Equal(t, 2.0, cat.SegmentDuration)

	rep, ok := cat.Representation(400000)
	require.True(t, ok)
	assert.Equal(t, 1, rep.Start)
	require.Len(t, rep.Segments, 5) // 10s / 2s
	assert.Equal(t, "https://cdn.example/streams/movie/400k/seg-001.m4s", rep.Segments[0])
	assert.Equal(t, "https://cdn.example/streams/movie/400k/seg-002.m4s", rep.Segments[1])
	assert.Equal(t, "https://cdn.example/streams/movie/400k/init.mp4", rep.InitURL)
}

func TestBuildCatalog_SegmentList(t *testing.T) {
	var doc mpdDoc
	require.NoError(t, xml.Unmarshal([]byte(sampleSegmentListMPD), &doc))

	cat, err := buildCatalog(&doc, "https://cdn.example/streams/clip/manifest.mpd")
	require.NoError(t, err)

	rep, ok := cat.Representation(150000)
	require.True(t, ok)
	require.Len(t, rep.Segments, 2)
	assert.Equal(t, "https://cdn.example/streams/clip/lo/seg-1.m4s", rep.Segments[0])
	assert.Equal(t, "https://cdn.example/streams/clip/lo/init.mp4", rep.InitURL)
}

func TestBuildCatalog_NoVideoAdaptationSet(t *testing.T) {
	const noVideo = `<?xml version="1.0"?>
<MPD mediaPresentationDuration="PT4S" minBufferTime="PT1S">
  <Period>
    <AdaptationSet contentType="audio"></AdaptationSet>
  </Period>
</MPD>`
	var doc mpdDoc
	require.NoError(t, xml.Unmarshal([]byte(noVideo), &doc))

	_, err := buildCatalog(&doc, "https://cdn.example/manifest.mpd")
	assert.Error(t, err)
}

func TestParsePlaybackTime(t *testing.T) {
	cases := map[string]float64{
		"PT10S":       10,
		"PT1M30S":     90,
		"PT1H2M3S":    3723,
	}
	for input, want := range cases {
		got, err := parsePlaybackTime(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := parsePlaybackTime("")
	assert.Error(t, err)
}
