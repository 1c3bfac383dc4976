package downloader

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peymanj-dashabr/dashabr/internal/throughput"
	"github.com/peymanj-dashabr/dashabr/pkg/httpclient"
)

func TestFetch_WritesFileAndMatchesSize(t *testing.T) {
	body := make([]byte, 500_000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	dir := t.TempDir()
	win := throughput.NewWindow(5)
	dl := New(httpclient.NewWithDefaults(), win, WithSampleInterval(10*time.Millisecond))

	res, err := dl.Fetch(t.Context(), 3, srv.URL+"/seg3.m4s", dir)
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), res.BytesWritten)

	info, err := os.Stat(res.Path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), info.Size())
}

func TestFetch_NonSuccessStatusIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	win := throughput.NewWindow(5)
	dl := New(httpclient.NewWithDefaults(), win)

	_, err := dl.Fetch(t.Context(), 1, srv.URL+"/missing.m4s", dir)
	require.Error(t, err)
}

func TestFetch_PushesThroughputSamples(t *testing.T) {
	body := make([]byte, 2_000_000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	win := throughput.NewWindow(5)
	dl := New(httpclient.NewWithDefaults(), win, WithSampleInterval(time.Millisecond))

	_, err := dl.Fetch(t.Context(), 0, srv.URL+"/big.m4s", dir)
	require.NoError(t, err)
	assert.Greater(t, win.Len(), 0)
}
