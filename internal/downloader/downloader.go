// Package downloader fetches individual DASH media segments, measuring
// instantaneous throughput as it reads the response body.
package downloader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/peymanj-dashabr/dashabr/internal/abrerrors"
	"github.com/peymanj-dashabr/dashabr/internal/throughput"
	"github.com/peymanj-dashabr/dashabr/pkg/httpclient"
)

// DefaultTimeout is the per-segment request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultSampleInterval is how often a throughput sample is pushed into
// the shared window while a chunked read is in progress.
const DefaultSampleInterval = 100 * time.Millisecond

// chunkSize is the read buffer size for the chunked download loop.
const chunkSize = 32 * 1024

// Result is what a successful Fetch returns.
type Result struct {
	BytesWritten int64
	Path         string
	Duration     time.Duration
}

// Downloader fetches one segment at a time over a resilient HTTP client,
// writing the body to disk and periodically sampling throughput into a
// shared Window.
type Downloader struct {
	client         *httpclient.Client
	window         *throughput.Window
	timeout        time.Duration
	sampleInterval time.Duration
	logger         *slog.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(dl *Downloader) { dl.timeout = d }
}

// WithSampleInterval overrides the throughput sampling interval.
func WithSampleInterval(d time.Duration) Option {
	return func(dl *Downloader) { dl.sampleInterval = d }
}

// WithLogger attaches a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(dl *Downloader) { dl.logger = l }
}

// New creates a Downloader that samples throughput into window.
func New(client *httpclient.Client, window *throughput.Window, opts ...Option) *Downloader {
	dl := &Downloader{
		client:         client,
		window:         window,
		timeout:        DefaultTimeout,
		sampleInterval: DefaultSampleInterval,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(dl)
	}
	return dl
}

// Fetch downloads segmentURL into destDir, returning the written path,
// byte count, and wall-clock duration. Failures are always an
// *abrerrors.TransportError or *abrerrors.DecodeError; the caller (the
// scheduler) is expected to log and skip the segment rather than retry
// within this call.
func (d *Downloader) Fetch(ctx context.Context, index int, segmentURL, destDir string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()

	resp, err := d.client.Get(ctx, segmentURL)
	if err != nil {
		return nil, abrerrors.NewTransportError(index, segmentURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, abrerrors.NewTransportError(index, segmentURL,
			fmt.Errorf("non-2xx status: %d", resp.StatusCode))
	}

	destPath := filepath.Join(destDir, fmt.Sprintf("seg-%06d%s", index, filepath.Ext(segmentURL)))
	f, err := os.Create(destPath)
	if err != nil {
		return nil, abrerrors.NewTransportError(index, segmentURL, fmt.Errorf("creating destination file: %w", err))
	}

	written, err := d.readChunked(ctx, resp.Body, f)
	closeErr := f.Close()
	if err != nil {
		os.Remove(destPath) // partial file on failure: discard rather than leave zero-sized
		return nil, abrerrors.NewTransportError(index, segmentURL, err)
	}
	if closeErr != nil {
		os.Remove(destPath)
		return nil, abrerrors.NewDecodeError(index, fmt.Errorf("closing destination file: %w", closeErr))
	}

	return &Result{
		BytesWritten: written,
		Path:         destPath,
		Duration:     time.Since(start),
	}, nil
}

// readChunked reads src in chunkSize blocks, writing each to dst and
// pushing a Mbps sample into the Throughput Window every sampleInterval.
func (d *Downloader) readChunked(ctx context.Context, src io.Reader, dst io.Writer) (int64, error) {
	buf := make([]byte, chunkSize)
	var total int64
	var sinceLastSample int64
	lastSample := time.Now()

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, fmt.Errorf("writing segment body: %w", werr)
			}
			total += int64(n)
			sinceLastSample += int64(n)
		}

		if elapsed := time.Since(lastSample); elapsed >= d.sampleInterval && sinceLastSample > 0 {
			d.pushSample(sinceLastSample, elapsed)
			sinceLastSample = 0
			lastSample = time.Now()
		}

		if readErr == io.EOF {
			if sinceLastSample > 0 {
				d.pushSample(sinceLastSample, time.Since(lastSample))
			}
			return total, nil
		}
		if readErr != nil {
			return total, fmt.Errorf("reading segment body: %w", readErr)
		}
	}
}

func (d *Downloader) pushSample(bytesSinceLastSample int64, elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	mbps := (float64(bytesSinceLastSample) * 8) / elapsed.Seconds() / 1_000_000
	d.window.Add(mbps)
}
