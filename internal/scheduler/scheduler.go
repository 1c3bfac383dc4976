// Package scheduler is the glue: it walks the segment index, consults the
// ABR strategy, dispatches downloads with bounded parallelism, honors
// buffer-full pacing, and feeds completed segments into the playback
// buffer in strict index order.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/peymanj-dashabr/dashabr/internal/abrerrors"
	"github.com/peymanj-dashabr/dashabr/internal/buffer"
	"github.com/peymanj-dashabr/dashabr/internal/downloader"
)

// Config configures a Scheduler run.
type Config struct {
	MaxParallel  int // 1 disables concurrency, 2 enables it (spec default)
	SegmentLimit int // 0 = play the whole catalog
	DestDir      string
}

// Scheduler drives one playback session end to end.
type Scheduler struct {
	session *SessionContext
	buf     *buffer.Buffer
	dl      *downloader.Downloader
	cfg     Config
	logger  *slog.Logger
	sem     *semaphore.Weighted
	reorder *reorderBuffer
}

// New creates a Scheduler over the given session, playback buffer, and
// downloader.
func New(session *SessionContext, buf *buffer.Buffer, dl *downloader.Downloader, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.MaxParallel < 1 {
		cfg.MaxParallel = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		session: session,
		buf:     buf,
		dl:      dl,
		cfg:     cfg,
		logger:  logger,
		sem:     semaphore.NewWeighted(int64(cfg.MaxParallel)),
	}
}

// Run walks segments from the catalog's representations starting at
// Start, dispatching in index order, until SegmentLimit (or the
// catalog's segment count) is reached and every in-flight download has
// completed. Before returning it waits until the playback buffer has room
// (or is terminal); it does not wait for the buffer to drain or reach a
// terminal state.
func (s *Scheduler) Run(ctx context.Context) error {
	rep, ok := s.session.Catalog.Representation(s.session.CurrentBitrate())
	if !ok {
		return abrerrors.NewStateError("scheduler", errNoMinRepresentation)
	}
	start := rep.Start
	end := start + rep.SegmentCount()
	if s.cfg.SegmentLimit > 0 && start+s.cfg.SegmentLimit < end {
		end = start + s.cfg.SegmentLimit
	}

	s.reorder = newReorderBuffer(start)

	results := make(chan segmentResult, s.cfg.MaxParallel)
	inFlight := 0

	for i := start; i < end; i++ {
		if s.cfg.MaxParallel > 1 && inFlight > 0 {
			// S4: gate the second overlapping fetch on the Throughput
			// Window producing a valid mean, so the ABR decision for it
			// has signal.
			for {
				if _, valid := s.session.Window.Mean(); valid {
					break
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(10 * time.Millisecond):
				}
			}
		}

		if err := s.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		inFlight++

		decision := s.session.NextBitrate(s.buf.Depth(), s.nextSegmentSizes(i))
		if decision.PacingDelaySegments > 0 {
			delay := time.Duration(decision.PacingDelaySegments*s.session.Catalog.SegmentDuration) * time.Second
			s.buf.WaitForSpace()
			select {
			case <-ctx.Done():
				s.sem.Release(1)
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		go s.dispatch(ctx, i, decision.Bitrate, results)

		// Drain any already-completed results without blocking so the
		// reorder buffer flushes promptly even while more are in flight.
		s.drainNonBlocking(results, &inFlight)
	}

	for inFlight > 0 {
		res := <-results
		inFlight--
		s.complete(res)
	}

	s.buf.WaitForSpace()
	return nil
}

type segmentResult struct {
	index   int
	bitrate int64
	res     *downloader.Result
	err     error
}

func (s *Scheduler) dispatch(ctx context.Context, index int, bitrate int64, results chan<- segmentResult) {
	defer s.sem.Release(1)

	rep, ok := s.session.Catalog.Representation(bitrate)
	if !ok {
		results <- segmentResult{index: index, bitrate: bitrate, err: abrerrors.NewStateError("scheduler", errNoMinRepresentation)}
		return
	}
	offset := index - rep.Start
	if offset < 0 || offset >= len(rep.Segments) {
		results <- segmentResult{index: index, bitrate: bitrate, err: abrerrors.NewTransportError(index, "", errSegmentOutOfRange)}
		return
	}

	res, err := s.dl.Fetch(ctx, index, rep.Segments[offset], s.cfg.DestDir)
	results <- segmentResult{index: index, bitrate: bitrate, res: res, err: err}
}

func (s *Scheduler) drainNonBlocking(results <-chan segmentResult, inFlight *int) {
	for {
		select {
		case res := <-results:
			*inFlight--
			s.complete(res)
		default:
			return
		}
	}
}

func (s *Scheduler) complete(res segmentResult) {
	if res.err != nil {
		s.logger.Warn("segment skipped",
			slog.Int("index", res.index), slog.Any("error", res.err))
		return
	}

	s.session.RecordCompletion(res.res.Duration.Seconds(), res.res.BytesWritten)

	rec := buffer.Record{
		Index:           res.index,
		Bitrate:         res.bitrate,
		SizeBytes:       res.res.BytesWritten,
		DownloadSeconds: res.res.Duration.Seconds(),
		LocalPath:       res.res.Path,
		PlaybackLength:  s.session.Catalog.SegmentDuration,
	}

	for _, ready := range s.reorder.Complete(rec) {
		if err := s.buf.Write(ready); err != nil {
			s.logger.Error("buffer overflow", slog.Any("error", err))
		}
	}
}

// nextSegmentSizes builds the per-bitrate size hint map SARA uses to
// predict download time for segment i, when the catalog advertises sizes.
func (s *Scheduler) nextSegmentSizes(index int) map[int64]int64 {
	sizes := make(map[int64]int64, len(s.session.Catalog.Bitrates()))
	for _, bw := range s.session.Catalog.Bitrates() {
		rep, ok := s.session.Catalog.Representation(bw)
		if !ok {
			continue
		}
		sizes[bw] = rep.SegmentSize(index)
	}
	return sizes
}

var errNoMinRepresentation = representationLookupError("current bitrate has no representation")
var errSegmentOutOfRange = representationLookupError("segment index out of range for representation")

type representationLookupError string

func (e representationLookupError) Error() string { return string(e) }
