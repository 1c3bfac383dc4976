// Package buffer implements the bounded playback buffer that couples the
// scheduler's download loop to a consumer-side playback timer.
package buffer

import (
	"sync"

	"github.com/peymanj-dashabr/dashabr/internal/abrerrors"
)

// State is one of the playback buffer's states.
type State int

const (
	InitialBuffering State = iota
	Play
	Buffering
	End
	Stop
)

func (s State) String() string {
	switch s {
	case InitialBuffering:
		return "INITIAL_BUFFERING"
	case Play:
		return "PLAY"
	case Buffering:
		return "BUFFERING"
	case End:
		return "END"
	case Stop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

// Record is one completed segment, written by the scheduler and consumed
// by the playback timer.
type Record struct {
	Index           int
	Bitrate         int64
	SizeBytes       int64
	DownloadSeconds float64
	LocalPath       string
	PlaybackLength  float64
}

// Buffer is a bounded FIFO of Records with an INITIAL_BUFFERING/PLAY/
// BUFFERING/END state machine. One producer (the scheduler) calls Write;
// one consumer (the playback timer) calls Tick and Depth.
type Buffer struct {
	mu sync.Mutex
	cond *sync.Cond

	records []Record
	nextIndex int // enforces strictly increasing write order; -1 = unset

	capacity       int
	initialBuffer  int
	segmentLimit   int // 0 = unbounded
	segmentDuration float64

	playPosition float64
	consumed     float64 // fraction of current-head segment consumed, in seconds
	state        State

	totalWritten int
}

// Config configures a new Buffer.
type Config struct {
	Capacity        int
	InitialBuffer   int
	SegmentLimit    int
	SegmentDuration float64
}

// New creates a Buffer in the INITIAL_BUFFERING state.
func New(cfg Config) *Buffer {
	b := &Buffer{
		records:         make([]Record, 0, cfg.Capacity),
		nextIndex:       -1,
		capacity:        cfg.Capacity,
		initialBuffer:   cfg.InitialBuffer,
		segmentLimit:    cfg.SegmentLimit,
		segmentDuration: cfg.SegmentDuration,
		state:           InitialBuffering,
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Write appends a completed segment record. Records must arrive in
// strictly increasing index order; the scheduler's reorder buffer is
// responsible for that ordering upstream of Write. Returns
// abrerrors.BufferOverflowError if the buffer is already at capacity.
func (b *Buffer) Write(r Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.nextIndex != -1 && r.Index != b.nextIndex {
		panic("buffer: segment written out of order")
	}
	if len(b.records) >= b.capacity {
		return abrerrors.NewBufferOverflowError(r.Index, b.capacity)
	}

	b.records = append(b.records, r)
	b.nextIndex = r.Index + 1
	b.totalWritten++

	if b.state == InitialBuffering && len(b.records) >= b.initialBuffer {
		b.state = Play
	}
	if b.state == Buffering {
		b.state = Play
	}
	b.cond.Broadcast()
	return nil
}

// Tick advances play position by dt seconds while in PLAY, dequeuing a
// record each time a full segment_duration of content has been consumed.
// Returns the dequeued record, if any.
func (b *Buffer) Tick(dt float64) (*Record, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Play {
		return nil, false
	}
	if len(b.records) == 0 {
		if !b.atEnd() {
			b.state = Buffering
		}
		return nil, false
	}

	b.playPosition += dt
	b.consumed += dt

	if b.consumed < b.segmentDuration {
		return nil, false
	}
	b.consumed -= b.segmentDuration

	head := b.records[0]
	b.records = b.records[1:]

	if len(b.records) == 0 && b.atEnd() {
		b.state = End
	}

	b.cond.Broadcast()
	return &head, true
}

// atEnd reports whether every segment up to the configured limit has
// already been written. Must be called with mu held.
func (b *Buffer) atEnd() bool {
	return b.segmentLimit > 0 && b.totalWritten >= b.segmentLimit
}

// Depth returns the number of queued segments.
func (b *Buffer) Depth() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// State returns the current buffer state.
func (b *Buffer) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// PlayPosition returns the monotonic play position in seconds.
func (b *Buffer) PlayPosition() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playPosition
}

// Stop forces the buffer into the terminal STOP state, waking any waiter.
func (b *Buffer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Stop
	b.cond.Broadcast()
}

// WaitForSpace blocks until the buffer has room for at least one more
// record, or has reached a terminal state. Used by the scheduler to honor
// buffer-full pacing rather than spin-polling Depth.
func (b *Buffer) WaitForSpace() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.records) >= b.capacity && b.state != End && b.state != Stop {
		b.cond.Wait()
	}
}

// IsTerminal reports whether the buffer has reached END or STOP.
func (b *Buffer) IsTerminal() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == End || b.state == Stop
}
