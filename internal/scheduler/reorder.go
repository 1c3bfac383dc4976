package scheduler

import "github.com/peymanj-dashabr/dashabr/internal/buffer"

// reorderBuffer holds completed segment records that arrived out of
// index order (possible when MAX_PARALLEL > 1) until the run of
// consecutive indices starting at the next expected one can be flushed
// into the playback Buffer in strict order.
type reorderBuffer struct {
	next    int
	pending map[int]buffer.Record
}

func newReorderBuffer(start int) *reorderBuffer {
	return &reorderBuffer{next: start, pending: make(map[int]buffer.Record)}
}

// Complete registers a finished record and returns the run of records now
// ready to flush into the Buffer, in index order.
func (r *reorderBuffer) Complete(rec buffer.Record) []buffer.Record {
	r.pending[rec.Index] = rec

	var ready []buffer.Record
	for {
		rec, ok := r.pending[r.next]
		if !ok {
			break
		}
		ready = append(ready, rec)
		delete(r.pending, r.next)
		r.next++
	}
	return ready
}
