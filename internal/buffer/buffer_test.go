package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuffer() *Buffer {
	return New(Config{
		Capacity:        5,
		InitialBuffer:   2,
		SegmentLimit:    3,
		SegmentDuration: 2,
	})
}

func TestBuffer_InitialBufferingToPlay(t *testing.T) {
	b := newTestBuffer()
	assert.Equal(t, InitialBuffering, b.State())

	require.NoError(t, b.Write(Record{Index: 0}))
	assert.Equal(t, InitialBuffering, b.State())

	require.NoError(t, b.Write(Record{Index: 1}))
	assert.Equal(t, Play, b.State())
	assert.Equal(t, 2, b.Depth())
}

func TestBuffer_StrictIndexOrder(t *testing.T) {
	b := newTestBuffer()
	require.NoError(t, b.Write(Record{Index: 0}))

	assert.Panics(t, func() {
		b.Write(Record{Index: 2})
	})
}

func TestBuffer_OverflowAtCapacity(t *testing.T) {
	b := New(Config{Capacity: 1, InitialBuffer: 1, SegmentDuration: 2})
	require.NoError(t, b.Write(Record{Index: 0}))

	err := b.Write(Record{Index: 1})
	require.Error(t, err)
}

func TestBuffer_TickDequeuesAfterFullDuration(t *testing.T) {
	b := newTestBuffer()
	require.NoError(t, b.Write(Record{Index: 0}))
	require.NoError(t, b.Write(Record{Index: 1}))
	require.Equal(t, Play, b.State())

	rec, ok := b.Tick(1) // half a segment_duration of 2s
	assert.False(t, ok)
	assert.Nil(t, rec)

	rec, ok = b.Tick(1) // now a full 2s consumed
	require.True(t, ok)
	assert.Equal(t, 0, rec.Index)
	assert.Equal(t, 1, b.Depth())
}

func TestBuffer_PlayToBufferingOnEmpty(t *testing.T) {
	b := New(Config{Capacity: 5, InitialBuffer: 1, SegmentDuration: 2})
	require.NoError(t, b.Write(Record{Index: 0}))
	require.Equal(t, Play, b.State())

	b.Tick(2) // drains the only record
	assert.Equal(t, 0, b.Depth())

	_, ok := b.Tick(1)
	assert.False(t, ok)
	assert.Equal(t, Buffering, b.State())
}

func TestBuffer_BufferingBackToPlayOnWrite(t *testing.T) {
	b := New(Config{Capacity: 5, InitialBuffer: 1, SegmentDuration: 2})
	require.NoError(t, b.Write(Record{Index: 0}))
	b.Tick(2)
	b.Tick(1) // -> BUFFERING
	require.Equal(t, Buffering, b.State())

	require.NoError(t, b.Write(Record{Index: 1}))
	assert.Equal(t, Play, b.State())
}

func TestBuffer_EndOnSegmentLimitDrain(t *testing.T) {
	b := New(Config{Capacity: 5, InitialBuffer: 1, SegmentLimit: 2, SegmentDuration: 2})
	require.NoError(t, b.Write(Record{Index: 0}))
	require.NoError(t, b.Write(Record{Index: 1}))

	b.Tick(2) // dequeues index 0
	assert.Equal(t, Play, b.State())

	b.Tick(2) // dequeues index 1, buffer now empty and at segment limit
	assert.Equal(t, End, b.State())
	assert.True(t, b.IsTerminal())
}

func TestBuffer_OrderingAcrossDequeues(t *testing.T) {
	b := New(Config{Capacity: 5, InitialBuffer: 3, SegmentDuration: 1})
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Write(Record{Index: i}))
	}

	var seen []int
	for i := 0; i < 3; i++ {
		rec, ok := b.Tick(1)
		require.True(t, ok)
		seen = append(seen, rec.Index)
	}
	assert.Equal(t, []int{0, 1, 2}, seen)
}
