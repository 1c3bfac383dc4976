package throughput

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow_MeanEmpty(t *testing.T) {
	w := NewWindow(5)
	_, ok := w.Mean()
	assert.False(t, ok)
}

func TestWindow_MeanAndBound(t *testing.T) {
	w := NewWindow(3)
	w.Add(1)
	w.Add(2)
	w.Add(3)
	w.Add(4) // evicts 1

	assert.Equal(t, 3, w.Len())
	mean, ok := w.Mean()
	require.True(t, ok)
	assert.InDelta(t, 3.0, mean, 1e-9) // (2+3+4)/3
	assert.Equal(t, []float64{2, 3, 4}, w.Samples())
}

func TestWindow_Reset(t *testing.T) {
	w := NewWindow(2)
	w.Add(5)
	w.Reset()
	assert.Equal(t, 0, w.Len())
}

func TestWindow_ConcurrentAdd(t *testing.T) {
	w := NewWindow(10)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Add(1.0)
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, w.Len()) // bounded even under concurrent writers
}

func TestWindow_DefaultSize(t *testing.T) {
	w := NewWindow(0)
	assert.Equal(t, DefaultWindowSize, w.size)
}
