package abrerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransportError_Is(t *testing.T) {
	err := NewTransportError(4, "https://example/seg4.m4s", errors.New("connection reset"))
	assert.True(t, errors.Is(err, ErrTransport))
	assert.False(t, errors.Is(err, ErrDecode))
	assert.Contains(t, err.Error(), "segment 4")
}

func TestDecodeError_Is(t *testing.T) {
	err := NewDecodeError(7, errors.New("truncated box"))
	assert.True(t, errors.Is(err, ErrDecode))
}

func TestManifestError_Is(t *testing.T) {
	err := NewManifestError("https://example/manifest.mpd", errors.New("404"))
	assert.True(t, errors.Is(err, ErrManifest))
	assert.Contains(t, err.Error(), "manifest.mpd")
}

func TestBufferOverflowError_Is(t *testing.T) {
	err := NewBufferOverflowError(12, 10)
	assert.True(t, errors.Is(err, ErrBufferOverflow))
	assert.Contains(t, err.Error(), "capacity 10")
}

func TestProxyError_Is(t *testing.T) {
	err := NewProxyError("dash.akamaized.net:443", errors.New("connect refused"))
	assert.True(t, errors.Is(err, ErrProxy))
}

func TestStateError_Is(t *testing.T) {
	err := NewStateError("netflix", errors.New("rate map empty"))
	assert.True(t, errors.Is(err, ErrState))
}
