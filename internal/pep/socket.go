package pep

import (
	"net"
	"time"
)

// BufferSize is the default SO_RCVBUF/SO_SNDBUF size applied to both legs
// of a tunnelled connection.
const BufferSize = 256 * 1024

// KeepAliveIdle, KeepAliveInterval and KeepAliveCount are the default
// TCP keepalive parameters applied when the platform exposes them.
const (
	KeepAliveIdle     = 60 * time.Second
	KeepAliveInterval = 10 * time.Second
	KeepAliveCount    = 6
)

// tuneSocket applies the portable subset of socket tuning available
// through the standard library: buffer sizes, TCP_NODELAY, and a
// best-effort keepalive. Platform-specific options (TCP_QUICKACK,
// keepalive probe count) are layered on top by tuneSocketPlatform.
func tuneSocket(conn *net.TCPConn, bufSize int) error {
	if bufSize <= 0 {
		bufSize = BufferSize
	}
	if err := conn.SetReadBuffer(bufSize); err != nil {
		return err
	}
	if err := conn.SetWriteBuffer(bufSize); err != nil {
		return err
	}
	if err := conn.SetNoDelay(true); err != nil {
		return err
	}
	if err := conn.SetKeepAlive(true); err != nil {
		return err
	}
	if err := conn.SetKeepAlivePeriod(KeepAliveInterval); err != nil {
		return err
	}

	tuneSocketPlatform(conn)
	return nil
}
