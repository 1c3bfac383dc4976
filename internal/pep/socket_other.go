//go:build !linux

package pep

import "net"

// tuneSocketPlatform is a no-op outside Linux: TCP_QUICKACK and the
// finer-grained keepalive knobs this package reaches for are Linux
// socket options with no portable equivalent. The base tuning in
// tuneSocket (buffer sizes, TCP_NODELAY, basic keepalive) still applies.
func tuneSocketPlatform(conn *net.TCPConn) {}
