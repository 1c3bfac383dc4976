//go:build linux

package pep

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// tuneSocketPlatform sets TCP_QUICKACK and a keepalive probe count on
// Linux, options the standard library net package does not expose
// directly. This reaches the raw file descriptor through
// (*net.TCPConn).SyscallConn rather than peeking through library
// internals, per the redesign note against socket-introspection hacks.
func tuneSocketPlatform(conn *net.TCPConn) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return
	}

	_ = raw.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), syscall.IPPROTO_TCP, unix.TCP_QUICKACK, 1)
		_ = unix.SetsockoptInt(int(fd), syscall.IPPROTO_TCP, unix.TCP_KEEPCNT, KeepAliveCount)
		_ = unix.SetsockoptInt(int(fd), syscall.IPPROTO_TCP, unix.TCP_KEEPIDLE, int(KeepAliveIdle.Seconds()))
		_ = unix.SetsockoptInt(int(fd), syscall.IPPROTO_TCP, unix.TCP_KEEPINTVL, int(KeepAliveInterval.Seconds()))
	})
}
