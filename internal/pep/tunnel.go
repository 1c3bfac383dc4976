// Package pep implements the Performance Enhancing Proxy: a local TCP
// listener that accepts HTTP/1.1 CONNECT requests, opens a tuned TCP
// connection to the requested upstream, and relays bytes opaquely in both
// directions. It never terminates TLS or inspects payload.
package pep

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/netutil"

	"github.com/peymanj-dashabr/dashabr/internal/abrerrors"
)

// Config configures a Tunnel.
type Config struct {
	ListenAddr string
	BufferSize int // SO_RCVBUF/SO_SNDBUF, 0 = BufferSize default
	MaxConns   int // 0 = unlimited
}

// Tunnel is a CONNECT-only PEP listener.
type Tunnel struct {
	cfg    Config
	logger *slog.Logger

	listener net.Listener
}

// New creates a Tunnel bound to cfg.ListenAddr. Call Serve to accept
// connections.
func New(cfg Config, logger *slog.Logger) *Tunnel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tunnel{cfg: cfg, logger: logger}
}

// Serve listens and accepts connections until the listener is closed.
// When cfg.MaxConns > 0, the accepted connection count is bounded via
// golang.org/x/net/netutil.LimitListener rather than a hand-rolled
// semaphore around Accept.
func (t *Tunnel) Serve() error {
	ln, err := net.Listen("tcp", t.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("pep: listen %s: %w", t.cfg.ListenAddr, err)
	}
	if t.cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, t.cfg.MaxConns)
	}
	t.listener = ln

	t.logger.Info("pep tunnel listening", slog.String("addr", ln.Addr().String()))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if isClosedErr(err) {
				return nil
			}
			return fmt.Errorf("pep: accept: %w", err)
		}
		go t.handle(conn)
	}
}

// Close stops accepting new connections.
func (t *Tunnel) Close() error {
	if t.listener == nil {
		return nil
	}
	return t.listener.Close()
}

func isClosedErr(err error) bool {
	return strings.Contains(err.Error(), "use of closed network connection")
}

func (t *Tunnel) handle(client net.Conn) {
	defer client.Close()

	reader := bufio.NewReader(client)
	req, err := http.ReadRequest(reader)
	if err != nil {
		writeStatusLine(client, http.StatusBadRequest, "Bad Request")
		return
	}

	if req.Method != http.MethodConnect {
		writeStatusLine(client, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	target := req.URL.Host
	if target == "" {
		target = req.Host
	}
	if target == "" || !strings.Contains(target, ":") {
		writeStatusLine(client, http.StatusBadRequest, "Bad Request")
		return
	}

	upstream, err := net.DialTimeout("tcp", target, 10*time.Second)
	if err != nil {
		writeStatusLine(client, http.StatusBadGateway, "Bad Gateway")
		t.logger.Warn("pep upstream connect failed",
			slog.String("target", target), slog.Any("error", abrerrors.NewProxyError(target, err)))
		return
	}
	defer upstream.Close()

	if tcpClient, ok := client.(*net.TCPConn); ok {
		_ = tuneSocket(tcpClient, t.cfg.BufferSize)
	}
	if tcpUpstream, ok := upstream.(*net.TCPConn); ok {
		_ = tuneSocket(tcpUpstream, t.cfg.BufferSize)
	}

	if _, err := client.Write([]byte("HTTP/1.1 200 Connection established\r\n\r\n")); err != nil {
		return
	}

	relay(client, upstream)
}

func writeStatusLine(conn net.Conn, code int, reason string) {
	status := fmt.Sprintf("HTTP/1.1 %d %s\r\n\r\n", code, reason)
	conn.Write([]byte(status))
}
