package pep

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoServer accepts one connection and echoes whatever it reads, used as
// the "upstream" side of the CONNECT tunnel in tests.
func echoServer(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.Copy(conn, conn)
	}()
	return ln
}

func startTunnel(t *testing.T) *Tunnel {
	t.Helper()
	tun := New(Config{ListenAddr: "127.0.0.1:0"}, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	tun.listener = ln
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go tun.handle(conn)
		}
	}()
	t.Cleanup(func() { tun.Close() })
	return tun
}

func TestTunnel_S6ConnectHappyPathByteExact(t *testing.T) {
	upstream := echoServer(t)
	defer upstream.Close()

	tun := startTunnel(t)

	client, err := net.Dial("tcp", tun.listener.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	fmt.Fprintf(client, "CONNECT %s HTTP/1.1\r\n\r\n", upstream.Addr().String())

	reader := bufio.NewReader(client)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "200")
	reader.ReadString('\n') // trailing CRLF

	payload := make([]byte, 4096)
	_, err = rand.Read(payload)
	require.NoError(t, err)

	go client.Write(payload)

	got := make([]byte, len(payload))
	_, err = io.ReadFull(reader, got)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestTunnel_RejectsNonConnect(t *testing.T) {
	tun := startTunnel(t)

	client, err := net.Dial("tcp", tun.listener.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	fmt.Fprintf(client, "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n")
	client.SetReadDeadline(time.Now().Add(2 * time.Second))

	resp, err := http.ReadResponse(bufio.NewReader(client), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestTunnel_BadGatewayOnUnreachableUpstream(t *testing.T) {
	tun := startTunnel(t)

	client, err := net.Dial("tcp", tun.listener.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	fmt.Fprintf(client, "CONNECT 127.0.0.1:1 HTTP/1.1\r\n\r\n")
	client.SetReadDeadline(time.Now().Add(2 * time.Second))

	resp, err := http.ReadResponse(bufio.NewReader(client), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
