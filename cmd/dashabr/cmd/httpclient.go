package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/peymanj-dashabr/dashabr/internal/config"
	"github.com/peymanj-dashabr/dashabr/pkg/httpclient"
)

// newHTTPClient builds the resilient client shared by manifest and segment
// fetches. When proxyAddr is non-empty, requests are routed through a
// CONNECT tunnel at that address instead of dialing the origin directly.
func newHTTPClient(httpCfg config.HTTPConfig, proxyAddr string, pepBufferSize int) *httpclient.Client {
	base := &http.Client{Timeout: httpCfg.Timeout}
	if proxyAddr != "" {
		base.Transport = pepTransport(proxyAddr, pepBufferSize)
	}

	return httpclient.New(httpclient.Config{
		Timeout:             httpCfg.Timeout,
		RetryAttempts:       httpCfg.RetryAttempts,
		RetryDelay:          httpCfg.RetryDelay,
		RetryMaxDelay:       httpclient.DefaultRetryMaxDelay,
		BackoffMultiplier:   httpclient.DefaultBackoffMultiplier,
		CircuitThreshold:    httpCfg.CircuitThreshold,
		CircuitTimeout:      httpCfg.CircuitTimeout,
		CircuitHalfOpenMax:  httpclient.DefaultCircuitHalfOpenMax,
		UserAgent:           httpclient.DefaultUserAgentHeader,
		Logger:              appLogger,
		EnableDecompression: true,
		MaxResponseSize:     httpCfg.MaxResponseSize.Int64(),
		BaseClient:          base,
	})
}

// pepTransport builds an http.Transport that tunnels every request through
// a CONNECT proxy at proxyAddr, tuning the client-to-proxy socket buffers
// to bufSize bytes (0 keeps the OS default) the way the source's PEP
// client configured its own leg of the tunnel.
func pepTransport(proxyAddr string, bufSize int) *http.Transport {
	proxyURL := &url.URL{Scheme: "http", Host: proxyAddr}
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	return &http.Transport{
		Proxy: http.ProxyURL(proxyURL),
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, fmt.Errorf("dialing pep proxy %s: %w", proxyAddr, err)
			}
			if tcpConn, ok := conn.(*net.TCPConn); ok && bufSize > 0 {
				_ = tcpConn.SetReadBuffer(bufSize)
				_ = tcpConn.SetWriteBuffer(bufSize)
			}
			return conn, nil
		},
	}
}
