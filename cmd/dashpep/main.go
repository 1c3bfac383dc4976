// Command dashpep runs the performance-enhancing-proxy standalone: a
// CONNECT-only TCP tunnel dash clients route segment fetches through.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/peymanj-dashabr/dashabr/internal/config"
	"github.com/peymanj-dashabr/dashabr/internal/logging"
	"github.com/peymanj-dashabr/dashabr/internal/pep"
)

func main() {
	listenHost := flag.String("listen-host", "0.0.0.0", "listen host")
	listenPort := flag.Int("listen-port", 8888, "listen port")
	bufferSize := flag.Int("buffer-size", pep.BufferSize, "SO_RCVBUF/SO_SNDBUF applied to both legs of a tunnelled connection")
	maxConns := flag.Int("max-conns", 0, "maximum concurrent tunnelled connections (0 = unlimited)")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "text", "log format (text, json)")
	flag.Parse()

	logger := logging.New(config.LoggingConfig{Level: *logLevel, Format: *logFormat})
	slog.SetDefault(logger)

	tunnel := pep.New(pep.Config{
		ListenAddr: fmt.Sprintf("%s:%d", *listenHost, *listenPort),
		BufferSize: *bufferSize,
		MaxConns:   *maxConns,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down pep tunnel")
		_ = tunnel.Close()
	}()

	if err := tunnel.Serve(); err != nil {
		logger.Error("pep tunnel exited", slog.Any("error", err))
		os.Exit(1)
	}
}
