package natsbus

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// EmbeddedURL selects an in-process server instead of dialing a broker.
const EmbeddedURL = "embedded"

// Connect dials url, or starts an in-process server when url is EmbeddedURL.
// The returned shutdown drains the connection and stops any embedded server.
func Connect(url, name string, logger *slog.Logger) (*nats.Conn, func(), error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, func() {}, errors.New("nats url is empty")
	}
	if url == EmbeddedURL {
		ns, err := StartEmbedded()
		if err != nil {
			return nil, func() {}, err
		}
		nc, err := nats.Connect("", nats.InProcessServer(ns), nats.Name(name))
		if err != nil {
			ns.Shutdown()
			return nil, func() {}, fmt.Errorf("connect in-process nats: %w", err)
		}
		return nc, func() { Shutdown(nc, ns, logger) }, nil
	}
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, func() {}, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return nc, func() { Shutdown(nc, nil, logger) }, nil
}

// StartEmbedded starts a NATS server reachable only in-process.
func StartEmbedded() (*server.Server, error) {
	ns, err := server.NewServer(&server.Options{DontListen: true})
	if err != nil {
		return nil, err
	}
	go ns.Start()
	if !ns.ReadyForConnections(4 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("nats server failed to start within timeout")
	}
	return ns, nil
}

// Shutdown drains the connection, then stops the server if one was embedded.
func Shutdown(nc *nats.Conn, ns *server.Server, logger *slog.Logger) {
	if nc != nil {
		drained := make(chan error, 1)
		go func() { drained <- nc.Drain() }()
		select {
		case err := <-drained:
			if err != nil {
				if logger != nil {
					logger.Warn("nats drain failed, forcing close", slog.String("error", err.Error()))
				}
				nc.Close()
			}
		case <-time.After(2 * time.Second):
			if logger != nil {
				logger.Warn("nats drain timed out, forcing close")
			}
			nc.Close()
		}
	}
	if ns != nil {
		ns.Shutdown()
		ns.WaitForShutdown()
	}
}
