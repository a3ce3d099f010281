// ABOUTME: NATS-backed Channel publishing fragments to per-connection subjects
// ABOUTME: Used when an edge relay outside this process owns the client sockets

package push

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSChannel publishes each payload to <prefix>.<connectionID>.
type NATSChannel struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSChannel creates a channel over an established connection.
func NewNATSChannel(nc *nats.Conn, prefix string) *NATSChannel {
	return &NATSChannel{nc: nc, prefix: prefix}
}

// ConnectNATS dials the server with reconnect handling suited to a long-lived gateway.
func ConnectNATS(url string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "nats")

	nc, err := nats.Connect(url,
		nats.Name("scribe-gateway"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("reconnected to NATS", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// Subject returns the subject a connection's fragments are published on.
func Subject(prefix, connectionID string) string {
	return prefix + "." + connectionID
}

// Deliver publishes payload. Publishing is asynchronous; an error here means
// the client connection to NATS is unusable.
func (n *NATSChannel) Deliver(_ context.Context, connectionID string, payload []byte) error {
	if n.nc.IsClosed() {
		return ErrConnectionGone
	}
	if err := n.nc.Publish(Subject(n.prefix, connectionID), payload); err != nil {
		return fmt.Errorf("publishing fragment: %w", err)
	}
	return nil
}
