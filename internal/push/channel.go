// ABOUTME: Push channel contract and the fragment wire format sent to clients
// ABOUTME: Channels deliver opaque payloads to a connection id, best effort

package push

import (
	"context"
	"errors"
)

var (
	// ErrConnectionGone is returned when the target connection no longer exists.
	ErrConnectionGone = errors.New("connection gone")

	// ErrBufferFull is returned when a connection cannot accept more fragments.
	ErrBufferFull = errors.New("connection send buffer full")
)

// Sentinels a client uses to detect the end of a response.
const (
	EndSentinel = "<END>"
	ErrorPrefix = "<ERROR>"
)

// Channel delivers a payload to one remote connection.
type Channel interface {
	Deliver(ctx context.Context, connectionID string, payload []byte) error
}

// FinalDeliverer is implemented by channels that keep capacity back for the
// terminal fragment of a response.
type FinalDeliverer interface {
	DeliverFinal(ctx context.Context, connectionID string, payload []byte) error
}

// Target addresses the client that should receive a turn's fragments.
type Target struct {
	ConnectionID string
	MessageID    string
	Action       string
}

// Fragment is the JSON payload of every pushed piece of text.
type Fragment struct {
	Action    string `json:"action"`
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
}
