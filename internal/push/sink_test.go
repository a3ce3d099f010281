// ABOUTME: Tests for the Sink's payload format and error swallowing
// ABOUTME: Uses a recording channel and a Hub with a tiny buffer

package push

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChannel struct {
	mu       sync.Mutex
	payloads map[string][][]byte
	err      error
}

func (r *recordingChannel) Deliver(_ context.Context, connectionID string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.payloads == nil {
		r.payloads = make(map[string][][]byte)
	}
	r.payloads[connectionID] = append(r.payloads[connectionID], payload)
	return nil
}

func (r *recordingChannel) fragments(t *testing.T, connectionID string) []Fragment {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Fragment
	for _, p := range r.payloads[connectionID] {
		var f Fragment
		require.NoError(t, json.Unmarshal(p, &f))
		out = append(out, f)
	}
	return out
}

func TestSink_PayloadFormat(t *testing.T) {
	ch := &recordingChannel{}
	sink := NewSink(ch, nil, nil)
	target := &Target{ConnectionID: "conn-1", MessageID: "msg-9", Action: "achievement"}

	sink.Push(t.Context(), target, "Hello ")
	sink.PushEnd(t.Context(), target)
	sink.PushError(t.Context(), target, "boom")

	frags := ch.fragments(t, "conn-1")
	require.Len(t, frags, 3)
	assert.Equal(t, Fragment{Action: "achievement", MessageID: "msg-9", Text: "Hello "}, frags[0])
	assert.Equal(t, "<END>", frags[1].Text)
	assert.Equal(t, "<ERROR>boom", frags[2].Text)

	raw := ch.payloads["conn-1"][0]
	assert.JSONEq(t, `{"action":"achievement","message_id":"msg-9","text":"Hello "}`, string(raw))
}

func TestSink_NilTargetIsNoop(t *testing.T) {
	ch := &recordingChannel{}
	sink := NewSink(ch, nil, nil)

	sink.Push(t.Context(), nil, "ignored")
	sink.PushEnd(t.Context(), &Target{})

	assert.Empty(t, ch.payloads)
}

func TestSink_SwallowsChannelErrors(t *testing.T) {
	sink := NewSink(&recordingChannel{err: errors.New("gone")}, nil, nil)
	assert.NotPanics(t, func() {
		sink.Push(t.Context(), &Target{ConnectionID: "c"}, "text")
		sink.PushEnd(t.Context(), &Target{ConnectionID: "c"})
	})
}

func TestSink_WithHub(t *testing.T) {
	hub := NewHub(1, nil, nil)
	conn := hub.Register("s1")
	sink := NewSink(hub, nil, nil)
	target := &Target{ConnectionID: conn.ID}

	sink.Push(t.Context(), target, "first")
	sink.Push(t.Context(), target, "dropped, buffer full")
	sink.Push(t.Context(), &Target{ConnectionID: "unknown"}, "dropped, no such connection")

	var f Fragment
	require.NoError(t, json.Unmarshal(<-conn.Send(), &f))
	assert.Equal(t, "first", f.Text)
	assert.Empty(t, conn.Send())
}

func TestSink_EndSurvivesFullBuffer(t *testing.T) {
	hub := NewHub(2, nil, nil)
	conn := hub.Register("s1")
	sink := NewSink(hub, nil, nil)
	target := &Target{ConnectionID: conn.ID, MessageID: "m1"}

	for _, part := range []string{"a ", "slow ", "client ", "misses this"} {
		sink.Push(t.Context(), target, part)
	}
	sink.PushEnd(t.Context(), target)

	var texts []string
	for len(conn.Send()) > 0 {
		var f Fragment
		require.NoError(t, json.Unmarshal(<-conn.Send(), &f))
		texts = append(texts, f.Text)
	}
	assert.Equal(t, []string{"a ", "slow ", EndSentinel}, texts)
}
