// ABOUTME: Tests for the connection Hub and its WebSocket pumps
// ABOUTME: Exercises delivery errors, concurrent delivery, and a real gorilla round trip

package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_DeliverErrors(t *testing.T) {
	hub := NewHub(2, nil, nil)
	ctx := t.Context()

	err := hub.Deliver(ctx, "missing", []byte("x"))
	assert.ErrorIs(t, err, ErrConnectionGone)

	c := hub.Register("s")
	require.NoError(t, hub.Deliver(ctx, c.ID, []byte("1")))
	require.NoError(t, hub.Deliver(ctx, c.ID, []byte("2")))
	assert.ErrorIs(t, hub.Deliver(ctx, c.ID, []byte("3")), ErrBufferFull)

	hub.Unregister(c)
	hub.Unregister(c)
	assert.ErrorIs(t, hub.Deliver(ctx, c.ID, []byte("4")), ErrConnectionGone)
	assert.Equal(t, 0, hub.Count())

	// Queue is closed after draining what was buffered.
	var got []string
	for p := range c.Send() {
		got = append(got, string(p))
	}
	assert.Equal(t, []string{"1", "2"}, got)
}

func TestHub_DeliverFinalUsesReservedSlots(t *testing.T) {
	hub := NewHub(1, nil, nil)
	ctx := t.Context()
	c := hub.Register("s")

	require.NoError(t, hub.Deliver(ctx, c.ID, []byte("text")))
	assert.ErrorIs(t, hub.Deliver(ctx, c.ID, []byte("more")), ErrBufferFull)

	for i := 0; i < finalSlots; i++ {
		require.NoError(t, hub.DeliverFinal(ctx, c.ID, []byte("end")))
	}
	assert.ErrorIs(t, hub.DeliverFinal(ctx, c.ID, []byte("end")), ErrBufferFull)
	assert.Len(t, c.Send(), 1+finalSlots)
}

func TestHub_ConcurrentDeliverAndUnregister(t *testing.T) {
	hub := NewHub(8, nil, nil)
	c := hub.Register("s")

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				_ = hub.Deliver(t.Context(), c.ID, []byte("x"))
			}
		}()
	}
	go func() {
		for range c.Send() {
		}
	}()
	hub.Unregister(c)
	wg.Wait()
}

type echoHandler struct {
	hub *Hub
	mu  sync.Mutex
	ids []string
}

func (e *echoHandler) OnOpen(c *Conn) {
	e.mu.Lock()
	e.ids = append(e.ids, c.ID)
	e.mu.Unlock()
	payload, _ := json.Marshal(map[string]string{"connectionId": c.ID})
	_ = e.hub.Deliver(context.Background(), c.ID, payload)
}

func (e *echoHandler) OnMessage(c *Conn, data []byte) {
	_ = e.hub.Deliver(context.Background(), c.ID, []byte(strings.ToUpper(string(data))))
}

func TestHub_ServeWS(t *testing.T) {
	hub := NewHub(16, nil, nil)
	handler := &echoHandler{hub: hub}
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.ServeWS(ws, "session-1", WSOptions{PingInterval: time.Second}, handler)
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	client.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello map[string]string
	require.NoError(t, client.ReadJSON(&hello))
	assert.NotEmpty(t, hello["connectionId"])

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("ping")))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "PING", string(data))

	require.Equal(t, 1, hub.Count())
	require.NoError(t, hub.Deliver(t.Context(), hello["connectionId"], []byte("pushed")))
	_, data, err = client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "pushed", string(data))

	client.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 5*time.Second, 10*time.Millisecond)
}
