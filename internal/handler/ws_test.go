package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathandb7/chatroom/internal/chat"
	"github.com/nathandb7/chatroom/internal/model"
	"github.com/nathandb7/chatroom/internal/store"
)

// frame mirrors what a browser client reads and writes.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	ID    *uint64         `json:"id,omitempty"`
}

type outFrame struct {
	Event string  `json:"event"`
	Data  any     `json:"data,omitempty"`
	ID    *uint64 `json:"id,omitempty"`
}

type claimAck struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

type sendAck struct {
	Error *string `json:"error"`
}

// wsClient drives one websocket connection against the test server,
// collecting every frame the server pushes.
type wsClient struct {
	t      *testing.T
	conn   *websocket.Conn
	nextID uint64

	mu     sync.Mutex
	frames []frame
}

func newTestServer(t *testing.T, st store.Store) (*httptest.Server, *chat.Router) {
	t.Helper()
	rt := chat.NewRouter(st, chat.WithMinInterval(time.Nanosecond))
	srv := httptest.NewServer(ServeWs(rt))
	t.Cleanup(srv.Close)
	return srv, rt
}

func dial(t *testing.T, srv *httptest.Server) *wsClient {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)

	c := &wsClient{t: t, conn: conn}
	t.Cleanup(func() { c.conn.CloseNow() })

	go func() {
		for {
			var f frame
			if err := wsjson.Read(context.Background(), c.conn, &f); err != nil {
				return
			}
			c.mu.Lock()
			c.frames = append(c.frames, f)
			c.mu.Unlock()
		}
	}()

	return c
}

// request sends an event with an ack id and waits for the acknowledgement.
func (c *wsClient) request(event string, data any) frame {
	c.t.Helper()

	c.nextID++
	id := c.nextID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(c.t, wsjson.Write(ctx, c.conn, outFrame{Event: event, Data: data, ID: &id}))

	var ack frame
	require.Eventually(c.t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, f := range c.frames {
			if f.Event == "ack" && f.ID != nil && *f.ID == id {
				ack = f
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "no ack for %q request %d", event, id)

	return ack
}

// waitFor blocks until at least count frames named event arrived and
// returns the count-th one.
func (c *wsClient) waitFor(event string, count int) frame {
	c.t.Helper()

	var got frame
	require.Eventually(c.t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		n := 0
		for _, f := range c.frames {
			if f.Event == event {
				n++
				if n == count {
					got = f
				}
			}
		}
		return n >= count
	}, 2*time.Second, 10*time.Millisecond, "frame %d of event %q never arrived", count, event)

	return got
}

func (c *wsClient) countOf(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, f := range c.frames {
		if f.Event == event {
			n++
		}
	}
	return n
}

func (c *wsClient) claim(nick string) claimAck {
	c.t.Helper()
	var ack claimAck
	require.NoError(c.t, json.Unmarshal(c.request(chat.EventClaim, nick).Data, &ack))
	return ack
}

func (c *wsClient) send(body string) sendAck {
	c.t.Helper()
	var ack sendAck
	require.NoError(c.t, json.Unmarshal(c.request(chat.EventSend, body).Data, &ack))
	return ack
}

func TestServeWsClaimAndBroadcast(t *testing.T) {
	srv, _ := newTestServer(t, store.NewMemory(0))

	alice := dial(t, srv)
	bob := dial(t, srv)

	require.True(t, alice.claim("alice").OK)

	ack := bob.claim("bob")
	require.True(t, ack.OK)

	// The roster reaches both connections once bob joins.
	roster := alice.waitFor(chat.EventRoster, 2)
	var names []string
	require.NoError(t, json.Unmarshal(roster.Data, &names))
	assert.Equal(t, []string{"alice", "bob"}, names)

	msgAck := alice.send("hello everyone")
	assert.Nil(t, msgAck.Error)

	for _, c := range []*wsClient{alice, bob} {
		f := c.waitFor(chat.EventNewMessage, 1)
		var msg model.ChatMessage
		require.NoError(t, json.Unmarshal(f.Data, &msg))
		assert.Equal(t, model.ChatMessage{Nick: "alice", Msg: "hello everyone"}, msg)
	}
}

func TestServeWsClaimRejections(t *testing.T) {
	srv, _ := newTestServer(t, store.NewMemory(0))

	alice := dial(t, srv)
	require.True(t, alice.claim("alice").OK)

	intruder := dial(t, srv)
	ack := intruder.claim("Alice ")
	assert.False(t, ack.OK)
	assert.NotEmpty(t, ack.Reason)

	ack = intruder.claim("x!")
	assert.False(t, ack.OK)

	// Sending without a claimed name is rejected with a reason.
	msgAck := intruder.send("hi")
	require.NotNil(t, msgAck.Error)
	assert.NotEmpty(t, *msgAck.Error)
}

func TestServeWsWhisperIsolation(t *testing.T) {
	srv, _ := newTestServer(t, store.NewMemory(0))

	alice := dial(t, srv)
	bob := dial(t, srv)
	carol := dial(t, srv)

	require.True(t, alice.claim("alice").OK)
	require.True(t, bob.claim("bob").OK)
	require.True(t, carol.claim("carol").OK)

	ack := alice.send("/w bob secret")
	assert.Nil(t, ack.Error)

	f := bob.waitFor(chat.EventWhisper, 1)
	var msg model.ChatMessage
	require.NoError(t, json.Unmarshal(f.Data, &msg))
	assert.Equal(t, model.ChatMessage{Nick: "alice", Msg: "secret"}, msg)

	// The whisper shows up nowhere else.
	assert.Zero(t, carol.countOf(chat.EventWhisper))
	assert.Zero(t, alice.countOf(chat.EventWhisper))
	assert.Zero(t, bob.countOf(chat.EventNewMessage))
}

func TestServeWsReplayOnConnect(t *testing.T) {
	st := store.NewMemory(0)
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, model.ChatMessage{Nick: "alice", Msg: "first"}))
	require.NoError(t, st.Save(ctx, model.ChatMessage{Nick: "bob", Msg: "second"}))

	srv, _ := newTestServer(t, st)

	late := dial(t, srv)
	f := late.waitFor(chat.EventReplay, 1)

	var replay []model.ChatMessage
	require.NoError(t, json.Unmarshal(f.Data, &replay))
	require.Len(t, replay, 2)

	// Oldest first, ready to render top to bottom.
	assert.Equal(t, "first", replay[0].Msg)
	assert.Equal(t, "second", replay[1].Msg)
}

func TestServeWsDisconnectUpdatesRoster(t *testing.T) {
	srv, rt := newTestServer(t, store.NewMemory(0))

	alice := dial(t, srv)
	bob := dial(t, srv)
	require.True(t, alice.claim("alice").OK)
	require.True(t, bob.claim("bob").OK)
	alice.waitFor(chat.EventRoster, 2)

	require.NoError(t, bob.conn.Close(websocket.StatusNormalClosure, "bye"))

	require.Eventually(t, func() bool {
		names := rt.Roster()
		return len(names) == 1 && names[0] == "alice"
	}, 2*time.Second, 10*time.Millisecond)

	roster := alice.waitFor(chat.EventRoster, 3)
	var names []string
	require.NoError(t, json.Unmarshal(roster.Data, &names))
	assert.Equal(t, []string{"alice"}, names)
}
