package websocket

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/nathandb7/chatroom/internal/chat"
)

const (
	// sendBuffer is the per-client outgoing queue. When it fills up the
	// router drops events for this client instead of blocking.
	sendBuffer = 64

	writeTimeout = 10 * time.Second
)

// Client binds one websocket connection to the chat router. It implements
// chat.Conn.
type Client struct {
	id     uuid.UUID
	conn   *websocket.Conn
	router *chat.Router
	sendCh chan outFrame
}

// NewClient returns a Client for an accepted connection.
func NewClient(conn *websocket.Conn, router *chat.Router) *Client {
	return &Client{
		id:     uuid.New(),
		conn:   conn,
		router: router,
		sendCh: make(chan outFrame, sendBuffer),
	}
}

// ID implements chat.Conn.
func (c *Client) ID() uuid.UUID { return c.id }

// Send implements chat.Conn. It queues a fire-and-forget event and reports
// false when the outgoing buffer is full.
func (c *Client) Send(event string, data any) bool {
	select {
	case c.sendCh <- outFrame{Event: event, Data: data}:
		return true
	default:
		return false
	}
}

// ack answers a client request identified by id.
func (c *Client) ack(id uint64, data any) {
	select {
	case c.sendCh <- outFrame{Event: "ack", ID: &id, Data: data}:
	default:
		log.Printf("websocket/client: dropping ack %d for %s", id, c.id)
	}
}

// ReadPump reads frames from the websocket until the connection drops,
// dispatching each one to the router. It must run on the handler goroutine
// so the request context stays alive for the connection's lifetime.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.router.Disconnect(c)
		c.conn.CloseNow()
	}()

	for {
		msgType, p, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure &&
				status != websocket.StatusGoingAway &&
				status != -1 {
				log.Printf("websocket/client: read: %v", err)
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}

		var frame Frame
		if err := json.Unmarshal(p, &frame); err != nil {
			log.Printf("websocket/client: failed to process payload from client: %v", err)
			continue
		}

		c.dispatch(ctx, frame)
	}
}

// WritePump drains the outgoing queue onto the websocket.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case frame := <-c.sendCh:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, c.conn, frame)
			cancel()
			if err != nil {
				slog.WarnContext(ctx, "failed to write frame",
					"error", err,
					"event", frame.Event,
					"client", c.id.String())
				return
			}

		case <-ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "context cancelled")
			return
		}
	}
}

func (c *Client) dispatch(ctx context.Context, frame Frame) {
	switch frame.Event {
	case chat.EventClaim:
		var raw string
		if err := json.Unmarshal(frame.Data, &raw); err != nil {
			// Non-string payload never validates as a nickname; let the
			// claim fail with the format reason.
			raw = ""
		}

		err := c.router.Claim(c, raw)
		if frame.ID == nil {
			return
		}
		if err != nil {
			c.ack(*frame.ID, claimAck{OK: false, Reason: err.Error()})
			return
		}
		c.ack(*frame.ID, claimAck{OK: true})

	case chat.EventSend:
		// Decode into any: the sanitizer owns coercion of non-string
		// payloads, so the transport stays permissive here.
		var body any
		if len(frame.Data) > 0 {
			if err := json.Unmarshal(frame.Data, &body); err != nil {
				body = nil
			}
		}

		err := c.router.Send(ctx, c, body)
		if frame.ID == nil {
			return
		}
		if err != nil {
			reason := err.Error()
			c.ack(*frame.ID, sendAck{Error: &reason})
			return
		}
		c.ack(*frame.ID, sendAck{Error: nil})

	default:
		log.Printf("websocket/client: unknown event %q from %s", frame.Event, c.id)
	}
}
