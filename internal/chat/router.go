package chat

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nathandb7/chatroom/internal/model"
	"github.com/nathandb7/chatroom/internal/store"
)

const (
	// DefaultStoreTimeout bounds every call into the persistence store so
	// a stuck backend cannot wedge a connection.
	DefaultStoreTimeout = 5 * time.Second
)

// session is the per-connection state the router tracks. A connection starts
// anonymous (empty name) and becomes active once a nickname claim succeeds.
type session struct {
	conn    Conn
	limiter *Limiter
	name    string
	key     string
}

// Router routes chat traffic between connections: nickname claims, public
// broadcasts, whispers, and the history replay served to new arrivals.
//
// Public messages are fanned out to every connection including the sender;
// the browser client renders its own messages from the broadcast rather
// than echoing locally.
type Router struct {
	registry *Registry
	store    store.Store

	mu       sync.Mutex
	sessions map[uuid.UUID]*session

	historyLimit int
	minInterval  time.Duration
	storeTimeout time.Duration
}

// Option configures a Router.
type Option func(*Router)

// WithHistoryLimit caps how many messages are replayed on join.
func WithHistoryLimit(n int) Option {
	return func(rt *Router) {
		if n > 0 {
			rt.historyLimit = n
		}
	}
}

// WithMinInterval sets the per-connection minimum interval between sends.
func WithMinInterval(d time.Duration) Option {
	return func(rt *Router) {
		if d > 0 {
			rt.minInterval = d
		}
	}
}

// WithStoreTimeout bounds persistence and history calls.
func WithStoreTimeout(d time.Duration) Option {
	return func(rt *Router) {
		if d > 0 {
			rt.storeTimeout = d
		}
	}
}

// NewRouter returns a Router persisting public messages to st.
func NewRouter(st store.Store, opts ...Option) *Router {
	rt := &Router{
		registry:     NewRegistry(),
		store:        st,
		sessions:     make(map[uuid.UUID]*session),
		historyLimit: DefaultHistoryLimit,
		minInterval:  DefaultMinInterval,
		storeTimeout: DefaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Connect registers a new transport connection and kicks off the history
// replay. The replay is loaded off the caller's goroutine so a slow store
// never blocks other connections; on failure the client simply gets an
// empty backlog.
func (rt *Router) Connect(ctx context.Context, conn Conn) {
	s := &session{conn: conn, limiter: NewLimiter(rt.minInterval)}

	rt.mu.Lock()
	rt.sessions[conn.ID()] = s
	rt.mu.Unlock()

	go func() {
		msgs := LoadHistory(ctx, rt.store, rt.historyLimit, rt.storeTimeout)
		if !conn.Send(EventReplay, msgs) {
			log.Printf("chat/router: could not deliver replay to %s", conn.ID())
		}
	}()
}

// Claim registers rawName for conn and, on success, broadcasts the updated
// roster to everyone. The returned error is the reason for the claim
// acknowledgement: ErrInvalidFormat or ErrNameTaken for client mistakes.
func (rt *Router) Claim(conn Conn, rawName string) error {
	rt.mu.Lock()
	s, ok := rt.sessions[conn.ID()]
	if !ok {
		rt.mu.Unlock()
		return errUnknownConnection
	}
	if s.name != "" {
		rt.mu.Unlock()
		return errAlreadyNamed
	}

	// The uniqueness check and the session update happen under one lock so
	// two racing claims cannot both win.
	if err := rt.registry.Claim(rawName, conn); err != nil {
		rt.mu.Unlock()
		return err
	}

	name := strings.TrimSpace(rawName)
	s.name = name
	s.key = NormalizeKey(name)
	rt.mu.Unlock()

	rt.broadcastRoster()
	return nil
}

// Send handles one inbound "send message" request from conn. A nil return
// means the message was delivered (broadcast or whisper); otherwise the
// error carries the rejection reason for the acknowledgement.
func (rt *Router) Send(ctx context.Context, conn Conn, rawBody any) error {
	rt.mu.Lock()
	s, ok := rt.sessions[conn.ID()]
	var name, key string
	var limiter *Limiter
	if ok {
		name, key, limiter = s.name, s.key, s.limiter
	}
	rt.mu.Unlock()

	if !ok || name == "" {
		return ErrNotAuthenticated
	}
	if !limiter.Allow() {
		return ErrRateLimited
	}

	body := SanitizeMessage(rawBody)
	if body == "" {
		return ErrEmptyMessage
	}

	if IsWhisper(body) {
		return rt.deliverWhisper(name, key, body)
	}

	msg := model.ChatMessage{Nick: name, Msg: body}

	// Durability precedes visibility: a message that could not be saved is
	// not broadcast.
	saveCtx, cancel := context.WithTimeout(ctx, rt.storeTimeout)
	defer cancel()
	if err := rt.store.Save(saveCtx, msg); err != nil {
		log.Printf("chat/router: failed to store message from %s: %v", name, err)
		return ErrPersistenceFailed
	}

	rt.broadcast(EventNewMessage, msg)
	return nil
}

func (rt *Router) deliverWhisper(senderName, senderKey, body string) error {
	w, ok := ParseWhisper(body)
	if !ok {
		return ErrMalformedWhisper
	}
	if w.Content == "" {
		return ErrEmptyMessage
	}

	targetKey := NormalizeKey(w.Target)
	target, online := rt.registry.Lookup(targetKey)
	if !online {
		return ErrTargetOffline
	}
	if targetKey == senderKey {
		return ErrSelfWhisper
	}

	if !target.Send(EventWhisper, model.ChatMessage{Nick: senderName, Msg: w.Content}) {
		log.Printf("chat/router: dropping whisper for slow client %s", target.ID())
	}
	return nil
}

// Disconnect tears down conn's session. Safe to call more than once; only
// the first call can release the nickname and re-broadcast the roster.
func (rt *Router) Disconnect(conn Conn) {
	rt.mu.Lock()
	s, ok := rt.sessions[conn.ID()]
	if ok {
		delete(rt.sessions, conn.ID())
	}
	rt.mu.Unlock()

	if !ok || s.key == "" {
		return
	}

	if rt.registry.Release(s.key, conn) {
		rt.broadcastRoster()
	}
}

// Roster returns the current display names in registration order.
func (rt *Router) Roster() []string {
	return rt.registry.Names()
}

// broadcast fans event out to every connected transport session, named or
// anonymous. Delivery is best effort: clients that cannot keep up miss the
// event rather than stalling everyone else.
func (rt *Router) broadcast(event string, data any) {
	rt.mu.Lock()
	conns := make([]Conn, 0, len(rt.sessions))
	for _, s := range rt.sessions {
		conns = append(conns, s.conn)
	}
	rt.mu.Unlock()

	for _, c := range conns {
		if !c.Send(event, data) {
			log.Printf("chat/router: skipping %q event for slow client %s", event, c.ID())
		}
	}
}

func (rt *Router) broadcastRoster() {
	rt.broadcast(EventRoster, rt.registry.Names())
}
