package chat

import (
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
)

type member struct {
	conn   Conn
	name   string
	joined uint64
}

// Registry owns the mapping from normalized nickname to connection. A
// connection is in the registry iff it successfully claimed a name and has
// not disconnected. Safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	byKey map[string]*member
	seq   uint64
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]*member)}
}

// Claim registers rawName for conn. It fails with ErrInvalidFormat when the
// name does not validate and ErrNameTaken when another connection already
// holds its normalized key.
func (r *Registry) Claim(rawName string, conn Conn) error {
	if !ValidNickname(rawName) {
		return ErrInvalidFormat
	}

	name := strings.TrimSpace(rawName)
	key := NormalizeKey(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byKey[key]; taken {
		return ErrNameTaken
	}

	r.seq++
	r.byKey[key] = &member{conn: conn, name: name, joined: r.seq}
	return nil
}

// Release removes the entry for key, but only while conn still owns it.
// This guards against a slow old connection's disconnect evicting a newer
// claim under the same key. It reports whether a removal happened.
func (r *Registry) Release(key string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byKey[key]
	if !ok || m.conn.ID() != conn.ID() {
		return false
	}

	delete(r.byKey, key)
	return true
}

// Lookup returns the connection currently holding key.
func (r *Registry) Lookup(key string) (Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byKey[key]
	if !ok {
		return nil, false
	}
	return m.conn, true
}

// Names returns a roster snapshot of display names in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	members := lo.Values(r.byKey)
	r.mu.Unlock()

	sort.Slice(members, func(i, j int) bool {
		return members[i].joined < members[j].joined
	})

	return lo.Map(members, func(m *member, _ int) string {
		return m.name
	})
}
