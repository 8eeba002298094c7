package store

import (
	"context"
	"sync"
	"time"

	"github.com/nathandb7/chatroom/internal/model"
)

const defaultMemoryCapacity = 1000

// Memory is a bounded in-memory Store. It backs the service when no durable
// backend is configured and the router tests.
type Memory struct {
	mu   sync.Mutex
	cap  int
	msgs []model.ChatMessage
}

// NewMemory returns a Memory holding at most capacity messages. A
// non-positive capacity falls back to the default.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &Memory{cap: capacity}
}

func (m *Memory) Save(_ context.Context, msg model.ChatMessage) error {
	msg.CreatedAt = time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.msgs = append(m.msgs, msg)
	if len(m.msgs) > m.cap {
		m.msgs = m.msgs[len(m.msgs)-m.cap:]
	}
	return nil
}

func (m *Memory) ListRecent(_ context.Context, limit int) ([]model.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := limit
	if n > len(m.msgs) {
		n = len(m.msgs)
	}
	if n < 0 {
		n = 0
	}

	out := make([]model.ChatMessage, 0, n)
	for i := len(m.msgs) - 1; i >= len(m.msgs)-n; i-- {
		out = append(out, m.msgs[i])
	}
	return out, nil
}
