package chat

import (
	"context"
	"log"
	"time"

	"github.com/samber/lo"

	"github.com/nathandb7/chatroom/internal/model"
	"github.com/nathandb7/chatroom/internal/store"
)

// DefaultHistoryLimit is how many persisted messages a new connection
// receives on join.
const DefaultHistoryLimit = 50

// LoadHistory fetches the most recent public messages and returns them
// oldest first for replay. Failures degrade to an empty replay; history
// being unavailable must never keep a new connection from chatting.
func LoadHistory(ctx context.Context, st store.Store, limit int, timeout time.Duration) []model.ChatMessage {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msgs, err := st.ListRecent(ctx, limit)
	if err != nil {
		log.Printf("chat/history: failed to load recent messages: %v", err)
		return []model.ChatMessage{}
	}
	if msgs == nil {
		return []model.ChatMessage{}
	}

	// The store hands back newest-first pages; the client wants to render
	// top to bottom.
	return lo.Reverse(msgs)
}
