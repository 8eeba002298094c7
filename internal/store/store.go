// Package store persists public chat messages. Whispers never reach a Store.
package store

import (
	"context"

	"github.com/nathandb7/chatroom/internal/model"
)

// Store is an append-only log of public messages, queryable by recency.
type Store interface {
	// Save appends msg. The store assigns the creation timestamp.
	Save(ctx context.Context, msg model.ChatMessage) error

	// ListRecent returns at most limit messages, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.ChatMessage, error)
}
