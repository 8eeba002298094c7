package store

import (
	"context"
	"fmt"

	"github.com/nathandb7/chatroom/internal/model"
)

// Unavailable is installed when the configured backend cannot be reached at
// startup. Every call fails, which the router surfaces as rejected sends and
// an empty replay; the service keeps chatting without durability.
type Unavailable struct {
	Err error
}

func (u Unavailable) Save(context.Context, model.ChatMessage) error {
	return fmt.Errorf("store: backend unavailable: %w", u.Err)
}

func (u Unavailable) ListRecent(context.Context, int) ([]model.ChatMessage, error) {
	return nil, fmt.Errorf("store: backend unavailable: %w", u.Err)
}
