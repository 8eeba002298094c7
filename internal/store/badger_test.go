package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathandb7/chatroom/internal/model"
)

func newTestBadger(t *testing.T) *Badger {
	t.Helper()
	b, err := NewBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, b.Close())
	})
	return b
}

func TestBadgerSaveAndListRecent(t *testing.T) {
	b := newTestBadger(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Save(ctx, model.ChatMessage{Nick: "alice", Msg: fmt.Sprintf("m%d", i)}))
	}

	got, err := b.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "m4", got[0].Msg)
	assert.Equal(t, "m3", got[1].Msg)
	assert.Equal(t, "m2", got[2].Msg)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestBadgerListRecentEmpty(t *testing.T) {
	b := newTestBadger(t)

	got, err := b.ListRecent(context.Background(), 50)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBadgerLimitLargerThanStore(t *testing.T) {
	b := newTestBadger(t)
	ctx := context.Background()

	require.NoError(t, b.Save(ctx, model.ChatMessage{Nick: "bob", Msg: "only one"}))

	got, err := b.ListRecent(ctx, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bob", got[0].Nick)
	assert.Equal(t, "only one", got[0].Msg)
}
