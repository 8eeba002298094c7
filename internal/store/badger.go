package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/nathandb7/chatroom/internal/model"
)

var badgerKeyPrefix = []byte("msg:")

// Badger is an embedded Store for single-binary deployments that want
// durable history without a Postgres instance. Keys carry a monotonically
// increasing big-endian sequence so key order matches insertion order.
type Badger struct {
	db  *badger.DB
	seq *badger.Sequence
}

type badgerRecord struct {
	Nick      string    `json:"nick"`
	Msg       string    `json:"msg"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBadger opens (or creates) the store under dir.
func NewBadger(dir string) (*Badger, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("store/badger: open %s: %w", dir, err)
	}

	seq, err := db.GetSequence([]byte("messages_seq"), 128)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store/badger: sequence: %w", err)
	}

	return &Badger{db: db, seq: seq}, nil
}

func (b *Badger) Save(_ context.Context, msg model.ChatMessage) error {
	n, err := b.seq.Next()
	if err != nil {
		return fmt.Errorf("store/badger: next sequence: %w", err)
	}

	val, err := json.Marshal(badgerRecord{
		Nick:      msg.Nick,
		Msg:       msg.Msg,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("store/badger: encode message: %w", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(n), val)
	})
	if err != nil {
		return fmt.Errorf("store/badger: save message: %w", err)
	}
	return nil
}

func (b *Badger) ListRecent(_ context.Context, limit int) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Seek past the last possible message key, then walk backwards.
		seekKey := append(append([]byte{}, badgerKeyPrefix...), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)

		for it.Seek(seekKey); it.ValidForPrefix(badgerKeyPrefix) && len(msgs) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec badgerRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				msgs = append(msgs, model.ChatMessage{
					Nick:      rec.Nick,
					Msg:       rec.Msg,
					CreatedAt: rec.CreatedAt,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store/badger: list messages: %w", err)
	}
	return msgs, nil
}

// Close releases the sequence lease and closes the database.
func (b *Badger) Close() error {
	if err := b.seq.Release(); err != nil {
		return fmt.Errorf("store/badger: release sequence: %w", err)
	}
	return b.db.Close()
}

func badgerKey(n uint64) []byte {
	key := make([]byte, len(badgerKeyPrefix)+8)
	copy(key, badgerKeyPrefix)
	binary.BigEndian.PutUint64(key[len(badgerKeyPrefix):], n)
	return key
}
