package store

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/nathandb7/chatroom/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Postgres stores messages in a messages table through a pgx connection
// pool. The database assigns creation timestamps, so ordering survives
// process restarts.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database at dbURL and verifies the connection
// with a ping.
func NewPostgres(ctx context.Context, dbURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: could not connect to the postgresql database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store/postgres: ping failed: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Migrate brings the messages schema up to date using the embedded goose
// migrations.
func (p *Postgres) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("store/postgres: set dialect: %w", err)
	}

	// OpenDBFromPool borrows connections from the pool; closing the *sql.DB
	// returns them without tearing the pool down.
	db := stdlib.OpenDBFromPool(p.pool)
	defer db.Close()

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("store/postgres: migrate: %w", err)
	}
	return nil
}

func (p *Postgres) Save(ctx context.Context, msg model.ChatMessage) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO messages (nick, msg) VALUES ($1, $2)`,
		msg.Nick, msg.Msg)
	if err != nil {
		return fmt.Errorf("store/postgres: insert message: %w", err)
	}
	return nil
}

func (p *Postgres) ListRecent(ctx context.Context, limit int) ([]model.ChatMessage, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT nick, msg, created_at FROM messages ORDER BY created_at DESC, id DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: list messages: %w", err)
	}
	defer rows.Close()

	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ChatMessage, error) {
		var m model.ChatMessage
		err := row.Scan(&m.Nick, &m.Msg, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("store/postgres: scan messages: %w", err)
	}
	return msgs, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
