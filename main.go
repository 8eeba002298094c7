// Package main our entry point.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/creachadair/taskgroup"
	"github.com/go-chi/chi/v5"

	"github.com/nathandb7/chatroom/internal/chat"
	"github.com/nathandb7/chatroom/internal/config"
	"github.com/nathandb7/chatroom/internal/handler"
	"github.com/nathandb7/chatroom/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("Starting application...")

	st, closeStore := openStore(ctx, cfg)
	defer closeStore()

	router := chat.NewRouter(st,
		chat.WithHistoryLimit(cfg.HistoryLimit),
		chat.WithMinInterval(cfg.MinMessageInterval),
		chat.WithStoreTimeout(cfg.StoreTimeout),
	)

	mux := chi.NewRouter()
	mux.Get("/health", handler.ServeHealth(time.Now()))
	mux.Get("/ws", handler.ServeWs(router))
	mux.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	g := taskgroup.New(nil)
	g.Go(func() error {
		log.Printf("Server starting at 0.0.0.0:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	<-ctx.Done()
	log.Printf("Shutdown signal received; shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println(err)
	}

	if err := g.Wait(); err != nil {
		log.Printf("server error: %v", err)
	}

	log.Println("Server stopped")
}

// openStore picks the message store from the configuration. Store failures
// degrade the service to chatting without history instead of refusing to
// start.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func()) {
	switch {
	case cfg.DatabaseURL != "":
		return openPostgres(ctx, cfg)

	case cfg.DataDir != "":
		log.Printf("Initializing Badger store at %s...", cfg.DataDir)
		b, err := store.NewBadger(cfg.DataDir)
		if err != nil {
			log.Printf("failed to open badger store: %v; continuing without durable history", err)
			return store.Unavailable{Err: err}, func() {}
		}
		return b, func() {
			if err := b.Close(); err != nil {
				log.Printf("failed to close badger store: %v", err)
			}
		}

	default:
		log.Println("DB_URL and DATA_DIR are not set; messages are kept in memory only")
		return store.NewMemory(0), func() {}
	}
}

// openPostgres connects with bounded retries, mirroring how the service has
// always come up before its database on fresh deployments.
func openPostgres(ctx context.Context, cfg config.Config) (store.Store, func()) {
	log.Println("Initializing Database connection...")

	var lastErr error
	for attempt := 0; attempt <= cfg.StoreRetries; attempt++ {
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err == nil {
			if err := pg.Migrate(ctx); err != nil {
				log.Printf("failed to run migrations: %v; continuing without durable history", err)
				pg.Close()
				return store.Unavailable{Err: err}, func() {}
			}
			log.Println("db is connected")
			return pg, pg.Close
		}

		lastErr = err
		log.Printf("failed to connect to postgres (attempt %d): %v", attempt+1, err)

		select {
		case <-time.After(3 * time.Second):
		case <-ctx.Done():
			return store.Unavailable{Err: ctx.Err()}, func() {}
		}
	}

	log.Println("could not connect to postgres after several attempts; continuing without durable history")
	return store.Unavailable{Err: lastErr}, func() {}
}
