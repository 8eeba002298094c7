// Command loadtest opens a batch of websocket clients against a running
// chatroom server, claims a nickname on each, and sends messages at a fixed
// interval while draining everything the server pushes back.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/creachadair/taskgroup"
)

var (
	serverURL = flag.String("url", "ws://localhost:8080/ws", "websocket endpoint")
	clients   = flag.Int("clients", 10, "number of concurrent clients")
	messages  = flag.Int("messages", 20, "messages to send per client")
	interval  = flag.Duration("interval", 350*time.Millisecond, "delay between sends")
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	ID    *uint64         `json:"id,omitempty"`
}

type outFrame struct {
	Event string  `json:"event"`
	Data  any     `json:"data,omitempty"`
	ID    *uint64 `json:"id,omitempty"`
}

func main() {
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	g := taskgroup.New(nil)
	for i := 0; i < *clients; i++ {
		n := i
		g.Go(func() error {
			return runClient(ctx, n)
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("load test failed: %v", err)
	}
	log.Printf("all %d clients finished", *clients)
}

func runClient(ctx context.Context, n int) error {
	conn, _, err := websocket.Dial(ctx, *serverURL, nil)
	if err != nil {
		return fmt.Errorf("client %d: dial: %w", n, err)
	}
	defer conn.CloseNow()

	// Drain server pushes so the connection's receive window never fills.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			var f frame
			if err := wsjson.Read(ctx, conn, &f); err != nil {
				return
			}
		}
	}()

	var ackID uint64
	nick := fmt.Sprintf("loadtest-%d", n)
	ackID++
	err = wsjson.Write(ctx, conn, outFrame{Event: "new user", Data: nick, ID: &ackID})
	if err != nil {
		return fmt.Errorf("client %d: claim: %w", n, err)
	}

	for i := 0; i < *messages; i++ {
		ackID++
		body := fmt.Sprintf("message %d from %s", i, nick)
		err := wsjson.Write(ctx, conn, outFrame{Event: "send message", Data: body, ID: &ackID})
		if err != nil {
			return fmt.Errorf("client %d: send: %w", n, err)
		}

		select {
		case <-time.After(*interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	conn.Close(websocket.StatusNormalClosure, "done")
	<-readDone
	return nil
}
