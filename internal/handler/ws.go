// Package handler wires the HTTP surface to the chat engine.
package handler

import (
	"log"
	"net/http"

	"github.com/coder/websocket"

	"github.com/nathandb7/chatroom/internal/chat"
	ws "github.com/nathandb7/chatroom/internal/websocket"
)

// ServeWs handles the client's websocket connection upgrade.
func ServeWs(router *chat.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			log.Printf("handler/ws: failed to upgrade connection: %v", err)
			return
		}

		c := ws.NewClient(conn, router)
		router.Connect(ctx, c)

		// We block on c.ReadPump() because the request context is canceled
		// as soon as we return from the handler.
		go c.WritePump(ctx)
		c.ReadPump(ctx)
	}
}
