// Package websocket adapts a coder/websocket connection to the chat
// router's transport contract: named events in, named events and
// acknowledgements out.
package websocket

import "encoding/json"

// Frame is a single inbound JSON message. Clients attach an id when they
// expect an acknowledgement for the event.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	ID    *uint64         `json:"id,omitempty"`
}

// outFrame is what the server writes: pushed events carry no id,
// acknowledgements echo the client's id under the "ack" event.
type outFrame struct {
	Event string  `json:"event"`
	Data  any     `json:"data,omitempty"`
	ID    *uint64 `json:"id,omitempty"`
}

// claimAck answers a "new user" request.
type claimAck struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// sendAck answers a "send message" request. Error is null on success.
type sendAck struct {
	Error *string `json:"error"`
}
