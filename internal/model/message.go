// Package model defines data structure.
package model

import "time"

// ChatMessage is a public chat message as it travels between the router,
// the store, and the browser client. The JSON field names are the ones the
// client already renders.
type ChatMessage struct {
	Nick string `json:"nick"`
	Msg  string `json:"msg"`

	// CreatedAt is assigned by the store on save and is not part of the
	// wire payload.
	CreatedAt time.Time `json:"-"`
}
