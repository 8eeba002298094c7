package chat

import "errors"

// Every rejected action maps to one of these errors. Their messages are the
// reason strings surfaced to the client on the acknowledgement channel; none
// of them propagate past the router.
var (
	ErrInvalidFormat     = errors.New("nickname must be 3-20 characters of letters, digits, dots, dashes or underscores")
	ErrNameTaken         = errors.New("that username already exists")
	ErrNotAuthenticated  = errors.New("pick a nickname before chatting")
	ErrRateLimited       = errors.New("you are sending messages too fast")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrMalformedWhisper  = errors.New("whisper format is /w <nick> <message>")
	ErrTargetOffline     = errors.New("that user is not connected")
	ErrSelfWhisper       = errors.New("you cannot whisper to yourself")
	ErrPersistenceFailed = errors.New("message could not be saved, try again")
)

// Internal conditions a well-behaved client never triggers.
var (
	errUnknownConnection = errors.New("unknown connection")
	errAlreadyNamed      = errors.New("nickname is already set for this connection")
)
