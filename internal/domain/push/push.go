package push

import "context"

// Message is one push notification addressed to one or more tokens.
type Message struct {
	To    []string
	Title string
	Body  string
	Data  map[string]string
}

// Sender delivers one batch of messages through the push transport.
// It returns how many messages of the batch the transport accepted, and a
// non-nil error if any message was not accepted. A partial failure returns
// both a positive count and an error.
type Sender interface {
	Send(ctx context.Context, batch []Message) (int, error)
}
