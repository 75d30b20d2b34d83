package model

import "context"

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers outbound email.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
