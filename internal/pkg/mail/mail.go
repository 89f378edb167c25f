package mail

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNoRecipient = errors.New("mail: no recipient")
	ErrNoSender    = errors.New("mail: no sender")
)

// Message is a provider-agnostic email. When both bodies are set the HTML body
// is sent as an alternative part.
type Message struct {
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

func (m Message) recipients() int {
	return len(m.To) + len(m.Cc) + len(m.Bcc)
}

// Mail delivers a Message. Implementations must return once ctx is done even
// if the provider has not answered yet.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
