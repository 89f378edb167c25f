package mail

import (
	"context"
	"log/slog"
)

// Log writes messages to the structured log instead of delivering them.
// Selected with mail.driver=log for local development.
type Log struct{}

func NewLog() *Log {
	return &Log{}
}

func (*Log) Send(ctx context.Context, msg Message) error {
	if msg.recipients() == 0 {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "mail captured", "to", msg.To, "subject", msg.Subject, "text", msg.TextBody)

	return nil
}

func (*Log) Close() error {
	return nil
}
