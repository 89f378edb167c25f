package mq

import (
	"context"
	"encoding/json"

	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/pkg/messaging"
	"github.com/safe4law/safe4law/internal/recovery/usecase"
	"github.com/safe4law/safe4law/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishCredentialReset(ctx context.Context, msg usecase.CredentialResetEvent) error {
	ctx, span := m.ins.Tracer("recovery.outbound.mq").Start(ctx, "PublishCredentialReset")
	defer span.End()

	body, err := json.Marshal(event.CredentialResetMessage{
		Email:   msg.Email,
		ResetAt: msg.ResetAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Publish(ctx, event.CredentialResetTopic, messaging.Outgoing{
		Key:  msg.Email,
		Body: body,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
