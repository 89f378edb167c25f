package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/safe4law/safe4law/internal/identity/usecase"
	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/pkg/messaging"
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

func (m *Messaging) PublishUserRegistration(ctx context.Context, msg usecase.UserRegistrationEvent) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishUserRegistration")
	defer span.End()

	body, err := json.Marshal(event.UserRegistrationMessage{
		UserID:    msg.UserID,
		Email:     msg.Email,
		FirstName: msg.FirstName,
		LastName:  msg.LastName,
		VerifyURL: msg.VerifyURL,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Publish(ctx, event.UserRegistrationTopic, messaging.Outgoing{
		Key:  strconv.FormatInt(msg.UserID, 10),
		Body: body,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
