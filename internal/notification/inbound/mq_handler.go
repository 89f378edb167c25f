package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/safe4law/safe4law/internal/notification/usecase"
	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/pkg/messaging"
	"github.com/safe4law/safe4law/internal/shared/event"
)

// MQHandler turns broker messages into notification use case calls.
// Undecodable payloads are acknowledged; they would never succeed on redelivery.
type MQHandler struct {
	uc  uc
	ins instrument.Instrumentation
}

func (h *MQHandler) UserRegistrationNotification(ctx context.Context, msg *messaging.Message) error {
	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "UserRegistrationNotification")
	defer span.End()

	slog.InfoContext(ctx, "consume: user registration notification", "message_id", msg.ID, "attempt", msg.Attempt)

	var payload event.UserRegistrationMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of user registration notification", "msg_body", string(msg.Body), "error", err)
		return nil
	}

	return h.uc.ConsumeUserRegistration(ctx, usecase.ConsumeUserRegistrationInput{
		MessageID: msg.ID,
		UserID:    payload.UserID,
		Email:     payload.Email,
		FirstName: payload.FirstName,
		VerifyURL: payload.VerifyURL,
	})
}

func (h *MQHandler) CredentialResetNotification(ctx context.Context, msg *messaging.Message) error {
	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "CredentialResetNotification")
	defer span.End()

	slog.InfoContext(ctx, "consume: credential reset notification", "message_id", msg.ID, "attempt", msg.Attempt)

	var payload event.CredentialResetMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of credential reset notification", "msg_body", string(msg.Body), "error", err)
		return nil
	}

	return h.uc.ConsumeCredentialReset(ctx, usecase.ConsumeCredentialResetInput{
		MessageID: msg.ID,
		Email:     payload.Email,
		ResetAt:   payload.ResetAt,
	})
}
