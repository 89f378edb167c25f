package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/safe4law/safe4law/internal/notification/entity"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
)

type ConsumeCredentialResetInput struct {
	MessageID string `validate:"required"`
	Email     string `validate:"required,email"`
	ResetAt   time.Time
}

// ConsumeCredentialReset warns the account owner that the password changed.
func (s *Usecase) ConsumeCredentialReset(ctx context.Context, in ConsumeCredentialResetInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeCredentialReset")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "invalid credential reset event dropped", "message_id", in.MessageID, "error", err)
		return nil
	}

	if in.ResetAt.IsZero() {
		in.ResetAt = s.clock.Now()
	}

	support := ""
	if web := strings.TrimRight(s.cfg.GetString("app.frontend_url"), "/"); web != "" {
		support = web + "/forget-password"
	}

	e, err := render(entity.KindCredentialReset, in.Email, resetHTML, resetText, entity.CredentialResetData{
		Email:      in.Email,
		ResetAt:    in.ResetAt.UTC(),
		SupportURL: support,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to render credential reset email", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	return s.once(ctx, in.MessageID, e)
}
