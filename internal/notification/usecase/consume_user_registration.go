package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/safe4law/safe4law/internal/notification/entity"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
)

type ConsumeUserRegistrationInput struct {
	MessageID string `validate:"required"`
	UserID    int64  `validate:"required,gt=0"`
	Email     string `validate:"required,email"`
	FirstName string
	VerifyURL string `validate:"required,url"`
}

// ConsumeUserRegistration mails the verification link. Malformed events are
// dropped; a failed send is returned so the broker redelivers.
func (s *Usecase) ConsumeUserRegistration(ctx context.Context, in ConsumeUserRegistrationInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeUserRegistration")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "invalid user registration event dropped", "message_id", in.MessageID, "error", err)
		return nil
	}

	e, err := render(entity.KindVerifyEmail, in.Email, verifyHTML, verifyText, entity.VerifyEmailData{
		FirstName: in.FirstName,
		VerifyURL: in.VerifyURL,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to render verification email", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return s.once(ctx, in.MessageID, e)
}
