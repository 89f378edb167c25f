package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/safe4law/safe4law/internal/pkg/goerror"
)

type RegisterResendInput struct {
	Email string `validate:"required,email"`
}

// RegisterResend replaces the verification token of an unverified account and
// mails a new link. Unknown and verified accounts succeed silently.
func (s *Usecase) RegisterResend(ctx context.Context, in RegisterResendInput) error {
	ctx, span := s.startSpan(ctx, "RegisterResend")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "email not registered for resend", "email", in.Email)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	if user.EmailVerified {
		slog.InfoContext(ctx, "resend skipped, email already verified", "user_id", user.ID)
		return nil
	}

	raw, token, err := s.newVerification(user.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create verification token", "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.SaveVerificationToken(ctx, token); err != nil {
		slog.ErrorContext(ctx, "failed to repo save verification token", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	s.publishRegistration(ctx, *user, raw)

	return nil
}
