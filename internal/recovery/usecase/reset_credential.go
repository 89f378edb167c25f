package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/safe4law/safe4law/internal/pkg/goerror"
	"github.com/safe4law/safe4law/internal/pkg/validator"
)

type ResetCredentialInput struct {
	Email       string `validate:"required,email"`
	ResetToken  string `validate:"required"`
	NewPassword string `validate:"required"`
}

// ResetCredential replaces the account password using a grant from VerifyCode.
// The grant is consumed even when a later step fails.
func (s *Usecase) ResetCredential(ctx context.Context, in ResetCredentialInput) error {
	ctx, span := s.startSpan(ctx, "ResetCredential")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.ResetToken = strings.TrimSpace(in.ResetToken)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if !validator.StrongPassword(in.NewPassword) {
		return goerror.WithField(
			goerror.NewBusiness("Password does not meet the requirements", goerror.CodeWeakCredential),
			"new_password", validator.PasswordMessage,
		)
	}

	key, err := s.grantKey(in.Email, in.ResetToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash reset token", "error", err)
		return goerror.NewServer(err)
	}

	owner, err := s.repoCache.TakeGrant(ctx, key)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "reset grant missing or already used", "email", in.Email)
		return goerror.NewBusiness("Invalid or expired reset token", goerror.CodeInvalidOrExpired)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to cache take reset grant", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}
	if owner != in.Email {
		slog.WarnContext(ctx, "reset grant presented for another account", "email", in.Email)
		return goerror.NewBusiness("Invalid or expired reset token", goerror.CodeInvalidOrExpired)
	}

	newHash, err := s.password.Hash(in.NewPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash new password", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	err = s.repoDB.ResetCredential(ctx, in.Email, string(newHash))
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("User not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo reset credential", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishCredentialReset(ctx, CredentialResetEvent{
		Email:   in.Email,
		ResetAt: s.clock.Now(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish credential reset", "email", in.Email, "error", err)
	}

	slog.InfoContext(ctx, "password reset with one-time code", "email", in.Email)

	return nil
}
