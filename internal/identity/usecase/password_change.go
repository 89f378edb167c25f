package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/safe4law/safe4law/internal/pkg/goerror"
	"github.com/safe4law/safe4law/internal/pkg/validator"
)

type PasswordChangeInput struct {
	CurrentPassword string `validate:"required"`
	NewPassword     string `validate:"required"`
}

func (s *Usecase) PasswordChange(ctx context.Context, in PasswordChangeInput) error {
	ctx, span := s.startSpan(ctx, "PasswordChange")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if !validator.StrongPassword(in.NewPassword) {
		return goerror.WithField(
			goerror.NewBusiness("Password does not meet the requirements", goerror.CodeWeakCredential),
			"new_password", validator.PasswordMessage,
		)
	}

	cred, err := s.repoDB.GetCredentialByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("User not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get credential by id", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if !s.password.Verify(cred.PasswordHash, in.CurrentPassword) {
		slog.WarnContext(ctx, "current password mismatch", "user_id", cred.ID)
		return goerror.NewInvalidInput(nil, "current_password", "Current password is incorrect")
	}

	hashed, err := s.password.Hash(in.NewPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash new password", "user_id", cred.ID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.UpdatePassword(ctx, cred.ID, string(hashed)); err != nil {
		slog.ErrorContext(ctx, "failed to repo update password", "user_id", cred.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
