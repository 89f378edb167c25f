package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/safe4law/safe4law/internal/pkg/goerror"
)

type VerifyEmailInput struct {
	Token string `validate:"required,hexadecimal,len=64"`
}

// VerifyEmail marks the account owning token as verified and burns the token.
func (s *Usecase) VerifyEmail(ctx context.Context, in VerifyEmailInput) error {
	ctx, span := s.startSpan(ctx, "VerifyEmail")
	defer span.End()

	in.Token = strings.TrimSpace(in.Token)

	failed := goerror.NewBusiness("Verification failed: invalid or expired token.", goerror.CodeInvalidOrExpired)
	if err := s.validator.Validate(in); err != nil {
		return failed
	}

	digest, err := s.hmac.Hash("verify|" + in.Token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash verification token", "error", err)
		return goerror.NewServer(err)
	}

	userID, err := s.repoDB.VerifyEmail(ctx, string(digest), s.clock.Now())
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "verification token not found or expired")
		return failed
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo verify email", "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "email verified", "user_id", userID)
	return nil
}
