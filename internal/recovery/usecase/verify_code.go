package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/safe4law/safe4law/internal/pkg/goerror"
	"github.com/safe4law/safe4law/internal/recovery/entity"
)

type VerifyCodeInput struct {
	Email string `validate:"required,email"`
	OTP   string `validate:"required,otp4"`
}

type VerifyCodeOutput struct {
	ResetToken string
	ExpiresAt  time.Time
}

// VerifyCode consumes a valid one-time code and hands out a single-use reset
// grant. Wrong, used and expired codes are indistinguishable to the caller.
func (s *Usecase) VerifyCode(ctx context.Context, in VerifyCodeInput) (*VerifyCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyCode")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.OTP = strings.TrimSpace(in.OTP)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	digest, err := s.codeDigest(in.Email, in.OTP)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash one-time code", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()

	check, err := s.repoDB.ConsumeCode(ctx, in.Email, digest, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume code", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}
	if check != entity.CodeValid {
		slog.DebugContext(ctx, "one-time code rejected", "email", in.Email, "reason", check.String())
		return nil, goerror.NewBusiness("Invalid or expired OTP", goerror.CodeInvalidOrExpired)
	}

	grant := entity.Grant{
		Token:     s.token.Generate(),
		Email:     in.Email,
		ExpiresAt: now.Add(s.grantTTL()),
	}

	key, err := s.grantKey(grant.Email, grant.Token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash reset token", "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoCache.SaveGrant(ctx, key, grant.Email, grant.ExpiresAt.Sub(now)); err != nil {
		slog.ErrorContext(ctx, "failed to cache save reset grant", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &VerifyCodeOutput{ResetToken: grant.Token, ExpiresAt: grant.ExpiresAt}, nil
}
