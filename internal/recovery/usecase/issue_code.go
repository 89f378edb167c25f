package usecase

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/safe4law/safe4law/internal/pkg/goerror"
	"github.com/safe4law/safe4law/internal/recovery/entity"
)

type RequestCodeInput struct {
	Email string `validate:"required,email"`
}

type ResendCodeInput struct {
	Email string `validate:"required,email"`
}

// RequestCode emails a fresh one-time code to a registered account.
func (s *Usecase) RequestCode(ctx context.Context, in RequestCodeInput) error {
	ctx, span := s.startSpan(ctx, "RequestCode")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	return s.issueCode(ctx, in.Email)
}

// ResendCode behaves exactly like RequestCode. It counts against the same limit.
func (s *Usecase) ResendCode(ctx context.Context, in ResendCodeInput) error {
	ctx, span := s.startSpan(ctx, "ResendCode")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	return s.issueCode(ctx, in.Email)
}

func (s *Usecase) issueCode(ctx context.Context, email string) error {
	exists, err := s.repoDB.AccountExists(ctx, email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check account exists", "email", email, "error", err)
		return goerror.NewServer(err)
	}
	if !exists {
		slog.WarnContext(ctx, "one-time code requested for unknown account", "email", email)
		return goerror.NewBusiness("Email is not registered", goerror.CodeNotFound)
	}

	code, err := s.code.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate one-time code", "error", err)
		return goerror.NewServer(err)
	}

	digest, err := s.codeDigest(email, code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash one-time code", "error", err)
		return goerror.NewServer(err)
	}

	now := s.clock.Now()
	ttl := s.codeTTL()
	limit := s.issueLimit()

	iss, err := s.repoDB.IssueCode(ctx, entity.NewCode{
		ID:        s.uid.Generate(),
		Email:     email,
		CodeHash:  digest,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo issue code", "email", email, "error", err)
		return goerror.NewServer(err)
	}

	if !iss.Allowed {
		wait := iss.RetryAfter(now, limit.Window)
		slog.WarnContext(ctx, "one-time code rate limited", "email", email, "retry_after", wait.String())
		return goerror.WithMeta(
			goerror.NewBusiness("Too many OTP requests. Please try again after 2 minutes.", goerror.CodeTooManyRequest),
			"retry_after_seconds", int(math.Ceil(wait.Seconds())),
		)
	}

	// The code is already committed; a client hanging up must not abort delivery.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout())
	defer cancel()

	if err := s.notifier.SendCode(sendCtx, email, code, ttl); err != nil {
		slog.ErrorContext(ctx, "failed to deliver one-time code", "email", email, "error", err)
		return goerror.NewBusinessCause(err, "Failed to send OTP email. Please try again.", goerror.CodeDeliveryFailed)
	}

	slog.InfoContext(ctx, "one-time code issued", "email", email)

	return nil
}
