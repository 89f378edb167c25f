package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/safe4law/safe4law/internal/pkg/goerror"
)

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type LoginOutput struct {
	AccessToken string
	ExpiresAt   time.Time
	// TTL is the remaining session lifetime, used as cookie max age.
	TTL       time.Duration
	UserID    int64
	Email     string
	FirstName string
	LastName  string
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	invalid := goerror.NewBusiness("Invalid email or password", goerror.CodeUnauthorized)

	cred, err := s.repoDB.GetCredentialByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "login for unknown account", "email", in.Email)
		return nil, invalid
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get credential by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.password.Verify(cred.PasswordHash, in.Password) {
		slog.WarnContext(ctx, "login password mismatch", "user_id", cred.ID)
		return nil, invalid
	}

	if !cred.EmailVerified {
		return nil, goerror.NewBusiness("Please verify your email before logging in", goerror.CodeForbidden)
	}

	user, err := s.repoDB.GetUserByID(ctx, cred.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	token, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate session token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "user logged in", "user_id", user.ID)

	return &LoginOutput{
		AccessToken: token.Value,
		ExpiresAt:   token.ExpiresAt,
		TTL:         token.ExpiresAt.Sub(s.clock.Now()),
		UserID:      user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
	}, nil
}
