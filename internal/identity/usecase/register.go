package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/safe4law/safe4law/internal/identity/entity"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
)

type RegisterInput struct {
	FirstName string `validate:"required,max=50,alphaspace"`
	LastName  string `validate:"required,max=50,alphaspace"`
	Email     string `validate:"required,email,max=254"`
	Gender    string `validate:"required,oneof=male female other"`
	Country   string `validate:"required,max=60"`
	Password  string `validate:"required,password"`
}

type RegisterOutput struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Gender    string
	Country   string
}

func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Gender = strings.TrimSpace(strings.ToLower(in.Gender))
	in.Country = strings.TrimSpace(in.Country)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	hashed, err := s.password.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	user := entity.NewUser{
		ID:           s.uid.Generate(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Gender:       entity.GenderFromString(in.Gender),
		Country:      in.Country,
		PasswordHash: string(hashed),
	}

	raw, token, err := s.newVerification(user.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create verification token", "error", err)
		return nil, goerror.NewServer(err)
	}

	err = s.repoDB.CreateRegistration(ctx, user, token)
	if errors.Is(err, goerror.ErrConflict) {
		return nil, goerror.NewBusiness("User with this email already exists", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create registration", "email", user.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.publishRegistration(ctx, entity.User{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, raw)

	return &RegisterOutput{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Gender:    user.Gender.String(),
		Country:   user.Country,
	}, nil
}

func (s *Usecase) logPublishFailure(ctx context.Context, userID int64, err error) {
	slog.ErrorContext(ctx, "failed to publish user registration", "user_id", userID, "error", err)
}
