package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/safe4law/safe4law/internal/identity/entity"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
)

// ProfileUpdateInput is a partial update. Nil and blank fields are left unchanged.
type ProfileUpdateInput struct {
	FirstName *string `validate:"omitempty,max=50,alphaspace"`
	LastName  *string `validate:"omitempty,max=50,alphaspace"`
	Gender    *string `validate:"omitempty,oneof=male female other"`
	Country   *string `validate:"omitempty,max=60"`
}

func (s *Usecase) ProfileUpdate(ctx context.Context, in ProfileUpdateInput) (*ProfileOutput, error) {
	ctx, span := s.startSpan(ctx, "ProfileUpdate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.FirstName = trimmedOrNil(in.FirstName)
	in.LastName = trimmedOrNil(in.LastName)
	in.Country = trimmedOrNil(in.Country)
	if g := trimmedOrNil(in.Gender); g != nil {
		lower := strings.ToLower(*g)
		in.Gender = &lower
	} else {
		in.Gender = nil
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	patch := entity.ProfilePatch{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Country:   in.Country,
	}
	if in.Gender != nil {
		g := entity.GenderFromString(*in.Gender)
		patch.Gender = &g
	}

	if patch.Empty() {
		return nil, goerror.NewBusiness("Please provide at least one field to update", goerror.CodeInvalidInput)
	}

	user, err := s.repoDB.UpdateProfile(ctx, clm.UserID, patch)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("User not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update profile", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return toProfile(user), nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
