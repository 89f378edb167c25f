package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/safe4law/safe4law/internal/pkg/authz"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
)

type DeleteInput struct {
	ID int64 `validate:"gt=0"`
}

// Delete removes a document the caller owns, its row first and then its objects.
func (s *Usecase) Delete(ctx context.Context, in DeleteInput) error {
	ctx, span := s.startSpan(ctx, "Delete")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	d, err := s.document(ctx, in.ID, clm.UserID)
	if err != nil {
		return err
	}

	ok, err := s.allowed(ctx, clm.UserID, d, authz.ActDelete)
	if err != nil {
		return err
	}
	if !ok {
		return goerror.NewBusiness("Only the owner can delete this document", goerror.CodeForbidden)
	}

	if err := s.repoDB.DeleteDocument(ctx, d.ID); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return goerror.NewBusiness("Document not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo delete document", "document_id", d.ID, "error", err)
		return goerror.NewServer(err)
	}

	s.discard(ctx, d.DocKey, d.ImageKey)

	slog.InfoContext(ctx, "document deleted", "document_id", d.ID, "owner_id", clm.UserID)

	return nil
}
