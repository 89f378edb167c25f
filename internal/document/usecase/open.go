package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/safe4law/safe4law/internal/document/entity"
	"github.com/safe4law/safe4law/internal/pkg/authz"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
	"github.com/safe4law/safe4law/internal/pkg/validator"
)

type OpenInput struct {
	ID     int64  `validate:"gt=0"`
	Key    string // required for the recipient only
	Action string `validate:"required,oneof=view download"`
}

type OpenOutput struct {
	DocumentURL string
	ImageURL    string
	DocName     string
	Access      entity.Access
	// URLExpiresAt is when both signed links stop working.
	URLExpiresAt time.Time
}

// Open checks the caller may view or download a document and returns
// short-lived signed links for the document and its image. The owner needs
// no key; the recipient must present the key before the share expires.
func (s *Usecase) Open(ctx context.Context, in OpenInput) (*OpenOutput, error) {
	ctx, span := s.startSpan(ctx, "Open")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.Key = strings.TrimSpace(in.Key)
	in.Action = strings.ToLower(strings.TrimSpace(in.Action))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	d, err := s.document(ctx, in.ID, clm.UserID)
	if err != nil {
		return nil, err
	}

	ok, err := s.allowed(ctx, clm.UserID, d, in.Action)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, goerror.NewBusiness("You are not allowed to "+in.Action+" this document", goerror.CodeForbidden)
	}

	if d.OwnerID != clm.UserID {
		if err := s.checkKey(ctx, d, clm.UserID, in.Key); err != nil {
			return nil, err
		}
	}

	ttl := s.urlTTL()

	docURL, err := s.repoStorage.PresignGet(ctx, d.DocKey, ttl, d.DocName, in.Action == authz.ActDownload)
	if err != nil {
		slog.ErrorContext(ctx, "failed to sign document url", "document_id", d.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	imageURL, err := s.repoStorage.PresignGet(ctx, d.ImageKey, ttl, "", false)
	if err != nil {
		slog.ErrorContext(ctx, "failed to sign image url", "document_id", d.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "document opened", "document_id", d.ID, "user_id", clm.UserID, "action", in.Action)

	return &OpenOutput{
		DocumentURL:  docURL,
		ImageURL:     imageURL,
		DocName:      d.DocName,
		Access:       d.Access,
		URLExpiresAt: s.clock.Now().Add(ttl),
	}, nil
}

func (s *Usecase) checkKey(ctx context.Context, d *entity.Document, userID int64, key string) error {
	if d.Expired(s.clock.Now()) {
		return goerror.NewBusiness("This document has expired", goerror.CodeInvalidOrExpired)
	}

	if !validator.FourDigits(key) {
		return goerror.NewBusiness(msgKeyFormat, goerror.CodeInvalidInput)
	}

	attempts, err := s.repoCache.IncrKeyAttempts(ctx, d.ID, userID, s.keyAttemptWindow())
	if err != nil {
		slog.ErrorContext(ctx, "failed to count key attempts", "document_id", d.ID, "error", err)
		return goerror.NewServer(err)
	}
	if attempts > s.maxKeyAttempts() {
		return goerror.NewBusiness("Too many incorrect key attempts. Please try again later.", goerror.CodeTooManyRequest)
	}

	if !s.password.Verify(d.AccessKeyHash, key) {
		slog.WarnContext(ctx, "incorrect document key", "document_id", d.ID, "user_id", userID, "attempt", attempts)
		return goerror.NewBusiness("Incorrect key", goerror.CodeForbidden)
	}

	if err := s.repoCache.ClearKeyAttempts(ctx, d.ID, userID); err != nil {
		slog.WarnContext(ctx, "failed to clear key attempts", "document_id", d.ID, "error", err)
	}

	return nil
}
