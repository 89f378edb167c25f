package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/safe4law/safe4law/internal/document/entity"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
	"github.com/samber/lo"
)

const (
	defaultListSize = 20
	maxListSize     = 100
)

type ListInput struct {
	Box  string `validate:"omitempty,oneof=sent received"`
	Page int32
	Size int32
}

type ListedDocument struct {
	ID        int64
	DocName   string
	DocType   string
	DocSize   int64
	Access    entity.Access
	ExpiresAt time.Time
	CreatedAt time.Time
	Expired   bool
	Party     entity.Party
}

type ListOutput struct {
	Box       entity.Box
	Page      int32
	Size      int32
	Total     int64
	Documents []ListedDocument
}

// List returns the documents the caller shared (sent) or was sent (received).
func (s *Usecase) List(ctx context.Context, in ListInput) (*ListOutput, error) {
	ctx, span := s.startSpan(ctx, "List")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if in.Size <= 0 || in.Size > maxListSize {
		in.Size = defaultListSize
	}
	page := max(in.Page, 1)
	box := entity.BoxFromString(in.Box)

	items, total, err := s.repoDB.ListDocuments(ctx, entity.ListFilter{
		UserID: clm.UserID,
		Box:    box,
		Limit:  in.Size,
		Offset: (page - 1) * in.Size,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list documents", "box", box, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()

	return &ListOutput{
		Box:   box,
		Page:  page,
		Size:  in.Size,
		Total: total,
		Documents: lo.Map(items, func(it entity.ListItem, _ int) ListedDocument {
			return ListedDocument{
				ID:        it.ID,
				DocName:   it.DocName,
				DocType:   it.DocType,
				DocSize:   it.DocSize,
				Access:    it.Access,
				ExpiresAt: it.ExpiresAt,
				CreatedAt: it.CreatedAt,
				Expired:   it.Expired(now),
				Party:     it.Party,
			}
		}),
	}, nil
}
