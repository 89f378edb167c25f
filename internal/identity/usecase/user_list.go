package usecase

import (
	"context"
	"log/slog"

	"github.com/safe4law/safe4law/internal/identity/entity"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
)

const (
	defaultDirectorySize = 20
	maxDirectorySize     = 100
)

type UserListInput struct {
	Search string // value already trimmed
	Page   int32
	Size   int32
}

type UserListOutput struct {
	Page  int32
	Size  int32
	Total int64
	Users []entity.DirectoryEntry
}

// UserList returns the recipient directory, excluding the caller.
func (s *Usecase) UserList(ctx context.Context, in UserListInput) (*UserListOutput, error) {
	ctx, span := s.startSpan(ctx, "UserList")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if in.Size <= 0 || in.Size > maxDirectorySize {
		in.Size = defaultDirectorySize
	}
	page := max(in.Page, 1)

	users, total, err := s.repoDB.ListDirectory(ctx, entity.DirectoryFilter{
		ExcludeID: clm.UserID,
		Search:    in.Search,
		Limit:     in.Size,
		Offset:    (page - 1) * in.Size,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list directory", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &UserListOutput{
		Page:  page,
		Size:  in.Size,
		Total: total,
		Users: users,
	}, nil
}
