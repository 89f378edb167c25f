package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/safe4law/safe4law/internal/document/entity"
	"github.com/safe4law/safe4law/internal/pkg/authz"
	"github.com/safe4law/safe4law/internal/pkg/clock"
	"github.com/safe4law/safe4law/internal/pkg/config"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
	"github.com/safe4law/safe4law/internal/pkg/hash"
	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/pkg/jwt"
	"github.com/safe4law/safe4law/internal/pkg/uid"
	"github.com/safe4law/safe4law/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	MaxDocumentSize int64 = 50 << 20
	MaxImageSize    int64 = 5 << 20

	DefaultURLTTL           = 5 * time.Minute
	DefaultMaxKeyAttempts   = 5
	DefaultKeyAttemptWindow = 15 * time.Minute
)

type repoDB interface {
	UserExists(ctx context.Context, id int64) (bool, error)
	GetDocument(ctx context.Context, id int64) (*entity.Document, error)
	ListDocuments(ctx context.Context, f entity.ListFilter) ([]entity.ListItem, int64, error)

	CreateDocument(ctx context.Context, d entity.Document) error
	DeleteDocument(ctx context.Context, id int64) error
}

type repoCache interface {
	IncrKeyAttempts(ctx context.Context, documentID, userID int64, window time.Duration) (int64, error)
	ClearKeyAttempts(ctx context.Context, documentID, userID int64) error
}

type repoStorage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration, filename string, attachment bool) (string, error)
}

type Usecase struct {
	repoDB      repoDB
	repoCache   repoCache
	repoStorage repoStorage
	authz       authz.Authorizer
	validator   validator.Validator
	cfg         config.Config
	password    hash.Hash
	uid         uid.NumberID
	clock       clock.Clocker
	ins         instrument.Instrumentation
}

type Dependency struct {
	RepoDB      repoDB
	RepoCache   repoCache
	RepoStorage repoStorage
	Authz       authz.Authorizer
	Validator   validator.Validator
	Config      config.Config
	Password    hash.Hash
	UID         uid.NumberID
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:      dep.RepoDB,
		repoCache:   dep.RepoCache,
		repoStorage: dep.RepoStorage,
		authz:       dep.Authz,
		validator:   dep.Validator,
		cfg:         dep.Config,
		password:    dep.Password,
		uid:         dep.UID,
		clock:       dep.Clock,
		ins:         dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("document.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil || clm.UserID == 0 {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

func (s *Usecase) urlTTL() time.Duration {
	if ttl := s.cfg.GetSecond("modules.document.url_ttl_seconds"); ttl > 0 {
		return ttl
	}
	return DefaultURLTTL
}

func (s *Usecase) maxKeyAttempts() int64 {
	if n := s.cfg.GetInt("modules.document.max_key_attempts"); n > 0 {
		return int64(n)
	}
	return DefaultMaxKeyAttempts
}

func (s *Usecase) keyAttemptWindow() time.Duration {
	if w := s.cfg.GetMinute("modules.document.key_attempt_window_minutes"); w > 0 {
		return w
	}
	return DefaultKeyAttemptWindow
}

// document loads id and hides it from users who are neither owner nor recipient.
func (s *Usecase) document(ctx context.Context, id, userID int64) (*entity.Document, error) {
	d, err := s.repoDB.GetDocument(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("Document not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get document", "document_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	if d.OwnerID != userID && d.RecipientID != userID {
		return nil, goerror.NewBusiness("Document not found", goerror.CodeNotFound)
	}

	return d, nil
}

func (s *Usecase) allowed(ctx context.Context, userID int64, d *entity.Document, act string) (bool, error) {
	ok, err := s.authz.Allowed(ctx, userID, authz.NewResource(d.OwnerID, d.RecipientID, string(d.Access)), act)
	if err != nil {
		slog.ErrorContext(ctx, "failed to evaluate document access", "document_id", d.ID, "action", act, "error", err)
		return false, goerror.NewServer(err)
	}
	return ok, nil
}

// discard removes stored objects after a failed or reverted write.
func (s *Usecase) discard(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.repoStorage.Delete(ctx, key); err != nil {
			slog.WarnContext(ctx, "failed to delete stored object", "key", key, "error", err)
		}
	}
}
