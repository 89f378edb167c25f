package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/safe4law/safe4law/internal/notification/entity"
	"github.com/safe4law/safe4law/internal/pkg/clock"
	"github.com/safe4law/safe4law/internal/pkg/config"
	"github.com/safe4law/safe4law/internal/pkg/idempotency"
	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoMail interface {
	Send(ctx context.Context, e entity.Email) error
}

type Usecase struct {
	repoMail  repoMail
	idemp     idempotency.Idempotency
	validator validator.Validator
	cfg       config.Config
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoMail    repoMail
	Idempotency idempotency.Idempotency
	Validator   validator.Validator
	Config      config.Config
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoMail:  dep.RepoMail,
		idemp:     dep.Idempotency,
		validator: dep.Validator,
		cfg:       dep.Config,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

// once sends e at most once per message id. A duplicate delivery of a
// message that was already mailed, or is being mailed by another worker,
// is acknowledged without sending.
func (s *Usecase) once(ctx context.Context, messageID string, e entity.Email) error {
	key := "notification:" + e.Kind.String() + ":" + messageID

	err := s.idemp.Exec(ctx, key, func(ctx context.Context) error {
		return s.repoMail.Send(ctx, e)
	})
	switch {
	case errors.Is(err, idempotency.ErrCompleted), errors.Is(err, idempotency.ErrInProgress):
		slog.InfoContext(ctx, "duplicate notification skipped", "kind", e.Kind.String(), "message_id", messageID, "reason", err)
		return nil
	case err != nil:
		slog.ErrorContext(ctx, "failed to send notification email", "kind", e.Kind.String(), "message_id", messageID, "error", err)
		return err
	}

	slog.InfoContext(ctx, "notification email sent", "kind", e.Kind.String(), "message_id", messageID)
	return nil
}
