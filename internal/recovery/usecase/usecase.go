package usecase

import (
	"context"
	"time"

	"github.com/safe4law/safe4law/internal/pkg/clock"
	"github.com/safe4law/safe4law/internal/pkg/config"
	"github.com/safe4law/safe4law/internal/pkg/hash"
	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/pkg/otp"
	"github.com/safe4law/safe4law/internal/pkg/uid"
	"github.com/safe4law/safe4law/internal/pkg/validator"
	"github.com/safe4law/safe4law/internal/recovery/entity"
	"go.opentelemetry.io/otel/trace"
)

// Defaults applied when the matching modules.recovery.* key is unset.
const (
	DefaultCodeTTL       = 120 * time.Second
	DefaultIssueWindow   = 120 * time.Second
	DefaultMaxIssues     = 3
	DefaultNotifyTimeout = 10 * time.Second
	DefaultGrantTTL      = 5 * time.Minute
)

type CredentialResetEvent struct {
	Email   string
	ResetAt time.Time
}

type repoDB interface {
	AccountExists(ctx context.Context, email string) (bool, error)
	IssueCode(ctx context.Context, code entity.NewCode, limit entity.IssueLimit) (entity.Issuance, error)
	ConsumeCode(ctx context.Context, email, codeHash string, now time.Time) (entity.CodeCheck, error)
	ResetCredential(ctx context.Context, email, passwordHash string) error
	DeleteStale(ctx context.Context, codesBefore, attemptsBefore time.Time) (entity.SweepResult, error)
}

type repoCache interface {
	SaveGrant(ctx context.Context, key, email string, ttl time.Duration) error
	TakeGrant(ctx context.Context, key string) (string, error)
}

type repoMessaging interface {
	PublishCredentialReset(ctx context.Context, msg CredentialResetEvent) error
}

type notifier interface {
	SendCode(ctx context.Context, email, code string, ttl time.Duration) error
}

type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	repoMessaging repoMessaging
	notifier      notifier
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	password      hash.Hash
	code          otp.Generator
	uid           uid.NumberID
	token         uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	RepoMessaging repoMessaging
	Notifier      notifier
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Password      hash.Hash
	Code          otp.Generator
	UID           uid.NumberID
	Token         uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoCache:     dep.RepoCache,
		repoMessaging: dep.RepoMessaging,
		notifier:      dep.Notifier,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		password:      dep.Password,
		code:          dep.Code,
		uid:           dep.UID,
		token:         dep.Token,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("recovery.usecase").Start(ctx, name)
}

func (s *Usecase) codeTTL() time.Duration {
	return orDefault(s.cfg.GetSecond("modules.recovery.code_ttl_seconds"), DefaultCodeTTL)
}

func (s *Usecase) issueLimit() entity.IssueLimit {
	limit := entity.IssueLimit{
		Max:    s.cfg.GetInt("modules.recovery.max_issues"),
		Window: orDefault(s.cfg.GetSecond("modules.recovery.issue_window_seconds"), DefaultIssueWindow),
	}
	if limit.Max < 1 {
		limit.Max = DefaultMaxIssues
	}
	return limit
}

func (s *Usecase) notifyTimeout() time.Duration {
	return orDefault(s.cfg.GetSecond("modules.recovery.notify_timeout_seconds"), DefaultNotifyTimeout)
}

func (s *Usecase) grantTTL() time.Duration {
	return orDefault(s.cfg.GetMinute("modules.recovery.grant_ttl_minutes"), DefaultGrantTTL)
}

// codeDigest binds the code to the account so equal codes of different
// accounts never share a digest.
func (s *Usecase) codeDigest(email, code string) (string, error) {
	b, err := s.hmac.Hash("otp|" + email + "|" + code)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// grantKey binds the reset token to the account, so a token issued for one
// account resolves to nothing when presented with another.
func (s *Usecase) grantKey(email, token string) (string, error) {
	b, err := s.hmac.Hash("grant|" + email + "|" + token)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
