package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/safe4law/safe4law/internal/identity/entity"
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

// DefaultVerificationTTL applies when modules.identity.verification_ttl_hours is unset.
const DefaultVerificationTTL = 24 * time.Hour

type UserRegistrationEvent struct {
	UserID    int64
	Email     string
	FirstName string
	LastName  string
	VerifyURL string
}

type repoMessaging interface {
	PublishUserRegistration(ctx context.Context, msg UserRegistrationEvent) error
}

type repoDB interface {
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetCredentialByEmail(ctx context.Context, email string) (*entity.UserCredential, error)
	GetCredentialByID(ctx context.Context, id int64) (*entity.UserCredential, error)
	ListDirectory(ctx context.Context, filter entity.DirectoryFilter) ([]entity.DirectoryEntry, int64, error)

	CreateRegistration(ctx context.Context, user entity.NewUser, token entity.VerificationToken) error
	SaveVerificationToken(ctx context.Context, token entity.VerificationToken) error
	VerifyEmail(ctx context.Context, tokenHash string, now time.Time) (int64, error)
	UpdateProfile(ctx context.Context, id int64, patch entity.ProfilePatch) (*entity.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	password      hash.Hash
	uid           uid.NumberID
	token         uid.StringID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Password      hash.Hash
	UID           uid.NumberID
	Token         uid.StringID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		password:      dep.Password,
		uid:           dep.UID,
		token:         dep.Token,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil || clm.UserID == 0 {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

// newVerification creates a fresh email verification token for userID and
// returns the raw token together with the row to persist.
func (s *Usecase) newVerification(userID int64) (string, entity.VerificationToken, error) {
	raw := s.token.Generate()
	digest, err := s.hmac.Hash("verify|" + raw)
	if err != nil {
		return "", entity.VerificationToken{}, err
	}

	ttl := s.cfg.GetHour("modules.identity.verification_ttl_hours")
	if ttl <= 0 {
		ttl = DefaultVerificationTTL
	}

	return raw, entity.VerificationToken{
		UserID:    userID,
		TokenHash: string(digest),
		ExpiresAt: s.clock.Now().Add(ttl),
	}, nil
}

func (s *Usecase) verifyURL(token string) string {
	return strings.TrimRight(s.cfg.GetString("app.frontend_url"), "/") + "/verify-email/" + token
}

func (s *Usecase) publishRegistration(ctx context.Context, user entity.User, token string) {
	if err := s.repoMessaging.PublishUserRegistration(ctx, UserRegistrationEvent{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		VerifyURL: s.verifyURL(token),
	}); err != nil {
		s.logPublishFailure(ctx, user.ID, err)
	}
}
