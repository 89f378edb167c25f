package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/safe4law/safe4law/internal/identity/entity"
	"github.com/safe4law/safe4law/internal/pkg/config"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
	"github.com/safe4law/safe4law/internal/pkg/hash"
	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/pkg/jwt"
	"github.com/safe4law/safe4law/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type seqID struct{ n int64 }

func (s *seqID) Generate() int64 {
	s.n++
	return s.n
}

type seqToken struct{ n int }

func (s *seqToken) Generate() string {
	s.n++
	return fmt.Sprintf("%064x", s.n)
}

type memUser struct {
	user     entity.User
	password string
}

// memRepo mirrors the constraints of the identity tables.
type memRepo struct {
	mu     sync.Mutex
	users  map[int64]*memUser
	tokens map[int64]entity.VerificationToken
	err    error
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[int64]*memUser{}, tokens: map[int64]entity.VerificationToken{}}
}

func (r *memRepo) byEmail(email string) *memUser {
	for _, u := range r.users {
		if u.user.Email == email {
			return u
		}
	}
	return nil
}

func (r *memRepo) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := u.user
	return &cp, nil
}

func (r *memRepo) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u := r.byEmail(email)
	if u == nil {
		return nil, goerror.ErrNotFound
	}
	cp := u.user
	return &cp, nil
}

func (r *memRepo) credential(u *memUser) *entity.UserCredential {
	return &entity.UserCredential{ID: u.user.ID, Email: u.user.Email, PasswordHash: u.password, EmailVerified: u.user.EmailVerified}
}

func (r *memRepo) GetCredentialByEmail(_ context.Context, email string) (*entity.UserCredential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u := r.byEmail(email)
	if u == nil {
		return nil, goerror.ErrNotFound
	}
	return r.credential(u), nil
}

func (r *memRepo) GetCredentialByID(_ context.Context, id int64) (*entity.UserCredential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return r.credential(u), nil
}

func (r *memRepo) ListDirectory(_ context.Context, f entity.DirectoryFilter) ([]entity.DirectoryEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, 0, r.err
	}

	var all []entity.DirectoryEntry
	for _, u := range r.users {
		name := strings.ToLower(u.user.FirstName + " " + u.user.LastName)
		if u.user.ID == f.ExcludeID || !strings.Contains(name, strings.ToLower(f.Search)) {
			continue
		}
		all = append(all, entity.DirectoryEntry{ID: u.user.ID, FirstName: u.user.FirstName, LastName: u.user.LastName})
	}
	slices.SortFunc(all, func(a, b entity.DirectoryEntry) int { return strings.Compare(a.FirstName, b.FirstName) })

	total := int64(len(all))
	start := min(int(f.Offset), len(all))
	end := min(start+int(f.Limit), len(all))
	return all[start:end], total, nil
}

func (r *memRepo) CreateRegistration(_ context.Context, user entity.NewUser, token entity.VerificationToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.byEmail(user.Email) != nil {
		return goerror.ErrConflict
	}
	r.users[user.ID] = &memUser{
		user: entity.User{
			ID: user.ID, FirstName: user.FirstName, LastName: user.LastName, Email: user.Email,
			Gender: user.Gender, Country: user.Country,
		},
		password: user.PasswordHash,
	}
	r.tokens[user.ID] = token
	return nil
}

func (r *memRepo) SaveVerificationToken(_ context.Context, token entity.VerificationToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.UserID] = token
	return nil
}

func (r *memRepo) VerifyEmail(_ context.Context, tokenHash string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, tok := range r.tokens {
		if tok.TokenHash == tokenHash && tok.ExpiresAt.After(now) {
			delete(r.tokens, id)
			r.users[id].user.EmailVerified = true
			return id, nil
		}
	}
	return 0, goerror.ErrNotFound
}

func (r *memRepo) UpdateProfile(_ context.Context, id int64, p entity.ProfilePatch) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	if p.FirstName != nil {
		u.user.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.user.LastName = *p.LastName
	}
	if p.Gender != nil {
		u.user.Gender = *p.Gender
	}
	if p.Country != nil {
		u.user.Country = *p.Country
	}
	cp := u.user
	return &cp, nil
}

func (r *memRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return goerror.ErrNotFound
	}
	u.password = passwordHash
	return nil
}

type fakePublisher struct {
	events []UserRegistrationEvent
	err    error
}

func (p *fakePublisher) PublishUserRegistration(_ context.Context, msg UserRegistrationEvent) error {
	p.events = append(p.events, msg)
	return p.err
}

func (p *fakePublisher) lastToken(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, p.events)
	url := p.events[len(p.events)-1].VerifyURL
	i := strings.LastIndex(url, "/")
	return url[i+1:]
}

type jtiGen struct{}

func (jtiGen) Generate() string { return "jti" }

type fixture struct {
	uc    *Usecase
	repo  *memRepo
	pub   *fakePublisher
	clock *fakeClock
	jwt   *jwt.HS512
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v, err := validator.NewV10()
	require.NoError(t, err)

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
app:
  frontend_url: https://app.test/
modules:
  identity:
    verification_ttl_hours: 24
`))
	require.NoError(t, err)

	clk := &fakeClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	signer, err := jwt.NewHS512(jwt.Config{
		Secret: []byte(strings.Repeat("s", 64)),
		Issuer: "safe4law",
		TTL:    15 * time.Minute,
		Clock:  clk,
		ID:     jtiGen{},
	})
	require.NoError(t, err)

	f := &fixture{repo: newMemRepo(), pub: &fakePublisher{}, clock: clk, jwt: signer}
	f.uc = New(Dependency{
		RepoDB:        f.repo,
		RepoMessaging: f.pub,
		Validator:     v,
		Config:        cfg,
		HMAC:          hash.NewHMACSHA256("identity-test-secret"),
		Password:      hash.NewBcrypt(4, ""),
		UID:           &seqID{},
		Token:         &seqToken{},
		Clock:         clk,
		JWT:           signer,
		Instrument:    instrument.NewNoop(),
	})
	return f
}

// register creates a verified account and returns its id.
func (f *fixture) register(t *testing.T, first, last, email, password string) int64 {
	t.Helper()

	out, err := f.uc.Register(context.Background(), RegisterInput{
		FirstName: first, LastName: last, Email: email, Gender: "female", Country: "UK", Password: password,
	})
	require.NoError(t, err)
	require.NoError(t, f.uc.VerifyEmail(context.Background(), VerifyEmailInput{Token: f.pub.lastToken(t)}))
	return out.ID
}

func authCtx(id int64, email string) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: id, UserEmail: email})
}

func requireCode(t *testing.T, err error, want goerror.Code) *goerror.Error {
	t.Helper()
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	require.Equal(t, want, gerr.Code(), "got %s", gerr.String())
	return gerr
}

var errStore = errors.New("connection refused")
