package usecase

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/safe4law/safe4law/internal/pkg/config"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
	"github.com/safe4law/safe4law/internal/pkg/hash"
	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/pkg/validator"
	"github.com/safe4law/safe4law/internal/recovery/entity"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type seqCodes struct {
	mu    sync.Mutex
	codes []string
}

func (g *seqCodes) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.codes) == 0 {
		return "", errors.New("no more codes")
	}
	c := g.codes[0]
	g.codes = g.codes[1:]
	return c, nil
}

type seqID struct {
	mu sync.Mutex
	n  int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

type seqToken struct {
	mu sync.Mutex
	n  int
}

func (s *seqToken) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return "token-" + string(rune('a'+s.n-1))
}

type memCode struct {
	entity.NewCode
	used bool
}

// memStore mirrors the Postgres repository rules in memory.
type memStore struct {
	mu        sync.Mutex
	passwords map[string]string
	codes     []*memCode
	attempts  map[string][]time.Time
	failIssue error
}

func newMemStore(emails ...string) *memStore {
	m := &memStore{passwords: map[string]string{}, attempts: map[string][]time.Time{}}
	for _, e := range emails {
		m.passwords[e] = "old-hash"
	}
	return m
}

func (m *memStore) AccountExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.passwords[email]
	return ok, nil
}

func (m *memStore) IssueCode(_ context.Context, code entity.NewCode, limit entity.IssueLimit) (entity.Issuance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failIssue != nil {
		return entity.Issuance{}, m.failIssue
	}

	since := code.CreatedAt.Add(-limit.Window)
	var recent []time.Time
	for _, at := range m.attempts[code.Email] {
		if !at.Before(since) {
			recent = append(recent, at)
		}
	}
	if len(recent) >= limit.Max {
		return entity.Issuance{OldestAttempt: slices.MinFunc(recent, time.Time.Compare)}, nil
	}

	for _, c := range m.codes {
		if c.Email == code.Email && !c.used {
			c.used = true
		}
	}
	m.codes = append(m.codes, &memCode{NewCode: code})
	m.attempts[code.Email] = append(m.attempts[code.Email], code.CreatedAt)

	return entity.Issuance{Allowed: true}, nil
}

func (m *memStore) ConsumeCode(_ context.Context, email, codeHash string, now time.Time) (entity.CodeCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	verdict := entity.CodeUnknown
	for i := len(m.codes) - 1; i >= 0; i-- {
		c := m.codes[i]
		if c.Email != email || c.CodeHash != codeHash {
			continue
		}
		switch {
		case !c.used && c.ExpiresAt.After(now):
			c.used = true
			return entity.CodeValid, nil
		case verdict == entity.CodeUnknown && c.used:
			verdict = entity.CodeUsed
		case verdict == entity.CodeUnknown:
			verdict = entity.CodeExpired
		}
	}
	return verdict, nil
}

func (m *memStore) ResetCredential(_ context.Context, email, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.passwords[email]; !ok {
		return goerror.ErrNotFound
	}
	m.passwords[email] = passwordHash
	for _, c := range m.codes {
		if c.Email == email {
			c.used = true
		}
	}
	return nil
}

func (m *memStore) DeleteStale(_ context.Context, codesBefore, attemptsBefore time.Time) (entity.SweepResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res entity.SweepResult
	kept := m.codes[:0]
	for _, c := range m.codes {
		if c.CreatedAt.Before(codesBefore) {
			res.Codes++
			continue
		}
		kept = append(kept, c)
	}
	m.codes = kept

	for email, ats := range m.attempts {
		n := len(ats)
		ats = slices.DeleteFunc(ats, func(at time.Time) bool { return at.Before(attemptsBefore) })
		res.Attempts += int64(n - len(ats))
		m.attempts[email] = ats
	}
	return res, nil
}

func (m *memStore) attemptCount(email string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attempts[email])
}

func (m *memStore) password(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.passwords[email]
}

type memGrant struct {
	email     string
	expiresAt time.Time
}

type memCache struct {
	mu     sync.Mutex
	clock  *fakeClock
	grants map[string]memGrant
}

func (c *memCache) SaveGrant(_ context.Context, key, email string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grants[key] = memGrant{email: email, expiresAt: c.clock.Now().Add(ttl)}
	return nil
}

func (c *memCache) TakeGrant(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.grants[key]
	delete(c.grants, key)
	if !ok || !c.clock.Now().Before(g.expiresAt) {
		return "", goerror.ErrNotFound
	}
	return g.email, nil
}

type sentCode struct {
	email    string
	code     string
	ttl      time.Duration
	deadline time.Time
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (n *fakeNotifier) SendCode(ctx context.Context, email, code string, ttl time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	dl, _ := ctx.Deadline()
	n.sent = append(n.sent, sentCode{email: email, code: code, ttl: ttl, deadline: dl})
	return n.err
}

func (n *fakeNotifier) last() sentCode {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

type fakePublisher struct {
	mu     sync.Mutex
	events []CredentialResetEvent
	err    error
}

func (p *fakePublisher) PublishCredentialReset(_ context.Context, msg CredentialResetEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, msg)
	return p.err
}

type fixture struct {
	uc       *Usecase
	store    *memStore
	cache    *memCache
	notifier *fakeNotifier
	pub      *fakePublisher
	clock    *fakeClock
}

func newFixture(t *testing.T, codes []string, emails ...string) *fixture {
	t.Helper()

	v, err := validator.NewV10()
	require.NoError(t, err)

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  recovery:
    code_ttl_seconds: 120
    issue_window_seconds: 120
    max_issues: 3
    notify_timeout_seconds: 10
    grant_ttl_minutes: 5
`))
	require.NoError(t, err)

	clk := &fakeClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	f := &fixture{
		store:    newMemStore(emails...),
		cache:    &memCache{clock: clk, grants: map[string]memGrant{}},
		notifier: &fakeNotifier{},
		pub:      &fakePublisher{},
		clock:    clk,
	}
	f.uc = New(Dependency{
		RepoDB:        f.store,
		RepoCache:     f.cache,
		RepoMessaging: f.pub,
		Notifier:      f.notifier,
		Validator:     v,
		Config:        cfg,
		HMAC:          hash.NewHMACSHA256("recovery-test-secret"),
		Password:      hash.NewBcrypt(4, ""),
		Code:          &seqCodes{codes: codes},
		UID:           &seqID{},
		Token:         &seqToken{},
		Clock:         clk,
		Instrument:    instrument.NewNoop(),
	})
	return f
}

func requireCode(t *testing.T, err error, want goerror.Code) *goerror.Error {
	t.Helper()
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	require.Equal(t, want, gerr.Code(), "got %s", gerr.String())
	return gerr
}
