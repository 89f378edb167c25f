package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/safe4law/safe4law/internal/notification/entity"
	"github.com/safe4law/safe4law/internal/pkg/config"
	"github.com/safe4law/safe4law/internal/pkg/idempotency"
	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMail struct {
	sent []entity.Email
	err  error
}

func (m *fakeMail) Send(_ context.Context, e entity.Email) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, e)
	return nil
}

// memIdempotency follows the Redis tracker: completed keys are skipped,
// failed runs release the key.
type memIdempotency struct {
	mu   sync.Mutex
	done map[string]bool
}

func (m *memIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	m.mu.Lock()
	if m.done[key] {
		m.mu.Unlock()
		return idempotency.ErrCompleted
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.done[key] = true
	m.mu.Unlock()
	return nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newUsecase(t *testing.T, m *fakeMail) *Usecase {
	t.Helper()

	v, err := validator.NewV10()
	require.NoError(t, err)

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  frontend_url: https://app.test/\n"))
	require.NoError(t, err)

	return New(Dependency{
		RepoMail:    m,
		Idempotency: &memIdempotency{done: map[string]bool{}},
		Validator:   v,
		Config:      cfg,
		Clock:       fixedClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)},
		Instrument:  instrument.NewNoop(),
	})
}

func TestConsumeUserRegistration(t *testing.T) {
	m := &fakeMail{}
	uc := newUsecase(t, m)
	in := ConsumeUserRegistrationInput{
		MessageID: "m-1",
		UserID:    42,
		Email:     "Ada@X.com",
		FirstName: "Ada",
		VerifyURL: "https://app.test/verify-email/abc",
	}

	require.NoError(t, uc.ConsumeUserRegistration(context.Background(), in))

	require.Len(t, m.sent, 1)
	e := m.sent[0]
	assert.Equal(t, entity.KindVerifyEmail, e.Kind)
	assert.Equal(t, "ada@x.com", e.To)
	assert.Contains(t, e.HTMLBody, `<a href="https://app.test/verify-email/abc">Verify Email</a>`)
	assert.Contains(t, e.TextBody, "https://app.test/verify-email/abc")
	assert.Contains(t, e.HTMLBody, "Hi Ada,")
}

func TestConsumeUserRegistration_Duplicate(t *testing.T) {
	m := &fakeMail{}
	uc := newUsecase(t, m)
	in := ConsumeUserRegistrationInput{MessageID: "m-1", UserID: 42, Email: "ada@x.com", VerifyURL: "https://app.test/verify-email/abc"}

	require.NoError(t, uc.ConsumeUserRegistration(context.Background(), in))
	require.NoError(t, uc.ConsumeUserRegistration(context.Background(), in))

	assert.Len(t, m.sent, 1)
}

func TestConsumeUserRegistration_Invalid(t *testing.T) {
	m := &fakeMail{}
	uc := newUsecase(t, m)

	err := uc.ConsumeUserRegistration(context.Background(), ConsumeUserRegistrationInput{MessageID: "m-1", Email: "nope"})

	assert.NoError(t, err)
	assert.Empty(t, m.sent)
}

func TestConsumeUserRegistration_SendFailureRetried(t *testing.T) {
	m := &fakeMail{err: errors.New("smtp down")}
	uc := newUsecase(t, m)
	in := ConsumeUserRegistrationInput{MessageID: "m-1", UserID: 42, Email: "ada@x.com", VerifyURL: "https://app.test/verify-email/abc"}

	require.Error(t, uc.ConsumeUserRegistration(context.Background(), in))

	m.err = nil
	require.NoError(t, uc.ConsumeUserRegistration(context.Background(), in))
	assert.Len(t, m.sent, 1)
}

func TestConsumeCredentialReset(t *testing.T) {
	m := &fakeMail{}
	uc := newUsecase(t, m)
	at := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

	require.NoError(t, uc.ConsumeCredentialReset(context.Background(), ConsumeCredentialResetInput{
		MessageID: "m-9",
		Email:     "a@x.com",
		ResetAt:   at,
	}))

	require.Len(t, m.sent, 1)
	e := m.sent[0]
	assert.Equal(t, entity.KindCredentialReset, e.Kind)
	assert.Equal(t, "a@x.com", e.To)
	assert.Contains(t, e.TextBody, "14 Mar 2025 10:30 UTC")
	assert.Contains(t, e.HTMLBody, "https://app.test/forget-password")
}

func TestConsumeCredentialReset_DistinctKinds(t *testing.T) {
	m := &fakeMail{}
	uc := newUsecase(t, m)

	require.NoError(t, uc.ConsumeUserRegistration(context.Background(), ConsumeUserRegistrationInput{
		MessageID: "1", UserID: 1, Email: "a@x.com", VerifyURL: "https://app.test/verify-email/x",
	}))
	require.NoError(t, uc.ConsumeCredentialReset(context.Background(), ConsumeCredentialResetInput{MessageID: "1", Email: "a@x.com"}))

	assert.Len(t, m.sent, 2)
}
