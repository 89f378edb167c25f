package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/safe4law/safe4law/internal/document/entity"
	"github.com/safe4law/safe4law/internal/pkg/authz"
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
	return 1000 + s.n
}

type memRepo struct {
	mu    sync.Mutex
	users map[int64]entity.Party
	docs  map[int64]entity.Document
	err   error

	createErr error
}

func (r *memRepo) UserExists(_ context.Context, id int64) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.users[id]
	return ok, nil
}

func (r *memRepo) GetDocument(_ context.Context, id int64) (*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &d, nil
}

func (r *memRepo) ListDocuments(_ context.Context, f entity.ListFilter) ([]entity.ListItem, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []entity.ListItem
	for _, d := range r.docs {
		switch {
		case f.Box == entity.BoxSent && d.OwnerID == f.UserID:
			items = append(items, entity.ListItem{Document: d, Party: r.users[d.RecipientID]})
		case f.Box == entity.BoxReceived && d.RecipientID == f.UserID:
			items = append(items, entity.ListItem{Document: d, Party: r.users[d.OwnerID]})
		}
	}
	slices.SortFunc(items, func(a, b entity.ListItem) int { return int(b.ID - a.ID) })

	total := int64(len(items))
	from := min(int(f.Offset), len(items))
	to := min(from+int(f.Limit), len(items))
	return items[from:to], total, nil
}

func (r *memRepo) CreateDocument(_ context.Context, d entity.Document) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[d.ID] = d
	return nil
}

func (r *memRepo) DeleteDocument(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return goerror.ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

type memCache struct {
	mu       sync.Mutex
	attempts map[string]int64
}

func attemptKey(documentID, userID int64) string {
	return fmt.Sprintf("%d:%d", documentID, userID)
}

func (c *memCache) IncrKeyAttempts(_ context.Context, documentID, userID int64, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts[attemptKey(documentID, userID)]++
	return c.attempts[attemptKey(documentID, userID)], nil
}

func (c *memCache) ClearKeyAttempts(_ context.Context, documentID, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.attempts, attemptKey(documentID, userID))
	return nil
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  map[string]error
}

func (s *memStorage) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if err := s.putErr[key]; err != nil {
		return err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = b
	return nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memStorage) PresignGet(_ context.Context, key string, ttl time.Duration, filename string, attachment bool) (string, error) {
	disposition := "inline"
	if attachment {
		disposition = "attachment"
	}
	return fmt.Sprintf("https://store.test/%s?ttl=%d&disposition=%s&filename=%s", key, int(ttl.Seconds()), disposition, filename), nil
}

func (s *memStorage) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

const (
	ownerID     int64 = 1
	recipientID int64 = 2
	strangerID  int64 = 3
)

var errStore = errors.New("connection refused")

type fixture struct {
	uc      *Usecase
	repo    *memRepo
	cache   *memCache
	storage *memStorage
	clock   *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v, err := validator.NewV10()
	require.NoError(t, err)

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  document:
    url_ttl_seconds: 120
    max_key_attempts: 3
`))
	require.NoError(t, err)

	enforcer, err := authz.New(nil)
	require.NoError(t, err)

	f := &fixture{
		repo: &memRepo{
			users: map[int64]entity.Party{
				ownerID:     {ID: ownerID, FirstName: "Ada", LastName: "Lovelace"},
				recipientID: {ID: recipientID, FirstName: "Alan", LastName: "Turing"},
				strangerID:  {ID: strangerID, FirstName: "Grace", LastName: "Hopper"},
			},
			docs: map[int64]entity.Document{},
		},
		cache:   &memCache{attempts: map[string]int64{}},
		storage: &memStorage{objects: map[string][]byte{}, putErr: map[string]error{}},
		clock:   &fakeClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)},
	}

	f.uc = New(Dependency{
		RepoDB:      f.repo,
		RepoCache:   f.cache,
		RepoStorage: f.storage,
		Authz:       enforcer,
		Validator:   v,
		Config:      cfg,
		Password:    hash.NewBcrypt(4, ""),
		UID:         &seqID{},
		Clock:       f.clock,
		Instrument:  instrument.NewNoop(),
	})

	return f
}

func pdf(name string) *entity.Upload {
	body := "%PDF-1.7 " + name
	return &entity.Upload{Name: name, ContentType: "application/pdf", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func jpeg() *entity.Upload {
	body := "\xff\xd8\xff cover"
	return &entity.Upload{Name: "cover.jpg", ContentType: "image/jpeg", Size: int64(len(body)), Body: bytes.NewReader([]byte(body))}
}

func (f *fixture) validUpload(access string) UploadInput {
	return UploadInput{
		RecipientID: recipientID,
		Key:         "4821",
		Access:      access,
		ExpiresAt:   f.clock.now.Add(24 * time.Hour),
		Doc:         pdf("contract.pdf"),
		Image:       jpeg(),
	}
}

func (f *fixture) share(t *testing.T, access string) int64 {
	t.Helper()
	out, err := f.uc.Upload(authCtx(ownerID), f.validUpload(access))
	require.NoError(t, err)
	return out.ID
}

func authCtx(id int64) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: id, UserEmail: fmt.Sprintf("u%d@x.com", id)})
}

func requireCode(t *testing.T, err error, want goerror.Code) *goerror.Error {
	t.Helper()
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	require.Equal(t, want, gerr.Code(), "got %s", gerr.String())
	return gerr
}
