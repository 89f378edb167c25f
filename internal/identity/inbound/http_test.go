package inbound

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/safe4law/safe4law/internal/identity/entity"
	"github.com/safe4law/safe4law/internal/identity/usecase"
	"github.com/safe4law/safe4law/internal/pkg/config"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/pkg/jwt"
	"github.com/safe4law/safe4law/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUC struct {
	registerErr error
	verifyErr   error
	loginOut    *usecase.LoginOutput
	loginErr    error
	users       []entity.DirectoryEntry

	lastVerify usecase.VerifyEmailInput
	lastList   usecase.UserListInput
	lastUpdate usecase.ProfileUpdateInput
}

func (f *fakeUC) Register(_ context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &usecase.RegisterOutput{ID: 42, FirstName: in.FirstName, LastName: in.LastName, Email: in.Email, Gender: in.Gender, Country: in.Country}, nil
}

func (f *fakeUC) RegisterResend(context.Context, usecase.RegisterResendInput) error { return nil }

func (f *fakeUC) VerifyEmail(_ context.Context, in usecase.VerifyEmailInput) error {
	f.lastVerify = in
	return f.verifyErr
}

func (f *fakeUC) Login(context.Context, usecase.LoginInput) (*usecase.LoginOutput, error) {
	return f.loginOut, f.loginErr
}

func (f *fakeUC) CheckAuth(ctx context.Context) (*usecase.CheckAuthOutput, error) {
	clm := jwt.GetAuth(ctx)
	return &usecase.CheckAuthOutput{UserID: clm.UserID, Email: clm.UserEmail}, nil
}

func (f *fakeUC) Profile(context.Context) (*usecase.ProfileOutput, error) {
	return &usecase.ProfileOutput{ID: 7, Email: "ada@x.com", FirstName: "Ada"}, nil
}

func (f *fakeUC) ProfileUpdate(_ context.Context, in usecase.ProfileUpdateInput) (*usecase.ProfileOutput, error) {
	f.lastUpdate = in
	return &usecase.ProfileOutput{ID: 7, Email: "ada@x.com", Country: "France"}, nil
}

func (f *fakeUC) PasswordChange(context.Context, usecase.PasswordChangeInput) error { return nil }

func (f *fakeUC) UserList(_ context.Context, in usecase.UserListInput) (*usecase.UserListOutput, error) {
	f.lastList = in
	return &usecase.UserListOutput{Page: 1, Size: 20, Total: int64(len(f.users)), Users: f.users}, nil
}

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Now() }

type fixedID struct{}

func (fixedID) Generate() string { return "id" }

type harness struct {
	ro     *router.Router
	signer *jwt.HS512
}

func newHarness(t *testing.T, uc uc) *harness {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: test\n"))
	require.NoError(t, err)

	signer, err := jwt.NewHS512(jwt.Config{
		Secret: []byte(strings.Repeat("s", 64)),
		Issuer: "safe4law",
		TTL:    15 * time.Minute,
		Clock:  fixedClock{},
		ID:     fixedID{},
	})
	require.NoError(t, err)

	ro := router.NewRouter(router.Config{Config: cfg, UUID: fixedID{}, JWT: signer, Instrument: instrument.NewNoop()})
	RegisterHTTPEndpoint(ro, uc, true)

	return &harness{ro: ro, signer: signer}
}

func (h *harness) do(t *testing.T, method, path, body string, session bool) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if session {
		tok, err := h.signer.Generate(7, "ada@x.com")
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: router.CookieSession, Value: tok.Value})
	}

	rec := httptest.NewRecorder()
	h.ro.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestRegister(t *testing.T) {
	h := newHarness(t, &fakeUC{})

	rec, out := h.do(t, http.MethodPost, "/api/register",
		`{"first_name":"Ada","last_name":"Lovelace","email":"ada@x.com","gender":"female","country":"UK","password":"Abcdefg1!"}`, false)

	assert.Equal(t, http.StatusCreated, rec.Code)
	user := out["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "42", user["id"])
	assert.Equal(t, "ada@x.com", user["email"])
}

func TestRegister_Conflict(t *testing.T) {
	h := newHarness(t, &fakeUC{registerErr: goerror.NewBusiness("User with this email already exists", goerror.CodeConflict)})

	rec, out := h.do(t, http.MethodPost, "/api/register", `{"email":"ada@x.com"}`, false)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User with this email already exists", out["message"])
}

func TestVerifyEmail(t *testing.T) {
	uc := &fakeUC{}
	h := newHarness(t, uc)

	rec, out := h.do(t, http.MethodGet, "/api/verify-email/abc123", "", false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email verified successfully!", out["message"])
	assert.Equal(t, "abc123", uc.lastVerify.Token)
}

func TestLoginSetsCookie(t *testing.T) {
	exp := time.Date(2025, 3, 14, 9, 15, 0, 0, time.UTC)
	h := newHarness(t, &fakeUC{loginOut: &usecase.LoginOutput{
		AccessToken: "signed", ExpiresAt: exp, TTL: 15 * time.Minute, UserID: 7, Email: "ada@x.com",
	}})

	rec, out := h.do(t, http.MethodPost, "/api/login", `{"email":"ada@x.com","password":"Abcdefg1!"}`, false)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Login successful", out["message"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "token", c.Name)
	assert.Equal(t, "signed", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, 900, c.MaxAge)
}

func TestLoginErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "Unauthorized", err: goerror.NewBusiness("Invalid email or password", goerror.CodeUnauthorized), want: http.StatusUnauthorized},
		{name: "Unverified", err: goerror.NewBusiness("Please verify your email before logging in", goerror.CodeForbidden), want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, &fakeUC{loginErr: tt.err})

			rec, _ := h.do(t, http.MethodPost, "/api/login", `{"email":"ada@x.com","password":"x"}`, false)

			assert.Equal(t, tt.want, rec.Code)
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestLogout(t *testing.T) {
	h := newHarness(t, &fakeUC{})

	rec, _ := h.do(t, http.MethodPost, "/api/logout", "", false)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestCheckAuth(t *testing.T) {
	h := newHarness(t, &fakeUC{})

	rec, _ := h.do(t, http.MethodGet, "/api/check-auth", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, out := h.do(t, http.MethodGet, "/api/check-auth", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	data := out["data"].(map[string]any)
	assert.Equal(t, true, data["is_authenticated"])
	assert.Equal(t, "7", data["user"].(map[string]any)["id"])
}

func TestProfileUpdate(t *testing.T) {
	uc := &fakeUC{}
	h := newHarness(t, uc)

	rec, out := h.do(t, http.MethodPut, "/api/profile/update", `{"country":"France"}`, true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Profile updated successfully", out["message"])
	require.NotNil(t, uc.lastUpdate.Country)
	assert.Equal(t, "France", *uc.lastUpdate.Country)
	assert.Nil(t, uc.lastUpdate.FirstName)
}

func TestUserList(t *testing.T) {
	uc := &fakeUC{users: []entity.DirectoryEntry{{ID: 2, FirstName: "Alan", LastName: "Turing"}}}
	h := newHarness(t, uc)

	rec, out := h.do(t, http.MethodGet, "/api/users?search=al&page=1&size=20", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "al", uc.lastList.Search)
	users := out["data"].(map[string]any)["users"].([]any)
	require.Len(t, users, 1)
	assert.Equal(t, "2", users[0].(map[string]any)["id"])
	assert.Equal(t, float64(1), out["meta"].(map[string]any)["total"])

	rec, _ = h.do(t, http.MethodGet, "/api/users?page=abc", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
