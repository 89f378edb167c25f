package inbound

import (
	"net/http"
	"time"

	"github.com/safe4law/safe4law/internal/pkg/router"
)

type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Gender    string `json:"gender"`
	Country   string `json:"country"`
	Password  string `json:"password"`
}

type UserResponse struct {
	ID        int64  `json:"id,string"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Gender    string `json:"gender"`
	Country   string `json:"country"`
}

type RegisterResponse struct {
	User UserResponse `json:"user"`
}

func (RegisterResponse) StatusCode() int { return http.StatusCreated }

func (RegisterResponse) Message() string {
	return "User registered successfully. Please check your email for verification."
}

type RegisterResendRequest struct {
	Email string `json:"email"`
}

type RegisterResendResponse struct{}

func (RegisterResendResponse) Message() string {
	return "If the account exists and is not verified, a new verification link has been sent."
}

type VerifyEmailResponse struct{}

func (VerifyEmailResponse) Message() string { return "Email verified successfully!" }

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginUser struct {
	ID        int64  `json:"id,string"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        LoginUser `json:"user"`

	cookie *http.Cookie
}

func (LoginResponse) Message() string { return "Login successful" }

func (r LoginResponse) Cookies() []*http.Cookie { return []*http.Cookie{r.cookie} }

type LogoutResponse struct {
	cookie *http.Cookie
}

func (LogoutResponse) StatusCode() int { return http.StatusNoContent }

func (r LogoutResponse) Cookies() []*http.Cookie { return []*http.Cookie{r.cookie} }

func sessionCookie(value string, maxAge time.Duration, secure bool) *http.Cookie {
	c := &http.Cookie{
		Name:     router.CookieSession,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(maxAge / time.Second),
	}
	if maxAge <= 0 {
		c.MaxAge = -1
	}
	return c
}

type CheckAuthUser struct {
	ID    int64  `json:"id,string"`
	Email string `json:"email"`
}

type CheckAuthResponse struct {
	IsAuthenticated bool          `json:"is_authenticated"`
	User            CheckAuthUser `json:"user"`
}

type ProfileResponse struct {
	User UserResponse `json:"user"`
}

type ProfileUpdateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Gender    *string `json:"gender"`
	Country   *string `json:"country"`
}

type ProfileUpdateResponse struct {
	User UserResponse `json:"user"`
}

func (ProfileUpdateResponse) Message() string { return "Profile updated successfully" }

type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type PasswordChangeResponse struct{}

func (PasswordChangeResponse) Message() string { return "Password updated successfully" }

type DirectoryUser struct {
	ID        int64  `json:"id,string"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UserListResponse struct {
	Users []DirectoryUser `json:"users"`

	page  int32
	size  int32
	total int64
}

func (r UserListResponse) Meta() map[string]any {
	return map[string]any{"page": r.page, "size": r.size, "total": r.total}
}
