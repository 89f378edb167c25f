package inbound

import (
	"context"

	"github.com/safe4law/safe4law/internal/identity/usecase"
	"github.com/safe4law/safe4law/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	RegisterResend(ctx context.Context, in usecase.RegisterResendInput) error
	VerifyEmail(ctx context.Context, in usecase.VerifyEmailInput) error

	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	CheckAuth(ctx context.Context) (*usecase.CheckAuthOutput, error)

	Profile(ctx context.Context) (*usecase.ProfileOutput, error)
	ProfileUpdate(ctx context.Context, in usecase.ProfileUpdateInput) (*usecase.ProfileOutput, error)
	PasswordChange(ctx context.Context, in usecase.PasswordChangeInput) error

	UserList(ctx context.Context, in usecase.UserListInput) (*usecase.UserListOutput, error)
}

// RegisterHTTPEndpoint mounts the account endpoints. secureCookie marks the
// session cookie Secure, which production deployments behind TLS require.
func RegisterHTTPEndpoint(r *router.Router, uc uc, secureCookie bool) {
	end := &HTTPEndpoint{uc: uc, secureCookie: secureCookie}

	// Registration
	r.POST("/api/register", end.Register)
	r.POST("/api/register/resend", end.RegisterResend)
	r.GET("/api/verify-email/:token", end.VerifyEmail)

	// Session
	r.POST("/api/login", end.Login)
	r.POST("/api/logout", end.Logout)
	r.GET("/api/check-auth", end.CheckAuth)

	// Profile (need authenticated)
	r.GET("/api/profile", end.Profile)
	r.PUT("/api/profile/update", end.ProfileUpdate)
	r.PUT("/api/profile/password", end.PasswordChange)

	// Recipient directory (need authenticated)
	r.GET("/api/users", end.UserList)
}
