package inbound

import (
	"context"

	"github.com/safe4law/safe4law/internal/pkg/router"
	"github.com/safe4law/safe4law/internal/recovery/usecase"
)

type uc interface {
	RequestCode(ctx context.Context, in usecase.RequestCodeInput) error
	ResendCode(ctx context.Context, in usecase.ResendCodeInput) error
	VerifyCode(ctx context.Context, in usecase.VerifyCodeInput) (*usecase.VerifyCodeOutput, error)
	ResetCredential(ctx context.Context, in usecase.ResetCredentialInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/forget-password", end.ForgetPassword)
	r.POST("/api/resend-otp", end.ResendOTP)
	r.POST("/api/verify-otp", end.VerifyOTP)
	r.POST("/api/resetpassword", end.ResetPassword)
}
