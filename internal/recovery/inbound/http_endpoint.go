package inbound

import (
	"github.com/safe4law/safe4law/internal/pkg/router"
	"github.com/safe4law/safe4law/internal/recovery/usecase"
)

// HTTPEndpoint exposes the one-time-code password recovery flow.
type HTTPEndpoint struct {
	uc uc
}

// ForgetPassword emails a one-time code to a registered address.
// @Summary Request password reset code
// @Tags Recovery
// @Accept json
// @Produce json
// @Param request body ForgetPasswordRequest true "Account email"
// @Success 200 {object} router.successResponse "OTP sent"
// @Failure 404 {object} router.errorResponse "Email is not registered"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many OTP requests"
// @Failure 502 {object} router.errorResponse "Email delivery failed"
// @Router /api/forget-password [post]
func (h *HTTPEndpoint) ForgetPassword(r *router.Request) (any, error) {
	var req ForgetPasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.RequestCode(r.Context(), usecase.RequestCodeInput{Email: req.Email}); err != nil {
		return nil, err
	}

	return ForgetPasswordResponse{}, nil
}

// ResendOTP issues a replacement code; it shares the request limit.
// @Summary Resend password reset code
// @Tags Recovery
// @Accept json
// @Produce json
// @Param request body ResendOTPRequest true "Account email"
// @Success 200 {object} router.successResponse "OTP sent"
// @Failure 429 {object} router.errorResponse "Too many OTP requests"
// @Router /api/resend-otp [post]
func (h *HTTPEndpoint) ResendOTP(r *router.Request) (any, error) {
	var req ResendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.ResendCode(r.Context(), usecase.ResendCodeInput{Email: req.Email}); err != nil {
		return nil, err
	}

	return ResendOTPResponse{}, nil
}

// VerifyOTP exchanges a valid code for a short-lived reset token.
// @Summary Verify password reset code
// @Tags Recovery
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Email and code"
// @Success 200 {object} router.successResponse{data=VerifyOTPResponse} "Reset token"
// @Failure 400 {object} router.errorResponse "Invalid or expired OTP"
// @Router /api/verify-otp [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.VerifyCode(r.Context(), usecase.VerifyCodeInput{Email: req.Email, OTP: req.OTP})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{ResetToken: out.ResetToken, ExpiresAt: out.ExpiresAt}, nil
}

// ResetPassword sets a new password using the token from VerifyOTP.
// @Summary Reset password
// @Tags Recovery
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Email, reset token and new password"
// @Success 200 {object} router.successResponse "Password reset"
// @Failure 400 {object} router.errorResponse "Invalid or expired reset token"
// @Failure 422 {object} router.errorResponse "Weak password"
// @Router /api/resetpassword [post]
func (h *HTTPEndpoint) ResetPassword(r *router.Request) (any, error) {
	var req ResetPasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.ResetCredential(r.Context(), usecase.ResetCredentialInput{
		Email:       req.Email,
		ResetToken:  req.ResetToken,
		NewPassword: req.NewPassword,
	}); err != nil {
		return nil, err
	}

	return ResetPasswordResponse{}, nil
}
