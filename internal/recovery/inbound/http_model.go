package inbound

import "time"

type ForgetPasswordRequest struct {
	Email string `json:"email"`
}

type ForgetPasswordResponse struct{}

func (ForgetPasswordResponse) Message() string {
	return "OTP sent to your email"
}

type ResendOTPRequest struct {
	Email string `json:"email"`
}

type ResendOTPResponse struct{}

func (ResendOTPResponse) Message() string {
	return "A new OTP has been sent to your email"
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type VerifyOTPResponse struct {
	ResetToken string    `json:"reset_token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (VerifyOTPResponse) Message() string {
	return "OTP verified successfully"
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

type ResetPasswordResponse struct{}

func (ResetPasswordResponse) Message() string {
	return "Password has been reset successfully"
}
