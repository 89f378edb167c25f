package inbound

import (
	"github.com/safe4law/safe4law/internal/identity/entity"
	"github.com/safe4law/safe4law/internal/identity/usecase"
	"github.com/safe4law/safe4law/internal/pkg/router"
	"github.com/samber/lo"
)

// HTTPEndpoint exposes registration, session and profile handlers.
type HTTPEndpoint struct {
	uc           uc
	secureCookie bool
}

func toUserResponse(p *usecase.ProfileOutput) UserResponse {
	return UserResponse{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Gender:    p.Gender,
		Country:   p.Country,
	}
}

// Register creates an unverified account and mails a verification link.
// @Summary Register account
// @Tags Identity
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration payload"
// @Success 201 {object} router.successResponse{data=RegisterResponse} "Account created"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "User with this email already exists"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/register [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Gender:    req.Gender,
		Country:   req.Country,
		Password:  req.Password,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{User: UserResponse{
		ID:        out.ID,
		FirstName: out.FirstName,
		LastName:  out.LastName,
		Email:     out.Email,
		Gender:    out.Gender,
		Country:   out.Country,
	}}, nil
}

// RegisterResend mails a new verification link to an unverified account.
// @Summary Resend verification email
// @Tags Identity
// @Accept json
// @Produce json
// @Param request body RegisterResendRequest true "Account email"
// @Success 200 {object} router.successResponse "Accepted"
// @Router /api/register/resend [post]
func (h *HTTPEndpoint) RegisterResend(r *router.Request) (any, error) {
	var req RegisterResendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.RegisterResend(r.Context(), usecase.RegisterResendInput{Email: req.Email}); err != nil {
		return nil, err
	}

	return RegisterResendResponse{}, nil
}

// VerifyEmail consumes the token from the verification link.
// @Summary Verify email
// @Tags Identity
// @Produce json
// @Param token path string true "Verification token"
// @Success 200 {object} router.successResponse "Email verified"
// @Failure 400 {object} router.errorResponse "Verification failed"
// @Router /api/verify-email/{token} [get]
func (h *HTTPEndpoint) VerifyEmail(r *router.Request) (any, error) {
	if err := h.uc.VerifyEmail(r.Context(), usecase.VerifyEmailInput{Token: r.GetParam("token")}); err != nil {
		return nil, err
	}

	return VerifyEmailResponse{}, nil
}

// Login checks credentials and sets the session cookie.
// @Summary Login
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Session issued"
// @Failure 401 {object} router.errorResponse "Invalid email or password"
// @Failure 403 {object} router.errorResponse "Email not verified"
// @Router /api/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Login(r.Context(), usecase.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		AccessToken: out.AccessToken,
		ExpiresAt:   out.ExpiresAt,
		User: LoginUser{
			ID:        out.UserID,
			Email:     out.Email,
			FirstName: out.FirstName,
			LastName:  out.LastName,
		},
		cookie: sessionCookie(out.AccessToken, out.TTL, h.secureCookie),
	}, nil
}

// Logout clears the session cookie. Tokens are stateless and expire on their own.
// @Summary Logout
// @Tags Identity, Authentication
// @Success 204 "Logged out"
// @Router /api/logout [post]
func (h *HTTPEndpoint) Logout(_ *router.Request) (any, error) {
	return LogoutResponse{cookie: sessionCookie("", 0, h.secureCookie)}, nil
}

// CheckAuth reports the session owner.
// @Summary Check session
// @Tags Identity, Authentication
// @Produce json
// @Success 200 {object} router.successResponse{data=CheckAuthResponse} "Authenticated"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Router /api/check-auth [get]
func (h *HTTPEndpoint) CheckAuth(r *router.Request) (any, error) {
	out, err := h.uc.CheckAuth(r.Context())
	if err != nil {
		return nil, err
	}

	return CheckAuthResponse{
		IsAuthenticated: true,
		User:            CheckAuthUser{ID: out.UserID, Email: out.Email},
	}, nil
}

// Profile returns the caller's profile.
// @Summary Get profile
// @Tags Identity, Profile
// @Produce json
// @Success 200 {object} router.successResponse{data=ProfileResponse} "Profile"
// @Failure 404 {object} router.errorResponse "User not found"
// @Router /api/profile [get]
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	out, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return ProfileResponse{User: toUserResponse(out)}, nil
}

// ProfileUpdate applies a partial profile update.
// @Summary Update profile
// @Tags Identity, Profile
// @Accept json
// @Produce json
// @Param request body ProfileUpdateRequest true "Fields to update"
// @Success 200 {object} router.successResponse{data=ProfileUpdateResponse} "Updated profile"
// @Failure 422 {object} router.errorResponse "Please provide at least one field to update"
// @Router /api/profile/update [put]
func (h *HTTPEndpoint) ProfileUpdate(r *router.Request) (any, error) {
	var req ProfileUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.ProfileUpdate(r.Context(), usecase.ProfileUpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Gender:    req.Gender,
		Country:   req.Country,
	})
	if err != nil {
		return nil, err
	}

	return ProfileUpdateResponse{User: toUserResponse(out)}, nil
}

// PasswordChange replaces the caller's password after checking the current one.
// @Summary Change password
// @Tags Identity, Profile
// @Accept json
// @Produce json
// @Param request body PasswordChangeRequest true "Passwords"
// @Success 200 {object} router.successResponse "Password updated"
// @Failure 422 {object} router.errorResponse "Validation error or weak password"
// @Router /api/profile/password [put]
func (h *HTTPEndpoint) PasswordChange(r *router.Request) (any, error) {
	var req PasswordChangeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordChange(r.Context(), usecase.PasswordChangeInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}); err != nil {
		return nil, err
	}

	return PasswordChangeResponse{}, nil
}

// UserList returns the recipient directory.
// @Summary List users
// @Tags Identity, Directory
// @Produce json
// @Param search query string false "Name filter"
// @Param page query int false "Page, from 1"
// @Param size query int false "Page size, max 100"
// @Success 200 {object} router.successResponse{data=UserListResponse} "Directory page"
// @Router /api/users [get]
func (h *HTTPEndpoint) UserList(r *router.Request) (any, error) {
	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}
	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}

	out, err := h.uc.UserList(r.Context(), usecase.UserListInput{
		Search: r.GetQuery("search"),
		Page:   page,
		Size:   size,
	})
	if err != nil {
		return nil, err
	}

	return UserListResponse{
		Users: lo.Map(out.Users, func(u entity.DirectoryEntry, _ int) DirectoryUser {
			return DirectoryUser{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
		}),
		page:  out.Page,
		size:  out.Size,
		total: out.Total,
	}, nil
}
