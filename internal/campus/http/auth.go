package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/campus/internal/campus/service"
	"github.com/aussiebroadwan/campus/internal/campus/session"
	"github.com/aussiebroadwan/campus/pkg/campussdk"
	"github.com/aussiebroadwan/campus/pkg/httpx"
	"github.com/aussiebroadwan/campus/pkg/slogx"
)

type AuthHandler struct {
	AccountService *service.AccountService
	Sessions       *session.Manager
}

// HandleRegister creates an account and emails its OTP.
//
//	@Summary		Register an account
//	@Description	Creates an unverified account and emails a six digit OTP valid for 10 minutes.
//	@Description	When the email cannot be sent the account is still created; call resend-otp.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		campussdk.RegisterRequest	true	"Account details"
//	@Success		201		{object}	campussdk.RegisterResponse
//	@Failure		400		{object}	httpx.ErrorBody	"invalid_request or duplicate_email"
//	@Failure		502		{object}	httpx.ErrorBody	"otp_delivery_failed"
//	@Router			/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req campussdk.RegisterRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	acct, err := h.AccountService.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, campussdk.RegisterResponse{
		Message: "Registration successful. Please check your email for OTP.",
		UserID:  acct.ID,
		Email:   acct.Email,
	})
}

// HandleVerifyOTP verifies the emailed code and signs the account in.
//
//	@Summary		Verify email OTP
//	@Description	Marks the account verified and sets the session cookie.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		campussdk.VerifyOTPRequest	true	"Email and code"
//	@Success		200		{object}	campussdk.AuthResponse
//	@Failure		400		{object}	httpx.ErrorBody	"already_verified, invalid_otp, otp_expired or otp_locked"
//	@Failure		404		{object}	httpx.ErrorBody	"account_not_found"
//	@Router			/auth/verify-otp [post].
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req campussdk.VerifyOTPRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	acct, err := h.AccountService.VerifyOTP(ctx, req.Email, req.OTP)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.Sessions.Create(ctx, acct)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Sessions.SetCookie(w, s)

	httpx.WriteJSON(w, http.StatusOK, campussdk.AuthResponse{
		Message: "Email verified successfully",
		User:    toUser(acct),
	})
}

// HandleResendOTP issues a fresh code.
//
//	@Summary		Resend email OTP
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		campussdk.ResendOTPRequest	true	"Email"
//	@Success		200		{object}	campussdk.MessageResponse
//	@Failure		400		{object}	httpx.ErrorBody	"already_verified"
//	@Failure		404		{object}	httpx.ErrorBody	"account_not_found"
//	@Failure		502		{object}	httpx.ErrorBody	"otp_delivery_failed"
//	@Router			/auth/resend-otp [post].
func (h *AuthHandler) HandleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req campussdk.ResendOTPRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.AccountService.ResendOTP(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, campussdk.MessageResponse{Message: "OTP sent successfully"})
}

// HandleLogin checks credentials and starts a session.
//
//	@Summary		Log in
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		campussdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	campussdk.AuthResponse
//	@Failure		401		{object}	httpx.ErrorBody	"invalid_credentials or not_verified"
//	@Router			/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req campussdk.LoginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	acct, err := h.AccountService.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.Sessions.Create(ctx, acct)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Sessions.SetCookie(w, s)

	httpx.WriteJSON(w, http.StatusOK, campussdk.AuthResponse{
		Message: "Login successful",
		User:    toUser(acct),
	})
}

// HandleLogout ends the current session.
//
//	@Summary		Log out
//	@Tags			Auth
//	@Security		SessionCookie
//	@Produce		json
//	@Success		200	{object}	campussdk.MessageResponse
//	@Failure		401	{object}	httpx.ErrorBody	"not_authenticated"
//	@Router			/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, _ := httpx.PrincipalFromContext(ctx)

	if err := h.Sessions.Destroy(ctx, p.SessionID); err != nil && !errors.Is(err, session.ErrNotFound) {
		// The cookie goes regardless; a stale row expires on its own.
		slogx.FromContext(ctx).Warn("failed to destroy session", "err", err)
	}
	h.Sessions.ClearCookie(w)

	httpx.WriteJSON(w, http.StatusOK, campussdk.MessageResponse{Message: "Logout successful"})
}

// HandleMe returns the signed-in account.
//
//	@Summary		Current account
//	@Tags			Auth
//	@Security		SessionCookie
//	@Produce		json
//	@Success		200	{object}	campussdk.MeResponse
//	@Failure		401	{object}	httpx.ErrorBody	"not_authenticated"
//	@Router			/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, _ := httpx.PrincipalFromContext(ctx)

	acct, err := h.AccountService.GetAccount(ctx, p.AccountID)
	if errors.Is(err, service.ErrAccountNotFound) {
		// Session outlived its account.
		h.Sessions.ClearCookie(w)
		campussdk.ErrNotAuthenticated.WriteError(w)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, campussdk.MeResponse{User: toUser(acct)})
}
