package campussdk

import (
	"context"
	"net/http"
)

// Register creates an unverified account. The OTP is emailed.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.call(ctx, http.MethodPost, "/auth/register", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP verifies the account and signs the client in.
func (c *SDKClient) VerifyOTP(ctx context.Context, email, otp string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.call(ctx, http.MethodPost, "/auth/verify-otp",
		VerifyOTPRequest{Email: email, OTP: otp}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) ResendOTP(ctx context.Context, email string) error {
	return c.call(ctx, http.MethodPost, "/auth/resend-otp",
		ResendOTPRequest{Email: email}, &MessageResponse{}, http.StatusOK)
}

func (c *SDKClient) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.call(ctx, http.MethodPost, "/auth/login",
		LoginRequest{Email: email, Password: password}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) Logout(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/auth/logout", nil, &MessageResponse{}, http.StatusOK)
}

// Me returns the signed-in user.
func (c *SDKClient) Me(ctx context.Context) (*User, error) {
	var out MeResponse
	if err := c.call(ctx, http.MethodGet, "/auth/me", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}
