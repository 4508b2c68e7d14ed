package campussdk

import (
	"context"
	"net/http"
	"net/url"
)

// RegisterForEvent registers the signed-in user and returns the ticket.
func (c *SDKClient) RegisterForEvent(ctx context.Context, eventID string) (*Registration, error) {
	var out RegistrationResponse
	err := c.call(ctx, http.MethodPost, "/registrations",
		RegistrationRequest{EventID: eventID}, &out, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return &out.Registration, nil
}

// MyRegistrations lists the signed-in user's registrations, newest first.
func (c *SDKClient) MyRegistrations(ctx context.Context) ([]Registration, error) {
	var out []Registration
	if err := c.call(ctx, http.MethodGet, "/registrations/my-registrations", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SDKClient) CheckRegistration(ctx context.Context, eventID string) (*CheckRegistrationResponse, error) {
	var out CheckRegistrationResponse
	err := c.call(ctx, http.MethodGet, "/registrations/check/"+url.PathEscape(eventID), nil, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) GetRegistration(ctx context.Context, id string) (*Registration, error) {
	var out Registration
	if err := c.call(ctx, http.MethodGet, "/registrations/"+url.PathEscape(id), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) CancelRegistration(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/registrations/"+url.PathEscape(id), nil, &MessageResponse{}, http.StatusOK)
}

// CheckIn marks the ticket holder as attended. Organiser only.
func (c *SDKClient) CheckIn(ctx context.Context, token string) (*Registration, error) {
	var out RegistrationResponse
	err := c.call(ctx, http.MethodPost, "/registrations/check-in",
		CheckInRequest{Token: token}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out.Registration, nil
}
