package campussdk

import (
	"context"
	"net/http"
	"net/url"
)

func (c *SDKClient) ListEvents(ctx context.Context) ([]Event, error) {
	var out []Event
	if err := c.call(ctx, http.MethodGet, "/events", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// GetEvent includes the roster.
func (c *SDKClient) GetEvent(ctx context.Context, id string) (*Event, error) {
	var out Event
	if err := c.call(ctx, http.MethodGet, "/events/"+url.PathEscape(id), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) CreateEvent(ctx context.Context, req EventRequest) (*Event, error) {
	var out EventResponse
	if err := c.call(ctx, http.MethodPost, "/events", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out.Event, nil
}

func (c *SDKClient) UpdateEvent(ctx context.Context, id string, req EventRequest) (*Event, error) {
	var out EventResponse
	if err := c.call(ctx, http.MethodPut, "/events/"+url.PathEscape(id), req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.Event, nil
}

func (c *SDKClient) DeleteEvent(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/events/"+url.PathEscape(id), nil, &MessageResponse{}, http.StatusOK)
}

func (c *SDKClient) IsOrganiser(ctx context.Context, id string) (bool, error) {
	var out IsOrganiserResponse
	err := c.call(ctx, http.MethodGet, "/events/"+url.PathEscape(id)+"/is-organiser", nil, &out, http.StatusOK)
	return out.IsOrganiser, err
}
