package campussdk

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/campus/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorRoundTrip(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	ErrEventFull.WriteError(rec)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"error":"event_full","error_description":"Event is full"}`, rec.Body.String())

	err := parseErrorResponse(rec.Result(), rec.Body.Bytes())
	require.ErrorIs(t, err, ErrEventFull)
	require.NotErrorIs(t, err, ErrDuplicateRegistration)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestParseErrorResponseFallback(t *testing.T) {
	t.Parallel()

	resp := &http.Response{StatusCode: http.StatusBadGateway}
	err := parseErrorResponse(resp, []byte("<html>bad gateway</html>"))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, ErrorCodeServerError, apiErr.Code)
	require.Contains(t, apiErr.Description, "502")

	require.NoError(t, parseErrorResponse(&http.Response{StatusCode: http.StatusOK}, nil))
}

func TestClientKeepsSessionCookie(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "campus_session", Value: "abc", Path: "/"})
		httpx.WriteJSON(w, http.StatusOK, AuthResponse{Message: "Login successful", User: User{ID: "u1"}})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("campus_session"); err != nil || c.Value != "abc" {
			ErrNotAuthenticated.WriteError(w)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, MeResponse{User: User{ID: "u1", Name: "Jane"}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewSDKClient(srv.URL + "/")

	_, err := client.Me(t.Context())
	require.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = client.Login(t.Context(), "jane@college.edu", "secret123")
	require.NoError(t, err)

	me, err := client.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, "Jane", me.Name)
}
