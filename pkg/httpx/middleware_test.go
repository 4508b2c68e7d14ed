package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/campus/pkg/httpx"
	"github.com/stretchr/testify/require"
)

type stubResolver map[string]httpx.Principal

func (s stubResolver) ResolvePrincipal(_ context.Context, id string) (httpx.Principal, error) {
	if id == "boom" {
		return httpx.Principal{}, errors.New("backend down")
	}
	p, ok := s[id]
	if !ok {
		return httpx.Principal{}, httpx.ErrNoSession
	}
	return p, nil
}

func echoPrincipal(w http.ResponseWriter, r *http.Request) {
	p, ok := httpx.PrincipalFromContext(r.Context())
	if !ok {
		_, _ = w.Write([]byte("anonymous"))
		return
	}
	_, _ = w.Write([]byte(p.AccountID + "/" + p.Role))
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("a"), mw("b"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "handler"}, order)
}

func TestLoadSessionAndGuards(t *testing.T) {
	resolver := stubResolver{
		"student-session": {AccountID: "s1", Role: "student"},
		"admin-session":   {AccountID: "a1", Role: "admin"},
	}
	load := httpx.LoadSession(resolver, "campus_session")

	tests := []struct {
		name     string
		cookie   string
		mws      []httpx.Middleware
		wantCode int
		wantBody string
	}{
		{"anonymous passes load", "", nil, http.StatusOK, "anonymous"},
		{"unknown session is anonymous", "nope", nil, http.StatusOK, "anonymous"},
		{"backend error is anonymous", "boom", nil, http.StatusOK, "anonymous"},
		{"student resolved", "student-session", nil, http.StatusOK, "s1/student"},
		{"require session rejects anonymous", "", []httpx.Middleware{httpx.RequireSession()}, http.StatusUnauthorized, "not_authenticated"},
		{"require session accepts", "student-session", []httpx.Middleware{httpx.RequireSession()}, http.StatusOK, "s1/student"},
		{"require admin rejects student", "student-session", []httpx.Middleware{httpx.RequireSession(), httpx.RequireRole("admin")}, http.StatusForbidden, "access_denied"},
		{"require admin accepts admin", "admin-session", []httpx.Middleware{httpx.RequireSession(), httpx.RequireRole("admin")}, http.StatusOK, "a1/admin"},
		{"require role alone rejects anonymous", "", []httpx.Middleware{httpx.RequireRole("admin")}, http.StatusUnauthorized, "not_authenticated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := httpx.Chain(http.HandlerFunc(echoPrincipal), append([]httpx.Middleware{load}, tt.mws...)...)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "campus_session", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code)
			require.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}

	t.Run("ok", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.edu"}`))
		require.NoError(t, httpx.DecodeJSON(httptest.NewRecorder(), req, &p))
		require.Equal(t, "a@b.edu", p.Email)
	})

	t.Run("empty", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		require.ErrorContains(t, httpx.DecodeJSON(httptest.NewRecorder(), req, &p), "empty")
	})

	t.Run("malformed", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`))
		require.ErrorContains(t, httpx.DecodeJSON(httptest.NewRecorder(), req, &p), "malformed")
	})

	t.Run("too large", func(t *testing.T) {
		var p payload
		big := `{"email":"` + strings.Repeat("x", httpx.MaxBodyBytes) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		require.ErrorContains(t, httpx.DecodeJSON(httptest.NewRecorder(), req, &p), "exceeds")
	})
}
