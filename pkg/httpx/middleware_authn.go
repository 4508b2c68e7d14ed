package httpx

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/aussiebroadwan/campus/pkg/slogx"
)

// ErrNoSession is returned by a SessionResolver for unknown or expired ids.
var ErrNoSession = errors.New("httpx: no session")

// SessionResolver turns a session id from a cookie into a Principal.
type SessionResolver interface {
	ResolvePrincipal(ctx context.Context, sessionID string) (Principal, error)
}

// LoadSession attaches the Principal for the session cookie, if any. It
// never rejects: anonymous requests pass through untouched.
func LoadSession(resolver SessionResolver, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(cookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			p, err := resolver.ResolvePrincipal(ctx, c.Value)
			if err != nil {
				if !errors.Is(err, ErrNoSession) {
					slogx.FromContext(ctx).Warn("session lookup failed", "err", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx = WithPrincipal(ctx, p)
			ctx = slogx.With(ctx, "account_id", p.AccountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests without a Principal with 401.
func RequireSession() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFromContext(r.Context()); !ok {
				WriteJSON(w, http.StatusUnauthorized, ErrorBody{
					Error:            "not_authenticated",
					ErrorDescription: "Not authenticated",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects callers whose role is not one of roles with 403.
// Must run after RequireSession.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				WriteJSON(w, http.StatusUnauthorized, ErrorBody{
					Error:            "not_authenticated",
					ErrorDescription: "Not authenticated",
				})
				return
			}
			if !slices.Contains(roles, p.Role) {
				WriteJSON(w, http.StatusForbidden, ErrorBody{
					Error:            "access_denied",
					ErrorDescription: "Admin access required",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
