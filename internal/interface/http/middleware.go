package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	domaccount "github.com/hsdarestani/vaadehrep/internal/domain/account"
)

type ctxKey struct{}

var (
	ctxUserKey         = ctxKey{}
	errUnauthenticated = errors.New("unauthenticated")
	errForbidden       = errors.New("forbidden")
)

type authUser struct {
	User    *domaccount.User
	IsStaff bool
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// requireAuth rejects requests without a valid token for a live account.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, errUnauthenticated)
			return
		}

		u, claims, err := a.accountSvc.Authenticate(r.Context(), token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, errUnauthenticated)
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserKey, &authUser{User: u, IsStaff: claims.IsStaff})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// optionalAuth attaches the identity when a valid token is present and lets
// anonymous requests through; placement accepts guests.
func (a *API) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		u, claims, err := a.accountSvc.Authenticate(r.Context(), token)
		if err != nil {
			// An expired token on a guest-capable endpoint degrades to
			// anonymous instead of blocking the order.
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserKey, &authUser{User: u, IsStaff: claims.IsStaff})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := getAuthUser(r.Context())
		if user == nil {
			respondError(w, http.StatusUnauthorized, errUnauthenticated)
			return
		}
		if !user.IsStaff {
			respondError(w, http.StatusForbidden, errForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func getAuthUser(ctx context.Context) *authUser {
	if user, ok := ctx.Value(ctxUserKey).(*authUser); ok {
		return user
	}
	return nil
}
