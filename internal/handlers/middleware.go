package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/invoiceregistry/apiserver/internal/store"
	"github.com/invoiceregistry/apiserver/internal/token"
	"github.com/invoiceregistry/apiserver/types"
)

// PrincipalResolver maps a verified token subject to the user's current
// role set.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, subject string) (types.Principal, error)
}

// Authenticate builds the per-request authentication middleware. It
// runs on every inbound request, before any route policy.
//
// A missing or non-bearer Authorization header means the request is
// anonymous and proceeds as such. A token that fails verification is
// ignored here rather than rejected, so public routes stay reachable
// even with a garbage token; the route's access policy decides whether
// an unauthenticated request is acceptable. The one failure the
// middleware handles itself is a valid token whose subject no longer
// resolves to a stored user: that request is rejected outright.
func Authenticate(codec *token.Codec, resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			subject, err := codec.Verify(tokenString)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := resolver.ResolvePrincipal(r.Context(), subject)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				writeError(w, http.StatusInternalServerError, "failed to resolve user")
				return
			}

			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
		})
	}
}

// bearerToken extracts the credential from "Authorization: Bearer
// <token>". Anything else counts as no credential supplied.
func bearerToken(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", false
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return "", false
	}
	return tokenString, true
}
