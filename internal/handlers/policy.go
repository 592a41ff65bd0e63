package handlers

import (
	"net/http"
	"strings"
)

// openPathPrefixes are reachable without authentication regardless of
// the policy declared on the route. Documentation discovery must work
// for unauthenticated API consumers.
var openPathPrefixes = []string{
	"/swagger-ui",
	"/v3/api-docs",
}

// RequireAuthenticated admits any request that carries a resolved
// principal, whatever its roles.
func RequireAuthenticated() func(http.Handler) http.Handler {
	return requireRoles(nil)
}

// RequireRoles admits requests whose principal holds at least one of
// the named roles. Requests without a principal get 401; authenticated
// requests outside the role set get 403.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return requireRoles(roles)
}

func requireRoles(roles []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt(r) {
				next.ServeHTTP(w, r)
				return
			}

			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if len(roles) > 0 && !principal.HasAnyRole(roles...) {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// exempt reports whether the request bypasses route policy entirely:
// CORS pre-flight and documentation-discovery paths are always open.
func exempt(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}
	for _, prefix := range openPathPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}
