// Package auth gates the staff API behind the shared access token.
//
// There are no user accounts. Whoever holds the link the teacher most
// recently generated is staff; rotating the token logs everyone else out.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sakif/otayori/internal/apperror"
	"github.com/sakif/otayori/internal/handler"
)

// HeaderName carries the access token on API calls from the staff page.
const HeaderName = "X-Access-Token"

// Verifier reports whether a token is the one currently issued.
// *service.TokenService satisfies it.
type Verifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// TokenFromRequest returns the access token from the X-Access-Token header,
// falling back to the "token" query parameter the staff link carries.
func TokenFromRequest(r *http.Request) string {
	if tok := strings.TrimSpace(r.Header.Get(HeaderName)); tok != "" {
		return tok
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// RequireAccessToken rejects requests whose token does not verify.
//
// MIDDLEWARE PATTERN:
// The returned func wraps the next handler; chi chains them as
// req → RequireAccessToken → handler. A rejected request never reaches
// the handler.
//
// A storage failure during verification is a 500, not a 401: the token may
// well be valid.
func RequireAccessToken(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			valid, err := verifier.Verify(r.Context(), TokenFromRequest(r))
			if err != nil {
				handler.WriteError(w, fmt.Errorf("checking access token: %w", err))
				return
			}
			if !valid {
				handler.WriteError(w, apperror.Unauthorized("valid access token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
