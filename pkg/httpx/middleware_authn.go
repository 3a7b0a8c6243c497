package httpx

import (
	"context"
	"net/http"

	"github.com/bni/bni/pkg/jwtx"
	"github.com/bni/bni/pkg/slogx"
)

// Authenticator turns a raw Authorization header into an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (jwtx.Identity, error)
}

// ErrorWriter renders a handler error. The caller owns the status mapping.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// AuthnMiddleware rejects requests whose Authorization header does not
// authenticate and stores the identity in the request context otherwise.
func AuthnMiddleware(a Authenticator, onError ErrorWriter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id, err := a.Authenticate(ctx, r.Header.Get("Authorization"))
			if err != nil {
				slogx.FromContext(ctx).Debug("authentication failed", "err", err)
				onError(w, r, err)
				return
			}

			ctx = WithIdentity(ctx, id)
			ctx = slogx.WithSubject(ctx, id.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
