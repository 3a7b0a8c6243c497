package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bni/bni/pkg/httpx"
	"github.com/bni/bni/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), tag("first"), tag("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"first", "second", "handler"}, order)
}

type stubAuthenticator struct {
	id  jwtx.Identity
	err error
}

func (s stubAuthenticator) Authenticate(_ context.Context, header string) (jwtx.Identity, error) {
	if header == "" {
		return jwtx.Identity{}, errors.New("missing")
	}
	return s.id, s.err
}

func TestAuthnMiddleware(t *testing.T) {
	onError := func(w http.ResponseWriter, _ *http.Request, err error) {
		httpx.WriteMessage(w, http.StatusUnauthorized, err.Error())
	}

	var seen jwtx.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := httpx.IdentityFromContext(r.Context())
		require.True(t, ok)
		seen = id
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("stores identity", func(t *testing.T) {
		mw := httpx.AuthnMiddleware(stubAuthenticator{id: jwtx.Identity{Subject: "alice", Role: "USER"}}, onError)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer x")
		rec := httptest.NewRecorder()

		mw(next).ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "alice", seen.Subject)
	})

	t.Run("delegates failures", func(t *testing.T) {
		mw := httpx.AuthnMiddleware(stubAuthenticator{}, onError)
		rec := httptest.NewRecorder()

		mw(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.JSONEq(t, `{"status":401,"message":"missing"}`, rec.Body.String())
	})
}

func TestIdentityFromContext_Empty(t *testing.T) {
	_, ok := httpx.IdentityFromContext(context.Background())
	require.False(t, ok)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Username string `json:"username"`
	}

	decode := func(body string) (payload, error) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := httpx.DecodeJSON(httptest.NewRecorder(), req, &p)
		return p, err
	}

	p, err := decode(`{"username":"alice","extra":true}`)
	require.NoError(t, err)
	require.Equal(t, "alice", p.Username)

	_, err = decode(``)
	require.ErrorIs(t, err, httpx.ErrEmptyBody)

	_, err = decode(`{"username":`)
	require.Error(t, err)

	_, err = decode(`{"username":"a"}{"username":"b"}`)
	require.Error(t, err)
}

func TestWriteJSON_NoCache(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteMessage(rec, http.StatusOK, "ok")

	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"status":200,"message":"ok"}`, rec.Body.String())
}
