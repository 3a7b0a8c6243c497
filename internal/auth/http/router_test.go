package http_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bni/bni/internal/auth/blob"
	authhttp "github.com/bni/bni/internal/auth/http"
	"github.com/bni/bni/internal/auth/service"
	"github.com/bni/bni/internal/auth/store/drivers/sqlite"
	"github.com/bni/bni/pkg/authsdk"
	"github.com/bni/bni/pkg/cryptox"
	"github.com/bni/bni/pkg/httpx"
	"github.com/bni/bni/pkg/jwtx"
	"github.com/bni/bni/pkg/slogx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	server *httptest.Server
	client *authsdk.Client
	codec  *jwtx.Codec
	now    time.Time
}

func roomyLimits() httpx.RateLimits {
	l := httpx.DefaultRateLimits()
	l.Strict = httpx.RateLimitConfig{Requests: 1000, WindowSec: 60, Burst: 1000}
	return l
}

func newTestEnv(t *testing.T, limits httpx.RateLimits) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	storage, err := blob.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	key, err := jwtx.NewSigningKey()
	require.NoError(t, err)
	now := time.Now().UTC().Truncate(time.Second)
	codec, err := jwtx.NewCodec(key, jwtx.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	hasher, err := cryptox.NewHasher(cryptox.SchemeBcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	logger := slogx.NewDiscard()
	r := authhttp.NewRouter(codec, limits, "test", st, storage, logger)
	r.AuthService = &service.AuthService{
		Store:  st,
		Codec:  codec,
		Hasher: hasher,
		Policy: service.LoginPolicy{RequireEmailMatch: true},
	}
	r.Gate = &service.Gate{Codec: codec}
	r.ProfileService = &service.ProfileService{Store: st}
	r.FileService = &service.FileService{Storage: storage}
	r.MaxUploadBytes = 1 << 10
	r.ApplyRoutes()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{
		server: srv,
		client: authsdk.NewClient(srv.URL),
		codec:  codec,
		now:    now,
	}
}

func (e *testEnv) registerAndLogin(t *testing.T, username string) string {
	t.Helper()
	ctx := context.Background()

	_, err := e.client.Register(ctx, authsdk.RegisterRequest{
		Username:     username,
		EmailAddress: username + "@example.com",
		Password:     "pw1",
	})
	require.NoError(t, err)

	resp, err := e.client.Login(ctx, authsdk.LoginRequest{
		Username:     username,
		EmailAddress: username + "@example.com",
		Password:     "pw1",
	})
	require.NoError(t, err)
	return resp.Token
}

func requireAPIError(t *testing.T, err error, status int) *authsdk.APIError {
	t.Helper()

	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected *APIError, got %v", err)
	require.Equal(t, status, apiErr.Status)
	return apiErr
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, roomyLimits())
	ctx := context.Background()

	reg, err := env.client.Register(ctx, authsdk.RegisterRequest{
		Username:     "alice",
		EmailAddress: "a@x.com",
		Password:     "pw1",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, reg.Status)
	require.Equal(t, "Registered successfully", reg.Message)

	t.Run("duplicate is a conflict", func(t *testing.T) {
		_, err := env.client.Register(ctx, authsdk.RegisterRequest{Username: "alice", Password: "other"})
		requireAPIError(t, err, http.StatusConflict)
	})

	t.Run("login returns a verifiable token", func(t *testing.T) {
		resp, err := env.client.Login(ctx, authsdk.LoginRequest{
			Username:     "alice",
			EmailAddress: "a@x.com",
			Password:     "pw1",
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.Status)
		require.NotEmpty(t, resp.Token)
		require.Len(t, strings.Split(resp.Token, "."), 3)
		require.True(t, env.codec.Verify(resp.Token))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := env.client.Login(ctx, authsdk.LoginRequest{
			Username:     "alice",
			EmailAddress: "a@x.com",
			Password:     "wrong",
		})
		apiErr := requireAPIError(t, err, http.StatusUnauthorized)
		require.NotContains(t, strings.ToLower(apiErr.Message), "password does not match")
	})

	t.Run("email mismatch", func(t *testing.T) {
		_, err := env.client.Login(ctx, authsdk.LoginRequest{
			Username:     "alice",
			EmailAddress: "b@x.com",
			Password:     "pw1",
		})
		requireAPIError(t, err, http.StatusUnauthorized)
	})

	t.Run("validation errors carry fields", func(t *testing.T) {
		_, err := env.client.Register(ctx, authsdk.RegisterRequest{Username: "", EmailAddress: "nope", Password: ""})
		apiErr := requireAPIError(t, err, http.StatusBadRequest)
		require.Contains(t, apiErr.Errors, "username")
		require.Contains(t, apiErr.Errors, "email_address")
		require.Contains(t, apiErr.Errors, "password")
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, err := http.Post(env.server.URL+"/api/auth/login", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestMe(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, roomyLimits())
	ctx := context.Background()
	token := env.registerAndLogin(t, "alice")

	t.Run("describes the token", func(t *testing.T) {
		me, err := env.client.Me(ctx, token)
		require.NoError(t, err)
		require.Equal(t, "alice", me.Username)
		require.Equal(t, "USER", me.Role)
		require.True(t, me.IssuedAt.Equal(env.now))
		require.True(t, me.Expiration.Equal(env.now.Add(jwtx.DefaultTokenTTL)))
	})

	t.Run("timestamps are RFC 3339 UTC", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/auth/me", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), `"issuedAt":"`+env.now.Format(time.RFC3339)+`"`)
	})

	t.Run("missing header is a bad request", func(t *testing.T) {
		_, err := env.client.Me(ctx, "")
		requireAPIError(t, err, http.StatusBadRequest)
	})

	t.Run("wrong scheme is a bad request", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/auth/me", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Basic xyz")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		_, err := env.client.Me(ctx, "not.a.token")
		requireAPIError(t, err, http.StatusUnauthorized)
	})
}

func TestProfileEndpoints(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, roomyLimits())
	ctx := context.Background()
	token := env.registerAndLogin(t, "alice")

	_, err := env.client.GetProfile(ctx, token)
	requireAPIError(t, err, http.StatusNotFound)

	upd, err := env.client.UpdateProfile(ctx, token, authsdk.ProfileUpdateRequest{
		FirstName:    "Alice",
		LastName:     "Liddell",
		PlaceOfBirth: "Oxford",
		DateOfBirth:  "1852-05-04",
	})
	require.NoError(t, err)
	require.Equal(t, "Profile updated successfully", upd.Message)

	got, err := env.client.GetProfile(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "Alice", got.Data.FirstName)
	require.Equal(t, "Liddell", got.Data.LastName)
	require.Equal(t, "Oxford", got.Data.PlaceOfBirth)
	require.Equal(t, "1852-05-04", got.Data.DateOfBirth)
	require.False(t, got.Data.UpdatedAt.IsZero())

	_, err = env.client.UpdateProfile(ctx, token, authsdk.ProfileUpdateRequest{DateOfBirth: "yesterday"})
	apiErr := requireAPIError(t, err, http.StatusBadRequest)
	require.Contains(t, apiErr.Errors, "date_of_birth")

	_, err = env.client.GetProfile(ctx, "")
	requireAPIError(t, err, http.StatusBadRequest)
}

func TestFileEndpoints(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, roomyLimits())
	ctx := context.Background()
	token := env.registerAndLogin(t, "alice")

	t.Run("upload requires a token", func(t *testing.T) {
		_, err := env.client.UploadFile(ctx, "", "a.json", strings.NewReader("{}"))
		requireAPIError(t, err, http.StatusBadRequest)
	})

	t.Run("upload then download", func(t *testing.T) {
		up, err := env.client.UploadFile(ctx, token, "notes.json", strings.NewReader(`{"a":1}`))
		require.NoError(t, err)
		require.Equal(t, "notes.json", up.FileName)
		require.Equal(t, "/api/files/notes.json", up.FileURL)

		body, ct, err := env.client.DownloadFile(ctx, "notes.json")
		require.NoError(t, err)
		require.Equal(t, `{"a":1}`, string(body))
		require.True(t, strings.HasPrefix(ct, "application/json"))

		resp, err := http.Get(env.server.URL + up.FileURL)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.True(t, strings.HasPrefix(resp.Header.Get("Content-Disposition"), "inline"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := env.client.DownloadFile(ctx, "nope.bin")
		requireAPIError(t, err, http.StatusNotFound)
	})

	t.Run("oversized upload", func(t *testing.T) {
		_, err := env.client.UploadFile(ctx, token, "big.bin", bytes.NewReader(make([]byte, 4<<10)))
		requireAPIError(t, err, http.StatusRequestEntityTooLarge)
	})
}

func TestHealth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, roomyLimits())
	ctx := context.Background()

	live, err := env.client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := env.client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.NotNil(t, ready.Checks)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Signer)
	require.Equal(t, "ok", ready.Checks.Storage)
}

func TestLoginRateLimit(t *testing.T) {
	t.Parallel()
	limits := roomyLimits()
	limits.Strict = httpx.RateLimitConfig{Requests: 2, WindowSec: 60, Burst: 2}
	env := newTestEnv(t, limits)
	ctx := context.Background()

	req := authsdk.LoginRequest{Username: "mallory", Password: "guess"}
	for range 2 {
		_, err := env.client.Login(ctx, req)
		requireAPIError(t, err, http.StatusUnauthorized)
	}
	_, err := env.client.Login(ctx, req)
	requireAPIError(t, err, http.StatusTooManyRequests)

	// A different username from the same address has its own bucket.
	_, err = env.client.Login(ctx, authsdk.LoginRequest{Username: "trudy", Password: "guess"})
	requireAPIError(t, err, http.StatusUnauthorized)
}

func TestLoginRateLimit_ForwardedFor(t *testing.T) {
	t.Parallel()

	login := func(t *testing.T, env *testEnv, forwardedFor string) int {
		t.Helper()
		body := strings.NewReader(`{"username":"mallory","password":"guess"}`)
		req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/auth/login", body)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwardedFor)

		resp, err := env.server.Client().Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	t.Run("rotating the header does not reset the bucket", func(t *testing.T) {
		t.Parallel()
		limits := roomyLimits()
		limits.Strict = httpx.RateLimitConfig{Requests: 2, WindowSec: 60, Burst: 2}
		env := newTestEnv(t, limits)

		require.Equal(t, http.StatusUnauthorized, login(t, env, "203.0.113.1"))
		require.Equal(t, http.StatusUnauthorized, login(t, env, "203.0.113.2"))
		require.Equal(t, http.StatusTooManyRequests, login(t, env, "203.0.113.3"))
	})

	t.Run("header is honoured behind a trusted proxy", func(t *testing.T) {
		t.Parallel()
		limits := roomyLimits()
		limits.Strict = httpx.RateLimitConfig{Requests: 1, WindowSec: 60, Burst: 1}
		limits.TrustProxyHeaders = true
		env := newTestEnv(t, limits)

		require.Equal(t, http.StatusUnauthorized, login(t, env, "203.0.113.1"))
		require.Equal(t, http.StatusTooManyRequests, login(t, env, "203.0.113.1"))
		require.Equal(t, http.StatusUnauthorized, login(t, env, "203.0.113.2"))
	})
}
