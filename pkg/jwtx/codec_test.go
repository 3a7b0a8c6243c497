package jwtx_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bni/bni/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "bni-auth"

// testClock is a settable time source. Tests drive it from one goroutine.
type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

func newTestKey(t *testing.T) *jwtx.SigningKey {
	t.Helper()
	key, err := jwtx.NewSigningKey()
	require.NoError(t, err)
	return key
}

func newTestCodec(t *testing.T, opts ...jwtx.Option) *jwtx.Codec {
	t.Helper()
	c, err := jwtx.NewCodec(newTestKey(t), opts...)
	require.NoError(t, err)
	return c
}

func TestNewCodec_RequiresKey(t *testing.T) {
	_, err := jwtx.NewCodec(nil)
	require.ErrorIs(t, err, jwtx.ErrNoSigningKey)

	_, err = jwtx.NewCodec(&jwtx.SigningKey{})
	require.ErrorIs(t, err, jwtx.ErrNoSigningKey)
}

func TestZeroCodec_FailsClosed(t *testing.T) {
	var c *jwtx.Codec

	_, err := c.Issue("alice", "USER")
	require.ErrorIs(t, err, jwtx.ErrNoSigningKey)
	require.False(t, c.Verify("a.b.c"))

	_, err = c.DecodeClaims("a.b.c")
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
}

func TestSigningKeyFromBytes(t *testing.T) {
	_, err := jwtx.SigningKeyFromBytes([]byte("short"))
	require.Error(t, err)

	raw := bytes.Repeat([]byte{7}, jwtx.SigningKeySize)
	key, err := jwtx.SigningKeyFromBytes(raw)
	require.NoError(t, err)
	require.False(t, key.IsZero())

	// Mutating the caller's slice must not change the key.
	c, err := jwtx.NewCodec(key)
	require.NoError(t, err)
	token, err := c.Issue("alice", "USER")
	require.NoError(t, err)
	raw[0] = 9
	require.True(t, c.Verify(token))
}

func TestIssueAndDecode(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, jwtx.WithIssuer(exampleIssuer), jwtx.WithClock(clock.Now))

	token, err := c.Issue("alice", "USER", jwtx.WithUserID("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"), jwtx.WithEmail("a@x.com"))
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3, "token should be header.payload.signature")
	require.True(t, c.Verify(token))

	claims, err := c.DecodeClaims(token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.Equal(t, "USER", claims.Role)
	require.Equal(t, exampleIssuer, claims.Issuer)
	require.Equal(t, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", claims.UserID)
	require.Equal(t, "a@x.com", claims.Email)
	require.Equal(t, clock.t, claims.IssuedAt.Time.UTC())
	require.Equal(t, jwtx.DefaultTokenTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

	id := claims.Identity()
	require.Equal(t, "alice", id.Subject)
	require.Equal(t, "USER", id.Role)
	require.Equal(t, clock.t.Add(10*time.Hour), id.ExpiresAt)
}

func TestDecodeClaims_Idempotent(t *testing.T) {
	c := newTestCodec(t)

	token, err := c.Issue("alice", "ADMIN")
	require.NoError(t, err)

	first, err := c.DecodeClaims(token)
	require.NoError(t, err)
	second, err := c.DecodeClaims(token)
	require.NoError(t, err)

	require.Equal(t, first.Identity(), second.Identity())
}

func TestExpiry(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := &testClock{t: issuedAt}
	c := newTestCodec(t, jwtx.WithClock(clock.Now))

	token, err := c.Issue("alice", "USER")
	require.NoError(t, err)

	t.Run("valid one second before expiry", func(t *testing.T) {
		clock.t = issuedAt.Add(jwtx.DefaultTokenTTL - time.Second)
		require.True(t, c.Verify(token))
	})

	t.Run("expired exactly at expiry", func(t *testing.T) {
		clock.t = issuedAt.Add(jwtx.DefaultTokenTTL)
		require.False(t, c.Verify(token))

		_, err := c.DecodeClaims(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("expired long after", func(t *testing.T) {
		clock.t = issuedAt.Add(48 * time.Hour)
		require.False(t, c.Verify(token))
	})
}

func TestExpiry_NegativeTTL(t *testing.T) {
	c := newTestCodec(t, jwtx.WithTTL(-time.Second))

	token, err := c.Issue("alice", "USER")
	require.NoError(t, err)
	require.False(t, c.Verify(token))
}

func TestVerify_WrongKey(t *testing.T) {
	signer := newTestCodec(t)
	verifier := newTestCodec(t)

	token, err := signer.Issue("alice", "USER")
	require.NoError(t, err)

	require.False(t, verifier.Verify(token))
	_, err = verifier.DecodeClaims(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestVerify_TamperedPayload(t *testing.T) {
	c := newTestCodec(t)

	token, err := c.Issue("alice", "USER")
	require.NoError(t, err)

	// Swap in the payload of a token for another subject, keeping alice's signature.
	other, err := c.Issue("mallory", "ADMIN")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[1] = strings.Split(other, ".")[1]
	forged := strings.Join(parts, ".")

	require.False(t, c.Verify(forged))
	_, err = c.DecodeClaims(forged)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	c := newTestCodec(t)

	claims := jwt.MapClaims{
		"sub":  "alice",
		"role": "ADMIN",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	require.False(t, c.Verify(unsigned))
	_, err = c.DecodeClaims(unsigned)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	c := newTestCodec(t)

	for _, token := range []string{"", "abc", "a.b", "a.b.c", "not.a.jwt", "...."} {
		t.Run(token, func(t *testing.T) {
			require.False(t, c.Verify(token))

			_, err := c.DecodeClaims(token)
			require.ErrorIs(t, err, jwtx.ErrInvalidToken)
		})
	}
}

func TestDecode_MissingRoleIsEmpty(t *testing.T) {
	raw := bytes.Repeat([]byte{42}, jwtx.SigningKeySize)
	key, err := jwtx.SigningKeyFromBytes(raw)
	require.NoError(t, err)
	c, err := jwtx.NewCodec(key)
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "bob",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(raw)
	require.NoError(t, err)

	claims, err := c.DecodeClaims(token)
	require.NoError(t, err)
	require.Equal(t, "bob", claims.Subject)
	require.Empty(t, claims.Role)
}

func TestDecode_MissingExpiryRejected(t *testing.T) {
	raw := bytes.Repeat([]byte{42}, jwtx.SigningKeySize)
	key, err := jwtx.SigningKeyFromBytes(raw)
	require.NoError(t, err)
	c, err := jwtx.NewCodec(key)
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "bob"}).SignedString(raw)
	require.NoError(t, err)

	require.False(t, c.Verify(token))
}

func TestDecode_IssuerMismatch(t *testing.T) {
	key := newTestKey(t)

	other, err := jwtx.NewCodec(key, jwtx.WithIssuer("someone-else"))
	require.NoError(t, err)
	ours, err := jwtx.NewCodec(key, jwtx.WithIssuer(exampleIssuer))
	require.NoError(t, err)

	token, err := other.Issue("alice", "USER")
	require.NoError(t, err)

	_, err = ours.DecodeClaims(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestCodec_ConcurrentUse(t *testing.T) {
	c := newTestCodec(t)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := c.Issue("alice", "USER")
			if err != nil {
				errs <- err
				return
			}
			if _, err := c.DecodeClaims(token); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}
