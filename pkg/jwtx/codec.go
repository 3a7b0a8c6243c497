package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoSigningKey = errors.New("jwtx: signing key is not configured")

	// ErrInvalidToken wraps every decode failure; the specific cause below
	// is wrapped alongside it for logging.
	ErrInvalidToken = errors.New("jwtx: invalid token")

	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// Codec issues and verifies HS256 bearer tokens with a single SigningKey.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	key    *SigningKey
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithTTL overrides DefaultTokenTTL. Tests use it to mint short-lived or
// already-expired tokens.
func WithTTL(ttl time.Duration) Option {
	return func(c *Codec) { c.ttl = ttl }
}

// WithIssuer sets the iss claim on issue and requires it on decode.
func WithIssuer(issuer string) Option {
	return func(c *Codec) { c.issuer = issuer }
}

// WithClock replaces time.Now for both issue and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec binds key to a Codec. A missing key is a configuration error and
// the only way construction fails.
func NewCodec(key *SigningKey, opts ...Option) (*Codec, error) {
	if key.IsZero() {
		return nil, ErrNoSigningKey
	}

	c := &Codec{
		key: key,
		ttl: DefaultTokenTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL reports the lifetime given to issued tokens.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Ready reports whether the codec can sign.
func (c *Codec) Ready() bool { return c != nil && !c.key.IsZero() }

// Issue signs a token for subject with iat=now and exp=now+TTL.
func (c *Codec) Issue(subject, role string, extra ...ClaimOption) (string, error) {
	if !c.Ready() {
		return "", ErrNoSigningKey
	}

	// NumericDate has second precision; truncating first keeps exp-iat == TTL.
	now := c.now().UTC().Truncate(jwt.TimePrecision)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Role: role,
	}
	for _, opt := range extra {
		opt(&claims)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key.bytes())
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify reports whether token is well formed, carries a valid HS256
// signature from this codec's key and has not expired.
func (c *Codec) Verify(token string) bool {
	_, err := c.DecodeClaims(token)
	return err == nil
}

// DecodeClaims runs the same checks as Verify and returns the claims. Any
// failure wraps ErrInvalidToken.
func (c *Codec) DecodeClaims(token string) (Claims, error) {
	if !c.Ready() {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, ErrNoSigningKey)
	}

	var claims Claims
	_, err := c.parser().ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.key.bytes(), nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, classify(err))
	}
	return claims, nil
}

func (c *Codec) parser() *jwt.Parser {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	return jwt.NewParser(opts...)
}

// classify maps jwt library errors onto our sentinels. Signature checks run
// before claim validation, so an expired token with a bad signature reports
// ErrInvalidSig.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	default:
		return ErrInvalidClaim
	}
}
