package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the fixed lifetime of issued bearer tokens.
const DefaultTokenTTL = 10 * time.Hour

// Claims is the payload of a bearer token. sub carries the username; role
// is always written on issue but may be absent in tokens from elsewhere, in
// which case it decodes as "".
type Claims struct {
	jwt.RegisteredClaims

	Role string `json:"role"`

	// UserID is the store identifier of the subject, letting profile
	// operations skip a username lookup.
	UserID string `json:"user_id,omitempty"`

	Email string `json:"email,omitempty"`
}

// ClaimOption adds optional claims at issue time.
type ClaimOption func(*Claims)

// WithUserID embeds the subject's store identifier.
func WithUserID(id string) ClaimOption {
	return func(c *Claims) { c.UserID = id }
}

// WithEmail embeds the subject's email address.
func WithEmail(email string) ClaimOption {
	return func(c *Claims) { c.Email = email }
}

// Identity is the trusted result of validating a token.
type Identity struct {
	Subject   string
	Role      string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Identity projects verified claims onto an Identity.
func (c Claims) Identity() Identity {
	id := Identity{
		Subject: c.Subject,
		Role:    c.Role,
		UserID:  c.UserID,
	}
	if c.IssuedAt != nil {
		id.IssuedAt = c.IssuedAt.UTC()
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.UTC()
	}
	return id
}
