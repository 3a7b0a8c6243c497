package jwtx

import (
	"errors"
	"fmt"

	"github.com/bni/bni/pkg/cryptox"
)

// SigningKeySize is the length of generated HMAC secrets. HS256 wants at
// least as many key bytes as the hash output.
const SigningKeySize = 32

// SigningKey is the process-wide HMAC secret. It is created once at startup,
// held only in memory and shared by pointer with every Codec. Tokens signed
// by one process cannot be verified after a restart.
type SigningKey struct {
	secret []byte
}

// NewSigningKey generates a fresh random key.
func NewSigningKey() (*SigningKey, error) {
	b, err := cryptox.RandomBytes(SigningKeySize)
	if err != nil {
		return nil, fmt.Errorf("jwtx: generate signing key: %w", err)
	}
	return &SigningKey{secret: b}, nil
}

// SigningKeyFromBytes wraps existing key material. The slice is copied so
// later mutation by the caller cannot change the key.
func SigningKeyFromBytes(b []byte) (*SigningKey, error) {
	if len(b) < SigningKeySize {
		return nil, errors.New("jwtx: signing key must be at least 32 bytes")
	}
	return &SigningKey{secret: append([]byte(nil), b...)}, nil
}

// IsZero reports whether k carries no key material.
func (k *SigningKey) IsZero() bool {
	return k == nil || len(k.secret) == 0
}

// bytes hands the secret to the jwt library, which only reads it.
func (k *SigningKey) bytes() []byte { return k.secret }
