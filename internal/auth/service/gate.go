package service

import (
	"context"
	"strings"

	"github.com/bni/bni/pkg/jwtx"
)

// BearerPrefix is the required Authorization scheme prefix. Matching is
// case-sensitive and includes the single space.
const BearerPrefix = "Bearer "

// Gate turns an Authorization header into an authenticated identity.
// It performs no I/O and is safe for concurrent use.
type Gate struct {
	Codec *jwtx.Codec
}

// Authenticate returns ErrMissingHeader when header is empty or lacks the
// Bearer prefix, and ErrInvalidToken when the token does not verify.
func (g *Gate) Authenticate(_ context.Context, header string) (jwtx.Identity, error) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return jwtx.Identity{}, ErrMissingHeader
	}

	token := strings.TrimSpace(header[len(BearerPrefix):])
	claims, err := g.Codec.DecodeClaims(token)
	if err != nil {
		return jwtx.Identity{}, ErrInvalidToken
	}
	return claims.Identity(), nil
}
