package app

import (
	"fmt"
	"log/slog"

	"github.com/bni/bni/pkg/jwtx"
)

// InitTokenCodec generates the process signing key and wraps it in a codec.
//
// The key lives only in memory: every token issued before a restart, or by
// another instance, fails verification.
func InitTokenCodec(cfg Config, logger *slog.Logger) (*jwtx.Codec, error) {
	key, err := jwtx.NewSigningKey()
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}

	codec, err := jwtx.NewCodec(key, jwtx.WithIssuer(cfg.Issuer))
	if err != nil {
		return nil, err
	}

	logger.Info("ephemeral signing key generated",
		"algorithm", "HS256",
		"issuer", cfg.Issuer,
		"token_ttl", codec.TTL(),
	)
	return codec, nil
}
