package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Supported password hashing schemes.
const (
	SchemeBcrypt   = "bcrypt"
	SchemeArgon2id = "argon2id"
)

// MaxPasswordBytes is bcrypt's input limit. We apply it to every scheme so
// switching schemes never changes which passwords are accepted.
const MaxPasswordBytes = 72

// Argon2id parameters for newly created hashes.
const (
	argonMemory      = 19 * 1024 // KiB
	argonIterations  = 2
	argonParallelism = 1
	argonKeyLength   = 32
	argonSaltLength  = 16
)

// Ceilings for parameters read back from stored argon2id hashes.
const (
	maxArgonMemory     = 1 << 20 // KiB
	maxArgonIterations = 16
	maxArgonKeyLength  = 64
)

var (
	ErrPasswordMismatch = errors.New("cryptox: password does not match")
	ErrMalformedHash    = errors.New("cryptox: malformed password hash")
	ErrPasswordTooLong  = errors.New("cryptox: password exceeds 72 bytes")
	ErrUnknownScheme    = errors.New("cryptox: unknown password scheme")
)

// Hasher produces self-salting, self-describing password hashes. The scheme
// only affects new hashes: Compare recognises either encoding, so existing
// rows keep verifying after a deployment changes AUTH_PASSWORD_SCHEME.
type Hasher struct {
	scheme string
	cost   int
}

// NewHasher returns a Hasher for scheme. cost is the bcrypt work factor and
// is ignored for argon2id; zero selects bcrypt.DefaultCost.
func NewHasher(scheme string, cost int) (*Hasher, error) {
	switch scheme {
	case "", SchemeBcrypt:
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("cryptox: bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
		}
		return &Hasher{scheme: SchemeBcrypt, cost: cost}, nil
	case SchemeArgon2id:
		return &Hasher{scheme: SchemeArgon2id}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
}

// Scheme reports which encoding Hash produces.
func (h *Hasher) Scheme() string { return h.scheme }

// Hash returns an encoded hash of password with a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	if h.scheme == SchemeArgon2id {
		return hashArgon2id(password)
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("cryptox: bcrypt: %w", err)
	}
	return string(b), nil
}

// Compare checks password against encoded. It returns ErrPasswordMismatch
// for a wrong password and ErrMalformedHash when encoded cannot be parsed.
func (h *Hasher) Compare(password, encoded string) error {
	if len(password) > MaxPasswordBytes {
		return ErrPasswordMismatch
	}

	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return compareArgon2id(password, encoded)
	case strings.HasPrefix(encoded, "$2"):
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		switch {
		case err == nil:
			return nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return ErrPasswordMismatch
		default:
			return fmt.Errorf("%w: %v", ErrMalformedHash, err)
		}
	default:
		return ErrMalformedHash
	}
}

// Verify is Compare reduced to a boolean.
func (h *Hasher) Verify(password, encoded string) bool {
	return h.Compare(password, encoded) == nil
}

func hashArgon2id(password string) (string, error) {
	salt, err := RandomBytes(argonSaltLength)
	if err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, argonIterations, argonMemory, argonParallelism, argonKeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory,
		argonIterations,
		argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// compareArgon2id parses $argon2id$v=19$m=X,t=Y,p=Z$salt$hash.
func compareArgon2id(password, encoded string) error {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return ErrMalformedHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return fmt.Errorf("%w: unsupported version %q", ErrMalformedHash, parts[2])
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("%w: parameters: %v", ErrMalformedHash, err)
	}
	if mem == 0 || iters == 0 || par == 0 {
		return fmt.Errorf("%w: zero parameter", ErrMalformedHash)
	}
	if mem > maxArgonMemory || iters > maxArgonIterations {
		return fmt.Errorf("%w: parameters out of range", ErrMalformedHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 || len(want) > maxArgonKeyLength {
		return fmt.Errorf("%w: key", ErrMalformedHash)
	}

	got := argon2.IDKey([]byte(password), salt, iters, mem, par, uint32(len(want))) // #nosec G115 - len bounded by maxArgonKeyLength

	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}
