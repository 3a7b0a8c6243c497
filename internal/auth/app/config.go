package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/bni/bni/internal/auth/blob"
	"github.com/bni/bni/pkg/cryptox"
	"github.com/bni/bni/pkg/httpx"
	"github.com/caarlos0/env/v11"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// File storage backends.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	Issuer            string `env:"AUTH_ISSUER"              envDefault:"bni-auth"`
	RequireEmailMatch bool   `env:"AUTH_REQUIRE_EMAIL_MATCH" envDefault:"true"`
	PasswordScheme    string `env:"AUTH_PASSWORD_SCHEME"     envDefault:"bcrypt"`
	BcryptCost        int    `env:"AUTH_BCRYPT_COST"         envDefault:"10"`

	StoreDriver  string `env:"AUTH_STORE_DRIVER"  envDefault:"sqlite"`
	DatabaseFile string `env:"AUTH_DATABASE_FILE" envDefault:"auth.db"`
	DatabaseURL  string `env:"AUTH_DATABASE_URL"`

	FileStorage    string        `env:"FILE_STORAGE"          envDefault:"local"`
	UploadDir      string        `env:"FILE_UPLOAD_DIR"       envDefault:"uploads"`
	MaxUploadBytes int64         `env:"FILE_MAX_UPLOAD_BYTES" envDefault:"10485760"`
	S3             blob.S3Config `envPrefix:"S3_"`

	Env                 string        `env:"ENV"                   envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL"             envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT"            envDefault:"json"`
	Port                int           `env:"PORT"                  envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	// RateLimits starts from httpx.DefaultRateLimits; RATELIMIT_* variables
	// override individual values.
	RateLimits httpx.RateLimits `envPrefix:"RATELIMIT_"`
}

// LoadConfig reads the process environment.
func LoadConfig() (Config, error) {
	return loadConfig(env.Options{})
}

func loadConfig(opts env.Options) (Config, error) {
	cfg := Config{RateLimits: httpx.DefaultRateLimits()}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects combinations the application cannot start with.
func (c Config) Validate() error {
	var errs []error

	switch c.PasswordScheme {
	case cryptox.SchemeBcrypt, cryptox.SchemeArgon2id:
	default:
		errs = append(errs, fmt.Errorf("AUTH_PASSWORD_SCHEME: unknown scheme %q", c.PasswordScheme))
	}

	switch c.StoreDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_FILE: required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_URL: required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_STORE_DRIVER: unknown driver %q", c.StoreDriver))
	}

	switch c.FileStorage {
	case StorageLocal:
		if c.UploadDir == "" {
			errs = append(errs, errors.New("FILE_UPLOAD_DIR: required for local storage"))
		}
	case StorageS3:
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET: required for s3 storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("FILE_STORAGE: unknown backend %q", c.FileStorage))
	}

	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("FILE_MAX_UPLOAD_BYTES: must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: %d out of range", c.Port))
	}
	if err := c.RateLimits.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("RATELIMIT: %w", err))
	}

	return errors.Join(errs...)
}
