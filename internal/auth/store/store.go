package store

import (
	"context"
	"errors"

	"github.com/bni/bni/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Repositories hang off it as methods so a transaction can
// hand out the same repositories bound to the transaction.
type Store interface {
	Users() Users
	Profiles() Profiles

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn inside a transaction, committing when fn returns nil
	// and rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the underlying connection pool.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Nested transactions are not supported.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during login. Matching is case-sensitive.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// ExistsByUsername is the registration pre-check. The unique index
	// still decides races: CreateUser returns ErrAlreadyExists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error
}

type Profiles interface {
	// GetProfileByUserID returns ErrNotFound when the user has no profile.
	GetProfileByUserID(ctx context.Context, userID string) (domain.Profile, error)

	// UpsertProfile creates the profile or replaces every field of the
	// existing one. Returns ErrNotFound when the user does not exist.
	UpsertProfile(ctx context.Context, p domain.Profile) error
}
