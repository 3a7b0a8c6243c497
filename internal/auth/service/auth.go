package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bni/bni/internal/auth/domain"
	"github.com/bni/bni/internal/auth/store"
	"github.com/bni/bni/pkg/cryptox"
	"github.com/bni/bni/pkg/idx"
	"github.com/bni/bni/pkg/jwtx"
	"github.com/bni/bni/pkg/slogx"
	validation "github.com/go-ozzo/ozzo-validation"
)

// MsgRegistered is returned by a successful Register.
const MsgRegistered = "Registered successfully"

// LoginPolicy controls the optional checks applied during Login.
type LoginPolicy struct {
	// RequireEmailMatch binds login to the email stored at registration.
	// The comparison is exact; a user registered without an email must
	// log in without one.
	RequireEmailMatch bool
}

// AuthService registers users and exchanges credentials for tokens.
type AuthService struct {
	Store  store.Store
	Codec  *jwtx.Codec
	Hasher *cryptox.Hasher
	Policy LoginPolicy

	// Now defaults to time.Now.
	Now func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email_address"`
	Password string `json:"password"`
}

// LoginInput is a credential presentation.
type LoginInput struct {
	Username string `json:"username"`
	Email    string `json:"email_address"`
	Password string `json:"password"`
}

func (in RegisterInput) validate() error {
	return AsValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required),
		validation.Field(&in.Password, validation.Required),
	))
}

func (in LoginInput) validate() error {
	return AsValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required),
		validation.Field(&in.Password, validation.Required),
	))
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Register creates a USER account. It returns ErrDuplicateUser when the
// username is taken, including when a concurrent registration wins the race.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	l := slogx.FromContext(ctx)

	if err := in.validate(); err != nil {
		return "", err
	}

	exists, err := s.Store.Users().ExistsByUsername(ctx, in.Username)
	if err != nil {
		l.Error("register: username lookup failed", slog.Any("error", err))
		return "", fmt.Errorf("register: %w", err)
	}
	if exists {
		l.Info("register: username taken", slog.String("username", in.Username))
		return "", ErrDuplicateUser
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordTooLong) {
			return "", NewValidationError("password", fmt.Sprintf("must be at most %d bytes", cryptox.MaxPasswordBytes))
		}
		return "", fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now()
	u := domain.User{
		ID:           idx.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			l.Info("register: username taken", slog.String("username", in.Username))
			return "", ErrDuplicateUser
		}
		l.Error("register: create user failed", slog.Any("error", err))
		return "", fmt.Errorf("register: %w", err)
	}

	l.Info("user registered", slog.String("user_id", u.ID), slog.String("username", u.Username))
	return MsgRegistered, nil
}

// Login verifies the credentials and issues a signed token whose subject
// is the username. Every credential failure is ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, error) {
	l := slogx.FromContext(ctx)

	if err := in.validate(); err != nil {
		return "", err
	}

	u, err := s.Store.Users().GetUserByUsername(ctx, in.Username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			l.Error("login: user lookup failed", slog.Any("error", err))
			return "", fmt.Errorf("login: %w", err)
		}
		// Burn a comparable amount of time so unknown usernames are not
		// distinguishable from wrong passwords.
		s.Hasher.Verify(in.Password, s.dummy())
		l.Info("login failed", slog.String("username", in.Username))
		return "", ErrInvalidCredentials
	}

	if !s.Hasher.Verify(in.Password, u.PasswordHash) {
		l.Info("login failed", slog.String("username", in.Username))
		return "", ErrInvalidCredentials
	}
	if s.Policy.RequireEmailMatch && u.Email != in.Email {
		l.Info("login failed: email mismatch", slog.String("username", in.Username))
		return "", ErrInvalidCredentials
	}
	if !u.Active {
		l.Info("login failed: inactive user", slog.String("username", in.Username))
		return "", ErrInvalidCredentials
	}

	token, err := s.Codec.Issue(u.Username, u.Role, jwtx.WithUserID(u.ID))
	if err != nil {
		l.Error("login: issue token failed", slog.Any("error", err))
		return "", fmt.Errorf("login: %w", err)
	}

	l.Info("user logged in", slog.String("user_id", u.ID), slog.String("username", u.Username))
	return token, nil
}

// dummyPassword is hashed once per service for unknown-user logins.
const dummyPassword = "bni-auth-dummy-password"

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.Hasher.Hash(dummyPassword)
		if err != nil {
			hash = fallbackDummyHash
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// fallbackDummyHash is a well-formed cost-10 bcrypt hash used when
// hashing dummyPassword fails.
const fallbackDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
