package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bni/bni/internal/auth/domain"
	"github.com/bni/bni/internal/auth/store"
	"github.com/bni/bni/pkg/jwtx"
	"github.com/bni/bni/pkg/slogx"
)

// MsgProfileUpdated is returned by a successful UpdateProfile.
const MsgProfileUpdated = "Profile updated successfully"

// ProfileService manages the profile of the authenticated user.
type ProfileService struct {
	Store store.Store

	// Now defaults to time.Now.
	Now func() time.Time
}

// ProfileInput replaces every profile field. DateOfBirth is YYYY-MM-DD or
// empty to clear it.
type ProfileInput struct {
	FirstName    string
	LastName     string
	PlaceOfBirth string
	DateOfBirth  string
}

func (s *ProfileService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// UpdateProfile creates or overwrites the caller's profile.
func (s *ProfileService) UpdateProfile(ctx context.Context, id jwtx.Identity, in ProfileInput) (string, error) {
	l := slogx.FromContext(ctx)

	var dob time.Time
	if v := strings.TrimSpace(in.DateOfBirth); v != "" {
		t, err := time.Parse(domain.DateLayout, v)
		if err != nil {
			return "", NewValidationError("date_of_birth", "must be a date in YYYY-MM-DD format")
		}
		dob = t
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := resolveUser(ctx, tx.Users(), id)
		if err != nil {
			return err
		}
		return tx.Profiles().UpsertProfile(ctx, domain.Profile{
			UserID:       u.ID,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			PlaceOfBirth: in.PlaceOfBirth,
			DateOfBirth:  dob,
			UpdatedAt:    s.now(),
		})
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound), errors.Is(err, store.ErrNotFound):
		return "", ErrNotFound
	default:
		l.Error("update profile failed", slog.Any("error", err))
		return "", fmt.Errorf("update profile: %w", err)
	}

	l.Info("profile updated", slog.String("username", id.Subject))
	return MsgProfileUpdated, nil
}

// GetProfile returns the caller's profile, or ErrNotFound when the user
// has none.
func (s *ProfileService) GetProfile(ctx context.Context, id jwtx.Identity) (domain.Profile, error) {
	u, err := resolveUser(ctx, s.Store.Users(), id)
	if err != nil {
		return domain.Profile{}, err
	}

	p, err := s.Store.Profiles().GetProfileByUserID(ctx, u.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Profile{}, ErrNotFound
		}
		slogx.FromContext(ctx).Error("get profile failed", slog.Any("error", err))
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// resolveUser finds the acting user by the user_id claim. The subject is
// consulted only for tokens that carry no user_id.
func resolveUser(ctx context.Context, users store.Users, id jwtx.Identity) (domain.User, error) {
	var (
		u   domain.User
		err error
	)
	switch {
	case id.UserID != "":
		u, err = users.GetUserByID(ctx, id.UserID)
	case id.Subject != "":
		u, err = users.GetUserByUsername(ctx, id.Subject)
	default:
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}
