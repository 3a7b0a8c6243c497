package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/bni/bni/internal/auth/domain"
)

type profilesRepo struct {
	db dbtx
}

func (r *profilesRepo) GetProfileByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	var (
		p   domain.Profile
		dob string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, first_name, last_name, place_of_birth, date_of_birth, updated_at
		   FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.FirstName, &p.LastName, &p.PlaceOfBirth, &dob, &p.UpdatedAt)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}

	if dob != "" {
		p.DateOfBirth, err = time.Parse(domain.DateLayout, dob)
		if err != nil {
			return domain.Profile{}, fmt.Errorf("sqlite: profile %s: bad date_of_birth %q: %w", userID, dob, err)
		}
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (r *profilesRepo) UpsertProfile(ctx context.Context, p domain.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, first_name, last_name, place_of_birth, date_of_birth, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		     first_name     = excluded.first_name,
		     last_name      = excluded.last_name,
		     place_of_birth = excluded.place_of_birth,
		     date_of_birth  = excluded.date_of_birth,
		     updated_at     = excluded.updated_at`,
		p.UserID, p.FirstName, p.LastName, p.PlaceOfBirth, p.DateOfBirthString(), utc(p.UpdatedAt),
	)
	return mapConstraint(err)
}
