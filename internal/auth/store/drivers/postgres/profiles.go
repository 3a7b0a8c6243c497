package postgres

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
		   FROM profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.FirstName, &p.LastName, &p.PlaceOfBirth, &dob, &p.UpdatedAt)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}

	if dob != "" {
		p.DateOfBirth, err = time.Parse(domain.DateLayout, dob)
		if err != nil {
			return domain.Profile{}, fmt.Errorf("postgres: profile %s: bad date_of_birth %q: %w", userID, dob, err)
		}
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (r *profilesRepo) UpsertProfile(ctx context.Context, p domain.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, first_name, last_name, place_of_birth, date_of_birth, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE SET
		     first_name     = EXCLUDED.first_name,
		     last_name      = EXCLUDED.last_name,
		     place_of_birth = EXCLUDED.place_of_birth,
		     date_of_birth  = EXCLUDED.date_of_birth,
		     updated_at     = EXCLUDED.updated_at`,
		p.UserID, p.FirstName, p.LastName, p.PlaceOfBirth, p.DateOfBirthString(), p.UpdatedAt.UTC(),
	)
	return mapConstraint(err)
}
