package domain

import "time"

// DateLayout is the storage and wire format of Profile.DateOfBirth.
const DateLayout = "2006-01-02"

// Profile holds the personal details a user maintains about themselves.
// There is at most one per user.
type Profile struct {
	UserID       string
	FirstName    string
	LastName     string
	PlaceOfBirth string
	DateOfBirth  time.Time // zero when unset
	UpdatedAt    time.Time
}

// DateOfBirthString formats DateOfBirth, or returns "" when unset.
func (p Profile) DateOfBirthString() string {
	if p.DateOfBirth.IsZero() {
		return ""
	}
	return p.DateOfBirth.Format(DateLayout)
}
