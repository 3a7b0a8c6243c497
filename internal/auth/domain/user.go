package domain

import "time"

// RoleUser is the role given to every self-registered account.
const RoleUser = "USER"

// User is a credential record. PasswordHash is an encoded bcrypt or
// argon2id hash and is never empty once persisted.
type User struct {
	ID           string
	Username     string
	Email        string // optional; "" when not supplied
	PasswordHash string
	Role         string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
