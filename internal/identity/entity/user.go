package entity

import "time"

type User struct {
	ID            int64
	FirstName     string
	LastName      string
	Email         string
	Gender        Gender
	Country       string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type NewUser struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	Gender       Gender
	Country      string
	PasswordHash string
}

// UserCredential is what login and password change need to check a password.
type UserCredential struct {
	ID            int64
	Email         string
	PasswordHash  string
	EmailVerified bool
}

// VerificationToken is stored as an HMAC digest; the raw token only travels
// in the verification link.
type VerificationToken struct {
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
}

// ProfilePatch carries the fields to change; nil means keep.
type ProfilePatch struct {
	FirstName *string
	LastName  *string
	Gender    *Gender
	Country   *string
}

func (p ProfilePatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Gender == nil && p.Country == nil
}

type DirectoryFilter struct {
	ExcludeID int64
	Search    string
	Limit     int32
	Offset    int32
}

type DirectoryEntry struct {
	ID        int64
	FirstName string
	LastName  string
}
