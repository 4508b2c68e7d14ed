package domain

import "time"

// Roles an account can hold.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

type Account struct {
	ID           string
	Name         string
	Email        string // lower-cased, trimmed
	PasswordHash string // argon2id PHC string
	Role         string
	Verified     bool
	PendingOTP   *OTP // nil once verified
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the account may publish events.
func (a Account) IsAdmin() bool { return a.Role == RoleAdmin }

// OTP is an outstanding email verification code. Only the fingerprint of the
// code is kept.
type OTP struct {
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int // verification attempts made against this code
}

// Expired reports whether the code is past its expiry at now. A code is
// still good at exactly ExpiresAt.
func (o OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
