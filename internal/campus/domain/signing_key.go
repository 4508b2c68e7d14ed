package domain

import "time"

// SigningKey is a ticket signing key. The private key PEM is sealed with
// the master key; retired keys only verify.
type SigningKey struct {
	ID                  string
	Kid                 string
	Algorithm           string
	PrivateKeyEncrypted []byte
	CreatedAt           time.Time
	RetiredAt           *time.Time
}

func (k SigningKey) IsActive() bool { return k.RetiredAt == nil }
