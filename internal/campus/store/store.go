package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
)

var (
	ErrNotFound        = errors.New("store: not found")
	ErrAlreadyExists   = errors.New("store: already exists")
	ErrCapacityReached = errors.New("store: capacity reached")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement it and expose sub-repositories, so a Tx hands out the
// same repos bound to the transaction.
type Store interface {
	Accounts() Accounts
	Events() Events
	Registrations() Registrations
	Sessions() Sessions
	Images() Images
	SigningKeys() SigningKeys

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	// fn must only use tx: the sqlite driver holds a single connection, so
	// touching the outer Store inside fn deadlocks.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// CreateAccount inserts a new account with its pending OTP. A taken
	// email yields ErrAlreadyExists.
	CreateAccount(ctx context.Context, a domain.Account) error

	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail expects a normalised (lower-cased, trimmed) email.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// SetPendingOTP replaces the outstanding OTP of an unverified account
	// and resets its attempt count. ErrNotFound if the account is missing or
	// already verified.
	SetPendingOTP(ctx context.Context, accountID string, otp domain.OTP) error

	// ConsumeOTPAttempt counts one verification attempt against the code
	// with the given fingerprint. ErrNotFound when that code is no longer
	// outstanding or already has limit attempts.
	ConsumeOTPAttempt(ctx context.Context, accountID, codeHash string, limit int) error

	// MarkVerified flips verified and clears the OTP in one conditional
	// update, provided codeHash is still the outstanding code. ErrNotFound
	// otherwise, so a replaced code or a racing verification cannot succeed.
	MarkVerified(ctx context.Context, accountID, codeHash string) error

	// ListEventIDs returns the account roster.
	ListEventIDs(ctx context.Context, accountID string) ([]string, error)

	// AddEvent and RemoveEvent maintain the account roster. Both are
	// idempotent.
	AddEvent(ctx context.Context, accountID, eventID string) error
	RemoveEvent(ctx context.Context, accountID, eventID string) error

	IsEmpty(ctx context.Context) (bool, error)
}

type Events interface {
	CreateEvent(ctx context.Context, e domain.Event) error
	GetEvent(ctx context.Context, id string) (domain.Event, error)

	// ListEvents returns every event sorted by date ascending.
	ListEvents(ctx context.Context) ([]domain.Event, error)

	UpdateEvent(ctx context.Context, e domain.Event) error

	// DeleteEvent removes the event row. Callers clear registrations and
	// rosters first, in the same transaction.
	DeleteEvent(ctx context.Context, id string) error

	// LockEvent takes a row lock on the event for the rest of the
	// transaction. A no-op where the driver already serialises writers.
	LockEvent(ctx context.Context, id string) error

	// CountAttendees returns the roster size.
	CountAttendees(ctx context.Context, eventID string) (int, error)
	ListAttendees(ctx context.Context, eventID string) ([]domain.Attendee, error)

	// AddAttendee and RemoveAttendee maintain the event roster. Both are
	// idempotent.
	AddAttendee(ctx context.Context, eventID, accountID string) error
	RemoveAttendee(ctx context.Context, eventID, accountID string) error

	// ClearAttendees empties the event roster and removes the event from
	// every account roster.
	ClearAttendees(ctx context.Context, eventID string) error
}

type Registrations interface {
	// CreateRegistration inserts a registration. A second row for the same
	// (account, event) yields ErrAlreadyExists.
	CreateRegistration(ctx context.Context, r domain.Registration) error

	GetRegistration(ctx context.Context, id string) (domain.Registration, error)
	GetRegistrationFor(ctx context.Context, accountID, eventID string) (domain.Registration, error)

	// ListByAccount returns the account's registrations newest first.
	ListByAccount(ctx context.Context, accountID string) ([]domain.RegistrationWithEvent, error)

	// MarkAttended sets attended once. ErrNotFound if already attended.
	MarkAttended(ctx context.Context, id string, at time.Time) error

	DeleteRegistration(ctx context.Context, id string) error
	DeleteByEvent(ctx context.Context, eventID string) error
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSession returns ErrNotFound for unknown or expired sessions.
	GetSession(ctx context.Context, id string, now time.Time) (domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type Images interface {
	CreateImage(ctx context.Context, img domain.Image) error
	GetImage(ctx context.Context, id string) (domain.Image, error)
	DeleteImage(ctx context.Context, id string) error

	// DeleteOrphanedImages removes images created before cutoff that no
	// event references.
	DeleteOrphanedImages(ctx context.Context, cutoff time.Time) (int64, error)
}

type SigningKeys interface {
	CreateSigningKey(ctx context.Context, key domain.SigningKey) error

	// ListSigningKeys returns every key, oldest first.
	ListSigningKeys(ctx context.Context) ([]domain.SigningKey, error)
	RetireSigningKey(ctx context.Context, kid string, at time.Time) error
}

// MediaPrefix is how events reference stored images.
const MediaPrefix = "/media/"
