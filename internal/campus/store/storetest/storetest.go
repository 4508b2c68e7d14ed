// Package storetest holds behaviour tests every store driver must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/aussiebroadwan/campus/internal/campus/store"
	"github.com/aussiebroadwan/campus/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Run executes the suite. open must return a migrated, empty store.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("accounts", func(t *testing.T) { testAccounts(t, open(t)) })
	t.Run("events", func(t *testing.T) { testEvents(t, open(t)) })
	t.Run("registrations", func(t *testing.T) { testRegistrations(t, open(t)) })
	t.Run("sessions", func(t *testing.T) { testSessions(t, open(t)) })
	t.Run("images", func(t *testing.T) { testImages(t, open(t)) })
	t.Run("signing keys", func(t *testing.T) { testSigningKeys(t, open(t)) })
	t.Run("tx rollback", func(t *testing.T) { testRollback(t, open(t)) })
}

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// NewAccount returns a persisted-ready account with a unique email.
func NewAccount(role string) domain.Account {
	id := idx.New().String()
	return domain.Account{
		ID:           id,
		Name:         "User " + id[len(id)-4:],
		Email:        "u" + id + "@college.edu",
		PasswordHash: "hash",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewEvent returns an event organised by organiserID.
func NewEvent(organiserID, date string, capacity int) domain.Event {
	return domain.Event{
		ID:          idx.New().String(),
		Title:       "Event " + date,
		Description: "desc",
		Date:        date,
		Time:        "9:00 AM - 5:00 PM",
		Venue:       "Main Hall",
		Image:       "https://example.com/a.jpg",
		OrganiserID: organiserID,
		MaxCapacity: capacity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func testAccounts(t *testing.T, s store.Store) {
	ctx := context.Background()

	empty, err := s.Accounts().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	a := NewAccount(domain.RoleStudent)
	a.PendingOTP = &domain.OTP{CodeHash: "fp", ExpiresAt: now.Add(10 * time.Minute)}
	require.NoError(t, s.Accounts().CreateAccount(ctx, a))

	dup := NewAccount(domain.RoleStudent)
	dup.Email = a.Email
	require.ErrorIs(t, s.Accounts().CreateAccount(ctx, dup), store.ErrAlreadyExists)

	got, err := s.Accounts().GetAccountByEmail(ctx, a.Email)
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
	require.False(t, got.Verified)
	require.NotNil(t, got.PendingOTP)
	require.Equal(t, "fp", got.PendingOTP.CodeHash)
	require.True(t, got.PendingOTP.ExpiresAt.Equal(a.PendingOTP.ExpiresAt))

	_, err = s.Accounts().GetAccountByID(ctx, idx.New().String())
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Accounts().SetPendingOTP(ctx, a.ID, domain.OTP{CodeHash: "fp2", ExpiresAt: now.Add(time.Hour)}))
	got, err = s.Accounts().GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "fp2", got.PendingOTP.CodeHash)

	require.NoError(t, s.Accounts().ConsumeOTPAttempt(ctx, a.ID, "fp2", 2))
	require.NoError(t, s.Accounts().ConsumeOTPAttempt(ctx, a.ID, "fp2", 2))
	require.ErrorIs(t, s.Accounts().ConsumeOTPAttempt(ctx, a.ID, "fp2", 2), store.ErrNotFound)
	require.ErrorIs(t, s.Accounts().ConsumeOTPAttempt(ctx, a.ID, "stale", 5), store.ErrNotFound)
	got, err = s.Accounts().GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.PendingOTP.Attempts)

	require.NoError(t, s.Accounts().SetPendingOTP(ctx, a.ID, domain.OTP{CodeHash: "fp3", ExpiresAt: now.Add(time.Hour)}))
	got, err = s.Accounts().GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.Zero(t, got.PendingOTP.Attempts)

	require.ErrorIs(t, s.Accounts().MarkVerified(ctx, a.ID, "fp2"), store.ErrNotFound, "replaced code")
	require.NoError(t, s.Accounts().MarkVerified(ctx, a.ID, "fp3"))
	require.ErrorIs(t, s.Accounts().MarkVerified(ctx, a.ID, "fp3"), store.ErrNotFound)
	require.ErrorIs(t, s.Accounts().SetPendingOTP(ctx, a.ID, domain.OTP{CodeHash: "x", ExpiresAt: now}), store.ErrNotFound)

	got, err = s.Accounts().GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, got.Verified)
	require.Nil(t, got.PendingOTP)

	empty, err = s.Accounts().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func testEvents(t *testing.T, s store.Store) {
	ctx := context.Background()

	admin := NewAccount(domain.RoleAdmin)
	student := NewAccount(domain.RoleStudent)
	require.NoError(t, s.Accounts().CreateAccount(ctx, admin))
	require.NoError(t, s.Accounts().CreateAccount(ctx, student))

	later := NewEvent(admin.ID, "2025-06-01", 2)
	sooner := NewEvent(admin.ID, "2025-04-01", 2)
	require.NoError(t, s.Events().CreateEvent(ctx, later))
	require.NoError(t, s.Events().CreateEvent(ctx, sooner))

	list, err := s.Events().ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, sooner.ID, list[0].ID)
	require.Equal(t, later.ID, list[1].ID)

	// rosters are idempotent
	require.NoError(t, s.Events().AddAttendee(ctx, later.ID, student.ID))
	require.NoError(t, s.Events().AddAttendee(ctx, later.ID, student.ID))
	require.NoError(t, s.Accounts().AddEvent(ctx, student.ID, later.ID))
	require.NoError(t, s.Accounts().AddEvent(ctx, student.ID, later.ID))

	n, err := s.Events().CountAttendees(ctx, later.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := s.Events().GetEvent(ctx, later.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.RegisteredCount)

	attendees, err := s.Events().ListAttendees(ctx, later.ID)
	require.NoError(t, err)
	require.Equal(t, []domain.Attendee{{ID: student.ID, Name: student.Name, Email: student.Email}}, attendees)

	ids, err := s.Accounts().ListEventIDs(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, []string{later.ID}, ids)

	got.Title = "Renamed"
	got.MaxCapacity = 5
	got.UpdatedAt = now.Add(time.Hour)
	require.NoError(t, s.Events().UpdateEvent(ctx, got))
	got, err = s.Events().GetEvent(ctx, later.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Title)
	require.Equal(t, 5, got.MaxCapacity)

	require.NoError(t, s.Events().ClearAttendees(ctx, later.ID))
	n, err = s.Events().CountAttendees(ctx, later.ID)
	require.NoError(t, err)
	require.Zero(t, n)
	ids, err = s.Accounts().ListEventIDs(ctx, student.ID)
	require.NoError(t, err)
	require.Empty(t, ids)

	require.NoError(t, s.Events().DeleteEvent(ctx, later.ID))
	_, err = s.Events().GetEvent(ctx, later.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Events().DeleteEvent(ctx, later.ID), store.ErrNotFound)
}

func testRegistrations(t *testing.T, s store.Store) {
	ctx := context.Background()

	admin := NewAccount(domain.RoleAdmin)
	student := NewAccount(domain.RoleStudent)
	require.NoError(t, s.Accounts().CreateAccount(ctx, admin))
	require.NoError(t, s.Accounts().CreateAccount(ctx, student))

	first := NewEvent(admin.ID, "2025-04-01", 10)
	second := NewEvent(admin.ID, "2025-05-01", 10)
	require.NoError(t, s.Events().CreateEvent(ctx, first))
	require.NoError(t, s.Events().CreateEvent(ctx, second))

	r1 := domain.Registration{
		ID: idx.New().String(), AccountID: student.ID, EventID: first.ID,
		Ticket: "data:image/png;base64,AA==", TicketToken: "tok1", RegisteredAt: now,
	}
	r2 := domain.Registration{
		ID: idx.New().String(), AccountID: student.ID, EventID: second.ID,
		Ticket: "data:image/png;base64,AA==", TicketToken: "tok2", RegisteredAt: now.Add(time.Minute),
	}
	require.NoError(t, s.Registrations().CreateRegistration(ctx, r1))
	require.NoError(t, s.Registrations().CreateRegistration(ctx, r2))

	dup := r1
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.Registrations().CreateRegistration(ctx, dup), store.ErrAlreadyExists)

	got, err := s.Registrations().GetRegistrationFor(ctx, student.ID, first.ID)
	require.NoError(t, err)
	require.Equal(t, r1.ID, got.ID)
	require.False(t, got.Attended)
	require.Nil(t, got.AttendedAt)

	mine, err := s.Registrations().ListByAccount(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, r2.ID, mine[0].ID, "newest first")
	require.Equal(t, second.Title, mine[0].Event.Title)

	require.NoError(t, s.Registrations().MarkAttended(ctx, r1.ID, now.Add(time.Hour)))
	require.ErrorIs(t, s.Registrations().MarkAttended(ctx, r1.ID, now.Add(2*time.Hour)), store.ErrNotFound)
	got, err = s.Registrations().GetRegistration(ctx, r1.ID)
	require.NoError(t, err)
	require.True(t, got.Attended)
	require.NotNil(t, got.AttendedAt)
	require.True(t, got.AttendedAt.Equal(now.Add(time.Hour)))

	require.NoError(t, s.Registrations().DeleteRegistration(ctx, r1.ID))
	require.ErrorIs(t, s.Registrations().DeleteRegistration(ctx, r1.ID), store.ErrNotFound)

	require.NoError(t, s.Registrations().DeleteByEvent(ctx, second.ID))
	_, err = s.Registrations().GetRegistration(ctx, r2.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testSessions(t *testing.T, s store.Store) {
	ctx := context.Background()

	a := NewAccount(domain.RoleStudent)
	require.NoError(t, s.Accounts().CreateAccount(ctx, a))

	live := domain.Session{ID: "live", AccountID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role,
		CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	stale := live
	stale.ID = "stale"
	stale.ExpiresAt = now.Add(-time.Minute)
	require.NoError(t, s.Sessions().CreateSession(ctx, live))
	require.NoError(t, s.Sessions().CreateSession(ctx, stale))

	got, err := s.Sessions().GetSession(ctx, "live", now)
	require.NoError(t, err)
	require.Equal(t, a.ID, got.AccountID)

	_, err = s.Sessions().GetSession(ctx, "stale", now)
	require.ErrorIs(t, err, store.ErrNotFound)

	n, err := s.Sessions().DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	require.NoError(t, s.Sessions().DeleteSession(ctx, "live"))
	_, err = s.Sessions().GetSession(ctx, "live", now)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testImages(t *testing.T, s store.Store) {
	ctx := context.Background()

	admin := NewAccount(domain.RoleAdmin)
	require.NoError(t, s.Accounts().CreateAccount(ctx, admin))

	used := domain.Image{ID: idx.New().String(), ContentType: "image/png", Data: []byte{1, 2, 3}, CreatedAt: now}
	orphan := domain.Image{ID: idx.New().String(), ContentType: "image/jpeg", Data: []byte{4}, CreatedAt: now}
	fresh := domain.Image{ID: idx.New().String(), ContentType: "image/jpeg", Data: []byte{5}, CreatedAt: now.Add(2 * time.Hour)}
	for _, img := range []domain.Image{used, orphan, fresh} {
		require.NoError(t, s.Images().CreateImage(ctx, img))
	}

	e := NewEvent(admin.ID, "2025-04-01", 10)
	e.Image = store.MediaPrefix + used.ID
	require.NoError(t, s.Events().CreateEvent(ctx, e))

	got, err := s.Images().GetImage(ctx, used.ID)
	require.NoError(t, err)
	require.Equal(t, used.Data, got.Data)
	require.Equal(t, "image/png", got.ContentType)

	n, err := s.Images().DeleteOrphanedImages(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.Images().GetImage(ctx, orphan.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Images().GetImage(ctx, fresh.ID)
	require.NoError(t, err)

	require.NoError(t, s.Images().DeleteImage(ctx, fresh.ID))
	require.ErrorIs(t, s.Images().DeleteImage(ctx, fresh.ID), store.ErrNotFound)
}

func testSigningKeys(t *testing.T, s store.Store) {
	ctx := context.Background()

	older := domain.SigningKey{ID: idx.New().String(), Kid: "k1", Algorithm: "EdDSA", PrivateKeyEncrypted: []byte("a"), CreatedAt: now}
	newer := domain.SigningKey{ID: idx.New().String(), Kid: "k2", Algorithm: "EdDSA", PrivateKeyEncrypted: []byte("b"), CreatedAt: now.Add(time.Hour)}
	require.NoError(t, s.SigningKeys().CreateSigningKey(ctx, newer))
	require.NoError(t, s.SigningKeys().CreateSigningKey(ctx, older))
	require.ErrorIs(t, s.SigningKeys().CreateSigningKey(ctx, older), store.ErrAlreadyExists)

	keys, err := s.SigningKeys().ListSigningKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	require.Equal(t, "k1", keys[0].Kid)
	require.True(t, keys[0].IsActive())

	require.NoError(t, s.SigningKeys().RetireSigningKey(ctx, "k1", now.Add(2*time.Hour)))
	require.ErrorIs(t, s.SigningKeys().RetireSigningKey(ctx, "k1", now), store.ErrNotFound)

	adapter := store.NewKeyStoreAdapter(s)
	records, err := adapter.ListSigningKeys(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records[0].RetiredAt)
	require.Nil(t, records[1].RetiredAt)
	require.Equal(t, []byte("b"), records[1].PrivateKeyEncrypted)
}

func testRollback(t *testing.T, s store.Store) {
	ctx := context.Background()

	a := NewAccount(domain.RoleStudent)
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().CreateAccount(ctx, a); err != nil {
			return err
		}
		return store.ErrCapacityReached
	})
	require.ErrorIs(t, err, store.ErrCapacityReached)

	_, err = s.Accounts().GetAccountByID(ctx, a.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Accounts().CreateAccount(ctx, a)
	}))
	_, err = s.Accounts().GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
}
