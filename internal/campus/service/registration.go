package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/aussiebroadwan/campus/internal/campus/metrics"
	"github.com/aussiebroadwan/campus/internal/campus/notify"
	"github.com/aussiebroadwan/campus/internal/campus/store"
	"github.com/aussiebroadwan/campus/pkg/idx"
	"github.com/aussiebroadwan/campus/pkg/slogx"
)

// CapacityMode selects how hard the capacity limit is enforced.
type CapacityMode string

const (
	// CapacitySoft recounts the roster inside the write transaction without
	// locking. Concurrent transactions on postgres may overshoot briefly.
	CapacitySoft CapacityMode = "soft"

	// CapacityStrict locks the event row before recounting.
	CapacityStrict CapacityMode = "strict"
)

// ParseCapacityMode accepts "soft", "strict" or empty (soft).
func ParseCapacityMode(s string) (CapacityMode, error) {
	switch CapacityMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", CapacitySoft:
		return CapacitySoft, nil
	case CapacityStrict:
		return CapacityStrict, nil
	default:
		return "", fmt.Errorf("unknown capacity mode %q", s)
	}
}

// Enqueuer accepts background mail. *notify.Dispatcher satisfies it.
type Enqueuer interface {
	Enqueue(msg notify.Message) bool
}

type RegistrationService struct {
	Store    store.Store
	Tickets  *TicketService
	Mail     Enqueuer
	Metrics  *metrics.Metrics
	Capacity CapacityMode
	Clock    Clock
}

// Register signs the caller up for an event. The ticket is rendered before
// anything is written, and the registration and both rosters are written in
// one transaction. The confirmation email is queued after commit.
func (s *RegistrationService) Register(ctx context.Context, auth AuthContext, eventID string) (domain.Registration, error) {
	l := slogx.FromContext(ctx)
	start := time.Now()

	reg, err := s.register(ctx, auth, eventID)
	switch {
	case err == nil:
		s.Metrics.ObserveRegistration(metrics.ResultSuccess, start)
	case errors.Is(err, ErrDuplicateRegistration):
		s.Metrics.ObserveRegistration(metrics.ResultDuplicate, start)
	case errors.Is(err, ErrEventFull):
		s.Metrics.ObserveRegistration(metrics.ResultFull, start)
	default:
		s.Metrics.ObserveRegistration(metrics.ResultError, start)
	}
	if err != nil {
		return domain.Registration{}, err
	}

	l.Info("registered for event",
		slog.String("registration_id", reg.ID),
		slog.String("event_id", eventID))
	return reg, nil
}

func (s *RegistrationService) register(ctx context.Context, auth AuthContext, eventID string) (domain.Registration, error) {
	ev, err := s.Store.Events().GetEvent(ctx, eventID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Registration{}, ErrEventNotFound
	}
	if err != nil {
		return domain.Registration{}, err
	}

	_, err = s.Store.Registrations().GetRegistrationFor(ctx, auth.AccountID, eventID)
	switch {
	case err == nil:
		return domain.Registration{}, ErrDuplicateRegistration
	case !errors.Is(err, store.ErrNotFound):
		return domain.Registration{}, err
	}

	if ev.IsFull() {
		return domain.Registration{}, ErrEventFull
	}

	acct, err := s.Store.Accounts().GetAccountByID(ctx, auth.AccountID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Registration{}, ErrAccountNotFound
	}
	if err != nil {
		return domain.Registration{}, err
	}

	now := s.Clock.Now()
	reg := domain.Registration{
		ID:           idx.NewAt(now).String(),
		AccountID:    acct.ID,
		EventID:      ev.ID,
		RegisteredAt: now,
	}
	ticket, err := s.Tickets.Generate(domain.TicketPayload{
		RegistrationID: reg.ID,
		UserID:         acct.ID,
		UserName:       acct.Name,
		UserEmail:      acct.Email,
		EventID:        ev.ID,
		EventTitle:     ev.Title,
		EventDate:      ev.Date,
		EventTime:      ev.Time,
		EventVenue:     ev.Venue,
		RegisteredAt:   now,
	})
	if err != nil {
		slogx.FromContext(ctx).Error("failed to generate ticket",
			slog.String("event_id", ev.ID), slog.Any("err", err))
		return domain.Registration{}, err
	}
	reg.Ticket = ticket.DataURL
	reg.TicketToken = ticket.Token

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if s.Capacity == CapacityStrict {
			if err := tx.Events().LockEvent(ctx, ev.ID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return ErrEventNotFound
				}
				return err
			}
		}
		count, err := tx.Events().CountAttendees(ctx, ev.ID)
		if err != nil {
			return err
		}
		if count >= ev.MaxCapacity {
			return store.ErrCapacityReached
		}

		if err := tx.Registrations().CreateRegistration(ctx, reg); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrDuplicateRegistration
			}
			return err
		}
		if err := tx.Events().AddAttendee(ctx, ev.ID, acct.ID); err != nil {
			return fmt.Errorf("add to event roster: %w", err)
		}
		if err := tx.Accounts().AddEvent(ctx, acct.ID, ev.ID); err != nil {
			return fmt.Errorf("add to account roster: %w", err)
		}
		return nil
	})
	if errors.Is(err, store.ErrCapacityReached) {
		return domain.Registration{}, ErrEventFull
	}
	if err != nil {
		return domain.Registration{}, err
	}

	s.queueConfirmation(ctx, acct, ev, ticket)
	return reg, nil
}

// queueConfirmation hands the email to the dispatcher. Nothing here can fail
// the registration.
func (s *RegistrationService) queueConfirmation(ctx context.Context, acct domain.Account, ev domain.Event, t Ticket) {
	if s.Mail == nil {
		return
	}
	msg, err := notify.ConfirmationEmail(notify.Confirmation{
		To:        acct.Email,
		Name:      acct.Name,
		Title:     ev.Title,
		Date:      ev.Date,
		Time:      ev.Time,
		Venue:     ev.Venue,
		TicketPNG: t.PNG,
	})
	if err != nil {
		slogx.FromContext(ctx).Error("failed to render confirmation email", slog.Any("err", err))
		return
	}
	s.Mail.Enqueue(msg)
}

// Cancel removes a registration the caller owns. Each step is attempted even
// if an earlier one fails; only a failure to delete the registration itself
// is returned, and retrying is safe.
func (s *RegistrationService) Cancel(ctx context.Context, auth AuthContext, id string) error {
	l := slogx.FromContext(ctx)

	reg, err := s.owned(ctx, auth, id)
	if err != nil {
		return err
	}

	if err := s.Store.Events().RemoveAttendee(ctx, reg.EventID, reg.AccountID); err != nil {
		l.Error("failed to remove from event roster",
			slog.String("registration_id", id), slog.Any("err", err))
	}
	if err := s.Store.Accounts().RemoveEvent(ctx, reg.AccountID, reg.EventID); err != nil {
		l.Error("failed to remove from account roster",
			slog.String("registration_id", id), slog.Any("err", err))
	}
	if err := s.Store.Registrations().DeleteRegistration(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("delete registration: %w", err)
	}

	s.Metrics.IncrementCancellation()
	l.Info("registration cancelled",
		slog.String("registration_id", id),
		slog.String("event_id", reg.EventID))
	return nil
}

// ListMine returns the caller's registrations, newest first.
func (s *RegistrationService) ListMine(ctx context.Context, auth AuthContext) ([]domain.RegistrationWithEvent, error) {
	return s.Store.Registrations().ListByAccount(ctx, auth.AccountID)
}

// Get returns one of the caller's registrations with its event.
func (s *RegistrationService) Get(ctx context.Context, auth AuthContext, id string) (domain.RegistrationWithEvent, error) {
	reg, err := s.owned(ctx, auth, id)
	if err != nil {
		return domain.RegistrationWithEvent{}, err
	}
	ev, err := s.Store.Events().GetEvent(ctx, reg.EventID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.RegistrationWithEvent{}, err
	}
	return domain.RegistrationWithEvent{Registration: reg, Event: ev}, nil
}

// Check reports whether the caller is registered for the event. The
// registration is nil when not.
func (s *RegistrationService) Check(ctx context.Context, auth AuthContext, eventID string) (*domain.Registration, error) {
	reg, err := s.Store.Registrations().GetRegistrationFor(ctx, auth.AccountID, eventID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// CheckIn marks a ticket holder as attended. Only the organiser of the
// ticket's event may scan it.
func (s *RegistrationService) CheckIn(ctx context.Context, auth AuthContext, token string) (domain.RegistrationWithEvent, error) {
	l := slogx.FromContext(ctx)

	if !auth.IsAdmin() {
		return domain.RegistrationWithEvent{}, ErrAdminRequired
	}

	payload, err := s.Tickets.Decode(ctx, strings.TrimSpace(token))
	if err != nil {
		l.Warn("rejected ticket", slog.Any("err", err))
		return domain.RegistrationWithEvent{}, err
	}

	reg, err := s.Store.Registrations().GetRegistration(ctx, payload.RegistrationID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.RegistrationWithEvent{}, ErrRegistrationNotFound
	}
	if err != nil {
		return domain.RegistrationWithEvent{}, err
	}
	// A reissued row under the same id must still match the ticket.
	if reg.EventID != payload.EventID || reg.AccountID != payload.UserID {
		return domain.RegistrationWithEvent{}, ErrInvalidTicket
	}

	ev, err := s.Store.Events().GetEvent(ctx, reg.EventID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.RegistrationWithEvent{}, ErrEventNotFound
	}
	if err != nil {
		return domain.RegistrationWithEvent{}, err
	}
	if ev.OrganiserID != auth.AccountID {
		return domain.RegistrationWithEvent{}, ErrForbidden
	}

	now := s.Clock.Now()
	if err := s.Store.Registrations().MarkAttended(ctx, reg.ID, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.RegistrationWithEvent{}, ErrAlreadyCheckedIn
		}
		return domain.RegistrationWithEvent{}, err
	}
	reg.Attended = true
	reg.AttendedAt = &now

	s.Metrics.IncrementCheckIn()
	l.Info("checked in",
		slog.String("registration_id", reg.ID),
		slog.String("event_id", ev.ID))
	return domain.RegistrationWithEvent{Registration: reg, Event: ev}, nil
}

func (s *RegistrationService) owned(ctx context.Context, auth AuthContext, id string) (domain.Registration, error) {
	reg, err := s.Store.Registrations().GetRegistration(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Registration{}, ErrRegistrationNotFound
	}
	if err != nil {
		return domain.Registration{}, err
	}
	if reg.AccountID != auth.AccountID {
		return domain.Registration{}, ErrForbidden
	}
	return reg, nil
}
