package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/aussiebroadwan/campus/internal/campus/store"
	"github.com/aussiebroadwan/campus/pkg/idx"
	"github.com/aussiebroadwan/campus/pkg/qrx"
	"github.com/aussiebroadwan/campus/pkg/slogx"
)

// EventInput carries the editable fields of an event. On update, empty
// strings and a zero capacity leave the current value alone.
type EventInput struct {
	Title       string
	Description string
	Date        string
	Time        string
	Venue       string
	Image       string // URL or data: URL
	MaxCapacity int
}

type EventService struct {
	Store store.Store
	Clock Clock
}

func (s *EventService) List(ctx context.Context) ([]domain.Event, error) {
	return s.Store.Events().ListEvents(ctx)
}

// Get returns the event with its roster.
func (s *EventService) Get(ctx context.Context, id string) (domain.EventDetail, error) {
	ev, err := s.event(ctx, s.Store, id)
	if err != nil {
		return domain.EventDetail{}, err
	}
	attendees, err := s.Store.Events().ListAttendees(ctx, id)
	if err != nil {
		return domain.EventDetail{}, err
	}
	return domain.EventDetail{Event: ev, Attendees: attendees}, nil
}

func (s *EventService) Create(ctx context.Context, auth AuthContext, in EventInput) (domain.Event, error) {
	l := slogx.FromContext(ctx)

	if !auth.IsAdmin() {
		return domain.Event{}, ErrAdminRequired
	}
	if err := in.validateCreate(); err != nil {
		return domain.Event{}, err
	}

	now := s.Clock.Now()
	ev := domain.Event{
		ID:          idx.NewAt(now).String(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
		Time:        strings.TrimSpace(in.Time),
		Venue:       strings.TrimSpace(in.Venue),
		OrganiserID: auth.AccountID,
		MaxCapacity: in.MaxCapacity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ev.MaxCapacity == 0 {
		ev.MaxCapacity = domain.DefaultCapacity
	}

	img, err := imageFromInput(in.Image, now)
	if err != nil {
		return domain.Event{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		ev.Image = in.Image
		if img != nil {
			if err := tx.Images().CreateImage(ctx, *img); err != nil {
				return err
			}
			ev.Image = store.MediaPrefix + img.ID
		}
		return tx.Events().CreateEvent(ctx, ev)
	})
	if err != nil {
		return domain.Event{}, err
	}

	l.Info("event created", slog.String("event_id", ev.ID), slog.String("title", ev.Title))
	return s.event(ctx, s.Store, ev.ID)
}

// Update applies the non-empty fields of in. Only the organiser may edit,
// and capacity cannot drop below the number already registered.
func (s *EventService) Update(ctx context.Context, auth AuthContext, id string, in EventInput) (domain.Event, error) {
	l := slogx.FromContext(ctx)

	if !auth.IsAdmin() {
		return domain.Event{}, ErrAdminRequired
	}
	if err := in.validateUpdate(); err != nil {
		return domain.Event{}, err
	}

	now := s.Clock.Now()
	img, err := imageFromInput(in.Image, now)
	if err != nil {
		return domain.Event{}, err
	}

	var released string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Events().LockEvent(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		ev, err := s.event(ctx, tx, id)
		if err != nil {
			return err
		}
		if ev.OrganiserID != auth.AccountID {
			return ErrForbidden
		}

		if v := strings.TrimSpace(in.Title); v != "" {
			ev.Title = v
		}
		if v := strings.TrimSpace(in.Description); v != "" {
			ev.Description = v
		}
		if in.Date != "" {
			ev.Date = in.Date
		}
		if v := strings.TrimSpace(in.Time); v != "" {
			ev.Time = v
		}
		if v := strings.TrimSpace(in.Venue); v != "" {
			ev.Venue = v
		}
		if in.MaxCapacity > 0 {
			count, err := tx.Events().CountAttendees(ctx, id)
			if err != nil {
				return err
			}
			if in.MaxCapacity < count {
				return fmt.Errorf("%w: capacity %d is below the %d already registered",
					ErrInvalidInput, in.MaxCapacity, count)
			}
			ev.MaxCapacity = in.MaxCapacity
		}

		old := ev.Image
		switch {
		case img != nil:
			if err := tx.Images().CreateImage(ctx, *img); err != nil {
				return err
			}
			ev.Image = store.MediaPrefix + img.ID
		case in.Image != "":
			ev.Image = in.Image
		}
		if ev.Image != old {
			released = old
		}

		ev.UpdatedAt = now
		return tx.Events().UpdateEvent(ctx, ev)
	})
	if err != nil {
		return domain.Event{}, err
	}

	s.releaseImage(ctx, released)
	l.Info("event updated", slog.String("event_id", id))
	return s.event(ctx, s.Store, id)
}

// Delete removes the event together with its registrations and rosters.
func (s *EventService) Delete(ctx context.Context, auth AuthContext, id string) error {
	l := slogx.FromContext(ctx)

	if !auth.IsAdmin() {
		return ErrAdminRequired
	}

	var image string
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		ev, err := s.event(ctx, tx, id)
		if err != nil {
			return err
		}
		if ev.OrganiserID != auth.AccountID {
			return ErrForbidden
		}
		image = ev.Image

		if err := tx.Registrations().DeleteByEvent(ctx, id); err != nil {
			return fmt.Errorf("delete registrations: %w", err)
		}
		if err := tx.Events().ClearAttendees(ctx, id); err != nil {
			return fmt.Errorf("clear rosters: %w", err)
		}
		return tx.Events().DeleteEvent(ctx, id)
	})
	if err != nil {
		return err
	}

	s.releaseImage(ctx, image)
	l.Info("event deleted", slog.String("event_id", id))
	return nil
}

// IsOrganiser reports whether the caller organises the event.
func (s *EventService) IsOrganiser(ctx context.Context, auth AuthContext, id string) (bool, error) {
	ev, err := s.event(ctx, s.Store, id)
	if err != nil {
		return false, err
	}
	return ev.OrganiserID == auth.AccountID, nil
}

// Image returns a stored event image.
func (s *EventService) Image(ctx context.Context, id string) (domain.Image, error) {
	img, err := s.Store.Images().GetImage(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Image{}, fmt.Errorf("image %s: %w", id, store.ErrNotFound)
	}
	return img, err
}

func (s *EventService) event(ctx context.Context, st store.Store, id string) (domain.Event, error) {
	ev, err := st.Events().GetEvent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Event{}, ErrEventNotFound
	}
	return ev, err
}

// releaseImage drops a stored image the event no longer points at. Failure
// only leaves an orphan for housekeeping.
func (s *EventService) releaseImage(ctx context.Context, ref string) {
	id, ok := strings.CutPrefix(ref, store.MediaPrefix)
	if !ok || id == "" {
		return
	}
	if err := s.Store.Images().DeleteImage(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		slogx.FromContext(ctx).Warn("failed to release event image",
			slog.String("image_id", id), slog.Any("err", err))
	}
}

func (in EventInput) validateCreate() error {
	required := []struct{ name, value string }{
		{"title", in.Title},
		{"description", in.Description},
		{"date", in.Date},
		{"time", in.Time},
		{"venue", in.Venue},
		{"image", in.Image},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, f.name)
		}
	}
	return in.validateUpdate()
}

func (in EventInput) validateUpdate() error {
	if in.Date != "" {
		if _, err := time.Parse(domain.DateLayout, in.Date); err != nil {
			return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
		}
	}
	if in.MaxCapacity < 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidInput)
	}

	limits := []struct {
		name, value string
		max         int
	}{
		{"title", in.Title, domain.MaxEventTitleLen},
		{"time", in.Time, domain.MaxEventTimeLen},
		{"venue", in.Venue, domain.MaxEventVenueLen},
	}
	for _, f := range limits {
		if domain.EncodedLen(strings.TrimSpace(f.value)) > f.max {
			return fmt.Errorf("%w: %s must be at most %d characters", ErrInvalidInput, f.name, f.max)
		}
	}
	return nil
}

// imageFromInput turns a data: URL into an Image to store. Anything else is
// kept as a plain URL and yields nil.
func imageFromInput(v string, now time.Time) (*domain.Image, error) {
	if !qrx.IsDataURL(v) {
		return nil, nil
	}
	mediaType, data, err := qrx.ParseDataURL(v)
	if err != nil {
		return nil, fmt.Errorf("%w: image: %w", ErrInvalidInput, err)
	}
	if !strings.HasPrefix(mediaType, "image/") || len(data) == 0 {
		return nil, fmt.Errorf("%w: image must be an image", ErrInvalidInput)
	}
	return &domain.Image{
		ID:          idx.NewAt(now).String(),
		ContentType: mediaType,
		Data:        data,
		CreatedAt:   now,
	}, nil
}
