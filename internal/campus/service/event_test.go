package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/aussiebroadwan/campus/internal/campus/service"
	"github.com/aussiebroadwan/campus/internal/campus/store"
	"github.com/aussiebroadwan/campus/pkg/qrx"
	"github.com/stretchr/testify/require"
)

var pixel = qrx.EncodeDataURL("image/png", []byte("\x89PNG\r\n\x1a\nfake"))

func validInput() service.EventInput {
	return service.EventInput{
		Title:       "Career Fair",
		Description: "Meet employers",
		Date:        "2025-02-10",
		Time:        "11:00 AM - 6:00 PM",
		Venue:       "Sports Complex",
		Image:       "https://example.com/fair.jpg",
	}
}

func TestEventCreate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	admin := h.account(t, domain.RoleAdmin)
	student := h.account(t, domain.RoleStudent)

	_, err := h.events.Create(ctx, student, validInput())
	require.ErrorIs(t, err, service.ErrAdminRequired)

	ev, err := h.events.Create(ctx, admin, validInput())
	require.NoError(t, err)
	require.Equal(t, domain.DefaultCapacity, ev.MaxCapacity)
	require.Equal(t, admin.AccountID, ev.OrganiserID)
	require.NotEmpty(t, ev.OrganiserName)
}

func TestEventCreateValidation(t *testing.T) {
	h := newHarness(t)
	admin := h.account(t, domain.RoleAdmin)

	tests := []struct {
		name   string
		modify func(in *service.EventInput)
	}{
		{"missing title", func(in *service.EventInput) { in.Title = " " }},
		{"missing venue", func(in *service.EventInput) { in.Venue = "" }},
		{"missing image", func(in *service.EventInput) { in.Image = "" }},
		{"bad date", func(in *service.EventInput) { in.Date = "10/02/2025" }},
		{"negative capacity", func(in *service.EventInput) { in.MaxCapacity = -1 }},
		{"non image data url", func(in *service.EventInput) { in.Image = qrx.EncodeDataURL("text/plain", []byte("hi")) }},
		{"broken data url", func(in *service.EventInput) { in.Image = "data:image/png;base64,@@@" }},
		{"long title", func(in *service.EventInput) { in.Title = strings.Repeat("t", domain.MaxEventTitleLen+1) }},
		{"long venue", func(in *service.EventInput) { in.Venue = strings.Repeat("v", domain.MaxEventVenueLen+1) }},
		{"long escaped time", func(in *service.EventInput) { in.Time = strings.Repeat("<", domain.MaxEventTimeLen/6+1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.modify(&in)
			_, err := h.events.Create(context.Background(), admin, in)
			require.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}
}

func TestEventImageUpload(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.account(t, domain.RoleAdmin)

	in := validInput()
	in.Image = pixel
	ev, err := h.events.Create(ctx, admin, in)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ev.Image, store.MediaPrefix))

	firstID := strings.TrimPrefix(ev.Image, store.MediaPrefix)
	img, err := h.events.Image(ctx, firstID)
	require.NoError(t, err)
	require.Equal(t, "image/png", img.ContentType)

	// Replacing the image releases the old one.
	updated, err := h.events.Update(ctx, admin, ev.ID, service.EventInput{Image: pixel})
	require.NoError(t, err)
	require.NotEqual(t, ev.Image, updated.Image)

	_, err = h.events.Image(ctx, firstID)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, h.events.Delete(ctx, admin, ev.ID))
	_, err = h.events.Image(ctx, strings.TrimPrefix(updated.Image, store.MediaPrefix))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEventUpdate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	organiser := h.account(t, domain.RoleAdmin)
	otherAdmin := h.account(t, domain.RoleAdmin)
	ev := h.event(t, organiser, 3)

	_, err := h.events.Update(ctx, otherAdmin, ev.ID, service.EventInput{Title: "Hijacked"})
	require.ErrorIs(t, err, service.ErrForbidden)

	_, err = h.events.Update(ctx, organiser, "missing", service.EventInput{Title: "x"})
	require.ErrorIs(t, err, service.ErrEventNotFound)

	updated, err := h.events.Update(ctx, organiser, ev.ID, service.EventInput{Venue: "Hall B"})
	require.NoError(t, err)
	require.Equal(t, "Hall B", updated.Venue)
	require.Equal(t, ev.Title, updated.Title, "empty fields are left alone")

	for range 2 {
		_, err := h.registrations.Register(ctx, h.account(t, domain.RoleStudent), ev.ID)
		require.NoError(t, err)
	}

	_, err = h.events.Update(ctx, organiser, ev.ID, service.EventInput{MaxCapacity: 1})
	require.ErrorIs(t, err, service.ErrInvalidInput)

	updated, err = h.events.Update(ctx, organiser, ev.ID, service.EventInput{MaxCapacity: 2})
	require.NoError(t, err)
	require.Equal(t, 2, updated.MaxCapacity)
	require.True(t, updated.IsFull())
}

func TestEventGetAndIsOrganiser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	organiser := h.account(t, domain.RoleAdmin)
	student := h.account(t, domain.RoleStudent)
	ev := h.event(t, organiser, 3)

	_, err := h.registrations.Register(ctx, student, ev.ID)
	require.NoError(t, err)

	detail, err := h.events.Get(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, detail.Attendees, 1)
	require.Equal(t, student.AccountID, detail.Attendees[0].ID)
	require.Equal(t, 1, detail.RegisteredCount)

	_, err = h.events.Get(ctx, "missing")
	require.ErrorIs(t, err, service.ErrEventNotFound)

	yes, err := h.events.IsOrganiser(ctx, organiser, ev.ID)
	require.NoError(t, err)
	require.True(t, yes)

	no, err := h.events.IsOrganiser(ctx, student, ev.ID)
	require.NoError(t, err)
	require.False(t, no)
}

func TestEventDeleteCascades(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	organiser := h.account(t, domain.RoleAdmin)
	student := h.account(t, domain.RoleStudent)
	ev := h.event(t, organiser, 3)

	reg, err := h.registrations.Register(ctx, student, ev.ID)
	require.NoError(t, err)

	require.ErrorIs(t, h.events.Delete(ctx, student, ev.ID), service.ErrAdminRequired)
	require.ErrorIs(t, h.events.Delete(ctx, h.account(t, domain.RoleAdmin), ev.ID), service.ErrForbidden)

	require.NoError(t, h.events.Delete(ctx, organiser, ev.ID))

	_, err = h.store.Registrations().GetRegistration(ctx, reg.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	ids, err := h.store.Accounts().ListEventIDs(ctx, student.AccountID)
	require.NoError(t, err)
	require.Empty(t, ids)

	require.ErrorIs(t, h.events.Delete(ctx, organiser, ev.ID), service.ErrEventNotFound)

	events, err := h.events.List(ctx)
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestEventAtFieldLimitsStillIssuesTickets(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.account(t, domain.RoleAdmin)

	in := validInput()
	in.Title = strings.Repeat("t", domain.MaxEventTitleLen)
	in.Time = strings.Repeat("9", domain.MaxEventTimeLen)
	in.Venue = strings.Repeat("v", domain.MaxEventVenueLen)
	ev, err := h.events.Create(ctx, admin, in)
	require.NoError(t, err)

	_, err = h.events.Update(ctx, admin, ev.ID, service.EventInput{Title: in.Title + "!"})
	require.ErrorIs(t, err, service.ErrInvalidInput)

	acct, err := h.accounts.Register(ctx, service.RegisterInput{
		Name:     strings.Repeat("n", domain.MaxAccountNameLen),
		Email:    strings.Repeat("e", domain.MaxEmailLen-len("@college.edu")) + "@college.edu",
		Password: "secret1",
	})
	require.NoError(t, err)

	reg, err := h.registrations.Register(ctx, service.AuthContext{AccountID: acct.ID, Role: acct.Role}, ev.ID)
	require.NoError(t, err)
	require.NotEmpty(t, reg.Ticket)
}
