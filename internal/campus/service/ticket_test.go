package service_test

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/aussiebroadwan/campus/internal/campus/service"
	"github.com/aussiebroadwan/campus/pkg/jwtx"
	"github.com/aussiebroadwan/campus/pkg/qrx"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/require"
)

// scanTicket decodes a ticket data URL the way a door scanner would.
func scanTicket(t *testing.T, dataURL string) string {
	t.Helper()

	mediaType, raw, err := qrx.ParseDataURL(dataURL)
	require.NoError(t, err)
	require.Equal(t, "image/png", mediaType)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)
	res, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	require.NoError(t, err)
	return res.GetText()
}

func samplePayload() domain.TicketPayload {
	return domain.TicketPayload{
		RegistrationID: "01JH0000000000000000000000",
		UserID:         "01JH0000000000000000000001",
		UserName:       "Alex Student",
		UserEmail:      "alex@college.edu",
		EventID:        "01JH0000000000000000000002",
		EventTitle:     "Annual Hackathon",
		EventDate:      "2025-02-01",
		EventTime:      "8:00 AM - 8:00 PM",
		EventVenue:     "Innovation Hub",
		RegisteredAt:   time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestTicketGenerateAndDecode(t *testing.T) {
	h := newHarness(t)
	p := samplePayload()

	ticket, err := h.tickets.Generate(p)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ticket.DataURL, "data:image/png;base64,"))
	require.Equal(t, ticket.Token, scanTicket(t, ticket.DataURL))

	got, err := h.tickets.Decode(context.Background(), ticket.Token)
	require.NoError(t, err)
	require.Equal(t, p, got)

	claims, err := jwtx.ParseUnverified(ticket.Token)
	require.NoError(t, err)
	require.Equal(t, issuer, claims.Issuer)
	require.Equal(t, p.RegistrationID, claims.Subject)
	require.NotEmpty(t, claims.ID)
	require.Nil(t, claims.ExpiresAt)

	read, err := service.ReadTicket(ticket.Token)
	require.NoError(t, err)
	require.Equal(t, p, read)
}

func TestTicketDecodeRejectsForeignKey(t *testing.T) {
	h := newHarness(t)

	other, err := jwtx.NewEphemeralKeyManager(issuer)
	require.NoError(t, err)
	foreign := &service.TicketService{Keys: other}

	ticket, err := foreign.Generate(samplePayload())
	require.NoError(t, err)

	_, err = h.tickets.Decode(context.Background(), ticket.Token)
	require.ErrorIs(t, err, service.ErrInvalidTicket)

	_, err = h.tickets.Decode(context.Background(), "not.a.token")
	require.ErrorIs(t, err, service.ErrInvalidTicket)
}

func TestTicketOversizedPayload(t *testing.T) {
	h := newHarness(t)
	p := samplePayload()
	p.EventVenue = strings.Repeat("x", 4000)

	_, err := h.tickets.Generate(p)
	require.ErrorIs(t, err, service.ErrTokenGeneration)
}

// fill repeats unit as often as fits in limit JSON-encoded bytes.
func fill(unit string, limit int) string {
	return strings.Repeat(unit, limit/domain.EncodedLen(unit))
}

func TestTicketFitsAtFieldLimits(t *testing.T) {
	keys, err := jwtx.NewEphemeralKeyManager(strings.Repeat("i", domain.MaxTicketIssuerLen))
	require.NoError(t, err)
	tickets := &service.TicketService{Keys: keys}

	tests := []struct {
		name string
		unit string
	}{
		{"ascii", "x"},
		{"html escaped", "<"},
		{"multibyte", "é"},
		{"four byte runes", "🎟"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := samplePayload()
			p.UserName = fill(tt.unit, domain.MaxAccountNameLen)
			p.UserEmail = fill("e", domain.MaxEmailLen-len("@college.edu")) + "@college.edu"
			p.EventTitle = fill(tt.unit, domain.MaxEventTitleLen)
			p.EventTime = fill(tt.unit, domain.MaxEventTimeLen)
			p.EventVenue = fill(tt.unit, domain.MaxEventVenueLen)

			ticket, err := tickets.Generate(p)
			require.NoError(t, err)
			require.LessOrEqual(t, len(ticket.Token), 1273)
			require.Equal(t, ticket.Token, scanTicket(t, ticket.DataURL))
		})
	}
}
