package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/aussiebroadwan/campus/pkg/jwtx"
	"github.com/aussiebroadwan/campus/pkg/qrx"
)

// TicketKeys signs and verifies ticket tokens. *jwtx.KeyManager satisfies it.
type TicketKeys interface {
	Issuer() string
	Sign(claims jwtx.TicketClaims) (string, error)
	Verify(ctx context.Context, token string) (jwtx.TicketClaims, error)
}

// Ticket is a rendered registration ticket. Token is the signed JWS the QR
// code encodes.
type Ticket struct {
	Token   string
	PNG     []byte
	DataURL string
}

type TicketService struct {
	Keys  TicketKeys
	QR    *qrx.Options // nil means qrx.DefaultOptions
	Clock Clock
}

// Generate signs the payload and renders it as a QR code. Any failure is
// reported as ErrTokenGeneration.
func (s *TicketService) Generate(p domain.TicketPayload) (Ticket, error) {
	claims := jwtx.NewTicketClaims(s.Keys.Issuer(), s.Clock.Now(), claimsFromPayload(p))
	token, err := s.Keys.Sign(claims)
	if err != nil {
		return Ticket{}, fmt.Errorf("%w: sign: %w", ErrTokenGeneration, err)
	}

	opts := qrx.DefaultOptions
	if s.QR != nil {
		opts = *s.QR
	}
	png, err := qrx.PNG(token, opts)
	if err != nil {
		return Ticket{}, fmt.Errorf("%w: render: %w", ErrTokenGeneration, err)
	}

	return Ticket{
		Token:   token,
		PNG:     png,
		DataURL: qrx.EncodeDataURL("image/png", png),
	}, nil
}

// Decode verifies a ticket token and returns what it asserts.
func (s *TicketService) Decode(ctx context.Context, token string) (domain.TicketPayload, error) {
	claims, err := s.Keys.Verify(ctx, token)
	if err != nil {
		return domain.TicketPayload{}, fmt.Errorf("%w: %w", ErrInvalidTicket, err)
	}
	return payloadFromClaims(claims), nil
}

// ReadTicket extracts the payload without checking the signature. Display
// only.
func ReadTicket(token string) (domain.TicketPayload, error) {
	claims, err := jwtx.ParseUnverified(token)
	if err != nil {
		return domain.TicketPayload{}, fmt.Errorf("%w: %w", ErrInvalidTicket, err)
	}
	return payloadFromClaims(claims), nil
}

func claimsFromPayload(p domain.TicketPayload) jwtx.TicketClaims {
	return jwtx.TicketClaims{
		RegistrationID: p.RegistrationID,
		UserID:         p.UserID,
		UserName:       p.UserName,
		UserEmail:      p.UserEmail,
		EventID:        p.EventID,
		EventTitle:     p.EventTitle,
		EventDate:      p.EventDate,
		EventTime:      p.EventTime,
		EventVenue:     p.EventVenue,
		RegisteredAt:   p.RegisteredAt.UTC().Format(time.RFC3339),
	}
}

func payloadFromClaims(c jwtx.TicketClaims) domain.TicketPayload {
	p := domain.TicketPayload{
		RegistrationID: c.RegistrationID,
		UserID:         c.UserID,
		UserName:       c.UserName,
		UserEmail:      c.UserEmail,
		EventID:        c.EventID,
		EventTitle:     c.EventTitle,
		EventDate:      c.EventDate,
		EventTime:      c.EventTime,
		EventVenue:     c.EventVenue,
	}
	// A malformed registeredAt leaves the zero time; the ids are what matter.
	if t, err := time.Parse(time.RFC3339, c.RegisteredAt); err == nil {
		p.RegisteredAt = t
	}
	return p
}
