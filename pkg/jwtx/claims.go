package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TicketClaims are the claims carried by an event ticket. The registered
// claims identify the issuer and registration; the rest is what a door
// scanner needs to show without a round trip.
type TicketClaims struct {
	jwt.RegisteredClaims

	RegistrationID string `json:"registrationId"`
	UserID         string `json:"userId"`
	UserName       string `json:"userName"`
	UserEmail      string `json:"userEmail"`
	EventID        string `json:"eventId"`
	EventTitle     string `json:"eventTitle"`
	EventDate      string `json:"eventDate"`
	EventTime      string `json:"eventTime"`
	EventVenue     string `json:"eventVenue"`
	RegisteredAt   string `json:"registeredAt"`
}

// NewTicketClaims stamps the registered claims onto a ticket. Tickets carry
// no expiry: they stay valid until the registration is cancelled.
func NewTicketClaims(issuer string, now time.Time, t TicketClaims) TicketClaims {
	t.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:   issuer,
		Subject:  t.RegistrationID,
		IssuedAt: jwt.NewNumericDate(now),
		ID:       NewJTI(),
	}
	return t
}

// NewJTI returns a random identifier for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *TicketClaims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry rejects tokens past exp or before nbf, when either is set.
func (c *TicketClaims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}

// ValidateSubject requires sub to name the registration the ticket was
// issued for.
func (c *TicketClaims) ValidateSubject() error {
	if c.Subject == "" || c.Subject != c.RegistrationID {
		return ErrInvalidClaim
	}
	return nil
}
