package domain

import (
	"encoding/json"
	"time"
)

type Registration struct {
	ID           string
	AccountID    string
	EventID      string
	Ticket       string // PNG data URL of the QR code
	TicketToken  string // signed compact JWS the QR encodes
	RegisteredAt time.Time
	Attended     bool
	AttendedAt   *time.Time
}

// RegistrationWithEvent is a registration joined with its event, as listed
// on "my registrations".
type RegistrationWithEvent struct {
	Registration
	Event Event
}

// TicketPayload is what a ticket asserts about its holder.
type TicketPayload struct {
	RegistrationID string
	UserID         string
	UserName       string
	UserEmail      string
	EventID        string
	EventTitle     string
	EventDate      string
	EventTime      string
	EventVenue     string
	RegisteredAt   time.Time
}

// Text that ends up in a ticket is capped so the worst-case signed token
// still fits a level H QR code (1273 bytes in byte mode). Limits count
// JSON-encoded bytes, which is what the token carries.
const (
	MaxAccountNameLen  = 60
	MaxEmailLen        = 100
	MaxEventTitleLen   = 100
	MaxEventVenueLen   = 80
	MaxEventTimeLen    = 40
	MaxTicketIssuerLen = 32
)

// EncodedLen is the length of s written as a JSON string, without the
// quotes.
func EncodedLen(s string) int {
	b, _ := json.Marshal(s)
	return len(b) - 2
}
