package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
)

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationNotFound = errors.New("registration not found")

	ErrForbidden     = errors.New("access denied")
	ErrAdminRequired = errors.New("admin access required")

	ErrDuplicateEmail        = errors.New("email already registered")
	ErrDuplicateRegistration = errors.New("already registered for this event")

	ErrInvalidOTP   = errors.New("invalid otp")
	ErrOTPExpired   = errors.New("otp expired")
	ErrOTPLocked    = errors.New("otp attempts exhausted")
	ErrEventFull    = errors.New("event is full")
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream marks failures of a dependency outside the store, such as
	// the mail server.
	ErrUpstream    = errors.New("upstream failure")
	ErrOTPDelivery = fmt.Errorf("%w: failed to send otp email", ErrUpstream)

	ErrTokenGeneration = errors.New("failed to generate ticket")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
	ErrAlreadyVerified    = errors.New("email already verified")

	ErrInvalidTicket    = errors.New("invalid ticket")
	ErrAlreadyCheckedIn = errors.New("already checked in")
)

// AuthContext identifies the caller of a service operation. The HTTP layer
// builds it from the session.
type AuthContext struct {
	AccountID string
	Role      string
}

func (a AuthContext) IsAdmin() bool { return a.Role == domain.RoleAdmin }

// Clock returns the current time. A nil Clock means time.Now in UTC.
type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
